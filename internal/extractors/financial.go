package extractors

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// financialPattern binds a metric type to the phrasing that introduces
// its amount.
type financialPattern struct {
	metricType domain.MetricType
	re         *regexp.Regexp
	confidence float64
}

// amount matches "QAR 5,000,000", "QAR 7.5 million", "$50,000" and
// similar, capturing the number and an optional magnitude suffix.
const amount = `(?:QAR|QR|USD|US\$|\$|EUR|€|GBP|£)\s*([\d,]*\d(?:\.\d+)?)\s*(million|billion|thousand|[mkb])?\b`

var financialPatterns = []financialPattern{
	{
		metricType: domain.MetricCapital,
		re:         regexp.MustCompile(`(?i)(?:paid.up|share|authorized)\s+capital[^.\n]*?` + amount),
		confidence: 0.9,
	},
	{
		metricType: domain.MetricTransactionCap,
		re:         regexp.MustCompile(`(?i)(?:maximum|up to|limit of|cap(?:ped)?\s+(?:of|at))[^.\n]*?` + amount),
		confidence: 0.8,
	},
	{
		metricType: domain.MetricRevenue,
		re:         regexp.MustCompile(`(?i)(?:revenue|turnover|income)[^.\n]*?` + amount),
		confidence: 0.6,
	},
	{
		metricType: domain.MetricFee,
		re:         regexp.MustCompile(`(?i)(?:fee|commission|charge)[^.\n]*?` + amount),
		confidence: 0.5,
	},
}

var currencyHints = []struct {
	code    string
	markers []string
}{
	{"USD", []string{"$", "USD", "US$"}},
	{"EUR", []string{"€", "EUR"}},
	{"GBP", []string{"£", "GBP"}},
	{"QAR", []string{"QAR", "QR"}},
}

// FinancialExtractor extracts monetary figures from document text.
type FinancialExtractor struct{}

// NewFinancialExtractor creates a financial metrics extractor.
func NewFinancialExtractor() *FinancialExtractor {
	return &FinancialExtractor{}
}

// Extract returns all monetary figures found in text. Each match keeps
// its surrounding phrase as context for evidence display.
func (e *FinancialExtractor) Extract(text string) []domain.FinancialMetric {
	var metrics []domain.FinancialMetric
	for _, pat := range financialPatterns {
		for _, m := range pat.re.FindAllStringSubmatch(text, -1) {
			value, ok := parseAmount(m[1], m[2])
			if !ok {
				continue
			}
			metrics = append(metrics, domain.FinancialMetric{
				Type:       pat.metricType,
				Value:      value,
				Currency:   detectCurrency(m[0]),
				Context:    strings.TrimSpace(m[0]),
				Confidence: pat.confidence,
			})
		}
	}
	return metrics
}

// parseAmount converts a captured number and magnitude suffix into a
// value.
func parseAmount(number, magnitude string) (float64, bool) {
	number = strings.ReplaceAll(number, ",", "")
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToLower(magnitude) {
	case "thousand", "k":
		value *= 1_000
	case "million", "m":
		value *= 1_000_000
	case "billion", "b":
		value *= 1_000_000_000
	}
	return value, true
}

// detectCurrency picks the currency code from the matched phrase.
// QAR is the default when no marker is recognised.
func detectCurrency(phrase string) string {
	for _, hint := range currencyHints {
		for _, marker := range hint.markers {
			if strings.Contains(phrase, marker) {
				return hint.code
			}
		}
	}
	return "QAR"
}
