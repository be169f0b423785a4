package extractors

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/regready/internal/core/domain"
)

var providerPatterns = []struct {
	provider string
	re       *regexp.Regexp
}{
	{"aws", regexp.MustCompile(`(?i)\baws\b|amazon web services`)},
	{"azure", regexp.MustCompile(`(?i)\bazure\b`)},
	{"gcp", regexp.MustCompile(`(?i)\bgcp\b|google cloud`)},
}

// locationRe captures the whole hosting phrase, e.g.
// "AWS regions in Ireland and Singapore".
var locationRe = regexp.MustCompile(`(?i)(?:hosted|stored|located|deployed)\s+(?:in|on|across)\s+([^\n,.;]+)`)

// DataStorageExtractor extracts the hosting arrangement from text.
type DataStorageExtractor struct{}

// NewDataStorageExtractor creates a data storage extractor.
func NewDataStorageExtractor() *DataStorageExtractor {
	return &DataStorageExtractor{}
}

// Extract returns the documented storage arrangement, or nil when the
// text never mentions one.
func (e *DataStorageExtractor) Extract(text string) *domain.DataStorage {
	var storage domain.DataStorage

	for _, pat := range providerPatterns {
		if pat.re.MatchString(text) {
			storage.Provider = pat.provider
			break
		}
	}

	if m := locationRe.FindStringSubmatch(text); m != nil {
		storage.Location = strings.TrimSpace(m[1])
	}

	if storage.Provider == "" && storage.Location == "" {
		return nil
	}
	return &storage
}

var policyPatterns = []struct {
	policy string
	re     *regexp.Regexp
}{
	{"aml-policy", regexp.MustCompile(`(?i)anti.money laundering|\baml\b`)},
	{"kyc-policy", regexp.MustCompile(`(?i)know your customer|\bkyc\b`)},
	{"data-privacy-policy", regexp.MustCompile(`(?i)data privacy|data protection`)},
}

// ExtractPolicies returns the compliance policies mentioned in text.
func ExtractPolicies(text string) []string {
	var policies []string
	for _, pat := range policyPatterns {
		if pat.re.MatchString(text) {
			policies = append(policies, pat.policy)
		}
	}
	return policies
}
