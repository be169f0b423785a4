package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/logger"
)

// Classifier turns extracted entities and retained mappings into
// classified gaps. Classification is fully deterministic for fixed
// inputs: rule order is fixed and semantic candidates are processed in
// article order.
type Classifier struct {
	rules           []domain.ClassificationRule
	riskTable       domain.RiskTable
	scorer          driven.EntailmentScorer
	confidenceFloor float64
}

// NewClassifier creates a gap classifier. Rules are validated up
// front; a malformed rule is a configuration fault.
func NewClassifier(
	rules []domain.ClassificationRule,
	riskTable domain.RiskTable,
	scorer driven.EntailmentScorer,
	confidenceFloor float64,
) (*Classifier, error) {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}
	return &Classifier{
		rules:           rules,
		riskTable:       riskTable,
		scorer:          scorer,
		confidenceFloor: confidenceFloor,
	}, nil
}

// Classification is the full outcome of one classification pass.
type Classification struct {
	// Gaps are the detected deficiencies in deterministic order.
	Gaps []domain.Gap

	// Advisories are near-threshold observations without a violation.
	Advisories []domain.Advisory

	// ReviewReasons lists semantic candidates that scored below the
	// confidence floor and must go to the review gate.
	ReviewReasons []string
}

// Classify runs the structured rules against the extracted entities
// and the semantic check against every mapped article no structured
// rule covers.
func (c *Classifier) Classify(
	ctx context.Context,
	runID string,
	entities domain.DocumentEntities,
	mappings []domain.Mapping,
	snapshot *CorpusSnapshot,
) (*Classification, error) {
	logger.Section("Gap Classification")

	result := &Classification{}
	structuredRefs := make(map[string]struct{}, len(c.rules))

	for _, rule := range c.rules {
		if rule.Kind != domain.RuleStructured {
			continue
		}
		structuredRefs[rule.ArticleRef] = struct{}{}
		c.applyStructured(runID, rule, entities, snapshot, result)
	}
	logger.Debug("Structured pass: %d gaps, %d advisories", len(result.Gaps), len(result.Advisories))

	if err := c.applySemantic(ctx, runID, mappings, snapshot, structuredRefs, result); err != nil {
		return nil, err
	}

	sort.Slice(result.Gaps, func(i, j int) bool {
		a, b := result.Gaps[i], result.Gaps[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.ArticleRef != b.ArticleRef {
			return a.ArticleRef < b.ArticleRef
		}
		return a.Origin < b.Origin
	})
	sort.Slice(result.Advisories, func(i, j int) bool {
		return result.Advisories[i].ArticleRef < result.Advisories[j].ArticleRef
	})
	sort.Strings(result.ReviewReasons)

	logger.Info("Classification: %d gaps, %d advisories, %d review candidates",
		len(result.Gaps), len(result.Advisories), len(result.ReviewReasons))
	return result, nil
}

// applyStructured evaluates one structured rule against the entities.
func (c *Classifier) applyStructured(
	runID string,
	rule domain.ClassificationRule,
	entities domain.DocumentEntities,
	snapshot *CorpusSnapshot,
	result *Classification,
) {
	check := rule.Structured
	citation := citationFor(snapshot, rule.ArticleRef)

	switch check.Comparator {
	case domain.CompareMin:
		value, ok := extractedValue(entities, check.Field)
		if !ok || value >= check.Threshold {
			return
		}
		impact := fmt.Sprintf("%s QAR %s is QAR %s below the QAR %s minimum",
			check.Field, formatAmount(value),
			formatAmount(check.Threshold-value), formatAmount(check.Threshold))
		result.Gaps = append(result.Gaps, c.structuredGap(runID, rule, citation, impact))

	case domain.CompareMax:
		value, ok := extractedValue(entities, check.Field)
		if !ok {
			return
		}
		if value > check.Threshold {
			impact := fmt.Sprintf("%s QAR %s exceeds the QAR %s limit",
				check.Field, formatAmount(value), formatAmount(check.Threshold))
			result.Gaps = append(result.Gaps, c.structuredGap(runID, rule, citation, impact))
			return
		}
		if check.AdvisoryFraction > 0 && value >= check.Threshold*check.AdvisoryFraction {
			result.Advisories = append(result.Advisories, domain.Advisory{
				ID:         advisoryID(runID, rule.ArticleRef),
				Category:   rule.Category,
				ArticleRef: citation,
				Description: fmt.Sprintf("%s QAR %s approaches the QAR %s threshold; %s",
					check.Field, formatAmount(value), formatAmount(check.Threshold),
					strings.ToLower(rule.Title)),
			})
		}

	case domain.CompareJurisdiction:
		if entities.DataStorage == nil || entities.DataStorage.Location == "" {
			return
		}
		outside := jurisdictionsOutside(entities.DataStorage.Location, check.AllowedJurisdictions)
		if len(outside) == 0 {
			return
		}
		impact := fmt.Sprintf("data stored in %s (%s)",
			strings.Join(outside, ", "), entities.DataStorage.Location)
		result.Gaps = append(result.Gaps, c.structuredGap(runID, rule, citation, impact))

	case domain.CompareRequired:
		if hasRequiredField(entities, check.Field) {
			return
		}
		impact := fmt.Sprintf("%s not documented in the submitted set", check.Field)
		result.Gaps = append(result.Gaps, c.structuredGap(runID, rule, citation, impact))
	}
}

// applySemantic runs the entailment check over the best mapping of each
// article not covered by a structured rule.
func (c *Classifier) applySemantic(
	ctx context.Context,
	runID string,
	mappings []domain.Mapping,
	snapshot *CorpusSnapshot,
	structuredRefs map[string]struct{},
	result *Classification,
) error {
	if snapshot == nil {
		return nil
	}

	// Keep the strongest statement per article.
	best := make(map[string]domain.Mapping)
	for _, mapping := range mappings {
		current, ok := best[mapping.ArticleID]
		if !ok || mapping.SimilarityScore > current.SimilarityScore ||
			(mapping.SimilarityScore == current.SimilarityScore && mapping.StartupChunkID < current.StartupChunkID) {
			best[mapping.ArticleID] = mapping
		}
	}

	articleIDs := make([]string, 0, len(best))
	for id := range best {
		articleIDs = append(articleIDs, id)
	}
	sort.Slice(articleIDs, func(i, j int) bool {
		return snapshot.Articles[articleIDs[i]].ArticleRef < snapshot.Articles[articleIDs[j]].ArticleRef
	})

	for _, articleID := range articleIDs {
		article, ok := snapshot.Articles[articleID]
		if !ok {
			continue
		}
		if _, covered := structuredRefs[article.ArticleRef]; covered {
			continue
		}

		mapping := best[articleID]
		score, err := c.scorer.Score(ctx, mapping.EvidenceSnippet, article.Text)
		if err != nil {
			return fmt.Errorf("scoring article %s: %w", article.Citation(), err)
		}

		if score.Confidence < c.confidenceFloor {
			result.ReviewReasons = append(result.ReviewReasons, fmt.Sprintf(
				"semantic check for %s scored confidence %.2f below floor %.2f",
				article.Citation(), score.Confidence, c.confidenceFloor))
			continue
		}
		if score.Entailed {
			continue
		}

		result.Gaps = append(result.Gaps, domain.Gap{
			ID:          gapID(runID, article.ArticleRef, article.Category),
			Title:       "Obligation not addressed: " + article.Citation(),
			Description: firstSentence(article.Text),
			RiskLevel:   c.riskTable.Level(article.Category),
			ArticleRef:  article.Citation(),
			Category:    article.Category,
			ImpactText:  fmt.Sprintf("closest statement (page %d): %q", mapping.PageNumber, snippet(mapping.EvidenceSnippet, 160)),
			Origin:      domain.GapOriginSemantic,
		})
	}
	return nil
}

// structuredGap builds the gap a tripped structured rule raises.
func (c *Classifier) structuredGap(runID string, rule domain.ClassificationRule, citation, impact string) domain.Gap {
	return domain.Gap{
		ID:          gapID(runID, rule.ArticleRef, rule.Category),
		Title:       rule.Title,
		Description: rule.Description,
		RiskLevel:   rule.Risk(c.riskTable),
		ArticleRef:  citation,
		Category:    rule.Category,
		ImpactText:  impact,
		Origin:      domain.GapOriginStructured,
	}
}

// citationFor resolves a bare article reference to its full citation
// through the corpus, falling back to the bare reference when the
// article is not present in the loaded revision.
func citationFor(snapshot *CorpusSnapshot, articleRef string) string {
	if snapshot == nil {
		return articleRef
	}
	for _, article := range snapshot.Articles {
		if article.ArticleRef == articleRef {
			return article.Citation()
		}
	}
	return articleRef
}

// extractedValue finds the relevant financial metric for a field,
// keeping the highest-confidence figure when several were extracted.
func extractedValue(entities domain.DocumentEntities, field domain.EntityField) (float64, bool) {
	var want domain.MetricType
	switch field {
	case domain.FieldPaidUpCapital:
		want = domain.MetricCapital
	case domain.FieldTransactionCap:
		want = domain.MetricTransactionCap
	default:
		return 0, false
	}

	var value float64
	var confidence float64
	found := false
	for _, metric := range entities.Financials {
		if metric.Type != want {
			continue
		}
		if !found || metric.Confidence > confidence {
			value = metric.Value
			confidence = metric.Confidence
			found = true
		}
	}
	return value, found
}

// hasRequiredField reports whether a required structured fact is
// documented.
func hasRequiredField(entities domain.DocumentEntities, field domain.EntityField) bool {
	switch field {
	case domain.FieldComplianceOfficer:
		return entities.Corporate.HasRole(domain.RoleComplianceOfficer)
	case domain.FieldDataStorageLocation:
		return entities.DataStorage != nil && entities.DataStorage.Location != ""
	default:
		return false
	}
}

// knownCountries is the country vocabulary for the jurisdiction check.
var knownCountries = []string{
	"qatar", "united arab emirates", "saudi arabia", "bahrain", "kuwait",
	"oman", "jordan", "lebanon", "egypt", "turkey", "israel",
	"united states", "canada", "mexico", "brazil", "argentina",
	"united kingdom", "ireland", "france", "germany", "netherlands",
	"belgium", "luxembourg", "switzerland", "austria", "spain",
	"portugal", "italy", "greece", "poland", "czech republic",
	"sweden", "norway", "denmark", "finland", "iceland", "estonia",
	"russia", "india", "pakistan", "china", "japan", "south korea",
	"singapore", "malaysia", "indonesia", "thailand", "vietnam",
	"philippines", "australia", "new zealand", "south africa",
	"nigeria", "kenya", "morocco", "tunisia",
}

// jurisdictionsOutside returns the countries a location phrase names
// that are not on the whitelist, in detection-vocabulary order.
func jurisdictionsOutside(location string, allowed []string) []string {
	lower := strings.ToLower(location)
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[strings.ToLower(a)] = struct{}{}
	}

	var outside []string
	for _, country := range knownCountries {
		if !strings.Contains(lower, country) {
			continue
		}
		if _, ok := allowedSet[country]; ok {
			continue
		}
		outside = append(outside, country)
	}
	return outside
}

// gapID derives the deterministic gap identifier.
func gapID(runID, articleRef string, category domain.Category) string {
	name := runID + "/" + articleRef + "/" + string(category)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// advisoryID derives the deterministic advisory identifier.
func advisoryID(runID, articleRef string) string {
	name := runID + "/" + articleRef + "/advisory"
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// formatAmount renders a monetary value with thousands separators.
func formatAmount(value float64) string {
	whole := strconv.FormatFloat(value, 'f', 0, 64)
	negative := strings.HasPrefix(whole, "-")
	if negative {
		whole = whole[1:]
	}

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// firstSentence truncates text to its first sentence.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".\n"); idx > 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return text
}

// snippet truncates text to at most n characters.
func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
