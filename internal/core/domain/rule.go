package domain

// RuleKind tags the two detection strategies. Dispatch is by tag, not
// by inheritance.
type RuleKind string

// Available rule kinds.
const (
	// RuleStructured compares an extracted field against a threshold.
	RuleStructured RuleKind = "structured"

	// RuleSemantic scores the (statement, article text) pair for
	// entailment.
	RuleSemantic RuleKind = "semantic"
)

// EntityField names a structured fact a rule can test.
type EntityField string

// Testable structured fields.
const (
	FieldPaidUpCapital       EntityField = "paid-up-capital"
	FieldTransactionCap      EntityField = "transaction-cap"
	FieldDataStorageLocation EntityField = "data-storage-location"
	FieldComplianceOfficer   EntityField = "compliance-officer"
)

// Comparator defines how a structured rule evaluates its field.
type Comparator string

// Available comparators.
const (
	// CompareMin violates when the extracted value is below Threshold.
	CompareMin Comparator = "min"

	// CompareMax violates when the extracted value exceeds Threshold.
	CompareMax Comparator = "max"

	// CompareJurisdiction violates when the extracted location names a
	// country outside the AllowedJurisdictions whitelist.
	CompareJurisdiction Comparator = "jurisdiction"

	// CompareRequired violates when the field is absent.
	CompareRequired Comparator = "required"
)

// StructuredRule is a deterministic check over extracted entities.
type StructuredRule struct {
	// Field is the structured fact under test.
	Field EntityField

	// Comparator defines the violation condition.
	Comparator Comparator

	// Threshold is the numeric bound for min/max comparators.
	Threshold float64

	// AllowedJurisdictions is the whitelist for the jurisdiction
	// comparator.
	AllowedJurisdictions []string

	// AdvisoryFraction, when non-zero with a max comparator, marks
	// values at or above Threshold*AdvisoryFraction (but still
	// compliant) as advisory: no gap, but remediation matching runs.
	AdvisoryFraction float64
}

// SemanticRule is an entailment check over mapped statements.
type SemanticRule struct {
	// ConfidenceFloor is the minimum classification confidence. Below
	// it the candidate goes to the review gate instead of being
	// auto-classified.
	ConfidenceFloor float64
}

// ClassificationRule binds an article to one detection strategy.
// Exactly one of Structured and Semantic is set, selected by Kind.
type ClassificationRule struct {
	// ArticleRef cites the article the rule encodes.
	ArticleRef string

	// Category is the regulatory area of the rule.
	Category Category

	// Kind selects the variant.
	Kind RuleKind

	// Structured is set when Kind is RuleStructured.
	Structured *StructuredRule

	// Semantic is set when Kind is RuleSemantic.
	Semantic *SemanticRule

	// RiskOverride replaces the category's table default when set.
	RiskOverride RiskLevel

	// Title is the gap title used when the rule trips.
	Title string

	// Description is the gap description used when the rule trips.
	Description string
}

// Validate checks that the rule variant matches its tag.
func (r ClassificationRule) Validate() error {
	switch r.Kind {
	case RuleStructured:
		if r.Structured == nil || r.Semantic != nil {
			return &ConfigurationError{Field: "rules", Reason: "structured rule without structured variant: " + r.ArticleRef}
		}
	case RuleSemantic:
		if r.Semantic == nil || r.Structured != nil {
			return &ConfigurationError{Field: "rules", Reason: "semantic rule without semantic variant: " + r.ArticleRef}
		}
	default:
		return &ConfigurationError{Field: "rules", Reason: "unknown rule kind for " + r.ArticleRef}
	}
	if r.RiskOverride != "" && !r.RiskOverride.IsValid() {
		return &ConfigurationError{Field: "rules", Reason: "invalid risk override for " + r.ArticleRef}
	}
	return nil
}

// Risk resolves the rule's risk level against the table.
func (r ClassificationRule) Risk(table RiskTable) RiskLevel {
	if r.RiskOverride != "" {
		return r.RiskOverride
	}
	return table.Level(r.Category)
}
