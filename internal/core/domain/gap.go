package domain

// RiskLevel is the ordinal severity of a compliance gap.
type RiskLevel string

// Available risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid returns true if the risk level is recognised.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal rank for comparisons (low < medium < high).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return string(r)
}

// Category identifies a regulatory area. Categories key the scorecard
// weights and the default risk table.
type Category string

// Regulatory areas covered by the corpus.
const (
	CategoryDataResidency Category = "data-residency"
	CategoryLicensing     Category = "licensing"
	CategoryAML           Category = "aml"
	CategoryGovernance    Category = "corporate-governance"
	CategoryReporting     Category = "reporting"
	CategoryDocumentation Category = "documentation"
)

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// GapOrigin records which detection strategy produced a gap.
type GapOrigin string

// Detection strategies.
const (
	// GapOriginStructured means a deterministic rule over extracted
	// entities produced the gap.
	GapOriginStructured GapOrigin = "structured"

	// GapOriginSemantic means an entailment check over a mapped
	// statement produced the gap.
	GapOriginSemantic GapOrigin = "semantic"
)

// Gap is a detected compliance deficiency with severity and citation.
// Gaps are derived, not persisted input; they are regenerated on each
// evaluation run.
type Gap struct {
	// ID is the unique identifier for the gap. Derived deterministically
	// from the run ID, article reference and category.
	ID string

	// Title is a short human-readable summary.
	Title string

	// Description explains the deficiency.
	Description string

	// RiskLevel is the assigned severity.
	RiskLevel RiskLevel

	// ArticleRef cites the regulatory article the gap violates.
	ArticleRef string

	// Category is the regulatory area of the gap.
	Category Category

	// ImpactText states the concrete impact, including numeric
	// deficiencies where a structured rule computed one.
	ImpactText string

	// Origin records the detection strategy that raised the gap.
	Origin GapOrigin
}

// RiskTable maps article categories to their default risk level.
// This is configuration, not code: it is loaded from the engine config
// and overridable without touching the classifier.
type RiskTable map[Category]RiskLevel

// DefaultRiskTable returns the built-in category risk defaults.
// Data-residency and AML violations default to high, documentation
// completeness to low.
func DefaultRiskTable() RiskTable {
	return RiskTable{
		CategoryDataResidency: RiskHigh,
		CategoryAML:           RiskHigh,
		CategoryLicensing:     RiskHigh,
		CategoryGovernance:    RiskHigh,
		CategoryReporting:     RiskMedium,
		CategoryDocumentation: RiskLow,
	}
}

// Level returns the risk level for a category, falling back to medium
// for categories absent from the table.
func (t RiskTable) Level(c Category) RiskLevel {
	if level, ok := t[c]; ok {
		return level
	}
	return RiskMedium
}
