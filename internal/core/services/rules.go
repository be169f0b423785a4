package services

import "github.com/custodia-labs/regready/internal/core/domain"

// Default structured thresholds for the QCB rule set.
const (
	// minimumCapitalQAR is the Category 2 marketplace-lending capital
	// floor.
	minimumCapitalQAR = 7_500_000

	// enhancedCDDThresholdQAR is the transaction volume above which
	// enhanced customer due diligence applies.
	enhancedCDDThresholdQAR = 50_000

	// cddAdvisoryFraction marks transaction caps at or above this
	// fraction of the CDD threshold as advisory while still compliant.
	cddAdvisoryFraction = 0.9
)

// DefaultRules returns the built-in classification rule set for the
// QCB fintech corpus. Structured rules run against extracted entities;
// every other mapped article goes through the semantic check.
func DefaultRules() []domain.ClassificationRule {
	return []domain.ClassificationRule{
		{
			ArticleRef: "2.1.1",
			Category:   domain.CategoryDataResidency,
			Kind:       domain.RuleStructured,
			Structured: &domain.StructuredRule{
				Field:                domain.FieldDataStorageLocation,
				Comparator:           domain.CompareJurisdiction,
				AllowedJurisdictions: []string{"qatar"},
			},
			Title:       "Data stored outside Qatar",
			Description: "Customer PII and transactional data must be stored on servers physically located within the State of Qatar.",
		},
		{
			ArticleRef: "2.2.1",
			Category:   domain.CategoryGovernance,
			Kind:       domain.RuleStructured,
			Structured: &domain.StructuredRule{
				Field:      domain.FieldComplianceOfficer,
				Comparator: domain.CompareRequired,
			},
			Title:       "No dedicated compliance officer",
			Description: "A designated, independent compliance officer must be appointed and submitted for approval prior to licensing.",
		},
		{
			ArticleRef: "1.2.2",
			Category:   domain.CategoryLicensing,
			Kind:       domain.RuleStructured,
			Structured: &domain.StructuredRule{
				Field:      domain.FieldPaidUpCapital,
				Comparator: domain.CompareMin,
				Threshold:  minimumCapitalQAR,
			},
			Title:       "Capital below regulatory minimum",
			Description: "Minimum regulatory capital of QAR 7,500,000 must be maintained at all times for marketplace lending.",
		},
		{
			ArticleRef: "1.1.2",
			Category:   domain.CategoryAML,
			Kind:       domain.RuleStructured,
			Structured: &domain.StructuredRule{
				Field:            domain.FieldTransactionCap,
				Comparator:       domain.CompareMax,
				Threshold:        enhancedCDDThresholdQAR,
				AdvisoryFraction: cddAdvisoryFraction,
			},
			RiskOverride: domain.RiskMedium,
			Title:        "Transaction volume triggers enhanced CDD",
			Description:  "Transaction volumes above the enhanced customer due diligence threshold require documented CDD procedures.",
		},
	}
}
