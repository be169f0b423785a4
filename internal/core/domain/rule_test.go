package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    ClassificationRule
		wantErr bool
	}{
		{
			name: "valid structured",
			rule: ClassificationRule{
				ArticleRef: "1.2.2",
				Category:   CategoryLicensing,
				Kind:       RuleStructured,
				Structured: &StructuredRule{Field: FieldPaidUpCapital, Comparator: CompareMin, Threshold: 7_500_000},
			},
		},
		{
			name: "valid semantic",
			rule: ClassificationRule{
				ArticleRef: "3.1.4",
				Category:   CategoryReporting,
				Kind:       RuleSemantic,
				Semantic:   &SemanticRule{ConfidenceFloor: 0.6},
			},
		},
		{
			name: "structured tag without variant",
			rule: ClassificationRule{
				ArticleRef: "1.2.2",
				Kind:       RuleStructured,
			},
			wantErr: true,
		},
		{
			name: "both variants set",
			rule: ClassificationRule{
				ArticleRef: "1.2.2",
				Kind:       RuleStructured,
				Structured: &StructuredRule{},
				Semantic:   &SemanticRule{},
			},
			wantErr: true,
		},
		{
			name: "unknown kind",
			rule: ClassificationRule{
				ArticleRef: "1.2.2",
				Kind:       RuleKind("oracle"),
			},
			wantErr: true,
		},
		{
			name: "invalid risk override",
			rule: ClassificationRule{
				ArticleRef:   "1.2.2",
				Kind:         RuleSemantic,
				Semantic:     &SemanticRule{ConfidenceFloor: 0.6},
				RiskOverride: RiskLevel("severe"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassificationRule_Risk(t *testing.T) {
	table := DefaultRiskTable()

	rule := ClassificationRule{Category: CategoryAML, Kind: RuleStructured}
	assert.Equal(t, RiskHigh, rule.Risk(table))

	rule.RiskOverride = RiskMedium
	assert.Equal(t, RiskMedium, rule.Risk(table))
}
