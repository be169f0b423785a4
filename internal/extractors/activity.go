package extractors

import (
	"strings"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// activityClass is one business activity class with its trigger
// keywords and base weight.
type activityClass struct {
	name     string
	keywords []string
	weight   float64
}

var activityClasses = []activityClass{
	{
		name: "p2p-lending",
		keywords: []string{
			"peer to peer", "p2p", "crowdfunding", "marketplace lending",
			"loan origination", "direct lending", "alternative lending",
			"lending platform",
		},
		weight: 1.0,
	},
	{
		name: "payment-processing",
		keywords: []string{
			"payment gateway", "payment processor", "digital payments",
			"mobile payments", "cross border payments", "cross-border payments",
			"remittance", "wire transfer", "payment infrastructure",
		},
		weight: 1.0,
	},
	{
		name: "digital-wallet",
		keywords: []string{
			"digital wallet", "e wallet", "e-wallet", "mobile wallet",
			"stored value", "prepaid", "electronic money",
		},
		weight: 0.9,
	},
	{
		name: "investment-platform",
		keywords: []string{
			"investment platform", "robo advisor", "robo-advisor",
			"wealth management", "portfolio management", "asset management",
		},
		weight: 0.9,
	},
}

// ActivityExtractor classifies business activities by keyword evidence.
type ActivityExtractor struct{}

// NewActivityExtractor creates a business activity extractor.
func NewActivityExtractor() *ActivityExtractor {
	return &ActivityExtractor{}
}

// Extract returns the activity classes whose keywords appear in text.
// Confidence scales with the number of distinct matched keywords,
// capped at the class weight.
func (e *ActivityExtractor) Extract(text string) []domain.BusinessActivity {
	lower := strings.ToLower(text)

	var activities []domain.BusinessActivity
	for _, class := range activityClasses {
		var matched []string
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}

		confidence := class.weight * float64(len(matched)) / 3
		if confidence > class.weight {
			confidence = class.weight
		}
		activities = append(activities, domain.BusinessActivity{
			Type:            class.name,
			MatchedKeywords: matched,
			Confidence:      confidence,
		})
	}
	return activities
}
