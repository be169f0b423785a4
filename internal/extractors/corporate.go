package extractors

import (
	"regexp"

	"github.com/custodia-labs/regready/internal/core/domain"
)

var entityTypePatterns = []struct {
	entityType string
	re         *regexp.Regexp
}{
	{"LLC", regexp.MustCompile(`(?i)\b(?:limited liability company|llc|wll)\b`)},
	{"JSC", regexp.MustCompile(`(?i)\b(?:joint stock company|jsc)\b`)},
	{"PARTNERSHIP", regexp.MustCompile(`(?i)\b(?:general|limited) partnership\b`)},
	{"SOLE", regexp.MustCompile(`(?i)\bsole proprietorship\b`)},
}

var rolePatterns = []struct {
	role domain.RoleType
	re   *regexp.Regexp
}{
	{domain.RoleCEO, regexp.MustCompile(`(?i)\b(?:chief executive(?:\s+officer)?|ceo|managing director)\b`)},
	{domain.RoleCFO, regexp.MustCompile(`(?i)\b(?:chief financial(?:\s+officer)?|cfo|finance director)\b`)},
	{domain.RoleCTO, regexp.MustCompile(`(?i)\b(?:chief technology(?:\s+officer)?|cto)\b`)},
	{domain.RoleComplianceOfficer, regexp.MustCompile(`(?i)\b(?:compliance officer|cco)\b`)},
}

var governancePolicyRe = regexp.MustCompile(`(?i)\b(?:corporate governance|board charter|code of conduct|conflict of interest) (?:policy|framework|charter)?\b`)

// roleHolderRe captures "Name Surname, Chief ..." style appointments so
// the holder name can be recorded alongside the role.
var roleHolderRe = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z-]+)+)\s*(?:,|\s+as|\s+is|\s+serves as)\s+(?:our\s+|the\s+)?((?i:chief [a-z]+(?: officer)?|ceo|cfo|cto|compliance officer|managing director))`)

// CorporateExtractor extracts governance structure from document text.
type CorporateExtractor struct{}

// NewCorporateExtractor creates a corporate structure extractor.
func NewCorporateExtractor() *CorporateExtractor {
	return &CorporateExtractor{}
}

// Extract returns the corporate structure documented in text. A role is
// considered present when its title appears anywhere; the holder name
// is attached when an appointment phrase names one.
func (e *CorporateExtractor) Extract(text string) domain.CorporateStructure {
	structure := domain.CorporateStructure{
		Roles: make(map[domain.RoleType]string),
	}

	for _, pat := range entityTypePatterns {
		if pat.re.MatchString(text) {
			structure.EntityType = pat.entityType
			break
		}
	}

	for _, pat := range rolePatterns {
		if loc := pat.re.FindString(text); loc != "" {
			structure.Roles[pat.role] = loc
		}
	}

	// Attach holder names where an appointment phrase provides one.
	for _, m := range roleHolderRe.FindAllStringSubmatch(text, -1) {
		name, title := m[1], m[2]
		for _, pat := range rolePatterns {
			if pat.re.MatchString(title) {
				structure.Roles[pat.role] = name
				break
			}
		}
	}

	for _, m := range governancePolicyRe.FindAllString(text, -1) {
		structure.GovernancePolicies = append(structure.GovernancePolicies, m)
	}

	return structure
}
