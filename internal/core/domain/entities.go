package domain

// MetricType identifies a kind of extracted financial figure.
type MetricType string

// Extracted financial metric kinds.
const (
	MetricCapital        MetricType = "paid-up-capital"
	MetricTransactionCap MetricType = "transaction-cap"
	MetricRevenue        MetricType = "revenue-projection"
	MetricFee            MetricType = "fee"
)

// FinancialMetric is a monetary figure extracted from a business
// document with high confidence.
type FinancialMetric struct {
	// Type is the metric kind.
	Type MetricType

	// Value is the amount in the stated currency.
	Value float64

	// Currency is the ISO-like currency code (default QAR).
	Currency string

	// Context is the sentence fragment the figure was extracted from.
	Context string

	// Confidence is the extraction confidence in [0,1].
	Confidence float64
}

// RoleType identifies a named corporate role.
type RoleType string

// Recognised corporate roles.
const (
	RoleCEO               RoleType = "ceo"
	RoleCFO               RoleType = "cfo"
	RoleCTO               RoleType = "cto"
	RoleComplianceOfficer RoleType = "compliance-officer"
)

// CorporateStructure holds governance facts extracted from the
// document set.
type CorporateStructure struct {
	// EntityType is the legal form (LLC, JSC, partnership, ...).
	EntityType string

	// Roles maps recognised roles to the extracted holder name or
	// title text. Presence of a key means the role is documented.
	Roles map[RoleType]string

	// BoardMembers lists extracted board member names.
	BoardMembers []string

	// GovernancePolicies lists mentioned governance policy names.
	GovernancePolicies []string
}

// HasRole reports whether a role is documented anywhere in the set.
func (c CorporateStructure) HasRole(role RoleType) bool {
	_, ok := c.Roles[role]
	return ok
}

// BusinessActivity is a classified business activity with keyword
// evidence.
type BusinessActivity struct {
	// Type is the activity class (p2p-lending, payment-processing, ...).
	Type string

	// MatchedKeywords are the keywords that triggered the class.
	MatchedKeywords []string

	// Confidence is the keyword-weighted confidence in [0,1].
	Confidence float64
}

// DataStorage captures where the business stores its data.
type DataStorage struct {
	// Provider is the cloud provider if one was named (aws, azure, gcp).
	Provider string

	// Location is the literal hosting location phrase, e.g.
	// "AWS regions in Ireland and Singapore".
	Location string
}

// DocumentEntities is the union of structured facts extracted from an
// evaluation run's document set. Structured gap checks run against
// these fields; no embedding similarity is involved.
type DocumentEntities struct {
	// Activities are classified business activities.
	Activities []BusinessActivity

	// Financials are extracted monetary figures.
	Financials []FinancialMetric

	// Corporate is the extracted governance structure.
	Corporate CorporateStructure

	// DataStorage is the extracted hosting arrangement, nil when the
	// documents never mention one.
	DataStorage *DataStorage

	// Policies lists mentioned compliance policies (aml, kyc, ...).
	Policies []string

	// Confidence is the weighted overall extraction confidence.
	Confidence float64
}

// Merge folds another document's entities into this set. Metrics and
// activities accumulate; corporate roles union; the first non-empty
// data storage wins.
func (e *DocumentEntities) Merge(other DocumentEntities) {
	e.Activities = append(e.Activities, other.Activities...)
	e.Financials = append(e.Financials, other.Financials...)
	if e.Corporate.EntityType == "" {
		e.Corporate.EntityType = other.Corporate.EntityType
	}
	if e.Corporate.Roles == nil {
		e.Corporate.Roles = make(map[RoleType]string)
	}
	for role, holder := range other.Corporate.Roles {
		if _, ok := e.Corporate.Roles[role]; !ok {
			e.Corporate.Roles[role] = holder
		}
	}
	e.Corporate.BoardMembers = append(e.Corporate.BoardMembers, other.Corporate.BoardMembers...)
	e.Corporate.GovernancePolicies = append(e.Corporate.GovernancePolicies, other.Corporate.GovernancePolicies...)
	if e.DataStorage == nil {
		e.DataStorage = other.DataStorage
	}
	e.Policies = appendMissing(e.Policies, other.Policies)
}

// appendMissing appends values not already present, preserving order.
func appendMissing(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; !ok {
			dst = append(dst, v)
			seen[v] = struct{}{}
		}
	}
	return dst
}
