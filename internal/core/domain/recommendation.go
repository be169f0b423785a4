package domain

// ResourceType distinguishes kinds of remediation resources.
type ResourceType string

// Available resource types.
const (
	ResourceProgram ResourceType = "program"
	ResourceExpert  ResourceType = "expert"
)

// IsValid returns true if the resource type is recognised.
func (t ResourceType) IsValid() bool {
	switch t {
	case ResourceProgram, ResourceExpert:
		return true
	default:
		return false
	}
}

// Resource is one entry of the remediation catalog: an accelerator
// programme or a compliance expert that can help close a gap.
type Resource struct {
	// ID is the unique identifier for the resource.
	ID string

	// Type is program or expert.
	Type ResourceType

	// Name is the human-readable resource name.
	Name string

	// Tags are category and topic tags matched against gaps.
	Tags []string

	// Priority orders resources with equal tag overlap; higher wins.
	Priority int

	// Contact is an optional contact reference.
	Contact string
}

// Recommendation links a gap to a remediation resource.
type Recommendation struct {
	// GapID is the gap being remediated. For advisory recommendations
	// raised without a violation, this carries the advisory ID.
	GapID string

	// ResourceID is the recommended resource.
	ResourceID string

	// ResourceType is the kind of resource.
	ResourceType ResourceType

	// RelevanceScore is the tag-overlap count used for ranking.
	RelevanceScore float64
}

// Advisory is a near-threshold observation that did not amount to a
// violation but still warrants remediation matching, such as a
// transaction cap just under the enhanced-CDD threshold.
type Advisory struct {
	// ID is the unique identifier for the advisory.
	ID string

	// Category is the regulatory area concerned.
	Category Category

	// ArticleRef cites the article whose threshold is being approached.
	ArticleRef string

	// Description explains the observation.
	Description string
}
