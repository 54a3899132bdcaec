package ledger

// Known link types that carry semantic meaning.
const (
	LinkContains    = "CONTAINS"
	LinkSupports    = "SUPPORTS"
	LinkSatisfies   = "SATISFIES"
	LinkAdvances    = "ADVANCES"
	LinkDependsOn   = "DEPENDS_ON"
	LinkAffects     = "AFFECTS"
	LinkDecidedBy   = "DECIDED_BY"
	LinkEvidencedBy = "EVIDENCED_BY"
)

// Category is the closed set of semantic buckets a link type falls into.
type Category int

const (
	CategoryOther Category = iota
	CategoryHierarchy
	CategoryAlignment
	CategoryCoherence
	CategoryDecisionEvidence
)

// Categories lists every category in presentation order.
var Categories = []Category{
	CategoryHierarchy,
	CategoryAlignment,
	CategoryCoherence,
	CategoryDecisionEvidence,
	CategoryOther,
}

// categoryByType is the single lookup table from raw link type to category.
// Types not present classify as CategoryOther.
var categoryByType = map[string]Category{
	LinkContains:    CategoryHierarchy,
	LinkSupports:    CategoryAlignment,
	LinkSatisfies:   CategoryAlignment,
	LinkAdvances:    CategoryAlignment,
	LinkDependsOn:   CategoryCoherence,
	LinkAffects:     CategoryCoherence,
	LinkDecidedBy:   CategoryDecisionEvidence,
	LinkEvidencedBy: CategoryDecisionEvidence,
}

// CategoryOf classifies a raw link type. Matching is exact and case-sensitive.
func CategoryOf(linkType string) Category {
	return categoryByType[linkType]
}

func (c Category) String() string {
	switch c {
	case CategoryHierarchy:
		return "hierarchy"
	case CategoryAlignment:
		return "alignment"
	case CategoryCoherence:
		return "coherence"
	case CategoryDecisionEvidence:
		return "decision_evidence"
	default:
		return "other"
	}
}

// MarshalText encodes the category by name so it reads well in JSON maps.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
