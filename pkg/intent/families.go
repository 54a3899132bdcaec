package intent

import "github.com/papercomputeco/ledgerview/pkg/roles"

// Section keys.
const (
	SectionStrategicObjectives  = "strategic_objectives"
	SectionAssuranceObligations = "assurance_obligations"
	SectionTransformationThemes = "transformation_themes"
	SectionPolicies             = "policies"
)

// Family names, taken from the namespace prefix before the first ":".
const (
	FamilyProduct   = "ProductLedger"
	FamilyFinancial = "FinLedger"
)

// Section is a presentation bucket for intents.
type Section struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Family is the rule set applied to namespaces sharing a prefix.
type Family struct {
	Name     string
	Sections []Section

	// Rules are evaluated in order.
	Rules []roles.Rule

	// Exclusive families place a node in the first matching section only.
	// Otherwise a node appears once in every section it matches.
	Exclusive bool
}

// DefaultFamilies returns the product and financial ledger families.
func DefaultFamilies() []Family {
	return []Family{
		{
			Name: FamilyProduct,
			Sections: []Section{
				{Key: SectionStrategicObjectives, Label: "Strategic Objectives"},
				{Key: SectionAssuranceObligations, Label: "Assurance Obligations"},
				{Key: SectionTransformationThemes, Label: "Transformation Themes"},
			},
			Rules: []roles.Rule{
				{Target: "Product.StrategicObjective", Mode: roles.Suffix, Section: SectionStrategicObjectives},
				{Target: "EnterpriseIntent.StrategicObjective", Mode: roles.Suffix, Section: SectionStrategicObjectives},
				{Target: "Product.AssuranceObligation", Mode: roles.Suffix, Section: SectionAssuranceObligations},
				{Target: "EnterpriseIntent.AssuranceObligation", Mode: roles.Suffix, Section: SectionAssuranceObligations},
				{Target: "Product.TransformationTheme", Mode: roles.Suffix, Section: SectionTransformationThemes},
				{Target: "EnterpriseIntent.TransformationTheme", Mode: roles.Suffix, Section: SectionTransformationThemes},
			},
			Exclusive: true,
		},
		{
			Name: FamilyFinancial,
			Sections: []Section{
				{Key: SectionStrategicObjectives, Label: "Strategic Objectives"},
				{Key: SectionAssuranceObligations, Label: "Assurance Obligations"},
				{Key: SectionPolicies, Label: "Policies"},
			},
			Rules: []roles.Rule{
				{Target: "Fin.Objective", Mode: roles.Suffix, Section: SectionStrategicObjectives},
				{Target: "Fin.Policy", Mode: roles.Suffix, Section: SectionAssuranceObligations},
				{Target: "Fin.Policy", Mode: roles.Suffix, Section: SectionPolicies},
			},
		},
	}
}
