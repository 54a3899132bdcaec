package roles

// Primary node type labels.
const (
	TypeGoal     = "Goal"
	TypeJob      = "Job"
	TypeDecision = "Decision"
	TypeEvidence = "Evidence"
)

var nodeTypeRules = []Rule{
	{Target: ".goal", Mode: Contains, Section: TypeGoal},
	{Target: "goal", Mode: EndsWith, Section: TypeGoal},
	{Target: ".job", Mode: Contains, Section: TypeJob},
	{Target: "job", Mode: EndsWith, Section: TypeJob},
	{Target: ".decision", Mode: Contains, Section: TypeDecision},
	{Target: "decision", Mode: EndsWith, Section: TypeDecision},
	{Target: ".evidence", Mode: Contains, Section: TypeEvidence},
	{Target: "evidence", Mode: EndsWith, Section: TypeEvidence},
}

// NodeType derives the primary type label from a node's roles,
// or "" when none applies.
func NodeType(roles []string) string {
	t, _ := First(nodeTypeRules, roles)
	return t
}
