package cliui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/ledgerview/pkg/roles"
	"github.com/papercomputeco/ledgerview/pkg/signals"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	RoleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	BranchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var nodeTypeColors = map[string]lipgloss.Color{
	roles.TypeGoal:     "212",
	roles.TypeJob:      "75",
	roles.TypeDecision: "214",
	roles.TypeEvidence: "114",
}

// NodeTypeBadge renders a node type as "[Goal]" in its color, or "" for an
// untyped node.
func NodeTypeBadge(nodeType string) string {
	if nodeType == "" {
		return ""
	}
	color, ok := nodeTypeColors[nodeType]
	if !ok {
		color = "245"
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + nodeType + "]")
}

var signalMarks = []struct {
	mark  string
	color lipgloss.Color
	on    func(signals.Signals) bool
}{
	{"A", "82", func(s signals.Signals) bool { return s.Alignment }},
	{"C", "75", func(s signals.Signals) bool { return s.Coherence }},
	{"D", "214", func(s signals.Signals) bool { return s.Decision }},
	{"M", "141", func(s signals.Signals) bool { return s.Materials }},
}

// SignalMarks renders the raised flags as letters: A(lignment),
// C(oherence), D(ecision/evidence), M(aterials). No flags renders "".
func SignalMarks(s signals.Signals) string {
	var parts []string
	for _, m := range signalMarks {
		if m.on(s) {
			parts = append(parts, lipgloss.NewStyle().Foreground(m.color).Render(m.mark))
		}
	}
	return strings.Join(parts, "")
}
