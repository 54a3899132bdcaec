package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/ledgerview/pkg/tree"
)

// RenderTree writes t as an indented outline with box-drawing branches.
func RenderTree(w io.Writer, t *tree.Node) error {
	if t == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, treeLine(t)); err != nil {
		return err
	}
	return renderChildren(w, t.Children, "")
}

func renderChildren(w io.Writer, children []*tree.Node, prefix string) error {
	for i, c := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}

		if _, err := fmt.Fprintln(w, BranchStyle.Render(prefix+branch)+treeLine(c)); err != nil {
			return err
		}
		if err := renderChildren(w, c.Children, prefix+indent); err != nil {
			return err
		}
	}
	return nil
}

func treeLine(n *tree.Node) string {
	parts := []string{NameStyle.Render(n.Title)}
	if badge := NodeTypeBadge(n.NodeType); badge != "" {
		parts = append(parts, badge)
	}
	if marks := SignalMarks(n.Signals); marks != "" {
		parts = append(parts, marks)
	}
	return strings.Join(parts, " ")
}
