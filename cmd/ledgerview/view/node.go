package viewcmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/dotdir"
	"github.com/papercomputeco/ledgerview/pkg/graphcache"
	"github.com/papercomputeco/ledgerview/pkg/relations"
)

type nodeCommander struct {
	viewCommander

	depth int
}

const nodeLongDesc string = `Describe one node: roles, description, job-to-be-done, its
relationships grouped by kind, and attached materials.

Descriptions are markdown and are rendered when printing to a terminal.
The node is remembered as the last visited node (see "ledgerview whereami").

Examples:
  ledgerview node node:7d1c...
  ledgerview node node:7d1c... --depth 2 --json`

const nodeShortDesc string = "Describe a node and its relationships"

func NewNodeCmd() *cobra.Command {
	cmder := &nodeCommander{}

	cmd := &cobra.Command{
		Use:   "node <id>",
		Short: nodeShortDesc,
		Long:  nodeLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd, config.FlagNodeDepth)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmder.addKernelFlags(cmd)
	config.AddIntFlag(cmd, config.Flags, config.FlagNodeDepth, &cmder.depth)

	return cmd
}

func (c *nodeCommander) run(ctx context.Context, id string) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	view, err := composer.NodeDetail(ctx, compose.NodeRequest{
		ID:    id,
		Depth: c.viper.GetInt("view.node_depth"),
	})
	if err != nil {
		var nf *compose.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("no node %s in namespace %s", id, composer.Defaults().NamespaceID)
		}
		return fmt.Errorf("loading node: %w", err)
	}

	if err := c.remember(composer.Defaults().NamespaceID, id); err != nil {
		return err
	}

	if c.json {
		return c.printJSON(view)
	}
	return c.render(view)
}

// remember records id as the last visited node when a .ledgerview
// directory already exists.
func (c *nodeCommander) remember(namespaceID, id string) error {
	ddm := dotdir.NewManager()
	dir, err := ddm.Target(c.configDir)
	if err != nil || dir == "" {
		return err
	}

	state := &dotdir.FocusState{NamespaceID: namespaceID}
	if c.focus != nil && c.focus.NamespaceID == namespaceID {
		state.RootID = c.focus.RootID
	}
	state.NodeID = id
	return ddm.SaveFocus(state, c.configDir)
}

func (c *nodeCommander) render(view *compose.NodeView) error {
	n := view.Node

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.HeaderStyle.Render(n.Title), cliui.NodeTypeBadge(n.NodeType))
	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render(n.ID))
	if len(n.Roles) > 0 {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Roles:"), cliui.RoleStyle.Render(strings.Join(n.Roles, ", ")))
	}
	if marks := cliui.SignalMarks(n.Signals); marks != "" {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Signals:"), marks)
	}

	if n.Description != "" {
		fmt.Fprintln(c.out)
		if err := cliui.RenderMarkdownTo(c.out, n.Description); err != nil {
			return err
		}
	}
	if n.JTBD != "" {
		fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Job to be done:"), cliui.ValueStyle.Render(n.JTBD))
	}

	g := view.Relationships.Groups
	for _, group := range []struct {
		title   string
		entries []relations.Entry
	}{
		{"Children", g.Children},
		{"Parents", g.Parents},
		{"Alignment", g.Alignment},
		{"Coherence", g.Coherence},
		{"Decisions & evidence", g.DecisionEvidence},
		{"Other", g.Other},
	} {
		if len(group.entries) == 0 {
			continue
		}
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render(group.title))
		for _, e := range group.entries {
			arrow := "→"
			if e.Direction == graphcache.DirectionTo {
				arrow = "←"
			}
			fmt.Fprintf(c.out, "    %s %s %s  %s\n",
				cliui.DimStyle.Render(arrow),
				cliui.KeyStyle.Render(e.Type),
				cliui.NameStyle.Render(e.Node.Title),
				cliui.DimStyle.Render(e.Node.ID),
			)
		}
	}

	if materials := view.Relationships.Materials; len(materials) > 0 {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render("Materials"))
		for _, m := range materials {
			fmt.Fprintf(c.out, "    %s  %s\n",
				cliui.ValueStyle.Render(compose.MaterialTitle(m)),
				cliui.DimStyle.Render(m.MediaType),
			)
		}
	}

	fmt.Fprintln(c.out)
	return nil
}
