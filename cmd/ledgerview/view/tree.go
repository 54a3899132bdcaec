package viewcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
)

type treeCommander struct {
	viewCommander

	depth int
	find  string
}

const treeLongDesc string = `Print the product tree: the CONTAINS hierarchy below a node.

Without a root the tree starts at the focused root (see "ledgerview use")
or else at the namespace's designated root. Nodes reached twice are shown
once, so cycles and shared children never repeat.

Markers after a title: A alignment, C coherence, D decision/evidence,
M materials.

With --find the path from the root down to the given node is printed above
the tree.

Examples:
  ledgerview tree
  ledgerview tree node:7d1c... --depth 3
  ledgerview tree --find node:9e04...
  ledgerview tree --namespace FinLedger:/Kesteron/Treasury --json`

const treeShortDesc string = "Print the product tree"

func NewTreeCmd() *cobra.Command {
	cmder := &treeCommander{}

	cmd := &cobra.Command{
		Use:   "tree [root]",
		Short: treeShortDesc,
		Long:  treeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd, config.FlagTreeDepth)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return cmder.run(cmd.Context(), root)
		},
	}

	cmder.addKernelFlags(cmd)
	config.AddIntFlag(cmd, config.Flags, config.FlagTreeDepth, &cmder.depth)
	cmd.Flags().StringVar(&cmder.find, "find", "", "Print the path from the root to this node")

	return cmd
}

func (c *treeCommander) run(ctx context.Context, root string) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	ns := composer.Defaults().NamespaceID
	if root == "" {
		root = c.focusRoot(ns)
	}

	view, err := composer.ProductTree(ctx, compose.TreeRequest{
		Root:  root,
		Depth: c.viper.GetInt("view.tree_depth"),
		Focus: c.find,
	})
	if err != nil {
		return fmt.Errorf("building tree: %w", err)
	}

	if c.json {
		return c.printJSON(view)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Namespace:"),
		cliui.ValueStyle.Render(view.NamespaceID),
	)

	if view.Tree == nil {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.WarnStyle.Render(fmt.Sprintf("No node %s in the ledger.", view.Root)))
		return nil
	}

	if c.find != "" {
		c.printPath(view)
	}

	if err := cliui.RenderTree(c.out, view.Tree); err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	return nil
}

// printPath prints the titles from the tree root down to the --find node.
func (c *treeCommander) printPath(view *compose.TreeView) {
	if len(view.Path) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.WarnStyle.Render(fmt.Sprintf("%s is not in this tree.", c.find)))
		return
	}

	titles := make([]string, 0, len(view.Path))
	for _, id := range view.Path {
		titles = append(titles, view.Tree.Find(id).Title)
	}
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Path:"),
		cliui.ValueStyle.Render(strings.Join(titles, " > ")),
	)
}
