package viewcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
)

type materialsCommander struct {
	viewCommander

	depth int
}

const materialsLongDesc string = `List the materials attached to nodes reachable from the given roots,
grouped by category.

Without roots the namespace's designated root is used.

Examples:
  ledgerview materials
  ledgerview materials node:7d1c... node:a90e... --depth 1`

const materialsShortDesc string = "List attached materials"

func NewMaterialsCmd() *cobra.Command {
	cmder := &materialsCommander{}

	cmd := &cobra.Command{
		Use:   "materials [root...]",
		Short: materialsShortDesc,
		Long:  materialsLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd, config.FlagTreeDepth)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), args)
		},
	}

	cmder.addKernelFlags(cmd)
	config.AddIntFlag(cmd, config.Flags, config.FlagTreeDepth, &cmder.depth)

	return cmd
}

func (c *materialsCommander) run(ctx context.Context, roots []string) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	view, err := composer.Materials(ctx, compose.MaterialsRequest{
		Roots: roots,
		Depth: c.viper.GetInt("view.tree_depth"),
	})
	if err != nil {
		return fmt.Errorf("collecting materials: %w", err)
	}

	if c.json {
		return c.printJSON(view)
	}

	if len(view.Categories) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No materials found."))
		return nil
	}

	for _, cat := range view.Categories {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render(cat.Category))
		for _, item := range cat.Items {
			fmt.Fprintf(c.out, "    %s  %s  %s\n",
				cliui.NameStyle.Render(item.Title),
				cliui.KeyStyle.Render(item.MediaType),
				cliui.DimStyle.Render(item.ContentRef),
			)
		}
	}

	fmt.Fprintln(c.out)
	return nil
}
