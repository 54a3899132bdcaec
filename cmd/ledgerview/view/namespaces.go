package viewcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
)

type namespacesCommander struct {
	viewCommander
}

const namespacesLongDesc string = `List the namespaces the kernel reports, together with every namespace
that has a configured label, grouped by ledger family. The current
namespace is marked with "*".

Examples:
  ledgerview namespaces
  ledgerview namespaces --json`

const namespacesShortDesc string = "List namespaces"

func NewNamespacesCmd() *cobra.Command {
	cmder := &namespacesCommander{}

	cmd := &cobra.Command{
		Use:     "namespaces",
		Aliases: []string{"ns"},
		Short:   namespacesShortDesc,
		Long:    namespacesLongDesc,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmder.addKernelFlags(cmd)

	return cmd
}

func (c *namespacesCommander) run(ctx context.Context) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	listing, err := composer.Namespaces(ctx)
	if err != nil {
		return fmt.Errorf("listing namespaces: %w", err)
	}

	if c.json {
		return c.printJSON(listing)
	}

	current := composer.Defaults().NamespaceID
	labelWidth, idWidth := 0, 0
	for _, opt := range listing.Namespaces {
		labelWidth = max(labelWidth, len(opt.Label))
		idWidth = max(idWidth, len(opt.ID))
	}

	for _, group := range listing.Grouped {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render(group.Prefix))
		for _, opt := range group.Options {
			mark := " "
			if opt.ID == current {
				mark = "*"
			}

			root := cliui.DimStyle.Render(opt.RootNodeID)
			if opt.RootNodeID == "" {
				root = cliui.WarnStyle.Render("no root")
			}

			fmt.Fprintf(c.out, "  %s %s  %s  %s\n",
				mark,
				cliui.PadRight(cliui.NameStyle.Render(opt.Label), labelWidth),
				cliui.PadRight(cliui.KeyStyle.Render(opt.ID), idWidth),
				root,
			)
		}
	}

	fmt.Fprintln(c.out)
	return nil
}
