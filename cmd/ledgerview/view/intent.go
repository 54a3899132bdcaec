package viewcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
)

type intentCommander struct {
	viewCommander

	depth int
}

const intentLongDesc string = `Print the intents of a namespace.

Product ledgers list strategic objectives, assurance obligations and
transformation themes. Financial ledgers list objectives, obligations,
policies and themes. Each intent shows the nodes it is connected to.

Examples:
  ledgerview intent
  ledgerview intent --namespace FinLedger:/Kesteron/Treasury --depth 3`

const intentShortDesc string = "Print the intents of a namespace"

func NewIntentCmd() *cobra.Command {
	cmder := &intentCommander{}

	cmd := &cobra.Command{
		Use:   "intent",
		Short: intentShortDesc,
		Long:  intentLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd, config.FlagIntentDepth)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmder.addKernelFlags(cmd)
	config.AddIntFlag(cmd, config.Flags, config.FlagIntentDepth, &cmder.depth)

	return cmd
}

func (c *intentCommander) run(ctx context.Context) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	view, err := composer.Intent(ctx, compose.IntentRequest{
		Depth: c.viper.GetInt("view.intent_depth"),
	})
	if err != nil {
		return fmt.Errorf("resolving intents: %w", err)
	}

	if c.json {
		return c.printJSON(view)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Namespace:"),
		cliui.ValueStyle.Render(view.NamespaceID),
	)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Root:"),
		cliui.NameStyle.Render(view.Root.Title),
	)

	if len(view.Sections) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No intent sections for family "+view.Family+"."))
		return nil
	}

	for _, sec := range view.Sections {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render(sec.Label))

		entries := view.BySection(sec.Key)
		if len(entries) == 0 {
			fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render("none"))
			continue
		}
		for _, e := range entries {
			fmt.Fprintf(c.out, "    %s  %s\n", cliui.NameStyle.Render(e.Title), cliui.DimStyle.Render(e.NodeID))
			for _, conn := range e.Connections {
				fmt.Fprintf(c.out, "      %s %s\n",
					cliui.KeyStyle.Render(conn.Type),
					cliui.ValueStyle.Render(conn.Node.Title),
				)
			}
		}
	}

	fmt.Fprintln(c.out)
	return nil
}
