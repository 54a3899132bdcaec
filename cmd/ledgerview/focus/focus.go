// Package focuscmder provides the use and whereami commands, which set and
// show the namespace and root that other commands default to.
package focuscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/bootstrap"
	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/dotdir"
	"github.com/papercomputeco/ledgerview/pkg/logger"
	"github.com/papercomputeco/ledgerview/pkg/namespace"
)

type useCommander struct {
	configDir string
	kernelURL string
	demo      bool
	out       io.Writer
}

const useLongDesc string = `Focus a namespace, and optionally a root node within it.

The focus is stored in focus.json in the .ledgerview/ directory. tree,
node, intent, timeline and materials read the focused namespace unless
--namespace is given, and tree starts from the focused root.

The namespace must be reported by the kernel or have a configured label.

Examples:
  ledgerview use FinLedger:/Kesteron/Treasury
  ledgerview use ProductLedger:/Kesteron/FieldServe node:7d1c...
  ledgerview use --clear`

const useShortDesc string = "Focus a namespace"

func NewUseCmd() *cobra.Command {
	cmder := &useCommander{}
	var clearFocus bool

	cmd := &cobra.Command{
		Use:   "use <namespace> [root]",
		Short: useShortDesc,
		Long:  useLongDesc,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearFocus {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.out = cmd.OutOrStdout()

			if clearFocus {
				return cmder.unfocus()
			}

			root := ""
			if len(args) == 2 {
				root = args[1]
			}
			return cmder.run(cmd, args[0], root)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagKernelURL, &cmder.kernelURL)
	cmd.Flags().BoolVar(&cmder.demo, "demo", false, "Check the namespace against the built-in demo ledger")
	cmd.Flags().BoolVar(&clearFocus, "clear", false, "Remove the focus")

	return cmd
}

func (c *useCommander) run(cmd *cobra.Command, namespaceID, root string) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagKernelURL})

	cfg, err := bootstrap.Resolve(v, c.configDir)
	if err != nil {
		return err
	}

	rt, err := bootstrap.New(cfg, bootstrap.Options{Demo: c.demo, Logger: logger.Nop()})
	if err != nil {
		return err
	}

	opt, err := c.lookup(cmd.Context(), rt.Discovery, namespaceID)
	if err != nil {
		return err
	}

	state := &dotdir.FocusState{NamespaceID: opt.ID, RootID: root}
	if err := dotdir.NewManager().SaveFocus(state, c.configDir); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Focused %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(opt.Label),
		cliui.DimStyle.Render(opt.ID),
	)
	if root != "" {
		fmt.Fprintf(c.out, "    %s %s\n", cliui.KeyStyle.Render("root:"), cliui.ValueStyle.Render(root))
	}
	return nil
}

func (c *useCommander) lookup(ctx context.Context, d *namespace.Discovery, id string) (namespace.Option, error) {
	options, err := d.List(ctx)
	if err != nil {
		return namespace.Option{}, fmt.Errorf("listing namespaces: %w", err)
	}

	opt, ok := namespace.Find(options, id)
	if !ok {
		return namespace.Option{}, fmt.Errorf("unknown namespace %q (see \"ledgerview namespaces\")", id)
	}
	return opt, nil
}

func (c *useCommander) unfocus() error {
	if err := dotdir.NewManager().ClearFocus(c.configDir); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s Focus cleared\n", cliui.SuccessMark)
	return nil
}

const whereamiLongDesc string = `Show the focused namespace, root and last visited node.

Examples:
  ledgerview whereami
  ledgerview whereami --json`

const whereamiShortDesc string = "Show the current focus"

func NewWhereamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whereami",
		Short: whereamiShortDesc,
		Long:  whereamiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			asJSON, _ := cmd.Flags().GetBool("json")
			return runWhereami(cmd.OutOrStdout(), configDir, asJSON)
		},
	}

	return cmd
}

func runWhereami(out io.Writer, configDir string, asJSON bool) error {
	state, err := dotdir.NewManager().LoadFocus(configDir)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	if state == nil {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render(`No focus set. Run "ledgerview use <namespace>".`))
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Namespace:"), cliui.ValueStyle.Render(state.NamespaceID))
	if state.RootID != "" {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Root:"), cliui.ValueStyle.Render(state.RootID))
	}
	if state.NodeID != "" {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Last node:"), cliui.ValueStyle.Render(state.NodeID))
	}
	fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Updated:"), cliui.DimStyle.Render(state.UpdatedAt.Local().Format("2006-01-02 15:04")))
	return nil
}
