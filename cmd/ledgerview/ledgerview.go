// Package ledgerviewcmder
package ledgerviewcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/ledgerview/cmd/ledgerview/config"
	focuscmder "github.com/papercomputeco/ledgerview/cmd/ledgerview/focus"
	initcmder "github.com/papercomputeco/ledgerview/cmd/ledgerview/init"
	servecmder "github.com/papercomputeco/ledgerview/cmd/ledgerview/serve"
	viewcmder "github.com/papercomputeco/ledgerview/cmd/ledgerview/view"
	versioncmder "github.com/papercomputeco/ledgerview/cmd/version"
	"github.com/papercomputeco/ledgerview/pkg/cliui"
)

const ledgerviewLongDesc string = `ledgerview composes readable views over a product and decision ledger.

It reads bounded subgraphs from the ledger kernel and derives product trees,
per-node relationship groupings, alignment and coherence signals, and
namespace intent sections.

Read views from the terminal:
  ledgerview tree             Print the product tree of a namespace
  ledgerview node <id>        Show a node with its relationships
  ledgerview intent           Show the intent sections of a namespace
  ledgerview namespaces       List the navigable namespaces
  ledgerview timeline         Show recent ledger operations
  ledgerview materials        List materials attached under roots

Serve views over HTTP and MCP:
  ledgerview serve            Run the API server against the kernel
  ledgerview demo             Run the API server over the demo ledger`

const ledgerviewShortDesc string = "ledgerview - product ledger views"

func NewLedgerviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ledgerview",
		Short:        ledgerviewShortDesc,
		Long:         ledgerviewLongDesc,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			noColor, _ := cmd.Flags().GetBool("no-color")
			cliui.ConfigureColor(noColor)
		},
	}

	// Global flags
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .ledgerview/ config directory")
	cmd.PersistentFlags().Bool("json", false, "Print machine-readable JSON instead of styled output")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output (also honors NO_COLOR)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(servecmder.NewDemoCmd())

	cmd.AddCommand(viewcmder.NewTreeCmd())
	cmd.AddCommand(viewcmder.NewNodeCmd())
	cmd.AddCommand(viewcmder.NewIntentCmd())
	cmd.AddCommand(viewcmder.NewNamespacesCmd())
	cmd.AddCommand(viewcmder.NewTimelineCmd())
	cmd.AddCommand(viewcmder.NewMaterialsCmd())

	cmd.AddCommand(focuscmder.NewUseCmd())
	cmd.AddCommand(focuscmder.NewWhereamiCmd())

	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
