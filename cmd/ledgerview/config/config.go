// Package configcmder provides the config command for managing persistent
// ledgerview configuration stored in the .ledgerview/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/config"
)

const configLongDesc string = `Manage persistent ledgerview configuration.

Configuration is stored as config.toml in the .ledgerview/ directory and
provides default values for command flags. CLI flags and LEDGERVIEW_
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  kernel.url, kernel.namespace, kernel.timeout,
  api.listen,
  view.tree_depth, view.node_depth, view.intent_depth, view.history_limit,
  prefetch.workers, prefetch.queue_size,
  log.format,
  namespaces.labels.<namespace id>

Use subcommands to get, set, or list configuration values:
  ledgerview config set <key> <value>    Set a configuration value
  ledgerview config get <key>            Get a configuration value
  ledgerview config list                 List all configuration values

Examples:
  ledgerview config set kernel.url http://localhost:8090
  ledgerview config set namespaces.labels.FinLedger:/Kesteron/Treasury "Treasury"
  ledgerview config get kernel.namespace
  ledgerview config list`

const configShortDesc string = "Manage persistent ledgerview configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s, namespaces.labels.<namespace id>",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
