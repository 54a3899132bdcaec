// Package viewcmder provides the commands that print ledger views: tree,
// node, intent, namespaces, timeline and materials.
package viewcmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/ledgerview/pkg/bootstrap"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/dotdir"
	"github.com/papercomputeco/ledgerview/pkg/logger"
)

// viewCommander holds what every view command shares: kernel selection,
// global flags and the focus saved by "ledgerview use".
type viewCommander struct {
	configDir string
	debug     bool
	json      bool
	demo      bool

	kernelURL string
	namespace string

	// namespaceSet is true when --namespace was given explicitly, in which
	// case it wins over the focus.
	namespaceSet bool

	viper  *viper.Viper
	focus  *dotdir.FocusState
	out    io.Writer
	errOut io.Writer
}

// addKernelFlags registers the flags every view command accepts.
func (c *viewCommander) addKernelFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagKernelURL, &c.kernelURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagNamespace, &c.namespace)
	cmd.Flags().BoolVar(&c.demo, "demo", false, "Read the built-in demo ledger instead of a kernel")
}

// prepare reads the global flags, initialises viper with the command's
// registry flags bound, and loads the focus state.
func (c *viewCommander) prepare(cmd *cobra.Command, registryKeys ...string) error {
	c.configDir, _ = cmd.Flags().GetString("config-dir")
	c.debug, _ = cmd.Flags().GetBool("debug")
	c.json, _ = cmd.Flags().GetBool("json")
	c.namespaceSet = cmd.Flags().Changed(config.Flags[config.FlagNamespace].Name)
	c.out = cmd.OutOrStdout()
	c.errOut = cmd.ErrOrStderr()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	keys := append([]string{config.FlagKernelURL, config.FlagNamespace}, registryKeys...)
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)
	c.viper = v

	c.focus, err = dotdir.NewManager().LoadFocus(c.configDir)
	if err != nil {
		return err
	}
	return nil
}

// composer resolves config into a fresh composer. The focused namespace
// replaces the configured one unless --namespace was given.
func (c *viewCommander) composer() (*compose.Composer, error) {
	cfg, err := bootstrap.Resolve(c.viper, c.configDir)
	if err != nil {
		return nil, err
	}

	if !c.namespaceSet && c.focus != nil && c.focus.NamespaceID != "" {
		cfg.Kernel.Namespace = c.focus.NamespaceID
	}

	log := logger.Nop()
	if c.debug {
		log = logger.New(
			logger.WithDebug(true),
			logger.WithFormat(cfg.Log.Format),
			logger.WithWriter(c.errOut),
		)
	}

	rt, err := bootstrap.New(cfg, bootstrap.Options{Demo: c.demo, Logger: log})
	if err != nil {
		return nil, err
	}
	return rt.NewComposer()
}

// focusRoot is the tree root saved by "ledgerview use" for the namespace
// being read, or "".
func (c *viewCommander) focusRoot(namespaceID string) string {
	if c.focus == nil || c.focus.NamespaceID != namespaceID {
		return ""
	}
	return c.focus.RootID
}

func (c *viewCommander) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
