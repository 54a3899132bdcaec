package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/ledgerview/pkg/dotdir"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "LEDGERVIEW"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LEDGERVIEW_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LEDGERVIEW_KERNEL_URL, LEDGERVIEW_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
//
// Namespace labels are not read through viper: their keys contain
// characters viper folds to lower case. Use Configer.LoadConfig for them.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("kernel.url", d.Kernel.URL)
	v.SetDefault("kernel.namespace", d.Kernel.Namespace)
	v.SetDefault("kernel.timeout", d.Kernel.Timeout)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("view.tree_depth", d.View.TreeDepth)
	v.SetDefault("view.node_depth", d.View.NodeDepth)
	v.SetDefault("view.intent_depth", d.View.IntentDepth)
	v.SetDefault("view.history_limit", d.View.HistoryLimit)

	v.SetDefault("prefetch.workers", d.Prefetch.Workers)
	v.SetDefault("prefetch.queue_size", d.Prefetch.QueueSize)

	v.SetDefault("log.format", d.Log.Format)
}
