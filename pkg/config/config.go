// Package config loads, saves and layers ledgerview configuration: the
// config.toml file in .ledgerview/, LEDGERVIEW_ environment variables and
// CLI flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/ledgerview/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	override   string
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{
		ddm:      dotdir.NewManager(),
		override: override,
	}

	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// No .ledgerview/ directory yet: LoadConfig returns defaults and
	// SaveConfig creates ~/.ledgerview/ on first write.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported scalar configuration key
// names in TOML section order. Per-namespace label keys
// ("namespaces.labels.<namespace id>") are accepted as well but not listed.
func ValidConfigKeys() []string {
	ordered := []string{
		"kernel.url",
		"kernel.namespace",
		"kernel.timeout",
		"api.listen",
		"view.tree_depth",
		"view.node_depth",
		"view.intent_depth",
		"view.history_limit",
		"prefetch.workers",
		"prefetch.queue_size",
		"log.format",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	for _, k := range slices.Sorted(maps.Keys(configKeys)) {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := lookupKey(key)
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .ledgerview/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated Config.
// Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// A labels table present in the file replaces the default labels wholesale.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Kernel.URL == "" {
		cfg.Kernel.URL = defaults.Kernel.URL
	}
	if cfg.Kernel.Namespace == "" {
		cfg.Kernel.Namespace = defaults.Kernel.Namespace
	}
	if cfg.Kernel.Timeout == "" {
		cfg.Kernel.Timeout = defaults.Kernel.Timeout
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.View.TreeDepth == 0 {
		cfg.View.TreeDepth = defaults.View.TreeDepth
	}
	if cfg.View.NodeDepth == 0 {
		cfg.View.NodeDepth = defaults.View.NodeDepth
	}
	if cfg.View.IntentDepth == 0 {
		cfg.View.IntentDepth = defaults.View.IntentDepth
	}
	if cfg.View.HistoryLimit == 0 {
		cfg.View.HistoryLimit = defaults.View.HistoryLimit
	}

	if cfg.Prefetch.Workers == 0 {
		cfg.Prefetch.Workers = defaults.Prefetch.Workers
	}
	if cfg.Prefetch.QueueSize == 0 {
		cfg.Prefetch.QueueSize = defaults.Prefetch.QueueSize
	}

	if cfg.Namespaces.Labels == nil {
		cfg.Namespaces.Labels = defaults.Namespaces.Labels
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// SaveConfig persists the configuration to config.toml, creating the
// ~/.ledgerview/ directory when no directory was resolved yet.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		dir, err := c.ddm.Ensure(c.override)
		if err != nil {
			return fmt.Errorf("resolving config dir: %w", err)
		}
		c.targetPath = filepath.Join(dir, configFile)
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := lookupKey(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config pointed at a local kernel and focused on the
// named ledger family. Supported presets: "product", "finance".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "product":
		cfg.Kernel.Namespace = "ProductLedger:/Kesteron/FieldServe"
	case "finance":
		cfg.Kernel.Namespace = "FinLedger:/Kesteron/Treasury"
		cfg.View.IntentDepth = 3
	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"product", "finance"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
