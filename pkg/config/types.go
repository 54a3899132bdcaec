package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent ledgerview configuration stored as
// config.toml in the .ledgerview/ directory.
type Config struct {
	Version    int              `toml:"version"`
	Kernel     KernelConfig     `toml:"kernel"`
	API        APIConfig        `toml:"api"`
	View       ViewConfig       `toml:"view"`
	Prefetch   PrefetchConfig   `toml:"prefetch"`
	Namespaces NamespacesConfig `toml:"namespaces"`
	Log        LogConfig        `toml:"log"`
}

// KernelConfig holds the connection to the ledger kernel.
type KernelConfig struct {
	URL       string `toml:"url,omitempty"`
	Namespace string `toml:"namespace,omitempty"`

	// Timeout is a Go duration string such as "30s".
	Timeout string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, returning zero when it is unset or invalid.
func (k KernelConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(k.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// APIConfig holds view API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ViewConfig holds the expansion depths and limits used when no request
// parameter overrides them.
type ViewConfig struct {
	TreeDepth    int `toml:"tree_depth,omitempty"`
	NodeDepth    int `toml:"node_depth,omitempty"`
	IntentDepth  int `toml:"intent_depth,omitempty"`
	HistoryLimit int `toml:"history_limit,omitempty"`
}

// PrefetchConfig sizes the pool that warms caches with namespace roots.
type PrefetchConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// NamespacesConfig holds display labels keyed by namespace id. Labelled
// namespaces are always listed, even when the kernel does not report them.
type NamespacesConfig struct {
	Labels map[string]string `toml:"labels,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Format is "pretty", "json" or "text".
	Format string `toml:"format,omitempty"`
}

// labelKeyPrefix addresses a single namespace label through get/set.
const labelKeyPrefix = "namespaces.labels."

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported scalar config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"kernel.url": {
		get: func(c *Config) string { return c.Kernel.URL },
		set: func(c *Config, v string) error { c.Kernel.URL = v; return nil },
	},
	"kernel.namespace": {
		get: func(c *Config) string { return c.Kernel.Namespace },
		set: func(c *Config, v string) error { c.Kernel.Namespace = v; return nil },
	},
	"kernel.timeout": {
		get: func(c *Config) string { return c.Kernel.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for kernel.timeout: %w", err)
			}
			c.Kernel.Timeout = v
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"view.tree_depth":     intKey("view.tree_depth", func(c *Config) *int { return &c.View.TreeDepth }),
	"view.node_depth":     intKey("view.node_depth", func(c *Config) *int { return &c.View.NodeDepth }),
	"view.intent_depth":   intKey("view.intent_depth", func(c *Config) *int { return &c.View.IntentDepth }),
	"view.history_limit":  intKey("view.history_limit", func(c *Config) *int { return &c.View.HistoryLimit }),
	"prefetch.workers":    uintKey("prefetch.workers", func(c *Config) *uint { return &c.Prefetch.Workers }),
	"prefetch.queue_size": uintKey("prefetch.queue_size", func(c *Config) *uint { return &c.Prefetch.QueueSize }),
	"log.format": {
		get: func(c *Config) string { return c.Log.Format },
		set: func(c *Config, v string) error {
			switch v {
			case "pretty", "json", "text":
				c.Log.Format = v
				return nil
			default:
				return fmt.Errorf("invalid value for log.format: %q (expected pretty, json or text)", v)
			}
		},
	},
}

// lookupKey resolves a key, including per-namespace label keys of the form
// "namespaces.labels.<namespace id>".
func lookupKey(key string) (configKeyInfo, bool) {
	if info, ok := configKeys[key]; ok {
		return info, true
	}

	ns, ok := strings.CutPrefix(key, labelKeyPrefix)
	if !ok || ns == "" {
		return configKeyInfo{}, false
	}

	return configKeyInfo{
		get: func(c *Config) string { return c.Namespaces.Labels[ns] },
		set: func(c *Config, v string) error {
			if c.Namespaces.Labels == nil {
				c.Namespaces.Labels = map[string]string{}
			}
			if v == "" {
				delete(c.Namespaces.Labels, ns)
				return nil
			}
			c.Namespaces.Labels[ns] = v
			return nil
		},
	}, true
}
