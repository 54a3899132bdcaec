package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --kernel-url on "serve", "tree" and "node") cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "kernel-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "kernel.url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagKernelURL       = "kernel-url"
	FlagNamespace       = "namespace"
	FlagKernelTimeout   = "kernel-timeout"
	FlagListen          = "listen"
	FlagLogFormat       = "log-format"
	FlagPrefetchWorkers = "prefetch-workers"
	FlagPrefetchQueue   = "prefetch-queue"
	FlagHistoryLimit    = "limit"

	// The view commands all expose "depth" but bind it to the key of the
	// view they render.
	FlagTreeDepth   = "tree-depth"
	FlagNodeDepth   = "node-depth"
	FlagIntentDepth = "intent-depth"
)

// Flags is the registry every ledgerview command draws its flags from.
var Flags = FlagSet{
	FlagKernelURL:       {Name: "kernel-url", Shorthand: "k", ViperKey: "kernel.url", Description: "Ledger kernel base URL"},
	FlagNamespace:       {Name: "namespace", Shorthand: "n", ViperKey: "kernel.namespace", Description: "Namespace id to scope queries to"},
	FlagKernelTimeout:   {Name: "kernel-timeout", ViperKey: "kernel.timeout", Description: "Per-request timeout for kernel calls"},
	FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the view API server to listen on"},
	FlagLogFormat:       {Name: "log-format", ViperKey: "log.format", Description: "Log format: pretty, json or text"},
	FlagPrefetchWorkers: {Name: "prefetch-workers", ViperKey: "prefetch.workers", Description: "Number of workers warming namespace caches"},
	FlagPrefetchQueue:   {Name: "prefetch-queue", ViperKey: "prefetch.queue_size", Description: "Prefetch job queue size"},
	FlagHistoryLimit:    {Name: "limit", ViperKey: "view.history_limit", Description: "Maximum number of history operations to fetch"},
	FlagTreeDepth:       {Name: "depth", Shorthand: "d", ViperKey: "view.tree_depth", Description: "Maximum tree depth below the root"},
	FlagNodeDepth:       {Name: "depth", Shorthand: "d", ViperKey: "view.node_depth", Description: "Neighborhood depth around the node"},
	FlagIntentDepth:     {Name: "depth", Shorthand: "d", ViperKey: "view.intent_depth", Description: "Expansion depth below the namespace root"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

func defaultString(viperKey string) string {
	return defaultViper().GetString(viperKey)
}

func defaultInt(viperKey string) int {
	return defaultViper().GetInt(viperKey)
}

func defaultUint(viperKey string) uint {
	return defaultViper().GetUint(viperKey)
}
