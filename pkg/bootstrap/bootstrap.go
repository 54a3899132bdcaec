// Package bootstrap turns resolved configuration into the pieces every
// ledgerview command runs on: a kernel backend, namespace discovery and a
// composer factory.
package bootstrap

import (
	"fmt"
	"log/slog"
	"maps"
	"os"

	"github.com/spf13/viper"

	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/kernel/inmemory"
	"github.com/papercomputeco/ledgerview/pkg/namespace"
)

// Resolve reads every scalar setting through v, so flags, env and the config
// file apply in that order, and takes namespace labels from the config file.
func Resolve(v *viper.Viper, configDir string) (*config.Config, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fileCfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &config.Config{
		Version: fileCfg.Version,
		Kernel: config.KernelConfig{
			URL:       v.GetString("kernel.url"),
			Namespace: v.GetString("kernel.namespace"),
			Timeout:   v.GetString("kernel.timeout"),
		},
		API: config.APIConfig{
			Listen: v.GetString("api.listen"),
		},
		View: config.ViewConfig{
			TreeDepth:    v.GetInt("view.tree_depth"),
			NodeDepth:    v.GetInt("view.node_depth"),
			IntentDepth:  v.GetInt("view.intent_depth"),
			HistoryLimit: v.GetInt("view.history_limit"),
		},
		Prefetch: config.PrefetchConfig{
			Workers:   v.GetUint("prefetch.workers"),
			QueueSize: v.GetUint("prefetch.queue_size"),
		},
		Namespaces: fileCfg.Namespaces,
		Log: config.LogConfig{
			Format: v.GetString("log.format"),
		},
	}, nil
}

// Options selects the backend.
type Options struct {
	// Demo serves the built-in in-memory ledger instead of a kernel.
	Demo bool

	// SeedPaths replace the built-in demo ledger with these YAML seeds.
	// Implies Demo.
	SeedPaths []string

	Logger *slog.Logger
}

// Runtime holds what one command invocation shares across its composers.
type Runtime struct {
	Config    *config.Config
	Backend   kernel.Backend
	Discovery *namespace.Discovery
	Logger    *slog.Logger

	// seedLabels come from an in-memory ledger and win over configured
	// labels. seedOnly drops configured labels entirely.
	seedLabels map[string]string
	seedOnly   bool
}

// New builds the backend and namespace discovery for cfg.
func New(cfg *config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rt := &Runtime{
		Config: cfg,
		Logger: logger,
	}

	switch {
	case len(opts.SeedPaths) > 0:
		b, err := loadSeeds(opts.SeedPaths)
		if err != nil {
			return nil, err
		}
		rt.Backend = b
		rt.seedLabels = b.Labels()
		rt.seedOnly = true
		logger.Info("using seeded in-memory ledger", "seeds", len(opts.SeedPaths))

	case opts.Demo:
		b, err := inmemory.NewDemoBackend()
		if err != nil {
			return nil, fmt.Errorf("loading demo ledger: %w", err)
		}
		rt.Backend = b
		rt.seedLabels = b.Labels()
		logger.Info("using demo in-memory ledger")

	default:
		c, err := kernel.NewClient(kernel.ClientConfig{
			BaseURL:   cfg.Kernel.URL,
			Namespace: cfg.Kernel.Namespace,
			Timeout:   cfg.Kernel.TimeoutDuration(),
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kernel client: %w", err)
		}
		rt.Backend = c
		logger.Debug("using kernel", "url", cfg.Kernel.URL, "namespace", cfg.Kernel.Namespace)
	}

	discovery, err := namespace.NewDiscovery(&namespace.Config{
		Source: rt.Backend,
		Labels: rt.labels(cfg.Namespaces.Labels),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	rt.Discovery = discovery

	return rt, nil
}

// SetLabels replaces the configured namespace labels, keeping labels that
// came with an in-memory ledger.
func (r *Runtime) SetLabels(labels map[string]string) {
	r.Discovery.SetLabels(r.labels(labels))
}

func (r *Runtime) labels(configured map[string]string) map[string]string {
	out := make(map[string]string, len(configured)+len(r.seedLabels))
	if !r.seedOnly {
		maps.Copy(out, configured)
	}
	maps.Copy(out, r.seedLabels)
	return out
}

// NewComposer returns a composer with an empty cache over the runtime's
// backend. It is a session.Factory.
func (r *Runtime) NewComposer() (*compose.Composer, error) {
	return compose.New(&compose.Config{
		Backend:   r.Backend,
		Discovery: r.Discovery,
		Defaults: compose.Defaults{
			NamespaceID:  r.Config.Kernel.Namespace,
			TreeDepth:    r.Config.View.TreeDepth,
			NodeDepth:    r.Config.View.NodeDepth,
			IntentDepth:  r.Config.View.IntentDepth,
			HistoryLimit: r.Config.View.HistoryLimit,
		},
		Logger: r.Logger,
	})
}

func loadSeeds(paths []string) (*inmemory.Backend, error) {
	b := inmemory.NewBackend()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening seed: %w", err)
		}

		seed, err := inmemory.ParseSeed(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing seed %s: %w", path, err)
		}

		if err := b.Load(seed); err != nil {
			return nil, fmt.Errorf("loading seed %s: %w", path, err)
		}
	}
	return b, nil
}
