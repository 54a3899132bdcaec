// Package servecmder provides the serve and demo commands, which run the
// view API and MCP server over a kernel or the built-in demo ledger.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/ledgerview/api"
	apimcp "github.com/papercomputeco/ledgerview/api/mcp"
	"github.com/papercomputeco/ledgerview/pkg/bootstrap"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/dotdir"
	"github.com/papercomputeco/ledgerview/pkg/logger"
	"github.com/papercomputeco/ledgerview/pkg/prefetch"
	"github.com/papercomputeco/ledgerview/pkg/session"
)

type serveCommander struct {
	configDir string
	debug     bool

	kernelURL       string
	namespace       string
	kernelTimeout   string
	listen          string
	logFormat       string
	prefetchWorkers uint
	prefetchQueue   uint

	demo        bool
	seeds       []string
	noPrefetch  bool
	watchConfig bool
	logs        bool

	viper *viper.Viper
}

// service is everything serve runs, built by setup and torn down by close.
type service struct {
	runtime  *bootstrap.Runtime
	sessions *session.Registry
	pool     *prefetch.Pool
	server   *api.Server
	logger   *slog.Logger
	logFile  io.Closer
}

var serveRegistryKeys = []string{
	config.FlagKernelURL,
	config.FlagNamespace,
	config.FlagKernelTimeout,
	config.FlagListen,
	config.FlagLogFormat,
	config.FlagPrefetchWorkers,
	config.FlagPrefetchQueue,
}

const serveLongDesc string = `Run the ledgerview API server.

Serves the view API under /api and the MCP tools under /mcp. Views are
composed from the kernel at --kernel-url, or from the built-in demo ledger
with --demo. Every namespace root is prefetched into the default session's
cache at startup unless --no-prefetch is given.

Logs go to the terminal and, as JSON, to serve.log in the .ledgerview
directory. Use --logs to follow that file from another terminal.

Examples:
  ledgerview serve
  ledgerview serve --kernel-url http://localhost:8090 --namespace product:acme
  ledgerview serve --demo --seed ./ledger.yaml
  ledgerview serve --watch-config
  ledgerview serve --logs`

const serveShortDesc string = "Run the ledgerview API server"

const demoLongDesc string = `Run the ledgerview API server over the built-in demo ledger.

Equivalent to "ledgerview serve --demo". The demo ledger holds a product
ledger and a financial ledger, enough to exercise every view. Replace it with
your own YAML seeds using --seed.`

const demoShortDesc string = "Serve the built-in demo ledger"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   serveShortDesc,
		Long:    serveLongDesc,
		PreRunE: cmder.prepare,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.logs {
				return cmder.followLogs(cmd)
			}
			return cmder.run(cmd)
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().BoolVar(&cmder.demo, "demo", false, "Serve the built-in demo ledger instead of a kernel")
	cmd.Flags().BoolVar(&cmder.logs, "logs", false, "Follow the log file of a running serve instead of starting one")

	return cmd
}

func NewDemoCmd() *cobra.Command {
	cmder := &serveCommander{demo: true}

	cmd := &cobra.Command{
		Use:     "demo",
		Short:   demoShortDesc,
		Long:    demoLongDesc,
		PreRunE: cmder.prepare,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.addFlags(cmd)

	return cmd
}

func (c *serveCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagKernelURL, &c.kernelURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagNamespace, &c.namespace)
	config.AddStringFlag(cmd, config.Flags, config.FlagKernelTimeout, &c.kernelTimeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &c.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFormat, &c.logFormat)
	config.AddUintFlag(cmd, config.Flags, config.FlagPrefetchWorkers, &c.prefetchWorkers)
	config.AddUintFlag(cmd, config.Flags, config.FlagPrefetchQueue, &c.prefetchQueue)

	cmd.Flags().StringSliceVar(&c.seeds, "seed", nil, "YAML seed file to serve instead of the demo ledger (repeatable, implies --demo)")
	cmd.Flags().BoolVar(&c.noPrefetch, "no-prefetch", false, "Do not warm caches with namespace roots")
	cmd.Flags().BoolVar(&c.watchConfig, "watch-config", false, "Reload namespace labels when config.toml changes")
}

func (c *serveCommander) prepare(cmd *cobra.Command, _ []string) error {
	var err error
	c.configDir, err = cmd.Flags().GetString("config-dir")
	if err != nil {
		return fmt.Errorf("could not get config-dir flag: %w", err)
	}
	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %w", err)
	}

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, serveRegistryKeys)
	c.viper = v
	return nil
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, err := c.setup(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer svc.close()

	if c.watchConfig {
		go c.watch(ctx, svc)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := svc.server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		svc.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	return svc.server.Shutdown()
}

// setup builds the backend, sessions, prefetch pool and API server, and
// queues every namespace root for prefetch.
func (c *serveCommander) setup(ctx context.Context, console io.Writer) (*service, error) {
	cfg, err := bootstrap.Resolve(c.viper, c.configDir)
	if err != nil {
		return nil, err
	}

	log, logFile, err := c.openLogger(cfg, console)
	if err != nil {
		return nil, err
	}

	svc := &service{logger: log, logFile: logFile}
	ok := false
	defer func() {
		if !ok {
			svc.close()
		}
	}()

	svc.runtime, err = bootstrap.New(cfg, bootstrap.Options{
		Demo:      c.demo,
		SeedPaths: c.seeds,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	svc.sessions, err = session.NewRegistry(svc.runtime.NewComposer)
	if err != nil {
		return nil, fmt.Errorf("creating sessions: %w", err)
	}

	if !c.noPrefetch {
		svc.pool, err = prefetch.NewPool(&prefetch.Config{
			Target:     svc.sessions.Default().Composer,
			NumWorkers: cfg.Prefetch.Workers,
			QueueSize:  cfg.Prefetch.QueueSize,
			Timeout:    cfg.Kernel.TimeoutDuration(),
			Logger:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating prefetch pool: %w", err)
		}
	}

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		Sessions: svc.sessions,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	svc.server, err = api.NewServer(api.Config{
		ListenAddr:    cfg.API.Listen,
		KernelURL:     kernelURL(cfg, c.demo || len(c.seeds) > 0),
		Namespace:     cfg.Kernel.Namespace,
		Prefetch:      svc.pool,
		PrefetchDepth: cfg.View.TreeDepth,
		MCPHandler:    mcpServer.Handler(),
	}, svc.runtime.Backend, svc.sessions, log)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	if svc.pool != nil {
		svc.warm(ctx, cfg.View.TreeDepth)
	}

	ok = true
	return svc, nil
}

// openLogger logs to the console in the configured format and, as JSON, to
// serve.log.
func (c *serveCommander) openLogger(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	consoleLog := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(cfg.Log.Format),
		logger.WithWriter(console),
	)

	path, err := dotdir.NewManager().LogPath(c.configDir)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileLog := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)

	return logger.Multi(consoleLog, fileLog), f, nil
}

// warm queues every namespace root for expansion into the default session.
func (s *service) warm(ctx context.Context, depth int) {
	listing, err := s.sessions.Default().Composer.Namespaces(ctx)
	if err != nil {
		s.logger.Warn("could not list namespaces to prefetch", "error", err)
		return
	}

	queued := 0
	for _, opt := range listing.Namespaces {
		if opt.RootNodeID == "" {
			continue
		}
		if s.pool.Enqueue(prefetch.Job{
			Roots:       []string{opt.RootNodeID},
			Depth:       depth,
			NamespaceID: opt.ID,
		}) {
			queued++
		}
	}
	s.logger.Info("prefetching namespace roots", "queued", queued, "namespaces", len(listing.Namespaces))
}

// watch refreshes namespace labels whenever config.toml changes, until ctx
// is done.
func (c *serveCommander) watch(ctx context.Context, svc *service) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		svc.logger.Warn("config watch disabled", "error", err)
		return
	}

	err = cfger.Watch(ctx, func(cfg *config.Config, err error) {
		if err != nil {
			svc.logger.Warn("ignoring invalid config change", "error", err)
			return
		}
		svc.runtime.SetLabels(cfg.Namespaces.Labels)
		svc.logger.Info("reloaded namespace labels", "labels", len(cfg.Namespaces.Labels))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		svc.logger.Warn("config watch stopped", "error", err)
	}
}

func (s *service) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// kernelURL is what /api/config reports as the backend.
func kernelURL(cfg *config.Config, inMemory bool) string {
	if inMemory {
		return "inmemory://demo"
	}
	return cfg.Kernel.URL
}
