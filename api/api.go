package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/session"
)

// SessionHeader selects the session a request reads from. Requests without
// it use the default session.
const SessionHeader = "X-Ledgerview-Session"

// Server is the API server exposing ledger views.
type Server struct {
	config   Config
	backend  kernel.Backend
	sessions *session.Registry
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The registry is shared with other
// components (the prefetch pool and the MCP server) so they read and warm
// the same caches.
func NewServer(config Config, backend kernel.Backend, sessions *session.Registry, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("api: backend must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("api: session registry must not be nil")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	s := &Server{
		config:   config,
		backend:  backend,
		sessions: sessions,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)

	v := app.Group("/api")
	v.Get("/config", s.handleConfig)
	v.Get("/healthz", s.handleHealthz)
	v.Post("/session", s.handleCreateSession)
	v.Delete("/session", s.handleDeleteSession)
	v.Post("/reset", s.handleReset)
	v.Post("/prefetch", s.handlePrefetch)
	v.Get("/namespaces", s.handleNamespaces)
	v.Get("/products/tree", s.handleTree)
	v.Get("/node/:nodeId", s.handleNode)
	v.Get("/intent", s.handleIntent)
	v.Get("/ledger", s.handleLedger)
	v.Get("/materials", s.handleMaterials)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
