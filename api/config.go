// Package api serves ledgerview's view-models over HTTP.
package api

import (
	"net/http"

	"github.com/papercomputeco/ledgerview/pkg/prefetch"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string

	// KernelURL and Namespace are reported by /api/config.
	KernelURL string
	Namespace string

	// Prefetch enables POST /api/prefetch. Optional.
	Prefetch *prefetch.Pool

	// PrefetchDepth is the expansion depth used for prefetched roots.
	PrefetchDepth int

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
