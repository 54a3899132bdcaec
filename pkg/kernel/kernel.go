// Package kernel talks to the ledger kernel: the service that owns the graph
// and answers expand, namespace and history queries.
package kernel

import (
	"context"
	"fmt"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

// Backend is the set of kernel queries the view layer depends on.
type Backend interface {
	// Expand returns the subgraph within query.Depth hops of the root ids.
	// Links may repeat when several paths reach them.
	Expand(ctx context.Context, query ledger.ExpandQuery) (*ledger.ExpandResult, error)

	// Namespaces lists the namespace ids known to the kernel.
	Namespaces(ctx context.Context) ([]string, error)

	// NamespaceRoot returns the designated root of a namespace.
	NamespaceRoot(ctx context.Context, namespaceID string) (*ledger.NamespaceRoot, error)

	// History returns up to limit applied operations touching target.
	History(ctx context.Context, target string, limit int) ([]ledger.Operation, error)

	// Healthz reports whether the kernel is serving.
	Healthz(ctx context.Context) error
}

// APIError is a non-2xx kernel response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("kernel returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("kernel returned %d: %s", e.Status, e.Message)
}
