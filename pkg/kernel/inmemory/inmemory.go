// Package inmemory provides an in-memory kernel Backend for demos and tests.
package inmemory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

// epoch anchors generated history so timelines are reproducible.
var epoch = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// Backend implements kernel.Backend over maps. Expansion walks links in both
// directions level by level and, like the real kernel, repeats a link once
// for every visited endpoint that reaches it.
type Backend struct {
	mu sync.RWMutex

	nodes     map[string]ledger.Node
	roles     map[string][]ledger.RoleAssignment
	materials map[string][]ledger.Material
	from      map[string][]ledger.Link
	to        map[string][]ledger.Link

	roots      map[string]ledger.NamespaceRoot
	namespaces []string
	labels     map[string]string
	history    []ledger.Operation
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		nodes:     make(map[string]ledger.Node),
		roles:     make(map[string][]ledger.RoleAssignment),
		materials: make(map[string][]ledger.Material),
		from:      make(map[string][]ledger.Link),
		to:        make(map[string][]ledger.Link),
		roots:     make(map[string]ledger.NamespaceRoot),
		labels:    make(map[string]string),
	}
}

// NewDemoBackend returns a backend loaded with DemoSeeds.
func NewDemoBackend() (*Backend, error) {
	seeds, err := DemoSeeds()
	if err != nil {
		return nil, err
	}

	b := NewBackend()
	for _, s := range seeds {
		if err := b.Load(s); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Load adds a seed's namespace to the backend and records one history
// operation per kind of change.
func (b *Backend) Load(s *Seed) error {
	g, err := s.graph()
	if err != nil {
		return fmt.Errorf("loading %s: %w", s.Namespace, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.roots[s.Namespace]; !ok {
		b.namespaces = append(b.namespaces, s.Namespace)
		sort.Strings(b.namespaces)
	}
	b.roots[s.Namespace] = ledger.NamespaceRoot{
		NodeID: g.Nodes[0].ID,
		Title:  g.Nodes[0].Title,
		Role:   firstRole(g.Roles, g.Nodes[0].ID),
	}
	if s.Label != "" {
		b.labels[s.Namespace] = s.Label
	}

	for _, n := range g.Nodes {
		b.nodes[n.ID] = n
	}
	for _, ra := range g.Roles {
		b.roles[ra.NodeID] = append(b.roles[ra.NodeID], ra)
	}
	for _, m := range g.Materials {
		b.materials[m.NodeID] = append(b.materials[m.NodeID], m)
	}
	for _, l := range g.Links {
		b.from[l.FromNodeID] = append(b.from[l.FromNodeID], l)
		b.to[l.ToNodeID] = append(b.to[l.ToNodeID], l)
	}

	b.record(s.Namespace, "create_node", len(g.Nodes), func(i int) map[string]any {
		return map[string]any{"node_id": g.Nodes[i].ID, "title": g.Nodes[i].Title}
	})
	b.record(s.Namespace, "assign_role", len(g.Roles), func(i int) map[string]any {
		return map[string]any{"node_id": g.Roles[i].NodeID, "role": g.Roles[i].Role}
	})
	b.record(s.Namespace, "create_link", len(g.Links), func(i int) map[string]any {
		return map[string]any{
			"link_id":      g.Links[i].ID,
			"from_node_id": g.Links[i].FromNodeID,
			"to_node_id":   g.Links[i].ToNodeID,
			"type":         g.Links[i].Type,
		}
	})
	return nil
}

func (b *Backend) record(ns, kind string, n int, payload func(int) map[string]any) {
	if n == 0 {
		return
	}

	seq := int64(len(b.history) + 1)
	op := ledger.Operation{
		ID:           fmt.Sprintf("op:%d", seq),
		Seq:          seq,
		OccurredAt:   epoch.Add(time.Duration(seq) * time.Minute),
		ActorID:      "system:seed",
		Capabilities: []string{"read", "write:additive"},
	}
	for i := 0; i < n; i++ {
		op.Changes = append(op.Changes, ledger.Change{Kind: kind, NamespaceID: ns, Payload: payload(i)})
	}
	b.history = append(b.history, op)
}

// Labels returns the display label of every seeded namespace that has one.
func (b *Backend) Labels() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(b.labels))
	for k, v := range b.labels {
		out[k] = v
	}
	return out
}

// Expand implements kernel.Backend.
func (b *Backend) Expand(ctx context.Context, query ledger.ExpandQuery) (*ledger.ExpandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := &ledger.ExpandResult{
		Nodes:     []ledger.Node{},
		Roles:     []ledger.RoleAssignment{},
		Links:     []ledger.Link{},
		Materials: []ledger.Material{},
	}

	inNamespace := func(l ledger.Link) bool {
		return query.NamespaceID == "" || l.NamespaceID == "" || l.NamespaceID == query.NamespaceID
	}

	visited := map[string]bool{}
	level := append([]string(nil), query.RootIDs...)
	for depth := 0; depth <= query.Depth && len(level) > 0; depth++ {
		var next []string
		for _, id := range level {
			if visited[id] {
				continue
			}
			visited[id] = true

			n, ok := b.nodes[id]
			if !ok {
				continue
			}
			out.Nodes = append(out.Nodes, n)

			for _, ra := range b.roles[id] {
				if query.NamespaceID == "" || ra.NamespaceID == query.NamespaceID {
					out.Roles = append(out.Roles, ra)
				}
			}
			out.Materials = append(out.Materials, b.materials[id]...)

			for _, l := range b.from[id] {
				if !inNamespace(l) {
					continue
				}
				out.Links = append(out.Links, l)
				if depth < query.Depth && !visited[l.ToNodeID] {
					next = append(next, l.ToNodeID)
				}
			}
			for _, l := range b.to[id] {
				if !inNamespace(l) {
					continue
				}
				out.Links = append(out.Links, l)
				if depth < query.Depth && !visited[l.FromNodeID] {
					next = append(next, l.FromNodeID)
				}
			}
		}
		level = next
	}

	return out, nil
}

// Namespaces implements kernel.Backend.
func (b *Backend) Namespaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]string{}, b.namespaces...), nil
}

// NamespaceRoot implements kernel.Backend.
func (b *Backend) NamespaceRoot(ctx context.Context, namespaceID string) (*ledger.NamespaceRoot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	root, ok := b.roots[namespaceID]
	if !ok {
		return nil, &kernel.APIError{
			Status:  http.StatusNotFound,
			Code:    "not_found",
			Message: fmt.Sprintf("namespace %s has no root", namespaceID),
		}
	}
	return &root, nil
}

// History implements kernel.Backend. Operations are returned newest first;
// target matches a namespace id or any node id named in a change payload.
func (b *Backend) History(ctx context.Context, target string, limit int) ([]ledger.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []ledger.Operation{}
	for i := len(b.history) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		op := b.history[i]
		if target == "" || touches(op, target) {
			out = append(out, op)
		}
	}
	return out, nil
}

// Healthz implements kernel.Backend.
func (b *Backend) Healthz(ctx context.Context) error {
	return ctx.Err()
}

func touches(op ledger.Operation, target string) bool {
	for _, ch := range op.Changes {
		if ch.NamespaceID == target {
			return true
		}
		for _, key := range []string{"node_id", "from_node_id", "to_node_id"} {
			if ledger.MetaString(ch.Payload, key) == target {
				return true
			}
		}
	}
	return false
}

func firstRole(roles []ledger.RoleAssignment, nodeID string) string {
	for _, ra := range roles {
		if ra.NodeID == nodeID {
			return ra.Role
		}
	}
	return ""
}

var _ kernel.Backend = (*Backend)(nil)
