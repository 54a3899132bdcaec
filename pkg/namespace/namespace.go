// Package namespace lists the ledger namespaces a viewer can navigate and
// resolves the root node each tree starts from.
package namespace

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

// DefaultConcurrency bounds concurrent root lookups.
const DefaultConcurrency = 4

// Source is the part of the kernel discovery reads from.
type Source interface {
	Namespaces(ctx context.Context) ([]string, error)
	NamespaceRoot(ctx context.Context, namespaceID string) (*ledger.NamespaceRoot, error)
}

// Option is one navigable namespace. RootNodeID is empty when the namespace
// has no resolvable root.
type Option struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	RootNodeID string `json:"root_node_id"`
}

// Group collects options sharing a prefix.
type Group struct {
	Prefix  string   `json:"prefix"`
	Options []Option `json:"options"`
}

// Config configures a Discovery.
type Config struct {
	Source Source

	// Labels override display labels by namespace id. Every labelled
	// namespace is listed even when the kernel does not report it.
	Labels map[string]string

	// Concurrency bounds root lookups; defaults to DefaultConcurrency.
	Concurrency int

	Logger *slog.Logger
}

// Discovery resolves namespace options.
type Discovery struct {
	source Source

	mu     sync.RWMutex
	labels map[string]string

	concurrency int
	logger      *slog.Logger
}

// NewDiscovery creates a Discovery.
func NewDiscovery(c *Config) (*Discovery, error) {
	if c.Source == nil {
		return nil, fmt.Errorf("namespace source must not be nil")
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Discovery{
		source:      c.Source,
		labels:      maps.Clone(c.Labels),
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// List returns every namespace sorted by id. Only a failed listing is an
// error; a failed or empty root lookup degrades that single option to an
// empty root labelled by its id (or configured label).
func (d *Discovery) List(ctx context.Context) ([]Option, error) {
	ids, err := d.source.Namespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}

	labels := d.Labels()
	ids = union(ids, labels)
	options := make([]Option, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			options[i] = d.resolve(gctx, id, labels[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return options, nil
}

// SetLabels replaces the configured labels for subsequent List calls.
func (d *Discovery) SetLabels(labels map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = maps.Clone(labels)
}

// Labels returns a copy of the configured labels.
func (d *Discovery) Labels() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.labels)
}

func (d *Discovery) resolve(ctx context.Context, id, label string) Option {
	opt := Option{ID: id, Label: id}

	root, err := d.source.NamespaceRoot(ctx, id)
	switch {
	case err != nil:
		d.logger.Debug("namespace root unavailable", "namespace", id, "error", err)
	case root != nil:
		opt.RootNodeID = root.NodeID
		if root.NodeID != "" && root.Title != "" {
			opt.Label = root.Title
		}
	}

	if label != "" {
		opt.Label = label
	}
	return opt
}

func union(ids []string, labels map[string]string) []string {
	seen := make(map[string]struct{}, len(ids)+len(labels))
	out := make([]string, 0, len(ids)+len(labels))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range ids {
		add(id)
	}
	for id := range labels {
		add(id)
	}

	sort.Strings(out)
	return out
}

// Prefix returns the part of a namespace id before the first ":", or the
// whole id.
func Prefix(id string) string {
	prefix, _, _ := strings.Cut(id, ":")
	return prefix
}

// GroupByPrefix groups options by Prefix. Groups are sorted by prefix and
// options keep their input order.
func GroupByPrefix(options []Option) []Group {
	index := map[string]int{}
	var groups []Group
	for _, o := range options {
		p := Prefix(o.ID)
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, Group{Prefix: p})
		}
		groups[i].Options = append(groups[i].Options, o)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Prefix < groups[b].Prefix
	})
	return groups
}

// Find returns the option with the given id.
func Find(options []Option, id string) (Option, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
