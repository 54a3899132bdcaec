// Package compose fetches subgraphs from the kernel, folds them into a
// graph cache and derives the view-models the API, MCP tools and CLI render.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/papercomputeco/ledgerview/pkg/graphcache"
	"github.com/papercomputeco/ledgerview/pkg/intent"
	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/namespace"
	"github.com/papercomputeco/ledgerview/pkg/relations"
	"github.com/papercomputeco/ledgerview/pkg/roles"
	"github.com/papercomputeco/ledgerview/pkg/signals"
	"github.com/papercomputeco/ledgerview/pkg/tree"
)

const defaultMaterialCategory = "Notes"

// Defaults fill request fields left at their zero value.
type Defaults struct {
	NamespaceID  string
	TreeDepth    int
	NodeDepth    int
	IntentDepth  int
	HistoryLimit int
}

func (d *Defaults) fill() {
	if d.TreeDepth <= 0 {
		d.TreeDepth = 10
	}
	if d.NodeDepth <= 0 {
		d.NodeDepth = 1
	}
	if d.IntentDepth <= 0 {
		d.IntentDepth = 2
	}
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = 100
	}
}

// Config configures a Composer.
type Config struct {
	// Backend is the kernel to fetch from. Required.
	Backend kernel.Backend

	// Discovery lists namespaces. Defaults to a discovery over Backend
	// without labels.
	Discovery *namespace.Discovery

	// Intents resolves intent sections. Defaults to intent.NewResolver().
	Intents *intent.Resolver

	Defaults Defaults

	Logger *slog.Logger
}

// Composer owns one graph cache. Everything it fetches is merged into that
// cache and every view is derived from it, so views of one Composer share
// what earlier requests already loaded.
type Composer struct {
	backend   kernel.Backend
	cache     *graphcache.Cache
	discovery *namespace.Discovery
	intents   *intent.Resolver
	defaults  Defaults
	logger    *slog.Logger
}

// New creates a Composer with an empty cache.
func New(c *Config) (*Composer, error) {
	if c.Backend == nil {
		return nil, errors.New("compose: backend must not be nil")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	discovery := c.Discovery
	if discovery == nil {
		var err error
		discovery, err = namespace.NewDiscovery(&namespace.Config{Source: c.Backend, Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	intents := c.Intents
	if intents == nil {
		intents = intent.NewResolver()
	}

	defaults := c.Defaults
	defaults.fill()

	return &Composer{
		backend:   c.Backend,
		cache:     graphcache.New(),
		discovery: discovery,
		intents:   intents,
		defaults:  defaults,
		logger:    logger,
	}, nil
}

// Cache exposes the composer's graph cache.
func (c *Composer) Cache() *graphcache.Cache {
	return c.cache
}

// Defaults returns the effective defaults.
func (c *Composer) Defaults() Defaults {
	return c.defaults
}

// Reset drops everything cached so far.
func (c *Composer) Reset() {
	c.cache.Clear()
}

// Warm expands roots and merges the result without deriving a view.
func (c *Composer) Warm(ctx context.Context, roots []string, depth int, namespaceID string) error {
	if depth <= 0 {
		depth = c.defaults.TreeDepth
	}
	_, err := c.expand(ctx, roots, depth, c.namespaceOr(namespaceID))
	return err
}

// ProductTree expands the root and builds its CONTAINS tree. Signals are
// aggregated over this expansion only.
func (c *Composer) ProductTree(ctx context.Context, req TreeRequest) (*TreeView, error) {
	ns := c.namespaceOr(req.NamespaceID)
	depth := positiveOr(req.Depth, c.defaults.TreeDepth)

	rootID := req.Root
	if rootID == "" {
		root, err := c.namespaceRoot(ctx, ns)
		if err != nil {
			return nil, err
		}
		rootID = root.NodeID
	}

	res, err := c.expand(ctx, []string{rootID}, depth, ns)
	if err != nil {
		return nil, err
	}

	idx := signals.Aggregate(res.Links, res.Materials)
	t := tree.NewBuilder(c.cache, idx).Build(rootID, depth)

	var path []string
	if req.Focus != "" {
		path = t.Path(req.Focus)
	}

	return &TreeView{
		Root:        rootID,
		NamespaceID: ns,
		Depth:       depth,
		Tree:        t,
		Path:        path,
	}, nil
}

// NodeDetail expands the node's neighbourhood and classifies every cached
// link touching it. An unknown node is a *NotFoundError.
func (c *Composer) NodeDetail(ctx context.Context, req NodeRequest) (*NodeView, error) {
	if req.ID == "" {
		return nil, errors.New("node id must not be empty")
	}

	ns := c.namespaceOr(req.NamespaceID)
	depth := positiveOr(req.Depth, c.defaults.NodeDepth)

	res, err := c.expand(ctx, []string{req.ID}, depth, ns)
	if err != nil {
		return nil, err
	}

	node, ok := c.cache.Node(req.ID)
	if !ok {
		return nil, &NotFoundError{Kind: "node", ID: req.ID}
	}

	roleNames := c.cache.RoleNames(req.ID)
	return &NodeView{
		Node: NodeSummary{
			ID:          node.ID,
			Title:       node.Title,
			Roles:       roleNames,
			NodeType:    roles.NodeType(roleNames),
			Description: ledger.MetaString(node.Meta, "description"),
			JTBD:        ledger.MetaString(node.Meta, "jtbd"),
			Signals:     signals.Aggregate(res.Links, res.Materials).Get(req.ID),
		},
		Relationships: Relationships{
			Groups:    relations.Classify(req.ID, c.cache.LinksOf(req.ID), c.cache),
			Materials: c.cache.Materials(req.ID),
		},
	}, nil
}

// Intent resolves the namespace root, expands below it and sorts the
// expanded nodes into the sections of the namespace's family.
func (c *Composer) Intent(ctx context.Context, req IntentRequest) (*IntentView, error) {
	ns := c.namespaceOr(req.NamespaceID)
	depth := positiveOr(req.Depth, c.defaults.IntentDepth)

	root, err := c.namespaceRoot(ctx, ns)
	if err != nil {
		return nil, err
	}

	res, err := c.expand(ctx, []string{root.NodeID}, depth, ns)
	if err != nil {
		return nil, err
	}

	nodes := make([]ledger.Node, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		if cached, ok := c.cache.Node(n.ID); ok {
			nodes = append(nodes, cached)
		}
	}

	return &IntentView{
		NamespaceID: ns,
		Root:        *root,
		Result:      c.intents.Resolve(ns, nodes, c.cache),
	}, nil
}

// Namespaces lists every navigable namespace, flat and grouped by prefix.
func (c *Composer) Namespaces(ctx context.Context) (*NamespaceListing, error) {
	opts, err := c.discovery.List(ctx)
	if err != nil {
		return nil, err
	}
	return &NamespaceListing{
		Namespaces: opts,
		Grouped:    namespace.GroupByPrefix(opts),
	}, nil
}

// Materials expands the roots and groups the materials found by category,
// categories in first-seen order.
func (c *Composer) Materials(ctx context.Context, req MaterialsRequest) (*MaterialsView, error) {
	ns := c.namespaceOr(req.NamespaceID)
	depth := positiveOr(req.Depth, c.defaults.TreeDepth)

	roots := req.Roots
	if len(roots) == 0 {
		root, err := c.namespaceRoot(ctx, ns)
		if err != nil {
			return nil, err
		}
		roots = []string{root.NodeID}
	}

	res, err := c.expand(ctx, roots, depth, ns)
	if err != nil {
		return nil, err
	}

	return &MaterialsView{Categories: GroupMaterials(res.Materials)}, nil
}

// GroupMaterials groups materials by meta.category (default "Notes").
func GroupMaterials(materials []ledger.Material) []MaterialCategory {
	out := []MaterialCategory{}
	index := map[string]int{}
	for _, m := range materials {
		category := ledger.MetaString(m.Meta, "category")
		if category == "" {
			category = defaultMaterialCategory
		}

		meta := m.Meta
		if meta == nil {
			meta = map[string]any{}
		}

		item := MaterialItem{
			ID:         m.ID,
			NodeID:     m.NodeID,
			Title:      MaterialTitle(m),
			ContentRef: m.ContentRef,
			MediaType:  m.MediaType,
			Category:   category,
			Meta:       meta,
		}

		i, ok := index[category]
		if !ok {
			i = len(out)
			index[category] = i
			out = append(out, MaterialCategory{Category: category})
		}
		out[i].Items = append(out[i].Items, item)
	}
	return out
}

// MaterialTitle is meta.title, else the last path segment of the content
// ref, else the material id.
func MaterialTitle(m ledger.Material) string {
	if title := ledger.MetaString(m.Meta, "title"); title != "" {
		return title
	}
	if base := m.ContentRef[strings.LastIndex(m.ContentRef, "/")+1:]; base != "" {
		return base
	}
	return m.ID
}

// Timeline fetches history for the target and summarises each operation.
func (c *Composer) Timeline(ctx context.Context, req TimelineRequest) (*TimelineView, error) {
	target := c.namespaceOr(req.Target)
	limit := positiveOr(req.Limit, c.defaults.HistoryLimit)

	ops, err := c.backend.History(ctx, target, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", target, err)
	}

	entries := make([]TimelineEntry, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, TimelineEntry{
			ID:            op.ID,
			Seq:           op.Seq,
			OccurredAt:    op.OccurredAt,
			ActorID:       op.ActorID,
			Summary:       Summarize(op.Changes),
			AffectedNodes: AffectedNodes(op.Changes),
			Changes:       op.Changes,
		})
	}

	return &TimelineView{Target: target, Timeline: entries}, nil
}

// Summarize is the first change's kind, with "(+N more)" for the rest.
func Summarize(changes []ledger.Change) string {
	switch len(changes) {
	case 0:
		return "No changes"
	case 1:
		return changes[0].Kind
	default:
		return fmt.Sprintf("%s (+%d more)", changes[0].Kind, len(changes)-1)
	}
}

// AffectedNodes collects the distinct node ids named by the changes'
// node_id, from_node_id and to_node_id payload fields.
func AffectedNodes(changes []ledger.Change) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, ch := range changes {
		for _, key := range []string{"node_id", "from_node_id", "to_node_id"} {
			id := ledger.MetaString(ch.Payload, key)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// expand fetches, dedupes and merges. A fetch whose context ended is
// discarded unmerged. A kernel 404 reads as an empty subgraph.
func (c *Composer) expand(ctx context.Context, roots []string, depth int, ns string) (*ledger.ExpandResult, error) {
	res, err := c.backend.Expand(ctx, ledger.ExpandQuery{RootIDs: roots, Depth: depth, NamespaceID: ns})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if isNotFound(err) {
			return &ledger.ExpandResult{}, nil
		}
		return nil, fmt.Errorf("expanding %s: %w", strings.Join(roots, ","), err)
	}

	res = res.Dedupe()
	c.cache.MergeResult(res)

	c.logger.Debug("merged expansion",
		"roots", roots,
		"depth", depth,
		"namespace", ns,
		"nodes", len(res.Nodes),
		"links", len(res.Links),
	)
	return res, nil
}

func (c *Composer) namespaceRoot(ctx context.Context, ns string) (*ledger.NamespaceRoot, error) {
	root, err := c.backend.NamespaceRoot(ctx, ns)
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Kind: "namespace", ID: ns}
		}
		return nil, fmt.Errorf("resolving root of %s: %w", ns, err)
	}
	if root == nil || root.NodeID == "" {
		return nil, &NotFoundError{Kind: "namespace", ID: ns}
	}
	return root, nil
}

func (c *Composer) namespaceOr(ns string) string {
	if ns != "" {
		return ns
	}
	return c.defaults.NamespaceID
}

func isNotFound(err error) bool {
	var apiErr *kernel.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
