// Package tree builds cycle-safe CONTAINS hierarchies out of a graph cache.
package tree

import (
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/roles"
	"github.com/papercomputeco/ledgerview/pkg/signals"
)

// Graph is the read side of the graph cache the builder walks.
type Graph interface {
	Node(id string) (ledger.Node, bool)
	RoleNames(id string) []string
	Children(id string, linkType ...string) []ledger.Node
}

// Node is one vertex of a built tree.
type Node struct {
	ID          string          `json:"node_id"`
	Title       string          `json:"title"`
	Roles       []string        `json:"roles"`
	NodeType    string          `json:"node_type,omitempty"`
	Description string          `json:"description,omitempty"`
	JTBD        string          `json:"jtbd,omitempty"`
	Signals     signals.Signals `json:"signals"`
	Children    []*Node         `json:"children"`
}

// Builder derives trees from whatever the graph already holds; it never
// fetches. Signals is optional and only annotates nodes.
type Builder struct {
	Graph   Graph
	Signals signals.Index
}

// NewBuilder returns a builder over g annotated with idx.
func NewBuilder(g Graph, idx signals.Index) *Builder {
	return &Builder{Graph: g, Signals: idx}
}

// Build walks outgoing CONTAINS links depth-first from rootID, at most
// maxDepth hops deep (negative means unbounded). A node reached a second time
// is left out, which cuts cycles and collapses diamonds onto their first path.
// It returns nil when rootID is not cached.
func (b *Builder) Build(rootID string, maxDepth int) *Node {
	visited := make(map[string]struct{})
	return b.build(rootID, 0, maxDepth, visited)
}

func (b *Builder) build(id string, depth, maxDepth int, visited map[string]struct{}) *Node {
	if _, ok := visited[id]; ok {
		return nil
	}
	visited[id] = struct{}{}

	n, ok := b.Graph.Node(id)
	if !ok {
		return nil
	}

	roleNames := b.Graph.RoleNames(id)
	out := &Node{
		ID:          n.ID,
		Title:       n.Title,
		Roles:       roleNames,
		NodeType:    roles.NodeType(roleNames),
		Description: ledger.MetaString(n.Meta, "description"),
		JTBD:        ledger.MetaString(n.Meta, "jtbd"),
		Signals:     b.Signals.Get(id),
		Children:    []*Node{},
	}

	if maxDepth >= 0 && depth >= maxDepth {
		return out
	}

	for _, child := range b.Graph.Children(id, ledger.LinkContains) {
		if sub := b.build(child.ID, depth+1, maxDepth, visited); sub != nil {
			out.Children = append(out.Children, sub)
		}
	}
	return out
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// Find returns the subtree rooted at id, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Path returns the ids from the root down to id, or nil when id is not in
// the tree.
func (n *Node) Path(id string) []string {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return []string{n.ID}
	}
	for _, c := range n.Children {
		if p := c.Path(id); p != nil {
			return append([]string{n.ID}, p...)
		}
	}
	return nil
}

// Size counts the nodes in the tree.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}
