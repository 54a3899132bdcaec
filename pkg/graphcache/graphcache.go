// Package graphcache provides the in-memory, id-indexed view of every node,
// link, role assignment and material seen across expansions. Views are derived
// from the cache rather than from individual kernel responses, so repeated and
// overlapping expansions only ever add or replace records.
package graphcache

import (
	"sync"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

// Direction names which side of a link the perspective node sits on.
type Direction string

const (
	// DirectionFrom means the perspective node is the link's source.
	DirectionFrom Direction = "from"

	// DirectionTo means the perspective node is the link's target.
	DirectionTo Direction = "to"
)

// Relation is a neighbour reached through one link.
type Relation struct {
	Node      ledger.Node `json:"node"`
	Link      ledger.Link `json:"link"`
	Direction Direction   `json:"direction"`
}

// Stats reports the size of each index.
type Stats struct {
	Nodes     int `json:"nodes"`
	Links     int `json:"links"`
	Roles     int `json:"roles"`
	Materials int `json:"materials"`
}

// Cache is a concurrency-safe graph cache. The zero value is not usable; call New.
type Cache struct {
	mu sync.RWMutex

	nodes map[string]ledger.Node

	roles       map[string]ledger.RoleAssignment
	rolesByNode map[string][]string

	links  map[string]ledger.Link
	byFrom map[string][]string
	byTo   map[string][]string

	materials       map[string]ledger.Material
	materialsByNode map[string][]string
}

// New creates an empty cache.
func New() *Cache {
	c := &Cache{}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.nodes = make(map[string]ledger.Node)
	c.roles = make(map[string]ledger.RoleAssignment)
	c.rolesByNode = make(map[string][]string)
	c.links = make(map[string]ledger.Link)
	c.byFrom = make(map[string][]string)
	c.byTo = make(map[string][]string)
	c.materials = make(map[string]ledger.Material)
	c.materialsByNode = make(map[string][]string)
}

// Merge inserts or replaces nodes, role assignments and links by id.
// Merging the same batch twice leaves the cache unchanged.
func (c *Cache) Merge(nodes []ledger.Node, roles []ledger.RoleAssignment, links []ledger.Link) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mergeLocked(nodes, roles, links, nil)
}

// MergeResult merges a whole expand batch, materials included.
func (c *Cache) MergeResult(result *ledger.ExpandResult) {
	if result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mergeLocked(result.Nodes, result.Roles, result.Links, result.Materials)
}

func (c *Cache) mergeLocked(nodes []ledger.Node, roles []ledger.RoleAssignment, links []ledger.Link, materials []ledger.Material) {
	for _, n := range nodes {
		c.nodes[n.ID] = n
	}

	for _, ra := range roles {
		if prev, ok := c.roles[ra.ID]; ok && prev.NodeID != ra.NodeID {
			c.rolesByNode[prev.NodeID] = without(c.rolesByNode[prev.NodeID], ra.ID)
			c.rolesByNode[ra.NodeID] = append(c.rolesByNode[ra.NodeID], ra.ID)
		} else if !ok {
			c.rolesByNode[ra.NodeID] = append(c.rolesByNode[ra.NodeID], ra.ID)
		}
		c.roles[ra.ID] = ra
	}

	for _, l := range links {
		prev, ok := c.links[l.ID]
		switch {
		case !ok:
			c.byFrom[l.FromNodeID] = append(c.byFrom[l.FromNodeID], l.ID)
			c.byTo[l.ToNodeID] = append(c.byTo[l.ToNodeID], l.ID)
		default:
			if prev.FromNodeID != l.FromNodeID {
				c.byFrom[prev.FromNodeID] = without(c.byFrom[prev.FromNodeID], l.ID)
				c.byFrom[l.FromNodeID] = append(c.byFrom[l.FromNodeID], l.ID)
			}
			if prev.ToNodeID != l.ToNodeID {
				c.byTo[prev.ToNodeID] = without(c.byTo[prev.ToNodeID], l.ID)
				c.byTo[l.ToNodeID] = append(c.byTo[l.ToNodeID], l.ID)
			}
		}
		c.links[l.ID] = l
	}

	for _, m := range materials {
		if prev, ok := c.materials[m.ID]; ok && prev.NodeID != m.NodeID {
			c.materialsByNode[prev.NodeID] = without(c.materialsByNode[prev.NodeID], m.ID)
			c.materialsByNode[m.NodeID] = append(c.materialsByNode[m.NodeID], m.ID)
		} else if !ok {
			c.materialsByNode[m.NodeID] = append(c.materialsByNode[m.NodeID], m.ID)
		}
		c.materials[m.ID] = m
	}
}

// Node returns the cached node with the given id.
func (c *Cache) Node(id string) (ledger.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.nodes[id]
	return n, ok
}

// Roles returns the role assignments attached to a node in merge order.
func (c *Cache) Roles(id string) []ledger.RoleAssignment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.rolesByNode[id]
	out := make([]ledger.RoleAssignment, 0, len(ids))
	for _, rid := range ids {
		out = append(out, c.roles[rid])
	}
	return out
}

// RoleNames returns the distinct role strings attached to a node.
func (c *Cache) RoleNames(id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.roleNamesLocked(id)
}

func (c *Cache) roleNamesLocked(id string) []string {
	ids := c.rolesByNode[id]
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, rid := range ids {
		role := c.roles[rid].Role
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

// Children returns the targets of the node's outgoing links, optionally
// restricted to one link type. Dangling targets are dropped.
func (c *Cache) Children(id string, linkType ...string) []ledger.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.neighboursLocked(c.byFrom[id], true, linkType)
}

// Parents returns the sources of the node's incoming links, optionally
// restricted to one link type. Dangling sources are dropped.
func (c *Cache) Parents(id string, linkType ...string) []ledger.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.neighboursLocked(c.byTo[id], false, linkType)
}

func (c *Cache) neighboursLocked(linkIDs []string, outgoing bool, linkType []string) []ledger.Node {
	out := make([]ledger.Node, 0, len(linkIDs))
	for _, lid := range linkIDs {
		l := c.links[lid]
		if !matchesType(l, linkType) {
			continue
		}

		target := l.FromNodeID
		if outgoing {
			target = l.ToNodeID
		}
		if n, ok := c.nodes[target]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Related returns every neighbour of the node: outgoing links first, then
// incoming, deduplicated by (link type, counterpart id).
func (c *Cache) Related(id string, linkType ...string) []Relation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type key struct{ linkType, nodeID string }
	seen := make(map[key]struct{})

	var out []Relation
	collect := func(linkIDs []string, dir Direction) {
		for _, lid := range linkIDs {
			l := c.links[lid]
			if !matchesType(l, linkType) {
				continue
			}

			other := l.Counterpart(id)
			k := key{l.Type, other}
			if _, ok := seen[k]; ok {
				continue
			}
			n, ok := c.nodes[other]
			if !ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Relation{Node: n, Link: l, Direction: dir})
		}
	}

	collect(c.byFrom[id], DirectionFrom)
	collect(c.byTo[id], DirectionTo)
	return out
}

// LinksOf returns every link touching the node, outgoing first.
func (c *Cache) LinksOf(id string) []ledger.Link {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ledger.Link, 0, len(c.byFrom[id])+len(c.byTo[id]))
	for _, lid := range c.byFrom[id] {
		out = append(out, c.links[lid])
	}
	for _, lid := range c.byTo[id] {
		l := c.links[lid]
		// self-loops are already listed as outgoing
		if l.FromNodeID == id {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Materials returns the materials attached to a node in merge order.
func (c *Cache) Materials(id string) []ledger.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.materialsByNode[id]
	out := make([]ledger.Material, 0, len(ids))
	for _, mid := range ids {
		out = append(out, c.materials[mid])
	}
	return out
}

// Stats reports index sizes.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Nodes:     len(c.nodes),
		Links:     len(c.links),
		Roles:     len(c.roles),
		Materials: len(c.materials),
	}
}

// Clear drops every cached record.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
}

func matchesType(l ledger.Link, linkType []string) bool {
	if len(linkType) == 0 || linkType[0] == "" {
		return true
	}
	return l.Type == linkType[0]
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
