// Package intent sorts namespace nodes into ledger-specific intent sections
// such as strategic objectives and assurance obligations.
package intent

import (
	"strings"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/relations"
	"github.com/papercomputeco/ledgerview/pkg/roles"
)

// Graph is what the resolver reads: node and role lookups plus the links
// touching a node.
type Graph interface {
	relations.Resolver
	LinksOf(id string) []ledger.Link
}

// Entry is one node placed in one section.
type Entry struct {
	Section     string            `json:"section"`
	NodeID      string            `json:"node_id"`
	Title       string            `json:"title"`
	Roles       []string          `json:"roles"`
	Connections []relations.Entry `json:"connections"`
}

// Result is the intent view of a namespace.
type Result struct {
	Family   string    `json:"family"`
	Sections []Section `json:"sections"`
	Intents  []Entry   `json:"intents"`
}

// BySection returns the entries placed in the given section.
func (r *Result) BySection(key string) []Entry {
	out := []Entry{}
	for _, e := range r.Intents {
		if e.Section == key {
			out = append(out, e)
		}
	}
	return out
}

// Resolver dispatches on namespace family.
type Resolver struct {
	families map[string]Family
}

// NewResolver builds a resolver over families, or DefaultFamilies when none
// are given.
func NewResolver(families ...Family) *Resolver {
	if len(families) == 0 {
		families = DefaultFamilies()
	}

	r := &Resolver{families: make(map[string]Family, len(families))}
	for _, f := range families {
		r.families[f.Name] = f
	}
	return r
}

// FamilyOf returns the namespace prefix before the first ":", or the whole
// id when there is none.
func FamilyOf(namespaceID string) string {
	family, _, _ := strings.Cut(namespaceID, ":")
	return family
}

// Resolve places each node into the sections of its namespace family.
// Unknown families yield an empty result. Each entry's connections are
// computed independently, even for a node duplicated across sections.
func (r *Resolver) Resolve(namespaceID string, nodes []ledger.Node, g Graph) *Result {
	name := FamilyOf(namespaceID)
	res := &Result{
		Family:   name,
		Sections: []Section{},
		Intents:  []Entry{},
	}

	family, ok := r.families[name]
	if !ok {
		return res
	}
	res.Sections = append(res.Sections, family.Sections...)

	matched := make([]map[string]bool, len(nodes))
	for i, n := range nodes {
		matched[i] = map[string]bool{}
		roleNames := g.RoleNames(n.ID)
		if family.Exclusive {
			if section, ok := roles.First(family.Rules, roleNames); ok {
				matched[i][section] = true
			}
			continue
		}
		for _, section := range roles.All(family.Rules, roleNames) {
			matched[i][section] = true
		}
	}

	for _, section := range family.Sections {
		for i, n := range nodes {
			if !matched[i][section.Key] {
				continue
			}
			res.Intents = append(res.Intents, Entry{
				Section:     section.Key,
				NodeID:      n.ID,
				Title:       n.Title,
				Roles:       g.RoleNames(n.ID),
				Connections: relations.Connections(n.ID, g.LinksOf(n.ID), g),
			})
		}
	}

	return res
}
