// Package relations classifies the links around a perspective node into the
// semantic buckets shown in node detail views.
package relations

import (
	"github.com/papercomputeco/ledgerview/pkg/graphcache"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

// Resolver looks up link endpoints. *graphcache.Cache satisfies it.
type Resolver interface {
	Node(id string) (ledger.Node, bool)
	RoleNames(id string) []string
}

// Buckets is the link-level partition of every link touching a node.
// Each surviving link lands in exactly one bucket.
type Buckets struct {
	Hierarchy        []ledger.Link `json:"hierarchy"`
	Alignment        []ledger.Link `json:"alignment"`
	Coherence        []ledger.Link `json:"coherence"`
	DecisionEvidence []ledger.Link `json:"decision_evidence"`
	Other            []ledger.Link `json:"other"`
}

// All returns the buckets concatenated in category order.
func (b Buckets) All() []ledger.Link {
	out := make([]ledger.Link, 0, b.Len())
	out = append(out, b.Hierarchy...)
	out = append(out, b.Alignment...)
	out = append(out, b.Coherence...)
	out = append(out, b.DecisionEvidence...)
	out = append(out, b.Other...)
	return out
}

// Len is the total number of partitioned links.
func (b Buckets) Len() int {
	return len(b.Hierarchy) + len(b.Alignment) + len(b.Coherence) + len(b.DecisionEvidence) + len(b.Other)
}

func (b *Buckets) add(l ledger.Link) {
	switch ledger.CategoryOf(l.Type) {
	case ledger.CategoryHierarchy:
		b.Hierarchy = append(b.Hierarchy, l)
	case ledger.CategoryAlignment:
		b.Alignment = append(b.Alignment, l)
	case ledger.CategoryCoherence:
		b.Coherence = append(b.Coherence, l)
	case ledger.CategoryDecisionEvidence:
		b.DecisionEvidence = append(b.DecisionEvidence, l)
	default:
		b.Other = append(b.Other, l)
	}
}

// Entry is one resolved neighbour of the perspective node.
type Entry struct {
	Type      string               `json:"type"`
	Direction graphcache.Direction `json:"direction"`
	Node      ledger.Node          `json:"node"`
	Roles     []string             `json:"roles"`
}

// Groups is the entry-level view of a node's relationships.
type Groups struct {
	Children         []Entry `json:"children"`
	Parents          []Entry `json:"parents"`
	Alignment        []Entry `json:"alignment"`
	Coherence        []Entry `json:"coherence"`
	DecisionEvidence []Entry `json:"decisions_and_evidence"`
	Other            []Entry `json:"other"`
}

// Partition dedupes links by id, keeps those touching perspectiveID, and
// assigns each to the bucket of its link category.
func Partition(perspectiveID string, links []ledger.Link) Buckets {
	var b Buckets
	for _, l := range ledger.DedupeLinks(links) {
		if !l.Touches(perspectiveID) {
			continue
		}
		b.add(l)
	}
	return b
}

// Classify partitions the links around perspectiveID and resolves each
// counterpart through r. Links to uncached nodes are dropped, and each group
// holds at most one entry per (link type, counterpart).
func Classify(perspectiveID string, links []ledger.Link, r Resolver) Groups {
	b := Partition(perspectiveID, links)

	g := Groups{
		Children:         []Entry{},
		Parents:          []Entry{},
		Alignment:        resolve(perspectiveID, b.Alignment, r),
		Coherence:        resolve(perspectiveID, b.Coherence, r),
		DecisionEvidence: resolve(perspectiveID, b.DecisionEvidence, r),
		Other:            resolve(perspectiveID, b.Other, r),
	}

	var outgoing, incoming []ledger.Link
	for _, l := range b.Hierarchy {
		if l.FromNodeID == perspectiveID {
			outgoing = append(outgoing, l)
		} else {
			incoming = append(incoming, l)
		}
	}
	g.Children = resolve(perspectiveID, outgoing, r)
	g.Parents = resolve(perspectiveID, incoming, r)

	return g
}

// Connections resolves every neighbour of perspectiveID regardless of link
// category, deduplicated by (link type, counterpart).
func Connections(perspectiveID string, links []ledger.Link, r Resolver) []Entry {
	touching := make([]ledger.Link, 0, len(links))
	for _, l := range ledger.DedupeLinks(links) {
		if l.Touches(perspectiveID) {
			touching = append(touching, l)
		}
	}
	return resolve(perspectiveID, touching, r)
}

func resolve(perspectiveID string, links []ledger.Link, r Resolver) []Entry {
	type key struct{ linkType, nodeID string }
	seen := make(map[key]struct{}, len(links))

	out := make([]Entry, 0, len(links))
	for _, l := range links {
		other := l.Counterpart(perspectiveID)
		k := key{l.Type, other}
		if _, ok := seen[k]; ok {
			continue
		}

		n, ok := r.Node(other)
		if !ok {
			continue
		}
		seen[k] = struct{}{}

		dir := graphcache.DirectionTo
		if l.FromNodeID == perspectiveID {
			dir = graphcache.DirectionFrom
		}
		out = append(out, Entry{
			Type:      l.Type,
			Direction: dir,
			Node:      n,
			Roles:     r.RoleNames(other),
		})
	}
	return out
}
