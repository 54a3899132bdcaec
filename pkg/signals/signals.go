// Package signals computes per-node participation flags over an expanded
// subgraph. The flags annotate tree nodes and never change tree shape.
package signals

import "github.com/papercomputeco/ledgerview/pkg/ledger"

// Signals records which semantic buckets a node takes part in.
type Signals struct {
	Alignment bool `json:"alignment"`
	Coherence bool `json:"coherence"`
	Decision  bool `json:"decision"`
	Materials bool `json:"materials"`
}

// Any reports whether at least one flag is set.
func (s Signals) Any() bool {
	return s.Alignment || s.Coherence || s.Decision || s.Materials
}

type set map[string]struct{}

func (s set) add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s set) has(id string) bool {
	_, ok := s[id]
	return ok
}

// Index answers signal lookups by node id. The zero value answers all false.
type Index struct {
	alignment set
	coherence set
	decision  set
	materials set
}

// Aggregate builds an Index in one pass over links and one over materials.
func Aggregate(links []ledger.Link, materials []ledger.Material) Index {
	idx := Index{
		alignment: set{},
		coherence: set{},
		decision:  set{},
		materials: set{},
	}

	for _, l := range links {
		switch ledger.CategoryOf(l.Type) {
		case ledger.CategoryAlignment:
			idx.alignment.add(l.FromNodeID, l.ToNodeID)
		case ledger.CategoryCoherence:
			idx.coherence.add(l.FromNodeID, l.ToNodeID)
		case ledger.CategoryDecisionEvidence:
			idx.decision.add(l.FromNodeID, l.ToNodeID)
		}
	}

	for _, m := range materials {
		idx.materials.add(m.NodeID)
	}

	return idx
}

// Get returns the flags for a node. Unknown ids have every flag false.
func (idx Index) Get(id string) Signals {
	return Signals{
		Alignment: idx.alignment.has(id),
		Coherence: idx.coherence.has(id),
		Decision:  idx.decision.has(id),
		Materials: idx.materials.has(id),
	}
}
