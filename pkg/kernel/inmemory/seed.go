package inmemory

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

//go:embed seeds/*.yaml
var demoSeeds embed.FS

// Seed is a namespace graph described by node titles. The first node is the
// namespace root.
type Seed struct {
	Namespace string     `yaml:"namespace"`
	Label     string     `yaml:"label,omitempty"`
	Nodes     []SeedNode `yaml:"nodes"`
	Links     []SeedLink `yaml:"links"`
}

// SeedNode is a node keyed by its title within the seed.
type SeedNode struct {
	Title       string         `yaml:"title"`
	Role        string         `yaml:"role,omitempty"`
	Roles       []string       `yaml:"roles,omitempty"`
	Description string         `yaml:"description,omitempty"`
	JTBD        string         `yaml:"jtbd,omitempty"`
	Materials   []SeedMaterial `yaml:"materials,omitempty"`
}

// SeedLink connects two seed nodes by title.
type SeedLink struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

// SeedMaterial is a material attached to a seed node.
type SeedMaterial struct {
	Ref       string `yaml:"ref"`
	MediaType string `yaml:"media_type"`
	Category  string `yaml:"category,omitempty"`
	Title     string `yaml:"title,omitempty"`
	ByteSize  int64  `yaml:"byte_size,omitempty"`
}

// ParseSeed decodes a YAML seed.
func ParseSeed(r io.Reader) (*Seed, error) {
	s := &Seed{}
	if err := yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if s.Namespace == "" || len(s.Nodes) == 0 {
		return nil, fmt.Errorf("seed requires a namespace and at least one node")
	}
	return s, nil
}

// DemoSeeds returns the built-in Kesteron product and financial ledgers,
// sorted by namespace.
func DemoSeeds() ([]*Seed, error) {
	entries, err := fs.ReadDir(demoSeeds, "seeds")
	if err != nil {
		return nil, err
	}

	var seeds []*Seed
	for _, e := range entries {
		f, err := demoSeeds.Open(path.Join("seeds", e.Name()))
		if err != nil {
			return nil, err
		}
		s, err := ParseSeed(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		seeds = append(seeds, s)
	}

	sort.Slice(seeds, func(i, j int) bool {
		return seeds[i].Namespace < seeds[j].Namespace
	})
	return seeds, nil
}

// NodeID returns the stable id a seed assigns to the node with this title.
func NodeID(namespaceID, title string) string {
	return "node:" + stableID(namespaceID, "node", title)
}

func stableID(parts ...string) string {
	name := ""
	for _, p := range parts {
		name += p + "\x00"
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// graph converts a seed into kernel records. Links naming unknown titles are
// an error.
func (s *Seed) graph() (*ledger.ExpandResult, error) {
	ns := s.Namespace
	out := &ledger.ExpandResult{}

	ids := make(map[string]string, len(s.Nodes))
	for _, n := range s.Nodes {
		id := NodeID(ns, n.Title)
		ids[n.Title] = id

		meta := map[string]any{}
		if n.Description != "" {
			meta["description"] = n.Description
		}
		if n.JTBD != "" {
			meta["jtbd"] = n.JTBD
		}
		node := ledger.Node{ID: id, Title: n.Title}
		if len(meta) > 0 {
			node.Meta = meta
		}
		out.Nodes = append(out.Nodes, node)

		roleNames := n.Roles
		if n.Role != "" {
			roleNames = append([]string{n.Role}, roleNames...)
		}
		for _, role := range roleNames {
			out.Roles = append(out.Roles, ledger.RoleAssignment{
				ID:          "role:" + stableID(ns, "role", id, role),
				NodeID:      id,
				NamespaceID: ns,
				Role:        role,
			})
		}

		for _, m := range n.Materials {
			meta := map[string]any{}
			if m.Category != "" {
				meta["category"] = m.Category
			}
			if m.Title != "" {
				meta["title"] = m.Title
			}
			mat := ledger.Material{
				ID:         "material:" + stableID(ns, "material", id, m.Ref),
				NodeID:     id,
				ContentRef: m.Ref,
				MediaType:  m.MediaType,
				ByteSize:   m.ByteSize,
			}
			if len(meta) > 0 {
				mat.Meta = meta
			}
			out.Materials = append(out.Materials, mat)
		}
	}

	for _, l := range s.Links {
		from, ok := ids[l.From]
		if !ok {
			return nil, fmt.Errorf("link from unknown node %q", l.From)
		}
		to, ok := ids[l.To]
		if !ok {
			return nil, fmt.Errorf("link to unknown node %q", l.To)
		}
		out.Links = append(out.Links, ledger.Link{
			ID:          "link:" + stableID(ns, "link", from, to, l.Type),
			FromNodeID:  from,
			ToNodeID:    to,
			Type:        l.Type,
			NamespaceID: ns,
		})
	}

	return out, nil
}
