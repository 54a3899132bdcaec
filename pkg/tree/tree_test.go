package tree_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/graphcache"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/signals"
	"github.com/papercomputeco/ledgerview/pkg/tree"
)

func contains(id, from, to string) ledger.Link {
	return ledger.Link{ID: id, FromNodeID: from, ToNodeID: to, Type: ledger.LinkContains}
}

func childIDs(n *tree.Node) []string {
	ids := []string{}
	for _, c := range n.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

var _ = Describe("Builder", func() {
	var cache *graphcache.Cache

	BeforeEach(func() {
		cache = graphcache.New()
	})

	Context("end-to-end scenario", func() {
		var links []ledger.Link

		BeforeEach(func() {
			links = []ledger.Link{
				contains("L1", "root", "c1"),
				contains("L2", "root", "c2"),
				{ID: "L3", FromNodeID: "c1", ToNodeID: "c2", Type: ledger.LinkDependsOn},
			}
			cache.Merge([]ledger.Node{{ID: "root"}, {ID: "c1"}, {ID: "c2"}}, nil, links)
		})

		It("builds the CONTAINS hierarchy with signals attached", func() {
			idx := signals.Aggregate(links, nil)
			root := tree.NewBuilder(cache, idx).Build("root", 5)

			Expect(root).NotTo(BeNil())
			Expect(root.ID).To(Equal("root"))
			Expect(childIDs(root)).To(Equal([]string{"c1", "c2"}))
			Expect(root.Children[0].Children).To(BeEmpty())
			Expect(root.Children[1].Children).To(BeEmpty())

			Expect(root.Signals).To(Equal(signals.Signals{}))
			Expect(root.Children[0].Signals.Coherence).To(BeTrue())
			Expect(root.Children[1].Signals.Coherence).To(BeTrue())
		})

		It("does not let signals change the shape", func() {
			withSignals := tree.NewBuilder(cache, signals.Aggregate(links, nil)).Build("root", 5)
			without := tree.NewBuilder(cache, signals.Index{}).Build("root", 5)
			Expect(withSignals.Size()).To(Equal(without.Size()))
			Expect(childIDs(withSignals)).To(Equal(childIDs(without)))
		})
	})

	It("terminates on a CONTAINS cycle", func() {
		cache.Merge([]ledger.Node{{ID: "A"}, {ID: "B"}}, nil, []ledger.Link{
			contains("L1", "A", "B"),
			contains("L2", "B", "A"),
		})

		root := tree.NewBuilder(cache, signals.Index{}).Build("A", 10)
		Expect(root.ID).To(Equal("A"))
		Expect(childIDs(root)).To(Equal([]string{"B"}))
		Expect(root.Children[0].Children).To(BeEmpty())
	})

	It("keeps a diamond node only on its first path", func() {
		cache.Merge([]ledger.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}, {ID: "shared"}}, nil, []ledger.Link{
			contains("L1", "r", "a"),
			contains("L2", "r", "b"),
			contains("L3", "a", "shared"),
			contains("L4", "b", "shared"),
		})

		root := tree.NewBuilder(cache, signals.Index{}).Build("r", -1)
		Expect(childIDs(root.Children[0])).To(Equal([]string{"shared"}))
		Expect(root.Children[1].Children).To(BeEmpty())
		Expect(root.Size()).To(Equal(4))
	})

	It("returns nil for an unknown root", func() {
		Expect(tree.NewBuilder(cache, signals.Index{}).Build("missing", 3)).To(BeNil())
	})

	It("preserves link merge order rather than sorting", func() {
		cache.Merge([]ledger.Node{{ID: "r"}, {ID: "z"}, {ID: "a"}, {ID: "m"}}, nil, []ledger.Link{
			contains("L1", "r", "z"),
			contains("L2", "r", "a"),
			contains("L3", "r", "m"),
		})

		Expect(childIDs(tree.NewBuilder(cache, signals.Index{}).Build("r", 1))).To(Equal([]string{"z", "a", "m"}))
	})

	It("ignores non-CONTAINS links and dangling children", func() {
		cache.Merge([]ledger.Node{{ID: "r"}, {ID: "x"}}, nil, []ledger.Link{
			{ID: "L1", FromNodeID: "r", ToNodeID: "x", Type: ledger.LinkSupports},
			contains("L2", "r", "ghost"),
		})

		Expect(tree.NewBuilder(cache, signals.Index{}).Build("r", 3).Children).To(BeEmpty())
	})

	Context("depth limits", func() {
		BeforeEach(func() {
			cache.Merge([]ledger.Node{{ID: "r"}, {ID: "a"}, {ID: "b"}}, nil, []ledger.Link{
				contains("L1", "r", "a"),
				contains("L2", "a", "b"),
			})
		})

		It("returns only the root at depth zero", func() {
			Expect(tree.NewBuilder(cache, signals.Index{}).Build("r", 0).Children).To(BeEmpty())
		})

		It("stops after maxDepth hops", func() {
			root := tree.NewBuilder(cache, signals.Index{}).Build("r", 1)
			Expect(childIDs(root)).To(Equal([]string{"a"}))
			Expect(root.Children[0].Children).To(BeEmpty())
		})

		It("is unbounded for negative depth", func() {
			Expect(tree.NewBuilder(cache, signals.Index{}).Build("r", -1).Size()).To(Equal(3))
		})
	})

	It("fills labels from roles and meta", func() {
		cache.Merge(
			[]ledger.Node{{ID: "g", Title: "Goal", Meta: map[string]any{"description": "Ship it", "jtbd": "When..."}}},
			[]ledger.RoleAssignment{{ID: "r1", NodeID: "g", Role: "Product.Goal"}},
			nil,
		)

		root := tree.NewBuilder(cache, signals.Index{}).Build("g", 1)
		Expect(root.Roles).To(Equal([]string{"Product.Goal"}))
		Expect(root.NodeType).To(Equal("Goal"))
		Expect(root.Description).To(Equal("Ship it"))
		Expect(root.JTBD).To(Equal("When..."))
	})
})

var _ = Describe("Node helpers", func() {
	var root *tree.Node

	BeforeEach(func() {
		root = &tree.Node{ID: "r", Children: []*tree.Node{
			{ID: "a", Children: []*tree.Node{{ID: "b"}}},
			{ID: "c"},
		}}
	})

	It("finds a subtree", func() {
		Expect(root.Find("b").ID).To(Equal("b"))
		Expect(root.Find("zz")).To(BeNil())
	})

	It("returns the root-to-node path", func() {
		Expect(root.Path("b")).To(Equal([]string{"r", "a", "b"}))
		Expect(root.Path("c")).To(Equal([]string{"r", "c"}))
		Expect(root.Path("zz")).To(BeNil())
	})

	It("walks parents before children with depths", func() {
		var seen []string
		var depths []int
		root.Walk(func(n *tree.Node, depth int) bool {
			seen = append(seen, n.ID)
			depths = append(depths, depth)
			return true
		})
		Expect(seen).To(Equal([]string{"r", "a", "b", "c"}))
		Expect(depths).To(Equal([]int{0, 1, 2, 1}))
	})

	It("counts nodes and tolerates nil", func() {
		Expect(root.Size()).To(Equal(4))
		var empty *tree.Node
		Expect(empty.Size()).To(BeZero())
	})
})
