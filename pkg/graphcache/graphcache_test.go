package graphcache_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/graphcache"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

func nodeIDs(nodes []ledger.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

var _ = Describe("Cache", func() {
	var (
		cache *graphcache.Cache
		nodes []ledger.Node
		roles []ledger.RoleAssignment
		links []ledger.Link
	)

	BeforeEach(func() {
		cache = graphcache.New()
		nodes = []ledger.Node{
			{ID: "root", Title: "Root"},
			{ID: "c1", Title: "Child One"},
			{ID: "c2", Title: "Child Two"},
			{ID: "d1", Title: "Decision"},
		}
		roles = []ledger.RoleAssignment{
			{ID: "r1", NodeID: "root", Role: "Product.Goal"},
			{ID: "r2", NodeID: "c1", Role: "Product.Job"},
			{ID: "r3", NodeID: "c1", Role: "Product.Job"},
		}
		links = []ledger.Link{
			{ID: "L1", FromNodeID: "root", ToNodeID: "c1", Type: ledger.LinkContains},
			{ID: "L2", FromNodeID: "root", ToNodeID: "c2", Type: ledger.LinkContains},
			{ID: "L3", FromNodeID: "c1", ToNodeID: "d1", Type: ledger.LinkDecidedBy},
			{ID: "L4", FromNodeID: "root", ToNodeID: "ghost", Type: ledger.LinkContains},
		}
	})

	Describe("Merge", func() {
		It("indexes nodes, roles and links", func() {
			cache.Merge(nodes, roles, links)

			n, ok := cache.Node("c1")
			Expect(ok).To(BeTrue())
			Expect(n.Title).To(Equal("Child One"))
			Expect(cache.Stats()).To(Equal(graphcache.Stats{Nodes: 4, Links: 4, Roles: 3}))
		})

		It("is idempotent", func() {
			cache.Merge(nodes, roles, links)
			before := cache.Stats()
			children := cache.Children("root", ledger.LinkContains)

			cache.Merge(nodes, roles, links)
			Expect(cache.Stats()).To(Equal(before))
			Expect(cache.Children("root", ledger.LinkContains)).To(Equal(children))
			Expect(cache.Roles("c1")).To(HaveLen(2))
		})

		It("replaces nodes last-write-wins", func() {
			cache.Merge(nodes, nil, nil)
			cache.Merge([]ledger.Node{{ID: "c1", Title: "Renamed"}}, nil, nil)

			n, _ := cache.Node("c1")
			Expect(n.Title).To(Equal("Renamed"))
		})

		It("moves a re-merged link whose endpoints changed", func() {
			cache.Merge(nodes, nil, links)
			cache.Merge(nil, nil, []ledger.Link{
				{ID: "L1", FromNodeID: "c2", ToNodeID: "c1", Type: ledger.LinkContains},
			})

			Expect(nodeIDs(cache.Children("root", ledger.LinkContains))).To(Equal([]string{"c2"}))
			Expect(nodeIDs(cache.Children("c2", ledger.LinkContains))).To(Equal([]string{"c1"}))
			Expect(nodeIDs(cache.Parents("c1", ledger.LinkContains))).To(Equal([]string{"c2"}))
		})

		It("merges whole expand results including materials", func() {
			cache.MergeResult(&ledger.ExpandResult{
				Nodes:     nodes,
				Materials: []ledger.Material{{ID: "m1", NodeID: "c1"}, {ID: "m1", NodeID: "c1"}},
			})
			Expect(cache.Materials("c1")).To(HaveLen(1))
			Expect(cache.Materials("c2")).To(BeEmpty())
		})

		It("ignores a nil expand result", func() {
			cache.MergeResult(nil)
			Expect(cache.Stats()).To(Equal(graphcache.Stats{}))
		})
	})

	Describe("Children and Parents", func() {
		BeforeEach(func() {
			cache.Merge(nodes, roles, links)
		})

		It("returns children in link merge order and drops dangling targets", func() {
			Expect(nodeIDs(cache.Children("root", ledger.LinkContains))).To(Equal([]string{"c1", "c2"}))
		})

		It("filters by link type", func() {
			Expect(cache.Children("c1", ledger.LinkContains)).To(BeEmpty())
			Expect(nodeIDs(cache.Children("c1"))).To(Equal([]string{"d1"}))
		})

		It("returns parents", func() {
			Expect(nodeIDs(cache.Parents("c2", ledger.LinkContains))).To(Equal([]string{"root"}))
		})

		It("returns empty results for unknown ids", func() {
			Expect(cache.Children("missing")).To(BeEmpty())
			Expect(cache.Parents("missing")).To(BeEmpty())
			Expect(cache.Roles("missing")).To(BeEmpty())
			Expect(cache.Related("missing")).To(BeEmpty())
		})
	})

	Describe("Related", func() {
		It("names the direction from the perspective node", func() {
			cache.Merge(nodes, roles, links)

			related := cache.Related("c1")
			Expect(related).To(HaveLen(2))
			Expect(related[0].Node.ID).To(Equal("d1"))
			Expect(related[0].Direction).To(Equal(graphcache.DirectionFrom))
			Expect(related[1].Node.ID).To(Equal("root"))
			Expect(related[1].Direction).To(Equal(graphcache.DirectionTo))
		})

		It("deduplicates by link type and counterpart", func() {
			cache.Merge(
				[]ledger.Node{{ID: "A"}, {ID: "B"}},
				nil,
				[]ledger.Link{
					{ID: "L1", FromNodeID: "A", ToNodeID: "B", Type: ledger.LinkSupports},
					{ID: "L2", FromNodeID: "A", ToNodeID: "B", Type: ledger.LinkSupports},
					{ID: "L3", FromNodeID: "A", ToNodeID: "B", Type: ledger.LinkAffects},
				},
			)

			related := cache.Related("A")
			Expect(related).To(HaveLen(2))
			Expect(related[0].Link.Type).To(Equal(ledger.LinkSupports))
			Expect(related[1].Link.Type).To(Equal(ledger.LinkAffects))
			Expect(cache.Related("A", ledger.LinkSupports)).To(HaveLen(1))
		})
	})

	Describe("RoleNames", func() {
		It("returns distinct role strings", func() {
			cache.Merge(nodes, roles, nil)
			Expect(cache.RoleNames("c1")).To(Equal([]string{"Product.Job"}))
		})
	})

	Describe("LinksOf", func() {
		It("lists outgoing then incoming links once each", func() {
			cache.Merge(nodes, nil, append(links, ledger.Link{ID: "self", FromNodeID: "c1", ToNodeID: "c1", Type: "MENTIONS"}))
			ids := []string{}
			for _, l := range cache.LinksOf("c1") {
				ids = append(ids, l.ID)
			}
			Expect(ids).To(Equal([]string{"L3", "self", "L1"}))
		})

		It("keeps merge order across many batches", func() {
			want := []string{}
			for i := range 20 {
				id := fmt.Sprintf("hub-%02d", i)
				want = append(want, id)
				cache.Merge(
					[]ledger.Node{{ID: "hub"}, {ID: fmt.Sprintf("n%02d", i)}},
					nil,
					[]ledger.Link{{ID: id, FromNodeID: fmt.Sprintf("n%02d", i), ToNodeID: "hub", Type: ledger.LinkContains}},
				)
			}

			ids := []string{}
			for _, l := range cache.LinksOf("hub") {
				ids = append(ids, l.ID)
			}
			Expect(ids).To(Equal(want))
			Expect(nodeIDs(cache.Parents("hub"))).To(HaveLen(20))
			Expect(nodeIDs(cache.Parents("hub"))[0]).To(Equal("n00"))
		})
	})

	Describe("Clear", func() {
		It("drops everything", func() {
			cache.Merge(nodes, roles, links)
			cache.Clear()

			Expect(cache.Stats()).To(Equal(graphcache.Stats{}))
			_, ok := cache.Node("root")
			Expect(ok).To(BeFalse())
		})
	})

	It("tolerates concurrent merges and reads", func() {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				cache.Merge(nodes, roles, links)
			}()
			go func() {
				defer wg.Done()
				_ = cache.Children("root", ledger.LinkContains)
				_ = cache.Related("c1")
			}()
		}
		wg.Wait()

		Expect(cache.Stats().Links).To(Equal(4))
	})
})
