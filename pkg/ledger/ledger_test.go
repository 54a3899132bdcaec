package ledger_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
)

var _ = Describe("CategoryOf", func() {
	DescribeTable("classifies link types",
		func(linkType string, expected ledger.Category) {
			Expect(ledger.CategoryOf(linkType)).To(Equal(expected))
		},
		Entry("CONTAINS", "CONTAINS", ledger.CategoryHierarchy),
		Entry("SUPPORTS", "SUPPORTS", ledger.CategoryAlignment),
		Entry("SATISFIES", "SATISFIES", ledger.CategoryAlignment),
		Entry("ADVANCES", "ADVANCES", ledger.CategoryAlignment),
		Entry("DEPENDS_ON", "DEPENDS_ON", ledger.CategoryCoherence),
		Entry("AFFECTS", "AFFECTS", ledger.CategoryCoherence),
		Entry("DECIDED_BY", "DECIDED_BY", ledger.CategoryDecisionEvidence),
		Entry("EVIDENCED_BY", "EVIDENCED_BY", ledger.CategoryDecisionEvidence),
		Entry("unknown type", "MENTIONS", ledger.CategoryOther),
		Entry("lowercase is not matched", "contains", ledger.CategoryOther),
		Entry("empty type", "", ledger.CategoryOther),
	)

	It("names categories for serialization", func() {
		text, err := ledger.CategoryDecisionEvidence.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(text)).To(Equal("decision_evidence"))
		Expect(ledger.CategoryOther.String()).To(Equal("other"))
	})
})

var _ = Describe("DedupeLinks", func() {
	It("returns an empty slice for no input", func() {
		Expect(ledger.DedupeLinks(nil)).To(BeEmpty())
	})

	It("keeps the first record for each link id in first-seen order", func() {
		links := []ledger.Link{
			{ID: "L1", FromNodeID: "a", ToNodeID: "b", Type: "CONTAINS"},
			{ID: "L2", FromNodeID: "b", ToNodeID: "c", Type: "SUPPORTS"},
			{ID: "L1", FromNodeID: "x", ToNodeID: "y", Type: "AFFECTS"},
			{ID: "L3", FromNodeID: "c", ToNodeID: "a", Type: "DEPENDS_ON"},
			{ID: "L2", FromNodeID: "b", ToNodeID: "c", Type: "SUPPORTS"},
		}

		out := ledger.DedupeLinks(links)
		Expect(out).To(HaveLen(3))
		Expect(out[0].ID).To(Equal("L1"))
		Expect(out[0].FromNodeID).To(Equal("a"))
		Expect(out[1].ID).To(Equal("L2"))
		Expect(out[2].ID).To(Equal("L3"))
	})

	It("is idempotent", func() {
		links := []ledger.Link{{ID: "L1"}, {ID: "L1"}, {ID: "L2"}}
		once := ledger.DedupeLinks(links)
		Expect(ledger.DedupeLinks(once)).To(Equal(once))
	})
})

var _ = Describe("ExpandResult", func() {
	It("dedupes every collection of a raw batch", func() {
		raw := &ledger.ExpandResult{
			Nodes: []ledger.Node{
				{ID: "a", Title: "old"},
				{ID: "b", Title: "B"},
				{ID: "a", Title: "new"},
			},
			Roles: []ledger.RoleAssignment{
				{ID: "r1", NodeID: "a", Role: "Product.Goal"},
				{ID: "r1", NodeID: "a", Role: "Product.Goal"},
			},
			Links: []ledger.Link{{ID: "L1"}, {ID: "L1"}},
			Materials: []ledger.Material{
				{ID: "m1", NodeID: "a"},
				{ID: "m1", NodeID: "a"},
			},
		}

		out := raw.Dedupe()
		Expect(out.Nodes).To(HaveLen(2))
		Expect(out.Nodes[0].Title).To(Equal("new"))
		Expect(out.Roles).To(HaveLen(1))
		Expect(out.Links).To(HaveLen(1))
		Expect(out.Materials).To(HaveLen(1))
	})

	It("treats a nil batch as empty", func() {
		var raw *ledger.ExpandResult
		Expect(raw.Dedupe().Nodes).To(BeEmpty())
	})
})

var _ = Describe("Link", func() {
	link := ledger.Link{ID: "L1", FromNodeID: "a", ToNodeID: "b"}

	It("reports the endpoints it touches", func() {
		Expect(link.Touches("a")).To(BeTrue())
		Expect(link.Touches("b")).To(BeTrue())
		Expect(link.Touches("c")).To(BeFalse())
	})

	It("returns the opposite endpoint", func() {
		Expect(link.Counterpart("a")).To(Equal("b"))
		Expect(link.Counterpart("b")).To(Equal("a"))
	})
})
