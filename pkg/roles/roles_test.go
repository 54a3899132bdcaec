package roles_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/roles"
)

var _ = Describe("Rule", func() {
	DescribeTable("Matches",
		func(rule roles.Rule, role string, expected bool) {
			Expect(rule.Matches(role)).To(Equal(expected))
		},
		Entry("exact equal", roles.Rule{Target: "Fin.Policy", Mode: roles.Exact}, "Fin.Policy", true),
		Entry("exact rejects dotted suffix", roles.Rule{Target: "Fin.Policy", Mode: roles.Exact}, "X.Fin.Policy", false),
		Entry("suffix equal", roles.Rule{Target: "Product.Goal", Mode: roles.Suffix}, "Product.Goal", true),
		Entry("suffix dotted", roles.Rule{Target: "Product.Goal", Mode: roles.Suffix}, "Foo.Product.Goal", true),
		Entry("suffix needs a dot boundary", roles.Rule{Target: "Product.Goal", Mode: roles.Suffix}, "FooProduct.Goal", false),
		Entry("suffix is case-sensitive", roles.Rule{Target: "Product.Goal", Mode: roles.Suffix}, "product.goal", false),
		Entry("contains ignores case", roles.Rule{Target: ".goal", Mode: roles.Contains}, "Product.Goal.Primary", true),
		Entry("ends with ignores case", roles.Rule{Target: "goal", Mode: roles.EndsWith}, "SubGoal", true),
	)

	It("returns the first matching section", func() {
		table := []roles.Rule{
			{Target: "A", Mode: roles.Exact, Section: "first"},
			{Target: "B", Mode: roles.Exact, Section: "second"},
		}
		section, ok := roles.First(table, []string{"B", "A"})
		Expect(ok).To(BeTrue())
		Expect(section).To(Equal("first"))

		_, ok = roles.First(table, []string{"C"})
		Expect(ok).To(BeFalse())
	})

	It("returns every matching section once", func() {
		table := []roles.Rule{
			{Target: "P", Mode: roles.Exact, Section: "x"},
			{Target: "Q", Mode: roles.Exact, Section: "x"},
			{Target: "P", Mode: roles.Exact, Section: "y"},
		}
		Expect(roles.All(table, []string{"P", "Q"})).To(Equal([]string{"x", "y"}))
		Expect(roles.All(table, nil)).To(BeEmpty())
	})
})

var _ = Describe("NodeType", func() {
	DescribeTable("derives the primary type",
		func(in []string, expected string) {
			Expect(roles.NodeType(in)).To(Equal(expected))
		},
		Entry("no roles", nil, ""),
		Entry("goal", []string{"ProductLedger.Goal"}, roles.TypeGoal),
		Entry("job", []string{"Product.Job"}, roles.TypeJob),
		Entry("goal wins over job", []string{"Product.Job", "Product.Goal"}, roles.TypeGoal),
		Entry("decision", []string{"x.Decision"}, roles.TypeDecision),
		Entry("evidence without dot", []string{"Evidence"}, roles.TypeEvidence),
		Entry("unmatched", []string{"Fin.Policy"}, ""),
	)
})
