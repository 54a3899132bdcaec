package ledgerviewcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ledgerviewcmder "github.com/papercomputeco/ledgerview/cmd/ledgerview"
)

var _ = Describe("NewLedgerviewCmd", func() {
	It("registers every subcommand", func() {
		cmd := ledgerviewcmder.NewLedgerviewCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"serve", "demo", "tree", "node", "intent", "namespaces", "timeline",
			"materials", "use", "whereami", "init", "config", "version",
		))
	})

	It("exposes the global flags", func() {
		cmd := ledgerviewcmder.NewLedgerviewCmd()
		for _, name := range []string{"debug", "config-dir", "json", "no-color"} {
			Expect(cmd.PersistentFlags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("runs a view end to end over the demo ledger", func() {
		cmd := ledgerviewcmder.NewLedgerviewCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"tree", "--demo", "--config-dir", GinkgoT().TempDir(), "--depth", "1"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("FieldServe"))
	})

	It("shows help for every subcommand", func() {
		cmd := ledgerviewcmder.NewLedgerviewCmd()
		for _, sub := range cmd.Commands() {
			Expect(sub.Short).NotTo(BeEmpty(), sub.Name())
		}
	})
})
