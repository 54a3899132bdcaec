package versioncmder_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	versioncmder "github.com/papercomputeco/ledgerview/cmd/version"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

var _ = Describe("version", func() {
	execute := func(args ...string) string {
		root := &cobra.Command{Use: "ledgerview"}
		root.PersistentFlags().Bool("json", false, "")
		root.AddCommand(versioncmder.NewVersionCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(append([]string{"version"}, args...))
		Expect(root.Execute()).To(Succeed())
		return out.String()
	}

	It("prints the build info", func() {
		out := execute()
		Expect(out).To(ContainSubstring("Version: " + utils.Version))
		Expect(out).To(ContainSubstring("Sha: " + utils.Sha))
	})

	It("prints JSON", func() {
		var info versioncmder.VersionInfo
		Expect(json.Unmarshal([]byte(execute("--json")), &info)).To(Succeed())
		Expect(info.Version).To(Equal(utils.Version))
		Expect(info.Buildtime).To(Equal(utils.Buildtime))
	})
})
