package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/api/mcp"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/kernel/inmemory"
	"github.com/papercomputeco/ledgerview/pkg/logger"
	"github.com/papercomputeco/ledgerview/pkg/session"
)

var _ = Describe("MCP Server", func() {
	var registry *session.Registry

	BeforeEach(func() {
		backend, err := inmemory.NewDemoBackend()
		Expect(err).NotTo(HaveOccurred())

		registry, err = session.NewRegistry(func() (*compose.Composer, error) {
			return compose.New(&compose.Config{Backend: backend})
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the session registry is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("session registry is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Sessions: registry})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a noop server without dependencies", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{Sessions: registry, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
