package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/kernel/inmemory"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/logger"
	"github.com/papercomputeco/ledgerview/pkg/prefetch"
	"github.com/papercomputeco/ledgerview/pkg/session"
)

const fieldServe = "ProductLedger:/Kesteron/FieldServe"

type unhealthyBackend struct {
	*inmemory.Backend
}

func (unhealthyBackend) Healthz(context.Context) error {
	return &kernel.APIError{Status: http.StatusServiceUnavailable, Message: "draining"}
}

type unreachableBackend struct {
	*inmemory.Backend
}

func (unreachableBackend) NamespaceRoot(context.Context, string) (*ledger.NamespaceRoot, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newTestServer(config Config, backend kernel.Backend) (*Server, *session.Registry) {
	registry, err := session.NewRegistry(func() (*compose.Composer, error) {
		return compose.New(&compose.Config{
			Backend:  backend,
			Defaults: compose.Defaults{NamespaceID: fieldServe},
		})
	})
	Expect(err).NotTo(HaveOccurred())

	server, err := NewServer(config, backend, registry, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return server, registry
}

func do(server *Server, req *http.Request) (int, []byte) {
	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, body
}

func get(server *Server, target string) (int, []byte) {
	return do(server, httptest.NewRequest(http.MethodGet, target, nil))
}

func errorOf(body []byte) string {
	var e ErrorResponse
	Expect(json.Unmarshal(body, &e)).To(Succeed())
	return e.Error
}

var _ = Describe("NewServer", func() {
	It("requires a backend", func() {
		_, err := NewServer(Config{}, nil, &session.Registry{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("requires a session registry", func() {
		backend, err := inmemory.NewDemoBackend()
		Expect(err).NotTo(HaveOccurred())

		_, err = NewServer(Config{}, backend, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Server", func() {
	var (
		backend  *inmemory.Backend
		server   *Server
		registry *session.Registry
	)

	BeforeEach(func() {
		var err error
		backend, err = inmemory.NewDemoBackend()
		Expect(err).NotTo(HaveOccurred())

		server, registry = newTestServer(Config{
			ListenAddr: ":0",
			KernelURL:  "http://kernel.test",
			Namespace:  fieldServe,
		}, backend)
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			status, body := get(server, "/ping")
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /api/config", func() {
		It("reports the kernel and namespace", func() {
			status, body := get(server, "/api/config")
			Expect(status).To(Equal(fiber.StatusOK))

			var cfg ConfigResponse
			Expect(json.Unmarshal(body, &cfg)).To(Succeed())
			Expect(cfg.KernelURL).To(Equal("http://kernel.test"))
			Expect(cfg.Namespace).To(Equal(fieldServe))
		})
	})

	Describe("GET /api/healthz", func() {
		It("returns ok while the kernel is serving", func() {
			status, _ := get(server, "/api/healthz")
			Expect(status).To(Equal(fiber.StatusOK))
		})

		It("returns 502 when the kernel is not", func() {
			server, _ = newTestServer(Config{}, unhealthyBackend{backend})

			status, body := get(server, "/api/healthz")
			Expect(status).To(Equal(fiber.StatusBadGateway))
			Expect(errorOf(body)).To(ContainSubstring("draining"))
		})
	})

	Describe("GET /api/products/tree", func() {
		It("builds the tree from the namespace root", func() {
			status, body := get(server, "/api/products/tree")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.TreeView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.NamespaceID).To(Equal(fieldServe))
			Expect(view.Tree).NotTo(BeNil())
			Expect(view.Tree.Title).To(Equal("FieldServe"))
			Expect(view.Tree.Children).NotTo(BeEmpty())
		})

		It("returns the path to the focus node", func() {
			focus := inmemory.NodeID(fieldServe, "Route optimisation engine")

			status, body := get(server, "/api/products/tree?focus="+url.QueryEscape(focus))
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.TreeView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Path).To(Equal([]string{
				inmemory.NodeID(fieldServe, "FieldServe"),
				inmemory.NodeID(fieldServe, "Reduce technician idle time"),
				inmemory.NodeID(fieldServe, "Dispatch the nearest qualified technician"),
				focus,
			}))
		})

		It("returns a null tree for an unknown root", func() {
			status, body := get(server, "/api/products/tree?root=node:missing")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.TreeView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Tree).To(BeNil())
		})

		It("rejects a non-numeric depth", func() {
			status, body := get(server, "/api/products/tree?depth=deep")
			Expect(status).To(Equal(fiber.StatusBadRequest))
			Expect(errorOf(body)).To(ContainSubstring("invalid depth"))
		})

		It("returns 404 for a namespace without a root", func() {
			status, body := get(server, "/api/products/tree?namespace_id="+url.QueryEscape("ProductLedger:/Nobody"))
			Expect(status).To(Equal(fiber.StatusNotFound))
			Expect(errorOf(body)).To(ContainSubstring("not found"))
		})

		It("returns 502 when the kernel is unreachable", func() {
			server, _ = newTestServer(Config{}, unreachableBackend{backend})

			status, body := get(server, "/api/products/tree")
			Expect(status).To(Equal(fiber.StatusBadGateway))
			Expect(errorOf(body)).To(ContainSubstring("connection refused"))
		})
	})

	Describe("GET /api/node/:nodeId", func() {
		It("returns the node detail", func() {
			id := inmemory.NodeID(fieldServe, "Reduce technician idle time")

			status, body := get(server, "/api/node/"+url.PathEscape(id))
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.NodeView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Node.ID).To(Equal(id))
			Expect(view.Node.Title).To(Equal("Reduce technician idle time"))
			Expect(view.Relationships.Children).To(HaveLen(2))
			Expect(view.Relationships.Parents).To(HaveLen(1))
			Expect(view.Relationships.Alignment).To(HaveLen(1))
		})

		It("returns 404 for an unknown node", func() {
			status, body := get(server, "/api/node/node:missing")
			Expect(status).To(Equal(fiber.StatusNotFound))
			Expect(errorOf(body)).To(Equal(`node "node:missing" not found`))
		})
	})

	Describe("GET /api/intent", func() {
		It("resolves the product family", func() {
			status, body := get(server, "/api/intent")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.IntentView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.NamespaceID).To(Equal(fieldServe))
			Expect(view.Root.Title).To(Equal("FieldServe"))
			Expect(view.Result).NotTo(BeNil())
			Expect(view.Sections).NotTo(BeEmpty())
		})
	})

	Describe("GET /api/namespaces", func() {
		It("lists every namespace the kernel reports", func() {
			status, body := get(server, "/api/namespaces")
			Expect(status).To(Equal(fiber.StatusOK))

			var listing compose.NamespaceListing
			Expect(json.Unmarshal(body, &listing)).To(Succeed())
			Expect(listing.Namespaces).To(HaveLen(4))
			Expect(listing.Grouped).NotTo(BeEmpty())
		})
	})

	Describe("GET /api/ledger", func() {
		It("returns the default namespace timeline", func() {
			status, body := get(server, "/api/ledger")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.TimelineView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Timeline).NotTo(BeEmpty())
		})

		It("honours the limit", func() {
			status, body := get(server, "/api/ledger?limit=1")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.TimelineView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Timeline).To(HaveLen(1))
		})

		It("rejects a non-numeric limit", func() {
			status, _ := get(server, "/api/ledger?limit=all")
			Expect(status).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /api/materials", func() {
		It("groups materials below the namespace root", func() {
			status, body := get(server, "/api/materials")
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.MaterialsView
			Expect(json.Unmarshal(body, &view)).To(Succeed())

			categories := []string{}
			for _, c := range view.Categories {
				categories = append(categories, c.Category)
			}
			Expect(categories).To(ContainElements("Research", "Notes"))
		})

		It("accepts a comma separated root list", func() {
			id := inmemory.NodeID(fieldServe, "Pilot reduced drive time by 18%")

			status, body := get(server, "/api/materials?depth=1&root="+url.QueryEscape(id+", "))
			Expect(status).To(Equal(fiber.StatusOK))

			var view compose.MaterialsView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Categories).To(HaveLen(1))
			Expect(view.Categories[0].Items[0].Title).To(Equal("Pilot results"))
		})
	})

	Describe("sessions", func() {
		It("creates and deletes a session", func() {
			status, body := do(server, httptest.NewRequest(http.MethodPost, "/api/session", nil))
			Expect(status).To(Equal(fiber.StatusCreated))

			var created SessionResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.SessionID).NotTo(BeEmpty())
			Expect(registry.Len()).To(Equal(2))

			req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
			req.Header.Set(SessionHeader, created.SessionID)
			status, _ = do(server, req)
			Expect(status).To(Equal(fiber.StatusNoContent))
			Expect(registry.Len()).To(Equal(1))

			req = httptest.NewRequest(http.MethodDelete, "/api/session", nil)
			req.Header.Set(SessionHeader, created.SessionID)
			status, _ = do(server, req)
			Expect(status).To(Equal(fiber.StatusNotFound))
		})

		It("requires the session header to delete", func() {
			status, _ := do(server, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
			Expect(status).To(Equal(fiber.StatusBadRequest))
		})

		It("keeps caches separate per session", func() {
			sess, err := registry.Create()
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/api/products/tree", nil)
			req.Header.Set(SessionHeader, sess.ID)
			status, _ := do(server, req)
			Expect(status).To(Equal(fiber.StatusOK))

			Expect(sess.Composer.Cache().Stats().Nodes).To(BeNumerically(">", 0))
			Expect(registry.Default().Composer.Cache().Stats().Nodes).To(Equal(0))
		})
	})

	Describe("POST /api/reset", func() {
		It("clears the session cache", func() {
			status, _ := get(server, "/api/products/tree")
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(registry.Default().Composer.Cache().Stats().Nodes).To(BeNumerically(">", 0))

			status, _ = do(server, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(registry.Default().Composer.Cache().Stats().Nodes).To(Equal(0))
		})
	})

	Describe("POST /api/prefetch", func() {
		It("returns 503 without a pool", func() {
			status, _ := do(server, httptest.NewRequest(http.MethodPost, "/api/prefetch", nil))
			Expect(status).To(Equal(fiber.StatusServiceUnavailable))
		})

		Context("with a pool", func() {
			BeforeEach(func() {
				pool, err := prefetch.NewPool(&prefetch.Config{NumWorkers: 2, Logger: logger.Nop()})
				Expect(err).NotTo(HaveOccurred())
				DeferCleanup(pool.Close)

				server, registry = newTestServer(Config{Prefetch: pool, PrefetchDepth: 2}, backend)
			})

			It("warms every namespace root by default", func() {
				status, body := do(server, httptest.NewRequest(http.MethodPost, "/api/prefetch", nil))
				Expect(status).To(Equal(fiber.StatusAccepted))

				var resp PrefetchResponse
				Expect(json.Unmarshal(body, &resp)).To(Succeed())
				Expect(resp.Queued).To(Equal(4))

				cache := registry.Default().Composer.Cache()
				for _, title := range []string{"FieldServe", "Reduce technician idle time"} {
					id := inmemory.NodeID(fieldServe, title)
					Eventually(func() bool {
						_, ok := cache.Node(id)
						return ok
					}).Should(BeTrue())
				}
			})

			It("warms the requested roots", func() {
				id := inmemory.NodeID(fieldServe, "Route optimisation engine")
				req := httptest.NewRequest(http.MethodPost, "/api/prefetch",
					strings.NewReader(`{"roots":["`+id+`"],"depth":1}`))
				req.Header.Set("Content-Type", "application/json")

				status, body := do(server, req)
				Expect(status).To(Equal(fiber.StatusAccepted))

				var resp PrefetchResponse
				Expect(json.Unmarshal(body, &resp)).To(Succeed())
				Expect(resp.Queued).To(Equal(1))

				Eventually(func() bool {
					_, ok := registry.Default().Composer.Cache().Node(id)
					return ok
				}).Should(BeTrue())
			})

			It("rejects a malformed body", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/prefetch", strings.NewReader(`{"roots":`))
				req.Header.Set("Content-Type", "application/json")

				status, _ := do(server, req)
				Expect(status).To(Equal(fiber.StatusBadRequest))
			})
		})
	})

	Describe("/mcp", func() {
		It("mounts the MCP handler", func() {
			mcp := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("mcp"))
			})
			server, _ = newTestServer(Config{MCPHandler: mcp}, backend)

			status, body := do(server, httptest.NewRequest(http.MethodPost, "/mcp", nil))
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal("mcp"))
		})

		It("is absent without one", func() {
			status, _ := do(server, httptest.NewRequest(http.MethodPost, "/mcp", nil))
			Expect(status).To(Equal(fiber.StatusNotFound))
		})
	})
})
