package kernel_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/kernel"
	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *kernel.Client
		lastPath string
		lastQ    url.Values
		lastUA   string
		handler  http.HandlerFunc
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/v1/expand":
				_, _ = w.Write([]byte(`{
					"nodes": [{"node_id": "n1", "title": "One"}],
					"role_assignments": [{"role_assignment_id": "r1", "node_id": "n1", "role": "Product.Goal"}],
					"links": [{"link_id": "L1", "from_node_id": "n1", "to_node_id": "n2", "type": "CONTAINS"}],
					"materials": []
				}`))
			case "/v1/namespaces":
				_, _ = w.Write([]byte(`{"namespace_ids": ["FinLedger:/a", "ProductLedger:/b"]}`))
			case "/v1/namespace_root":
				_, _ = w.Write([]byte(`{"node_id": "root", "title": "Root", "role": "Fin.Ledger"}`))
			case "/v1/history":
				_, _ = w.Write([]byte(`[{"id": "op1", "seq": 1, "occurred_at": "2025-01-06T09:01:00Z", "actor_id": "a", "changes": [{"kind": "create_node"}]}]`))
			case "/v1/healthz":
				_, _ = w.Write([]byte(`{"ok": true}`))
			default:
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error": {"code": "not_found", "message": "no such route"}}`))
			}
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path
			lastQ = r.URL.Query()
			lastUA = r.Header.Get("User-Agent")
			handler(w, r)
		}))

		var err error
		client, err = kernel.NewClient(kernel.ClientConfig{
			BaseURL:   server.URL + "/",
			Namespace: "ProductLedger:/Kesteron/FieldServe",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Expand", func() {
		It("sends ids and depth and injects the default namespace", func() {
			res, err := client.Expand(ctx, ledger.ExpandQuery{RootIDs: []string{"n1", "n2"}, Depth: 3})
			Expect(err).NotTo(HaveOccurred())

			Expect(lastPath).To(Equal("/v1/expand"))
			Expect(lastQ.Get("ids")).To(Equal("n1,n2"))
			Expect(lastQ.Get("depth")).To(Equal("3"))
			Expect(lastQ.Get("namespace_id")).To(Equal("ProductLedger:/Kesteron/FieldServe"))
			Expect(lastUA).To(Equal(utils.UserAgent()))

			Expect(res.Nodes).To(HaveLen(1))
			Expect(res.Roles[0].Role).To(Equal("Product.Goal"))
			Expect(res.Links[0].FromNodeID).To(Equal("n1"))
		})

		It("keeps an explicit namespace", func() {
			_, err := client.Expand(ctx, ledger.ExpandQuery{RootIDs: []string{"n1"}, NamespaceID: "FinLedger:/a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastQ.Get("namespace_id")).To(Equal("FinLedger:/a"))
		})
	})

	It("lists namespaces without injecting one", func() {
		ids, err := client.Namespaces(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]string{"FinLedger:/a", "ProductLedger:/b"}))
		Expect(lastQ.Has("namespace_id")).To(BeFalse())
	})

	It("resolves a namespace root", func() {
		root, err := client.NamespaceRoot(ctx, "FinLedger:/a")
		Expect(err).NotTo(HaveOccurred())
		Expect(root.NodeID).To(Equal("root"))
		Expect(lastQ.Get("namespace_id")).To(Equal("FinLedger:/a"))
	})

	It("fetches history with target and limit", func() {
		ops, err := client.History(ctx, "FinLedger:/a", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(ops).To(HaveLen(1))
		Expect(ops[0].Seq).To(Equal(int64(1)))
		Expect(lastQ.Get("target")).To(Equal("FinLedger:/a"))
		Expect(lastQ.Get("limit")).To(Equal("5"))
	})

	It("reports health", func() {
		Expect(client.Healthz(ctx)).To(Succeed())
	})

	Describe("errors", func() {
		It("parses the kernel error envelope", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error": {"code": "invalid_argument", "message": "depth must be positive"}}`))
			}

			_, err := client.Expand(ctx, ledger.ExpandQuery{RootIDs: []string{"n1"}})
			var apiErr *kernel.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Status).To(Equal(http.StatusBadRequest))
			Expect(apiErr.Code).To(Equal("invalid_argument"))
			Expect(apiErr.Message).To(Equal("depth must be positive"))
		})

		It("falls back to the raw body", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			}

			err := client.Healthz(ctx)
			var apiErr *kernel.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Status).To(Equal(http.StatusBadGateway))
			Expect(apiErr.Message).To(Equal("upstream down"))
		})

		It("reports an unhealthy kernel", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"ok": false}`))
			}
			Expect(client.Healthz(ctx)).NotTo(Succeed())
		})

		It("honours context cancellation", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := client.Namespaces(cancelled)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})
})
