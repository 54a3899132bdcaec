package prefetch_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/kernel/inmemory"
	"github.com/papercomputeco/ledgerview/pkg/prefetch"
)

const treasury = "FinLedger:/Kesteron/Treasury"

// blockingWarmer parks each job until released.
type blockingWarmer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingWarmer) Warm(context.Context, []string, int, string) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

type failingWarmer struct{}

func (failingWarmer) Warm(context.Context, []string, int, string) error {
	return errors.New("kernel down")
}

var _ = Describe("Prefetch Pool", func() {
	var (
		backend  *inmemory.Backend
		composer *compose.Composer
	)

	BeforeEach(func() {
		var err error
		backend, err = inmemory.NewDemoBackend()
		Expect(err).NotTo(HaveOccurred())

		composer, err = compose.New(&compose.Config{Backend: backend})
		Expect(err).NotTo(HaveOccurred())
	})

	It("warms the target cache with every namespace root", func() {
		pool, err := prefetch.NewPool(&prefetch.Config{Target: composer})
		Expect(err).NotTo(HaveOccurred())

		namespaces, err := backend.Namespaces(context.Background())
		Expect(err).NotTo(HaveOccurred())
		for _, ns := range namespaces {
			root, err := backend.NamespaceRoot(context.Background(), ns)
			Expect(err).NotTo(HaveOccurred())
			Expect(pool.Enqueue(prefetch.Job{Roots: []string{root.NodeID}, Depth: 2, NamespaceID: ns})).To(BeTrue())
		}
		pool.Close()

		Expect(pool.Stats().Completed).To(Equal(uint64(len(namespaces))))
		for _, ns := range namespaces {
			root, _ := backend.NamespaceRoot(context.Background(), ns)
			_, ok := composer.Cache().Node(root.NodeID)
			Expect(ok).To(BeTrue())
		}
	})

	It("prefers the job's own target", func() {
		other, err := compose.New(&compose.Config{Backend: backend})
		Expect(err).NotTo(HaveOccurred())

		pool, err := prefetch.NewPool(&prefetch.Config{Target: composer})
		Expect(err).NotTo(HaveOccurred())

		root, err := backend.NamespaceRoot(context.Background(), treasury)
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Enqueue(prefetch.Job{Target: other, Roots: []string{root.NodeID}, Depth: 1, NamespaceID: treasury})).To(BeTrue())
		pool.Close()

		Expect(other.Cache().Stats().Nodes).To(BeNumerically(">", 0))
		Expect(composer.Cache().Stats().Nodes).To(BeZero())
	})

	It("drops jobs when the queue is full", func() {
		w := &blockingWarmer{started: make(chan struct{}, 1), release: make(chan struct{})}
		pool, err := prefetch.NewPool(&prefetch.Config{Target: w, NumWorkers: 1, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"a"}})).To(BeTrue())
		Eventually(w.started).Should(Receive())

		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"b"}})).To(BeTrue())
		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"c"}})).To(BeFalse())

		close(w.release)
		Eventually(w.started).Should(Receive())
		pool.Close()

		Expect(pool.Stats()).To(Equal(prefetch.Stats{Completed: 2, Dropped: 1}))
	})

	It("counts failed jobs", func() {
		pool, err := prefetch.NewPool(&prefetch.Config{Target: failingWarmer{}})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"a"}})).To(BeTrue())
		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"b"}, Target: nil})).To(BeTrue())
		pool.Close()

		Expect(pool.Stats().Failed).To(Equal(uint64(2)))
	})

	It("fails jobs without any target", func() {
		pool, err := prefetch.NewPool(&prefetch.Config{})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"a"}})).To(BeTrue())
		pool.Close()
		pool.Close()

		Expect(pool.Stats().Failed).To(Equal(uint64(1)))
	})

	It("drops jobs enqueued after close", func() {
		pool, err := prefetch.NewPool(&prefetch.Config{Target: failingWarmer{}})
		Expect(err).NotTo(HaveOccurred())
		pool.Close()

		Expect(pool.Enqueue(prefetch.Job{Roots: []string{"late"}})).To(BeFalse())
		Expect(pool.Stats()).To(Equal(prefetch.Stats{Dropped: 1}))
	})
})
