// Package prefetch provides an asynchronous worker pool that warms graph
// caches by expanding roots ahead of the views that will need them.
//
// The pool decouples cache warming from the request path so serve can start
// answering while namespace roots are still loading.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Warmer expands roots into its cache. *compose.Composer satisfies it.
type Warmer interface {
	Warm(ctx context.Context, roots []string, depth int, namespaceID string) error
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Target receives the expansion. Nil means Config.Target.
	Target Warmer

	Roots       []string
	Depth       int
	NamespaceID string
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Target is the default Warmer for jobs that name none.
	Target Warmer

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Timeout bounds each job. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// Stats counts finished jobs.
type Stats struct {
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Pool processes prefetch jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed against a send on the closed queue.
	mu     sync.RWMutex
	closed bool

	completed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		p.logger.Debug("prefetch not queued, pool closed",
			"roots", job.Roots,
			"namespace", job.NamespaceID,
		)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("prefetch queued",
			"roots", job.Roots,
			"namespace", job.NamespaceID,
		)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("prefetch not queued, queue full, job dropped",
			"roots", job.Roots,
			"namespace", job.NamespaceID,
		)
		return false
	}
}

// Close signals workers to stop and waits for queued jobs to drain. Jobs
// enqueued after Close are dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) Stats() Stats {
	return Stats{
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("prefetch worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("prefetch worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	target := job.Target
	if target == nil {
		target = p.config.Target
	}

	err := errors.New("prefetch job has no target")
	if target != nil {
		err = target.Warm(ctx, job.Roots, job.Depth, job.NamespaceID)
	}
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("prefetch failed",
			"roots", job.Roots,
			"namespace", job.NamespaceID,
			"error", err,
		)
		return
	}

	p.completed.Add(1)
	p.logger.Debug("prefetch complete",
		"roots", job.Roots,
		"namespace", job.NamespaceID,
	)
}
