// Package dispatch implements the Dispatcher / Work Executor (§4.7):
// the only entry point for incoming requests. A submitter calls
// Submit, which allocates a work item without blocking and hands it to
// a single dedicated worker goroutine that retires work strictly in
// submission order (§5's single-threaded cooperative scheduling
// model).
//
// The shape follows the teacher pack's allocate-then-enqueue idiom
// (pkg/blobstore/local/partitioning_block_allocator.go: NewBlock
// allocates under a lock and fails closed with codes.ResourceExhausted
// when nothing is available) generalized from an in-memory free list to
// a bounded channel: here the "allocation" is a channel send, and it
// fails closed the same way when the queue is full, rather than ever
// blocking the submitter.
package dispatch

import (
	"context"
	"log"
	"sync"

	"github.com/dualmirror/ssr/internal/errutil"
	"github.com/dualmirror/ssr/pkg/mirror"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	dispatcherPrometheusMetrics sync.Once

	dispatcherSubmitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ssr",
			Subsystem: "dispatcher",
			Name:      "submits_total",
			Help:      "Number of work items accepted by the dispatcher.",
		})
	dispatcherRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ssr",
			Subsystem: "dispatcher",
			Name:      "rejections_total",
			Help:      "Number of Submit calls rejected because the work queue was full.",
		})
	dispatcherCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssr",
			Subsystem: "dispatcher",
			Name:      "completions_total",
			Help:      "Number of work items retired by the worker, by outcome.",
		},
		[]string{"outcome"})
)

func registerMetrics() {
	dispatcherPrometheusMetrics.Do(func() {
		prometheus.MustRegister(dispatcherSubmitsTotal)
		prometheus.MustRegister(dispatcherRejectionsTotal)
		prometheus.MustRegister(dispatcherCompletionsTotal)
	})
}

// WorkItem is one unit of work accepted by the dispatcher: a request
// plus the callback to invoke with its outcome once the worker retires
// it. ID exists purely for log correlation; it is never returned to the
// submitter as a waitable handle (§4.7's "no-token acknowledgment").
type WorkItem struct {
	ID       uuid.UUID
	Request  *mirror.Request
	Complete func(err error)
}

// Dispatcher is the single-worker, FIFO, serialized executor described
// by §4.7/§5. Submit never blocks and never performs I/O; all I/O
// happens on the worker goroutine started by Start.
type Dispatcher struct {
	handler *mirror.Handler
	queue   chan WorkItem
	done    chan struct{}
}

// New constructs a Dispatcher that executes accepted work items against
// handler. queueCapacity bounds the number of work items that may be
// outstanding before Submit starts failing with codes.ResourceExhausted
// ("allocation failure", §4.7).
func New(handler *mirror.Handler, queueCapacity int) *Dispatcher {
	registerMetrics()
	return &Dispatcher{
		handler: handler,
		queue:   make(chan WorkItem, queueCapacity),
		done:    make(chan struct{}),
	}
}

// Start launches the single worker goroutine. It must be called
// exactly once, after construction and before any Submit call is
// expected to make progress.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for item := range d.queue {
		var err error
		switch item.Request.Direction {
		case mirror.Read:
			err = d.handler.HandleRead(ctx, item.Request)
		case mirror.Write:
			err = d.handler.HandleWrite(ctx, item.Request)
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
			err = errutil.Wrap(err, "work item %s", item.ID)
			log.Printf("ssr: %v", err)
		}
		dispatcherCompletionsTotal.WithLabelValues(outcome).Inc()
		if item.Complete != nil {
			item.Complete(err)
		}
	}
}

// Submit hands req to the executor for later, strictly-ordered
// processing and returns immediately: a "no-token acknowledgment"
// (§4.7) that the request was accepted, not that it has run. complete
// is invoked from the worker goroutine once req finishes, with its
// outcome; it must not block.
//
// Submit itself performs no I/O and never blocks: if the queue is at
// capacity it fails immediately with codes.ResourceExhausted, modeling
// the "work item allocation failed" case of §4.7.
func (d *Dispatcher) Submit(req *mirror.Request, complete func(err error)) error {
	if err := req.Validate(); err != nil {
		return err
	}
	select {
	case d.queue <- WorkItem{ID: uuid.New(), Request: req, Complete: complete}:
		dispatcherSubmitsTotal.Inc()
		return nil
	default:
		dispatcherRejectionsTotal.Inc()
		return status.Error(codes.ResourceExhausted, "dispatcher work queue is full")
	}
}

// Stop closes the work queue and blocks until the worker has drained
// every already-accepted item (§4.8/§5: the executor must drain
// pending work before backing devices are closed). It must be called
// at most once.
func (d *Dispatcher) Stop() {
	close(d.queue)
	<-d.done
}
