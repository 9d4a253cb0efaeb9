package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Processor is a single-item stage transform: it turns one catalog item into
// an output reference or a typed failure. Implementations must be
// side-effect-isolated per call and should return *Error for classified
// failures; anything else (including a panic) is recorded as an internal
// failure by the runner.
type Processor interface {
	Process(ctx context.Context, item Item) (string, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, item Item) (string, error)

func (f ProcessorFunc) Process(ctx context.Context, item Item) (string, error) {
	return f(ctx, item)
}

const (
	defaultWorkers = 3

	reasonSkipListed   = "listed in skip set"
	reasonRunCancelled = "run cancelled"
)

// Runner drives a Processor over a catalog with a fixed pool of workers.
// Workers pull items from a shared channel, so a slow item never starves an
// idle worker, and the pool size is a hard cap on concurrent collaborator
// calls.
type Runner struct {
	proc        Processor
	logger      *slog.Logger
	workers     int
	itemTimeout time.Duration
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithItemTimeout sets a soft per-item deadline. On expiry the item is
// recorded as a timeout failure and the worker moves on; the in-flight
// collaborator call is cancelled best-effort and its result, if any, is
// discarded. An abandoned call may keep a connection busy until the
// collaborator notices the cancellation; the tradeoff is bounded run time
// over a fully clean shutdown.
func WithItemTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.itemTimeout = d
		}
	}
}

func NewRunner(proc Processor, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		proc:    proc,
		logger:  logger,
		workers: defaultWorkers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes every item in items minus skip and returns the aggregated
// summary. Every catalog item ends in exactly one outcome: skip-listed items
// are recorded as skipped, scheduled items as success or failure, and items
// left undispatched after ctx is cancelled as skipped with a cancellation
// reason. A failure on one item never aborts the others.
func (r *Runner) Run(ctx context.Context, items []Item, skip SkipSet) Summary {
	var summary Summary

	outcomes := make(chan Outcome)
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for o := range outcomes {
			summary.add(o)
		}
	}()

	var scheduled []Item
	for _, it := range items {
		if skip.Contains(it.Key) {
			r.logger.Info("batch.item.skipped", "key", it.Key)
			outcomes <- Outcome{Key: it.Key, Status: StatusSkipped, Reason: reasonSkipListed}
			continue
		}
		scheduled = append(scheduled, it)
	}

	jobs := make(chan Item)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.logger.Debug("batch.worker.started", "worker_id", workerID)
			for it := range jobs {
				outcomes <- r.runOne(it, workerID)
			}
			r.logger.Debug("batch.worker.stopped", "worker_id", workerID)
		}(i + 1)
	}

dispatch:
	for i, it := range scheduled {
		select {
		case <-ctx.Done():
			r.logger.Warn("batch.run.cancelled", "remaining", len(scheduled)-i)
			for _, rest := range scheduled[i:] {
				outcomes <- Outcome{Key: rest.Key, Status: StatusSkipped, Reason: reasonRunCancelled}
			}
			break dispatch
		case jobs <- it:
		}
	}
	close(jobs)

	wg.Wait()
	close(outcomes)
	<-aggDone

	summary.finalize()
	return summary
}

type itemResult struct {
	ref string
	err error
}

// runOne executes the processor for one item inside a fault boundary. The
// item context is detached from the run context on purpose: once dispatched,
// an item finishes (or times out) even if the run is being cancelled.
func (r *Runner) runOne(item Item, workerID int) Outcome {
	start := time.Now()
	pctx := context.Background()

	var expired <-chan time.Time
	if r.itemTimeout > 0 {
		timer := time.NewTimer(r.itemTimeout)
		defer timer.Stop()
		expired = timer.C

		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(pctx, r.itemTimeout)
		defer cancel()
	}

	resCh := make(chan itemResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				resCh <- itemResult{err: NewError(KindInternal, fmt.Errorf("panic: %v", p))}
			}
		}()
		ref, err := r.proc.Process(pctx, item)
		resCh <- itemResult{ref: ref, err: err}
	}()

	var res itemResult
	if expired == nil {
		res = <-resCh
	} else {
		select {
		case res = <-resCh:
		case <-expired:
			r.logger.Error("batch.item.timeout",
				"worker_id", workerID, "key", item.Key,
				"timeout", r.itemTimeout, "elapsed_ms", time.Since(start).Milliseconds())
			return Outcome{
				Key:     item.Key,
				Status:  StatusFailure,
				Kind:    KindTimeout,
				Message: fmt.Sprintf("no result within %s", r.itemTimeout),
			}
		}
	}

	if res.err != nil {
		se := Classify(res.err)
		r.logger.Error("batch.item.failed",
			"worker_id", workerID, "key", item.Key,
			"kind", string(se.Kind), "retryable", se.Retryable, "error", res.err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Outcome{
			Key:     item.Key,
			Status:  StatusFailure,
			Kind:    se.Kind,
			Message: se.Err.Error(),
		}
	}

	r.logger.Info("batch.item.processed",
		"worker_id", workerID, "key", item.Key,
		"output", res.ref, "elapsed_ms", time.Since(start).Milliseconds())
	return Outcome{Key: item.Key, Status: StatusSuccess, OutputRef: res.ref}
}
