package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/pdf"
)

const (
	// MaxWorkers caps the concurrency regardless of available CPUs.
	MaxWorkers = 8
)

// DefaultWorkers returns the default worker count: available
// parallelism capped at MaxWorkers, never below 1.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Task produces a value for one WorkItem or a classified failure. Tasks
// must not panic past their boundary; the pool still guards against it.
type Task[T any] func(ctx context.Context, item WorkItem) (T, *pdf.Failure)

// Outcome pairs a WorkItem with its result: exactly one of Value or
// Failure is meaningful.
type Outcome[T any] struct {
	Item    WorkItem
	Value   T
	Failure *pdf.Failure
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool {
	return o.Failure == nil
}

// Pool executes WorkItems with bounded concurrency. Every submitted
// item produces exactly one Outcome, including under cancellation:
// items that never start are recorded as cancelled failures rather
// than dropped.
type Pool[T any] struct {
	workers int
	timeout time.Duration
	logger  *zap.Logger
}

// NewPool creates a pool. workers outside 1..MaxWorkers is clamped;
// timeout of zero means no per-item budget.
func NewPool[T any](workers int, timeout time.Duration, logger *zap.Logger) *Pool[T] {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool[T]{workers: workers, timeout: timeout, logger: logger}
}

// Run executes task for every item and returns outcomes indexed by
// WorkItem.Index, so completion order never affects output order. The
// returned slice always has len(items) entries.
func (p *Pool[T]) Run(ctx context.Context, items []WorkItem, task Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(items))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	p.logger.Info("starting worker pool",
		zap.Int("items", len(items)),
		zap.Int("workers", p.workers),
	)

	for _, item := range items {
		// Checked before the select so an already-cancelled context
		// never races against an available worker slot.
		if ctx.Err() != nil {
			outcomes[item.Index] = Outcome[T]{
				Item:    item,
				Failure: pdf.NewFailure(pdf.KindUnknown, item.Path, "cancelled"),
			}
			continue
		}

		select {
		case <-ctx.Done():
			// Files that never started are recorded, not omitted
			outcomes[item.Index] = Outcome[T]{
				Item:    item,
				Failure: pdf.NewFailure(pdf.KindUnknown, item.Path, "cancelled"),
			}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(item WorkItem) {
			defer wg.Done()
			defer func() { <-sem }() // release the permit unconditionally

			outcomes[item.Index] = p.runOne(ctx, item, task)
		}(item)
	}

	wg.Wait()
	return outcomes
}

// runOne executes a single item with the per-item timeout and panic
// isolation.
func (p *Pool[T]) runOne(ctx context.Context, item WorkItem, task Task[T]) (out Outcome[T]) {
	out.Item = item

	defer func() {
		if r := recover(); r != nil {
			out.Failure = pdf.NewFailure(pdf.KindUnknown, item.Path,
				fmt.Sprintf("task panic: %v", r))
		}
	}()

	taskCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	value, failure := task(taskCtx, item)
	if failure != nil {
		p.logger.Warn("item failed",
			zap.String("path", item.Path),
			zap.String("kind", string(failure.Kind)),
			zap.String("message", failure.Message),
		)
		out.Failure = failure
		return out
	}

	out.Value = value
	return out
}
