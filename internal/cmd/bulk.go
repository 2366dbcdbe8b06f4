package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 4

// BulkResult represents the outcome of a single bulk operation
type BulkResult struct {
	ID      string
	Success bool
	Error   error
	Data    any
}

// runBulkOperation runs operation over ids with at most concurrency calls
// in flight, collecting one BulkResult per attempted id. An individual
// failure lands in its result and never stops the run; a cancelled context
// stops new work from starting.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	var (
		mu      sync.Mutex
		results = make([]BulkResult, 0, len(ids))
	)
	meter := &progressMeter{enabled: progress, total: len(ids), out: errOut}
	record := func(r BulkResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		meter.tick()
	}

	sem := semaphore.NewWeighted(concurrency)
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		// Acquiring before spawning bounds the goroutines as well as the
		// calls, and stops the run cleanly once the context is gone.
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		id := id
		g.Go(func() error {
			defer sem.Release(1)
			data, err := operation(ctx, id)
			if err != nil {
				record(BulkResult{ID: id, Error: err})
				return nil
			}
			record(BulkResult{ID: id, Success: true, Data: data})
			return nil
		})
	}
	_ = g.Wait()
	meter.finish()

	return results
}

// progressMeter writes a carriage-return progress line as results land.
type progressMeter struct {
	enabled bool
	total   int
	out     io.Writer

	mu   sync.Mutex
	done int
}

func (m *progressMeter) tick() {
	if !m.enabled || m.total == 0 {
		return
	}
	m.mu.Lock()
	m.done++
	_, _ = fmt.Fprintf(m.out, "\rProcessed %d/%d", m.done, m.total)
	m.mu.Unlock()
}

func (m *progressMeter) finish() {
	if !m.enabled || m.total == 0 {
		return
	}
	m.mu.Lock()
	_, _ = fmt.Fprintf(m.out, "\rProcessed %d/%d\n", m.done, m.total)
	m.mu.Unlock()
}

// countResults splits bulk results into success and failure counts.
func countResults(results []BulkResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
