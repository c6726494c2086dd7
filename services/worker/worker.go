package worker

import (
	"context"
	"time"

	"sjsage522/bonoworker/internal/geo"
	"sjsage522/bonoworker/logger"
	"sjsage522/bonoworker/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize caps the number of resolutions in flight at once
const DefaultBatchSize = 150

// Request asks for the coordinates of the merchant at Index
type Request struct {
	Index   int
	MapsURL string
}

// Result carries the coordinates for the merchant at Index; nil means unresolved
type Result struct {
	Index       int
	Coordinates *geo.Coordinates
}

// Resolver resolves one map-search URL. Implementations absorb their own failures.
type Resolver interface {
	Resolve(ctx context.Context, mapsURL string) *geo.Coordinates
}

// Worker runs resolutions in fixed-size batches
type Worker struct {
	resolver  Resolver
	batchSize int
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewWorker creates a new worker. A non-positive batch size uses DefaultBatchSize.
func NewWorker(resolver Resolver, batchSize int, m *metrics.Metrics) *Worker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if m == nil {
		m = metrics.New()
	}
	return &Worker{
		resolver:  resolver,
		batchSize: batchSize,
		metrics:   m,
		log:       logger.ForWorker(),
	}
}

// BatchSize returns the configured group size
func (w *Worker) BatchSize() int {
	return w.batchSize
}

// ResolveAll resolves every request and returns exactly one result per request.
// Batches run one after another; the requests of a batch run concurrently and
// the next batch starts only when all of them have returned.
func (w *Worker) ResolveAll(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))
	if len(requests) == 0 {
		return results
	}

	start := time.Now()
	batches := (len(requests) + w.batchSize - 1) / w.batchSize

	for b, offset := 0, 0; offset < len(requests); b, offset = b+1, offset+w.batchSize {
		end := min(offset+w.batchSize, len(requests))

		w.log.Info().
			Int("batch", b+1).
			Int("batches", batches).
			Int("from", offset).
			Int("to", end-1).
			Msg("Processing batch")

		w.runBatch(ctx, requests[offset:end], results[offset:end])
	}

	var resolved int
	for _, r := range results {
		if r.Coordinates != nil {
			resolved++
		}
	}

	w.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("resolved", resolved).
		Int("requested", len(requests)).
		Msg("Completed batch processing")

	return results
}

// runBatch resolves one batch concurrently. Each goroutine owns one slot of out.
func (w *Worker) runBatch(ctx context.Context, batch []Request, out []Result) {
	start := time.Now()

	var g errgroup.Group
	for i, req := range batch {
		g.Go(func() error {
			out[i] = Result{
				Index:       req.Index,
				Coordinates: w.resolver.Resolve(ctx, req.MapsURL),
			}
			return nil
		})
	}
	// Resolvers never fail, so Wait is only the barrier.
	_ = g.Wait()

	w.metrics.BatchDuration.Observe(time.Since(start).Seconds())
}
