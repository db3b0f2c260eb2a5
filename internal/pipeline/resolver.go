package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the ceiling of in-flight name lookups.
const DefaultConcurrency = 150

// ProgressFunc observes resolver progress. It is called once per finished
// lookup with a monotonically increasing done count.
type ProgressFunc func(done, total int)

// Resolver looks up station names with bounded concurrency.
type Resolver struct {
	lookup      domain.NameLookup
	concurrency int
	progress    ProgressFunc
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewResolver creates a resolver. A nil lookup disables enrichment: every id
// resolves to an absent name without any network call.
func NewResolver(lookup domain.NameLookup, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{
		lookup:      lookup,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// OnProgress registers an observer. Calls are serialized.
func (r *Resolver) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// Resolve returns a map holding an entry for every id. Names that could not
// be resolved are nil. Individual lookup failures never fail the batch; only
// cancellation of ctx does. Duplicate ids are looked up once.
func (r *Resolver) Resolve(ctx context.Context, ids []int) (map[int]*string, error) {
	unique := dedupe(ids)
	names := make([]*string, len(unique))

	if r.lookup != nil {
		if err := r.resolveAll(ctx, unique, names); err != nil {
			return nil, err
		}
	}

	out := make(map[int]*string, len(unique))
	for i, id := range unique {
		out[id] = names[i]
	}
	return out, nil
}

func (r *Resolver) resolveAll(ctx context.Context, ids []int, names []*string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(r.concurrency)

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Each goroutine owns names[i]; no other writer touches that slot.
			names[i] = r.resolveOne(ctx, id)

			mu.Lock()
			done++
			if r.progress != nil {
				r.progress(done, len(ids))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}

func (r *Resolver) resolveOne(ctx context.Context, id int) *string {
	name, err := r.lookup.LookupName(ctx, id)
	switch {
	case err == nil:
		r.metrics.NameLookups.WithLabelValues("success").Inc()
		return &name
	case errors.Is(err, domain.ErrNameNotFound):
		r.metrics.NameLookups.WithLabelValues("not_found").Inc()
		r.logger.Debug("station name not found", "station_id", id)
	default:
		r.metrics.NameLookups.WithLabelValues("error").Inc()
		r.logger.Debug("station name lookup failed", "station_id", id, "error", err)
	}
	return nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
