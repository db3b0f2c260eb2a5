package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Source reads every raw station record of the feed, in document order.
type Source interface {
	Load(ctx context.Context) ([]domain.RawStation, error)
}

// Loader publishes a complete document to a destination.
type Loader interface {
	Load(ctx context.Context, doc domain.Document) error
}

// Loaders fans a document out to several destinations in order, stopping at
// the first failure.
type Loaders []Loader

func (ls Loaders) Load(ctx context.Context, doc domain.Document) error {
	for _, l := range ls {
		if err := l.Load(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Options configures the output window of a Pipeline.
type Options struct {
	// WindowDays is the number of calendar days in every price series.
	WindowDays int
	// WindowEnd pins the last day of the window. Zero means the day before
	// the clock's current date.
	WindowEnd time.Time
}

// Pipeline orchestrates the extract-resolve-normalize-densify-load run.
type Pipeline struct {
	source     Source
	resolver   *Resolver
	normalizer *Normalizer
	loader     Loader
	clock      clockwork.Clock
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	last       atomic.Pointer[RunStatus]
}

// RunStatus summarizes the last successful run.
type RunStatus struct {
	RunID       string    `json:"run_id"`
	Stations    int       `json:"stations"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`
	FinishedAt  time.Time `json:"finished_at"`
	Duration    string    `json:"duration"`
}

// New creates a Pipeline with the given stages and observability.
func New(s Source, r *Resolver, l Loader, clock clockwork.Clock, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:     s,
		resolver:   r,
		normalizer: NewNormalizer(logger, metrics),
		loader:     l,
		clock:      clock,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed a run,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the last successful run, or nil before
// the first one completes.
func (p *Pipeline) LastRun() *RunStatus {
	return p.last.Load()
}

// Window returns the date window the next run will densify against.
func (p *Pipeline) Window() (domain.Window, error) {
	end := p.opts.WindowEnd
	if end.IsZero() {
		end = p.clock.Now().AddDate(0, 0, -1)
	}
	return domain.NewWindow(end, p.opts.WindowDays)
}

// RunOnce performs a full run. Nothing is published unless every record has
// been processed; a feed or sink failure aborts the run.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Document, error) {
	start := p.clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	doc, window, err := p.run(ctx, logger)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return domain.Document{}, err
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.metrics.StationsWritten.Add(float64(len(doc.Stations)))
	p.ready.Store(true)
	p.last.Store(&RunStatus{
		RunID:       runID,
		Stations:    len(doc.Stations),
		WindowStart: window.First(),
		WindowEnd:   window.Last(),
		FinishedAt:  p.clock.Now().UTC(),
		Duration:    elapsed.String(),
	})

	logger.Info("run complete", "stations", len(doc.Stations), "duration", elapsed)
	return doc, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger) (domain.Document, domain.Window, error) {
	window, err := p.Window()
	if err != nil {
		return domain.Document{}, domain.Window{}, fmt.Errorf("build window: %w", err)
	}
	logger.Info("run started", "window_start", window.First(), "window_end", window.Last(), "days", window.Len())

	raws, err := p.source.Load(ctx)
	if err != nil {
		return domain.Document{}, domain.Window{}, fmt.Errorf("load feed: %w", err)
	}
	logger.Info("feed loaded", "records", len(raws))

	ids := stationIDs(raws)
	p.resolver.OnProgress(progressLogger(logger, p.metrics))
	names, err := p.resolver.Resolve(ctx, ids)
	if err != nil {
		return domain.Document{}, domain.Window{}, fmt.Errorf("resolve names: %w", err)
	}

	stations := p.normalizer.Normalize(raws, names)
	doc := domain.NewDocument(stations, window)
	logger.Info("stations densified", "stations", len(doc.Stations), "skipped", len(raws)-len(stations))

	if err := p.loader.Load(ctx, doc); err != nil {
		return domain.Document{}, domain.Window{}, fmt.Errorf("publish document: %w", err)
	}
	return doc, window, nil
}

// Run executes RunOnce immediately and then every interval until the context
// is cancelled. Failed runs are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("run interval must be positive, got %s", interval)
	}
	p.logger.Info("pipeline started", "interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("run failed", "error", err, "retry_in", backoff)
			if !p.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		if !p.sleep(ctx, interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// progressLogger reports resolver progress every tenth of the batch.
func progressLogger(logger *slog.Logger, metrics *observability.Metrics) ProgressFunc {
	lastDecile := 0
	return func(done, total int) {
		metrics.ResolveProgress.Set(float64(done) / float64(total))
		if decile := done * 10 / total; decile > lastDecile {
			lastDecile = decile
			logger.Info("resolving station names", "done", done, "total", total)
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
