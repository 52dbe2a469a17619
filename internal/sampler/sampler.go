// Package sampler runs the polling loop of a collection: one tick per
// interval, each tick fanning out to every monitored metric through a bounded
// worker pool, recording (elapsed, value) pairs until the duration elapses or
// the operator stops the run.
package sampler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"clabwatch/internal/model"
)

// FetchFunc returns the current value of one metric, or fails with a
// transport error. Implementations must honor ctx; the sampler bounds each
// call with its fetch timeout.
type FetchFunc func(ctx context.Context, metric string) (uint64, error)

type Options struct {
	Duration time.Duration
	Interval time.Duration
	// FetchTimeout bounds a single fetch so a hung device cannot stall the
	// tick cadence. Zero means one interval.
	FetchTimeout time.Duration
	// Workers limits concurrent fetches within one tick. Zero means one
	// worker per metric.
	Workers int
}

func (o *Options) applyDefaults() {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = o.Interval
	}
}

func (o Options) validate() error {
	if o.Duration <= 0 {
		return errors.New("sampler: duration must be > 0")
	}
	if o.Interval <= 0 {
		return errors.New("sampler: interval must be > 0")
	}
	if o.Workers < 0 {
		return errors.New("sampler: workers must be >= 0")
	}
	return nil
}

type Sampler struct {
	logger *slog.Logger
	opts   Options
}

func New(logger *slog.Logger, opts Options) (*Sampler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	return &Sampler{logger: logger, opts: opts}, nil
}

// Collect samples every metric once per tick until the configured duration
// has elapsed or ctx is canceled. Cancellation is cooperative, checked at
// tick boundaries; a canceled run returns its partial series, which are
// valid. Elapsed times come from the monotonic clock, so wall clock
// adjustments during a run do not skew the series.
//
// A failed or timed-out fetch records no sample for that metric at that tick
// and is counted as a gap; the run continues.
func (s *Sampler) Collect(ctx context.Context, device string, metrics []string, fetch FetchFunc) (map[string]*model.Series, error) {
	if len(metrics) == 0 {
		return nil, errors.New("sampler: no metrics to collect")
	}
	if fetch == nil {
		return nil, errors.New("sampler: nil fetch function")
	}

	series := make(map[string]*model.Series, len(metrics))
	for _, m := range metrics {
		series[m] = &model.Series{Device: device, Metric: m}
	}

	start := time.Now()
	deadline := start.Add(s.opts.Duration)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return series, nil
		}
		s.tick(ctx, device, start, metrics, fetch, series)

		if !time.Now().Before(deadline) {
			return series, nil
		}
		select {
		case <-ctx.Done():
			s.logger.Info("collection stopped early",
				"device", device, "elapsed", time.Since(start).Round(time.Millisecond))
			return series, nil
		case <-ticker.C:
		}
	}
}

// tick fetches all metrics concurrently, then appends results in declared
// metric order. Each series keeps a single writer: this loop.
func (s *Sampler) tick(ctx context.Context, device string, start time.Time, metrics []string, fetch FetchFunc, series map[string]*model.Series) {
	elapsed := time.Since(start).Seconds()

	type outcome struct {
		value uint64
		err   error
	}
	results := make([]outcome, len(metrics))

	g, gctx := errgroup.WithContext(ctx)
	workers := s.opts.Workers
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, m := range metrics {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, s.opts.FetchTimeout)
			defer cancel()
			v, err := fetch(fctx, m)
			results[i] = outcome{value: v, err: err}
			// Fetch errors become gaps, never run failures.
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range metrics {
		sr := series[m]
		sr.Ticks++
		if err := results[i].err; err != nil {
			sr.Gaps++
			s.logger.Debug("fetch failed, recording gap",
				"device", device, "metric", m, "tick", sr.Ticks, "error", err)
			continue
		}
		sr.Append(elapsed, results[i].value)
	}
}
