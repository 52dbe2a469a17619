// Package agent wires the collection pipeline together: gNMI clients per
// device, one sampler per device running concurrently, convergence analysis
// over the frozen series, and the reporters.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"clabwatch/internal/config"
	"clabwatch/internal/convergence"
	"clabwatch/internal/gnmi"
	"clabwatch/internal/model"
	"clabwatch/internal/report"
	"clabwatch/internal/sampler"
)

type Agent struct {
	cfg       *config.Config
	logger    *slog.Logger
	clients   []*gnmi.Client
	health    *HealthStatus
	table     *report.TableReporter
	reporters []report.Reporter
}

func New(cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clients := make([]*gnmi.Client, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		clients = append(clients, gnmi.NewClient(gnmi.Target{
			Name:       d.Name,
			Address:    d.Target(),
			Username:   cfg.Username,
			Password:   cfg.Password,
			Insecure:   cfg.Insecure,
			SkipVerify: cfg.SkipVerify,
		}, logger))
	}

	table := report.NewTableReporter(os.Stdout, !cfg.NoColor)
	return &Agent{
		cfg:     cfg,
		logger:  logger,
		clients: clients,
		health:  NewHealthStatus(),
		table:   table,
		reporters: []report.Reporter{
			table,
			report.NewCSVReporter(cfg.OutputDir, cfg.OutputPrefix, logger),
		},
	}, nil
}

// Run drives one chart-routes collection with graceful shutdown: SIGINT or
// SIGTERM (or ENTER on stdin, the operator early-stop) cancels the run, a
// grace timer bounds the drain, and a second signal forces out immediately.
// An early-stopped run still reports its partial series.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting route collection",
		"devices", len(a.clients),
		"families", a.cfg.Families,
		"duration", a.cfg.Duration,
		"interval", a.cfg.Interval)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.logger.Info("press ENTER to stop collection early")
	watchStdin(a.logger, cancelRun)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, stopping collection",
			"signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	a.closeClients()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("collection finished")
	return nil
}

func (a *Agent) run(ctx context.Context) error {
	probeCtx, stopProbe := context.WithCancel(ctx)
	defer stopProbe()
	if a.cfg.ProbeListenAddr != "" {
		go func() {
			if err := a.runProbeListener(probeCtx); err != nil {
				a.logger.Warn("probe listener failed", "error", err)
			}
		}()
	}

	a.health.SetCollecting(true)
	results, err := a.collect(ctx)
	a.health.SetCollecting(false)
	if err != nil {
		return err
	}
	stopProbe()

	for _, r := range a.reporters {
		if err := r.Render(results); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}
	return nil
}

// collect runs one sampler per device concurrently. A device whose every
// fetch fails still yields series (all gaps); only sampler setup errors abort
// the run.
func (a *Agent) collect(ctx context.Context) ([]report.DeviceResult, error) {
	metrics := gnmi.RouteMetrics(a.cfg.Families)
	results := make([]report.DeviceResult, len(a.clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range a.clients {
		g.Go(func() error {
			s, err := sampler.New(a.logger, sampler.Options{
				Duration:     a.cfg.Duration,
				Interval:     a.cfg.Interval,
				FetchTimeout: a.cfg.FetchTimeout,
				Workers:      a.cfg.Workers,
			})
			if err != nil {
				return err
			}
			series, err := s.Collect(gctx, client.Name(), metrics, a.fetchFor(client))
			if err != nil {
				return fmt.Errorf("collect %s: %w", client.Name(), err)
			}
			results[i] = buildDeviceResult(a.cfg, client.Name(), metrics, series)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchFor adapts one device's route-count fetch into the sampler contract,
// feeding the health status on the way through.
func (a *Agent) fetchFor(client *gnmi.Client) sampler.FetchFunc {
	fetch := client.RouteCountFetch(a.cfg.NetworkInstance)
	return func(ctx context.Context, metric string) (uint64, error) {
		v, err := fetch(ctx, metric)
		if err != nil {
			a.health.MarkFetchError()
			return 0, err
		}
		a.health.MarkSample(time.Now().UTC())
		return v, nil
	}
}

// buildDeviceResult orders series by the metric list and derives convergence
// results for every family that has thresholds configured, using the family's
// total-routes series like the original charting flow did.
func buildDeviceResult(cfg *config.Config, device string, metrics []string, series map[string]*model.Series) report.DeviceResult {
	dr := report.DeviceResult{Device: device}
	for _, m := range metrics {
		if s, ok := series[m]; ok {
			dr.Series = append(dr.Series, s)
		}
	}
	for _, family := range cfg.Families {
		if !cfg.HasThresholds(family) {
			continue
		}
		total := series[gnmi.TotalMetric(family)]
		res := convergence.Analyze(total, cfg.StartValues[family], cfg.EndValues[family])
		if res.Device == "" {
			res.Device = device
		}
		if res.Metric == "" {
			res.Metric = gnmi.TotalMetric(family)
		}
		dr.Results = append(dr.Results, res)
	}
	return dr
}

// CheckBGP polls every device's neighbor state once, in parallel, renders the
// listing plus fabric summary, and returns the summary for exit-code
// decisions. Unreachable devices are reported, not fatal.
func (a *Agent) CheckBGP(ctx context.Context, networkInstance string) (model.BGPSummary, error) {
	defer a.closeClients()

	reports := make([]model.BGPDeviceReport, len(a.clients))
	g, gctx := errgroup.WithContext(ctx)
	for i, client := range a.clients {
		g.Go(func() error {
			nbrs, err := client.BGPNeighbors(gctx, networkInstance)
			reports[i] = model.BGPDeviceReport{Device: client.Name(), Neighbors: nbrs, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return a.table.RenderBGP(reports)
}

func (a *Agent) closeClients() {
	for _, c := range a.clients {
		if err := c.Close(); err != nil {
			a.logger.Debug("close gnmi client", "device", c.Name(), "error", err)
		}
	}
}

// BuildLogger follows the configured level and format.
func BuildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
