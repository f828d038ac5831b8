// Package pipeline drives bulk simulation runs: it reads run requests from
// a source, provisions and runs each simulation, and publishes results to
// a sink.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

// RunRequest is one bulk-run line: a site identity, the provider
// selectors, and the campaign to simulate.
type RunRequest struct {
	ParcelID int
	GridRef  string
	Weather  weather.Selector
	Soil     soil.Selector
	Period   domain.Period
	Calendar domain.CropCalendar
}

// RequestSource yields run requests. Next returns io.EOF when the source
// is exhausted.
type RequestSource interface {
	Next(ctx context.Context) (RunRequest, error)
}

// Runner provisions and runs one simulation.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (domain.SimulationResult, error)
}

// ResultSink receives completed results.
type ResultSink interface {
	Publish(ctx context.Context, result domain.SimulationResult) error
}

// Pipeline orchestrates the read-run-publish loop.
type Pipeline struct {
	source  RequestSource
	runner  Runner
	sink    ResultSink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source RequestSource, runner Runner, sink ResultSink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		runner:  runner,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one
// result, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any results yet")
	}
	return nil
}

// Run executes the bulk loop until the source is exhausted or the context
// is cancelled. Individual run failures are logged and skipped; publish
// failures are retried with backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("bulk runner started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("bulk runner stopping", "reason", ctx.Err())
			return nil
		default:
		}

		req, err := p.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			p.logger.Info("bulk runner finished, source exhausted")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		result, err := p.runner.Run(ctx, req)
		if err != nil {
			p.logger.Warn("run failed, skipping request",
				"error", err,
				"parcel_id", req.ParcelID,
				"grid_ref", req.GridRef,
				"crop", req.Calendar.Crop,
			)
			continue
		}

		if !p.publishWithRetry(ctx, result) {
			return nil
		}
	}
}

// publishWithRetry publishes one result, retrying transient sink failures
// with exponential backoff. Returns false if the pipeline should stop.
func (p *Pipeline) publishWithRetry(ctx context.Context, result domain.SimulationResult) bool {
	// Start at 200ms, double each retry, cap at 5s. Keeps retry storms
	// short while avoiding tight loops during broker outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		err := p.sink.Publish(ctx, result)
		if err == nil {
			p.metrics.ResultsPublished.Inc()
			p.ready.Store(true)
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		p.logger.Error("publish failed", "error", err, "run_id", result.RunID)
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
