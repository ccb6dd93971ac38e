package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/metric"
	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"

	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is the reference telemetry cadence.
const DefaultPollInterval = 2 * time.Second

// DeviceReader is the read side of the device API.
type DeviceReader interface {
	GetConfiguration(ctx context.Context) (*models.Configuration, error)
	GetLatestReading(ctx context.Context) (models.Reading, error)
	GetHistory(ctx context.Context) ([]models.HistoryPoint, error)
}

// Telemetry is the result of one successful poll cycle.
type Telemetry struct {
	Cycle     uint64
	Reading   models.Reading
	History   []models.HistoryPoint
	FetchedAt time.Time
}

// TelemetrySink receives complete poll results. It returns false when it
// discarded the result as stale.
type TelemetrySink interface {
	ApplyTelemetry(ctx context.Context, t Telemetry) bool
}

type PollerOptions struct {
	// Before runs at the start of every cycle. An auth error from it ends
	// the loop; other errors are logged and the fetch goes ahead.
	Before func(ctx context.Context) error
	// OnAuthFailure is called once when the device rejects the session.
	OnAuthFailure func(err error)
	Log           *logger.Logger
	Metric        *metric.Metric
}

// TelemetryPoller fetches the latest reading and the history window as one
// unit. Cycles run back to back on the caller's goroutine and never overlap.
type TelemetryPoller struct {
	device DeviceReader
	sink   TelemetrySink
	opts   PollerOptions
	log    *logger.Logger
	seq    atomic.Uint64
}

func NewTelemetryPoller(device DeviceReader, sink TelemetrySink, opts PollerOptions) *TelemetryPoller {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &TelemetryPoller{device: device, sink: sink, opts: opts, log: log}
}

// LastIssued is the sequence number of the most recently started cycle.
func (p *TelemetryPoller) LastIssued() uint64 {
	return p.seq.Load()
}

// Run polls immediately and then every interval until ctx is canceled or
// the device rejects the session.
func (p *TelemetryPoller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if p.step(ctx) {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if p.step(ctx) {
				return
			}
		}
	}
}

// step runs one cycle and reports whether the loop must stop.
func (p *TelemetryPoller) step(ctx context.Context) bool {
	start := time.Now()
	err := p.RunCycle(ctx)
	switch {
	case err == nil:
		return false
	case errors.Is(err, remote.ErrUnauthorized):
		p.opts.Metric.PollCycle(start, metric.PollUnauthorized)
		p.log.Warnw("poll_unauthorized", "err", err)
		if p.opts.OnAuthFailure != nil {
			p.opts.OnAuthFailure(err)
		}
		return true
	case ctx.Err() != nil:
		return true
	default:
		p.opts.Metric.PollCycle(start, metric.PollFailed)
		p.opts.Metric.ErrorCounter("poller")
		p.log.Debugw("poll_cycle_failed", "err", err)
		return false
	}
}

// RunCycle performs one fetch pair. The sink sees both values or neither.
func (p *TelemetryPoller) RunCycle(ctx context.Context) error {
	start := time.Now()
	cycle := p.seq.Add(1)

	if p.opts.Before != nil {
		if err := p.opts.Before(ctx); err != nil {
			if errors.Is(err, remote.ErrUnauthorized) {
				return err
			}
			p.log.Debugw("poll_prepare_failed", "cycle", cycle, "err", err)
		}
	}

	var (
		reading models.Reading
		history []models.HistoryPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := p.device.GetLatestReading(gctx)
		if err != nil {
			return err
		}
		reading = r
		return nil
	})
	g.Go(func() error {
		h, err := p.device.GetHistory(gctx)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	applied := p.sink.ApplyTelemetry(ctx, Telemetry{
		Cycle:     cycle,
		Reading:   reading,
		History:   history,
		FetchedAt: time.Now().UTC(),
	})
	if applied {
		p.opts.Metric.PollCycle(start, metric.PollOK)
	} else {
		p.opts.Metric.PollCycle(start, metric.PollStale)
	}
	return nil
}
