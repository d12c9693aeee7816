package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

// Rounder executes one batch round. *service.Gate implements it.
type Rounder interface {
	ExecuteRound(ctx context.Context) error
}

// Transport is the RPC transport closed when the scheduler stops.
type Transport interface {
	Close(ctx context.Context) error
}

// Config configures a Scheduler.
type Config struct {
	// Interval is the number of ticks between rounds. Must be >= 1.
	Interval int

	// Tick is the tick period. Default: 1s.
	Tick time.Duration

	// CloseTimeout bounds the graceful close of the transport. Default: 10s.
	CloseTimeout time.Duration
}

// Scheduler runs rounds until its context is cancelled.
type Scheduler struct {
	rounder   Rounder
	transport Transport
	cfg       Config
	metrics   *metric.Registry
	log       logger.Logger

	// newTicker is replaced in tests.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// New creates a Scheduler. metrics may be nil.
func New(rounder Rounder, transport Transport, cfg Config, metrics *metric.Registry, log logger.Logger) (*Scheduler, error) {
	if rounder == nil || transport == nil {
		return nil, errors.New("round: rounder and transport are required")
	}
	if cfg.Interval < 1 {
		return nil, fmt.Errorf("round: interval must be >= 1, got %d", cfg.Interval)
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}

	return &Scheduler{
		rounder:   rounder,
		transport: transport,
		cfg:       cfg,
		metrics:   metrics,
		log:       log.With("component", "round"),
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}, nil
}

// Run ticks until ctx is cancelled, then closes the transport and returns
// the close error, if any.
func (s *Scheduler) Run(ctx context.Context) error {
	ticks, stop := s.newTicker(s.cfg.Tick)
	defer stop()

	s.log.Info("round scheduler started",
		"interval_ticks", s.cfg.Interval,
		"tick", s.cfg.Tick)

	count := 0
	for {
		select {
		case <-ctx.Done():
			return s.stop()
		case <-ticks:
		}

		if ctx.Err() != nil {
			return s.stop()
		}

		count = (count + 1) % s.cfg.Interval
		if count == 0 {
			s.runRound(ctx)
		}
	}
}

func (s *Scheduler) stop() error {
	s.log.Info("round scheduler stopping, closing transport")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CloseTimeout)
	defer cancel()
	if err := s.transport.Close(ctx); err != nil {
		s.log.Error("transport close failed", "error", err)
		return fmt.Errorf("round: close transport: %w", err)
	}
	return nil
}

// runRound executes one round detached from the stop signal. Errors and
// panics are logged and counted.
func (s *Scheduler) runRound(ctx context.Context) {
	start := time.Now()
	result := metric.RoundOK

	defer func() {
		if rec := recover(); rec != nil {
			result = metric.RoundPanic
			s.log.Error("round panicked", "panic", rec)
		}
		s.metrics.ObserveRound(result, time.Since(start))
	}()

	s.log.Debug("executing round")
	if err := s.rounder.ExecuteRound(context.WithoutCancel(ctx)); err != nil {
		result = metric.RoundFailed
		s.log.Error("round failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.log.Info("round completed", "duration_ms", time.Since(start).Milliseconds())
}
