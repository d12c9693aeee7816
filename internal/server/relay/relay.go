package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/mixrelay-go/internal/core/service"
	"github.com/yndnr/mixrelay-go/internal/server/round"
	"github.com/yndnr/mixrelay-go/internal/server/rpcserver"
	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

// Config configures a Relay.
type Config struct {
	RPC   rpcserver.Config
	Round round.Config

	// SwapTimeout and RoundTimeout bound engine calls. Zero means no bound.
	SwapTimeout  time.Duration
	RoundTimeout time.Duration

	// MetricsAddr serves /metrics when set.
	MetricsAddr string
}

// Relay owns the gate, the transport and the scheduler for one run.
type Relay struct {
	transport *rpcserver.Server
	scheduler *round.Scheduler
	metrics   *metric.Registry
	log       logger.Logger

	metricsAddr   string
	metricsServer *http.Server
	metricsLn     net.Listener
}

// New builds a relay around engine. metrics may be nil.
func New(engine service.Engine, cfg Config, metrics *metric.Registry, log logger.Logger) (*Relay, error) {
	if engine == nil {
		return nil, errors.New("relay: engine is required")
	}
	if log == nil {
		log = logger.Default()
	}

	gateOpts := []service.GateOption{
		service.WithSwapTimeout(cfg.SwapTimeout),
		service.WithRoundTimeout(cfg.RoundTimeout),
	}
	if metrics != nil {
		gateOpts = append(gateOpts, service.WithWaitObserver(metrics.ObserveGateWait))
	}
	gate := service.NewGate(engine, gateOpts...)

	transport, err := rpcserver.New(cfg.RPC, gate, metrics, log)
	if err != nil {
		return nil, err
	}
	scheduler, err := round.New(gate, transport, cfg.Round, metrics, log)
	if err != nil {
		return nil, err
	}

	return &Relay{
		transport:   transport,
		scheduler:   scheduler,
		metrics:     metrics,
		log:         log,
		metricsAddr: cfg.MetricsAddr,
	}, nil
}

// Start binds the RPC transport and, if configured, the metrics listener.
func (r *Relay) Start() error {
	if r.metricsAddr != "" && r.metrics != nil {
		ln, err := net.Listen("tcp", r.metricsAddr)
		if err != nil {
			return fmt.Errorf("relay: metrics listen %s: %w", r.metricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", r.metrics.Handler())
		r.metricsLn = ln
		r.metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	if err := r.transport.Start(); err != nil {
		if r.metricsLn != nil {
			_ = r.metricsLn.Close()
		}
		return err
	}
	return nil
}

// Addr returns the RPC transport's bound address.
func (r *Relay) Addr() net.Addr {
	return r.transport.Addr()
}

// MetricsAddr returns the metrics listener's address, or nil.
func (r *Relay) MetricsAddr() net.Addr {
	if r.metricsLn == nil {
		return nil
	}
	return r.metricsLn.Addr()
}

// Transport returns the RPC transport.
func (r *Relay) Transport() *rpcserver.Server {
	return r.transport
}

// Run drives the relay until stop is cancelled or the transport closes on
// its own. It returns after the transport has closed and the scheduler has
// exited. Start must have succeeded.
func (r *Relay) Run(stop context.Context) error {
	schedCtx, cancelSched := context.WithCancel(stop)
	defer cancelSched()

	var g errgroup.Group

	g.Go(func() error {
		return r.scheduler.Run(schedCtx)
	})

	if r.metricsServer != nil {
		r.log.Info("metrics listening", "addr", r.metricsLn.Addr().String())
		g.Go(func() error {
			err := r.metricsServer.Serve(r.metricsLn)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("relay: metrics server: %w", err)
		})
	}

	g.Go(func() error {
		err := r.transport.Wait()
		if stop.Err() == nil {
			r.log.Warn("transport closed without stop signal, stopping scheduler", "error", err)
		}
		cancelSched()

		if r.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = r.metricsServer.Shutdown(ctx)
		}
		return err
	})

	err := g.Wait()
	r.log.Info("relay stopped")
	return err
}

// Listen starts a relay around engine and runs it until stop is cancelled.
func Listen(stop context.Context, engine service.Engine, cfg Config, metrics *metric.Registry, log logger.Logger) error {
	r, err := New(engine, cfg, metrics, log)
	if err != nil {
		return err
	}
	if err := r.Start(); err != nil {
		return err
	}
	return r.Run(stop)
}
