package service

import (
	"context"
	"time"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

// Engine is the swap-processing capability driven by the relay.
//
// Implementations need not be safe for concurrent use: every call is
// made through a Gate.
type Engine interface {
	// Swap validates a swap request and queues it for the next round.
	Swap(ctx context.Context, onion *domain.Onion, comsig *domain.ComSignature) error

	// ExecuteRound processes every swap queued since the previous round.
	ExecuteRound(ctx context.Context) error
}

// Gate operation names, used for timing observations.
const (
	OpSwap  = "swap"
	OpRound = "round"
)

// Gate serialises all access to a single Engine.
//
// Exclusion uses a one-slot channel: blocked callers queue on the send and
// are admitted in arrival order. The slot is released in a defer, so a
// failing or panicking operation never leaves the gate held.
type Gate struct {
	engine Engine
	slot   chan struct{}

	swapTimeout  time.Duration
	roundTimeout time.Duration
	observeWait  func(op string, d time.Duration)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithSwapTimeout bounds each Swap call. Zero means no bound.
func WithSwapTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.swapTimeout = d
	}
}

// WithRoundTimeout bounds each ExecuteRound call. Zero means no bound.
func WithRoundTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.roundTimeout = d
	}
}

// WithWaitObserver registers a callback receiving how long each operation
// waited for the gate.
func WithWaitObserver(fn func(op string, d time.Duration)) GateOption {
	return func(g *Gate) {
		g.observeWait = fn
	}
}

// NewGate wraps engine for exclusive access.
func NewGate(engine Engine, opts ...GateOption) *Gate {
	g := &Gate{
		engine: engine,
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithExclusiveAccess runs fn while holding sole access to the engine.
//
// Waiting for the gate honours ctx; once fn starts it runs to completion
// and the gate is released whether fn returns an error or panics.
func (g *Gate) WithExclusiveAccess(ctx context.Context, fn func(ctx context.Context, e Engine) error) error {
	return g.withAccess(ctx, "", fn)
}

func (g *Gate) withAccess(ctx context.Context, op string, fn func(ctx context.Context, e Engine) error) error {
	start := time.Now()
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()

	if op != "" && g.observeWait != nil {
		g.observeWait(op, time.Since(start))
	}
	return fn(ctx, g.engine)
}

// Swap forwards a swap request to the engine under the gate.
func (g *Gate) Swap(ctx context.Context, onion *domain.Onion, comsig *domain.ComSignature) error {
	return g.withAccess(ctx, OpSwap, func(ctx context.Context, e Engine) error {
		ctx, cancel := withOptionalTimeout(ctx, g.swapTimeout)
		defer cancel()
		return e.Swap(ctx, onion, comsig)
	})
}

// ExecuteRound runs one round on the engine under the gate.
func (g *Gate) ExecuteRound(ctx context.Context) error {
	return g.withAccess(ctx, OpRound, func(ctx context.Context, e Engine) error {
		ctx, cancel := withOptionalTimeout(ctx, g.roundTimeout)
		defer cancel()
		return e.ExecuteRound(ctx)
	})
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
