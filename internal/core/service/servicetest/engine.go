// Package servicetest provides an instrumented Engine for tests.
package servicetest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

// Engine is a scripted service.Engine that records how it was called.
//
// Every call marks itself active for its duration; a call that starts while
// another is active is counted as an overlap.
type Engine struct {
	mu        sync.Mutex
	responses map[domain.Commitment]error
	roundErr  error
	delay     time.Duration
	panicOn   string

	swaps    atomic.Int64
	rounds   atomic.Int64
	active   atomic.Int32
	overlaps atomic.Int32
}

// NewEngine creates an engine that accepts every swap.
func NewEngine() *Engine {
	return &Engine{
		responses: make(map[domain.Commitment]error),
	}
}

// SetResponse makes Swap return err for onions carrying commit.
func (e *Engine) SetResponse(commit domain.Commitment, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[commit] = err
}

// SetRoundError makes ExecuteRound return err.
func (e *Engine) SetRoundError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roundErr = err
}

// SetDelay makes every call sleep for d (or until ctx is done).
func (e *Engine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetPanic makes the named operation ("swap" or "round") panic.
func (e *Engine) SetPanic(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panicOn = op
}

// Swap implements service.Engine.
func (e *Engine) Swap(ctx context.Context, onion *domain.Onion, _ *domain.ComSignature) error {
	e.swaps.Add(1)
	defer e.enter()()

	e.mu.Lock()
	err := e.responses[onion.Commit]
	delay, panicOn := e.delay, e.panicOn
	e.mu.Unlock()

	if panicOn == "swap" {
		panic("servicetest: swap panic")
	}
	if werr := wait(ctx, delay); werr != nil {
		return werr
	}
	return err
}

// ExecuteRound implements service.Engine.
func (e *Engine) ExecuteRound(ctx context.Context) error {
	e.rounds.Add(1)
	defer e.enter()()

	e.mu.Lock()
	err := e.roundErr
	delay, panicOn := e.delay, e.panicOn
	e.mu.Unlock()

	if panicOn == "round" {
		panic("servicetest: round panic")
	}
	if werr := wait(ctx, delay); werr != nil {
		return werr
	}
	return err
}

// SwapCalls returns the number of Swap calls.
func (e *Engine) SwapCalls() int64 { return e.swaps.Load() }

// RoundCalls returns the number of ExecuteRound calls.
func (e *Engine) RoundCalls() int64 { return e.rounds.Load() }

// Overlaps returns how many calls started while another was running.
func (e *Engine) Overlaps() int32 { return e.overlaps.Load() }

func (e *Engine) enter() func() {
	if e.active.Add(1) > 1 {
		e.overlaps.Add(1)
	}
	return func() { e.active.Add(-1) }
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
