package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler owns the process stop signal and the cleanup hooks run after it.
//
// The stop signal is a context cancelled exactly once; it only ever moves
// from running to stopped.
type Handler struct {
	timeout time.Duration
	hooks   []func(context.Context) error
	mu      sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	hooksOnce sync.Once
	hooksErr  error
	done      chan struct{}
}

// NewHandler creates a new shutdown handler. timeout bounds the total time
// given to the hooks.
func NewHandler(timeout time.Duration) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Context returns the stop signal. It is cancelled by Stop.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Stop raises the stop signal. Calling it more than once has no effect.
func (h *Handler) Stop() {
	h.cancel()
}

// IsStopped reports whether Stop has been called.
func (h *Handler) IsStopped() bool {
	return h.ctx.Err() != nil
}

// NotifySignals calls Stop when one of sigs arrives (SIGINT and SIGTERM if
// none are given). The returned function stops listening.
func (h *Handler) NotifySignals(sigs ...os.Signal) func() {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			h.Stop()
		case <-h.ctx.Done():
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(quit)
		})
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RunHooks raises the stop signal if needed and runs every hook once, in
// reverse order, sharing one timeout. Later calls return the first result.
func (h *Handler) RunHooks() error {
	h.hooksOnce.Do(func() {
		h.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]func(context.Context) error, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}

		h.hooksErr = errors.Join(errs...)
		close(h.done)
	})
	return h.hooksErr
}

// Wait blocks until the stop signal is raised, then runs the hooks.
func (h *Handler) Wait() error {
	<-h.ctx.Done()
	return h.RunHooks()
}

// Done returns a channel that closes when the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
