package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/core/service"
	"github.com/yndnr/mixrelay-go/internal/core/service/servicetest"
)

func testOnion(b byte) *domain.Onion {
	o := &domain.Onion{EncPayloads: [][]byte{{0x01}}}
	o.Commit[0] = 0x08
	o.Commit[1] = b
	return o
}

func TestGate_NoOverlappingCalls(t *testing.T) {
	engine := servicetest.NewEngine()
	engine.SetDelay(2 * time.Millisecond)
	gate := service.NewGate(engine)

	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = gate.Swap(ctx, testOnion(byte(i)), &domain.ComSignature{})
		}(i)
		go func() {
			defer wg.Done()
			_ = gate.ExecuteRound(ctx)
		}()
	}
	wg.Wait()

	if engine.SwapCalls() != 20 || engine.RoundCalls() != 20 {
		t.Fatalf("calls = %d swaps, %d rounds; want 20 each", engine.SwapCalls(), engine.RoundCalls())
	}
	if n := engine.Overlaps(); n != 0 {
		t.Errorf("Overlaps() = %d, want 0", n)
	}
}

func TestGate_ReleasedAfterError(t *testing.T) {
	engine := servicetest.NewEngine()
	engine.SetRoundError(domain.UnknownError("round failed"))
	gate := service.NewGate(engine)

	if err := gate.ExecuteRound(context.Background()); err == nil {
		t.Fatal("expected round error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := gate.Swap(ctx, testOnion(1), &domain.ComSignature{}); err != nil {
		t.Errorf("Swap() after failed round error = %v", err)
	}
}

func TestGate_ReleasedAfterPanic(t *testing.T) {
	engine := servicetest.NewEngine()
	engine.SetPanic("round")
	gate := service.NewGate(engine)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = gate.ExecuteRound(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := gate.WithExclusiveAccess(ctx, func(ctx context.Context, e service.Engine) error {
		return nil
	})
	if err != nil {
		t.Errorf("gate not released after panic: %v", err)
	}
}

func TestGate_AcquireHonoursContext(t *testing.T) {
	gate := service.NewGate(servicetest.NewEngine())

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = gate.WithExclusiveAccess(context.Background(), func(ctx context.Context, e service.Engine) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held
	defer close(hold)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := gate.Swap(ctx, testOnion(1), &domain.ComSignature{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Swap() error = %v, want deadline exceeded", err)
	}
}

func TestGate_SwapTimeout(t *testing.T) {
	engine := servicetest.NewEngine()
	engine.SetDelay(time.Second)
	gate := service.NewGate(engine, service.WithSwapTimeout(20*time.Millisecond))

	start := time.Now()
	err := gate.Swap(context.Background(), testOnion(1), &domain.ComSignature{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Swap() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("swap timeout was not applied")
	}
	if domain.Classify(err) != domain.ClassServer {
		t.Error("timed-out swap should classify as server error")
	}
}

func TestGate_WaitObserver(t *testing.T) {
	var mu sync.Mutex
	ops := map[string]int{}
	gate := service.NewGate(servicetest.NewEngine(), service.WithWaitObserver(func(op string, d time.Duration) {
		mu.Lock()
		ops[op]++
		mu.Unlock()
	}))

	_ = gate.Swap(context.Background(), testOnion(1), &domain.ComSignature{})
	_ = gate.ExecuteRound(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if ops[service.OpSwap] != 1 || ops[service.OpRound] != 1 {
		t.Errorf("observed ops = %v", ops)
	}
}
