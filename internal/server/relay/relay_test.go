package relay

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/core/service/servicetest"
	"github.com/yndnr/mixrelay-go/internal/server/round"
	"github.com/yndnr/mixrelay-go/internal/server/rpcserver"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

func testConfig() Config {
	return Config{
		RPC:         rpcserver.Config{Addr: "127.0.0.1:0"},
		Round:       round.Config{Interval: 1, Tick: 5 * time.Millisecond},
		MetricsAddr: "127.0.0.1:0",
	}
}

func swapBody(b byte) string {
	var c domain.Commitment
	c[0] = 0x08
	c[32] = b
	onion := fmt.Sprintf(`{"pubkey":"%s","commit":"%s","data":[]}`, strings.Repeat("00", domain.PublicKeySize), c)
	comsig := hex.EncodeToString(make([]byte, domain.ComSignatureSize))
	return fmt.Sprintf(`{"jsonrpc":"2.0","method":"swap","params":[{"onion":%s,"comsig":"%s"}],"id":1}`, onion, comsig)
}

func startRelay(t *testing.T, engine *servicetest.Engine, metrics *metric.Registry) (*Relay, context.CancelFunc, <-chan error) {
	t.Helper()
	r, err := New(engine, testConfig(), metrics, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return r, cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return nil
	}
}

func TestRelay_ShutdownPath(t *testing.T) {
	engine := servicetest.NewEngine()
	r, cancel, done := startRelay(t, engine, metric.NewRegistry())
	url := "http://" + r.Addr().String() + rpcserver.RPCPath

	resp, err := http.Post(url, "application/json", strings.NewReader(swapBody(1)))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"result":"success"`) {
		t.Errorf("response = %s", body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for engine.RoundCalls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if engine.RoundCalls() == 0 {
		t.Error("no round ran")
	}

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Errorf("Run() error = %v", err)
	}

	rounds := engine.RoundCalls()
	time.Sleep(20 * time.Millisecond)
	if engine.RoundCalls() != rounds {
		t.Error("rounds ran after Run returned")
	}
	if _, err := http.Post(url, "application/json", strings.NewReader(swapBody(2))); err == nil {
		t.Error("transport still accepting after shutdown")
	}
	if engine.Overlaps() != 0 {
		t.Errorf("Overlaps() = %d, want 0", engine.Overlaps())
	}
}

func TestRelay_ExternalTransportClose(t *testing.T) {
	engine := servicetest.NewEngine()
	r, cancel, done := startRelay(t, engine, nil)
	defer cancel()

	ctx, closeCancel := context.WithTimeout(context.Background(), time.Second)
	defer closeCancel()
	if err := r.Transport().Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := waitDone(t, done); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRelay_MetricsListener(t *testing.T) {
	metrics := metric.NewRegistry()
	r, cancel, done := startRelay(t, servicetest.NewEngine(), metrics)

	if r.MetricsAddr() == nil {
		t.Fatal("metrics listener not started")
	}
	resp, err := http.Get("http://" + r.MetricsAddr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}

	cancel()
	waitDone(t, done)

	if _, err := http.Get("http://" + r.MetricsAddr().String() + "/metrics"); err == nil {
		t.Error("metrics listener still open after shutdown")
	}
}

func TestListen_BindFailure(t *testing.T) {
	cfg := testConfig()
	cfg.RPC.Addr = "256.0.0.1:1"
	if err := Listen(context.Background(), servicetest.NewEngine(), cfg, nil, nil); err == nil {
		t.Error("Listen() with invalid address should fail")
	}
}

func TestNew_RequiresEngine(t *testing.T) {
	if _, err := New(nil, testConfig(), nil, nil); err == nil {
		t.Error("New() without engine should fail")
	}
}
