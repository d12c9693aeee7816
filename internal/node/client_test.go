package node

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

// fakeNode serves a minimal foreign API backed by an in-memory UTXO set.
func fakeNode(t *testing.T, outputs map[string]bool, tip uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		var result any
		switch req.Method {
		case "get_outputs":
			var commits []string
			if err := json.Unmarshal(req.Params[0], &commits); err != nil {
				t.Errorf("decode commits: %v", err)
			}
			found := []Output{}
			for _, c := range commits {
				if spent, ok := outputs[c]; ok {
					found = append(found, Output{OutputType: "Transaction", Commit: c, Spent: spent, BlockHeight: 7})
				}
			}
			result = map[string]any{"Ok": found}
		case "get_tip":
			result = map[string]any{"Ok": Tip{Height: tip, LastBlockPushed: "00ab"}}
		default:
			result = map[string]any{"Err": map[string]string{"Internal": "unknown method"}}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
}

func testCommit(b byte) domain.Commitment {
	var c domain.Commitment
	c[0] = 0x09
	c[32] = b
	return c
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := DefaultConfig(url)
	cfg.RetryWait = time.Millisecond
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_IsUnspent(t *testing.T) {
	unspent, spent, missing := testCommit(1), testCommit(2), testCommit(3)
	srv := fakeNode(t, map[string]bool{
		unspent.String(): false,
		spent.String():   true,
	}, 100)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name   string
		commit domain.Commitment
		want   bool
	}{
		{"unspent", unspent, true},
		{"spent", spent, false},
		{"unknown", missing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.IsUnspent(ctx, tt.commit)
			if err != nil {
				t.Fatalf("IsUnspent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsUnspent() = %v, want %v", got, tt.want)
			}
		})
	}

	out, err := c.GetOutput(ctx, unspent)
	if err != nil || out == nil {
		t.Fatalf("GetOutput() = %v, %v", out, err)
	}
	if out.BlockHeight != 7 {
		t.Errorf("BlockHeight = %d, want 7", out.BlockHeight)
	}
}

func TestClient_TipHeight(t *testing.T) {
	srv := fakeNode(t, nil, 123456)
	defer srv.Close()

	h, err := newTestClient(t, srv.URL).TipHeight(context.Background())
	if err != nil {
		t.Fatalf("TipHeight() error = %v", err)
	}
	if h != 123456 {
		t.Errorf("TipHeight() = %d, want 123456", h)
	}
}

func TestClient_BasicAuth(t *testing.T) {
	secretPath := filepath.Join(t.TempDir(), ".api_secret")
	if err := os.WriteFile(secretPath, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"Ok":{"height":1}}}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.SecretPath = secretPath
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.TipHeight(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotUser != "grin" || gotPass != "s3cret" {
		t.Errorf("basic auth = %q:%q", gotUser, gotPass)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"err envelope", `{"jsonrpc":"2.0","id":1,"result":{"Err":{"NotFound":"x"}}}`, http.StatusOK},
		{"rpc error", `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`, http.StatusOK},
		{"null result", `{"jsonrpc":"2.0","id":1,"result":null}`, http.StatusOK},
		{"http status", `unauthorized`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := newTestClient(t, srv.URL).TipHeight(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Run("err envelope is APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"Err":{"Internal":"db"}}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).TipHeight(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Method != "get_tip" {
			t.Errorf("error = %v, want APIError for get_tip", err)
		}
	})
}

func TestClient_RetriesDroppedConnection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"Ok":{"height":9}}}`))
	}))
	defer srv.Close()

	h, err := newTestClient(t, srv.URL).TipHeight(context.Background())
	if err != nil {
		t.Fatalf("TipHeight() error = %v", err)
	}
	if h != 9 || calls.Load() != 2 {
		t.Errorf("height = %d after %d calls, want 9 after 2", h, calls.Load())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("New() without url should fail")
	}
	cfg := DefaultConfig("http://127.0.0.1:1")
	cfg.SecretPath = filepath.Join(t.TempDir(), "missing")
	if _, err := New(cfg, nil); err == nil {
		t.Error("New() with unreadable secret should fail")
	}
}
