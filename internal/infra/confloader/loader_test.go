package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Addr          string        `koanf:"addr"`
		RoundInterval int           `koanf:"round_interval_s"`
		SwapTimeout   time.Duration `koanf:"swap_timeout"`
	} `koanf:"server"`
	Node struct {
		URL string `koanf:"url"`
	} `koanf:"node"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" || l.filePath != "/path/to/config.yaml" {
		t.Errorf("options not applied: prefix=%q file=%q", l.envPrefix, l.filePath)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "0.0.0.0:3000"
  swap_timeout: 45s
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if addr := l.GetString("server.addr"); addr != "0.0.0.0:3000" {
		t.Errorf("server.addr = %q", addr)
	}

	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadEnv_SectionSeparator(t *testing.T) {
	t.Setenv("MIXRELAY_SERVER__ROUND_INTERVAL_S", "12")
	t.Setenv("MIXRELAY_NODE__URL", "http://node:3413/v2/foreign")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.GetString("server.round_interval_s"); got != "12" {
		t.Errorf("server.round_interval_s = %q, want 12", got)
	}
	if got := l.GetString("node.url"); got != "http://node:3413/v2/foreign" {
		t.Errorf("node.url = %q", got)
	}
}

func TestLoader_LoadMap_DottedKeys(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"server.addr": "localhost:3000",
		"node.url":    "http://x",
	}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if addr := l.GetString("server.addr"); addr != "localhost:3000" {
		t.Errorf("server.addr = %q", addr)
	}
	if len(l.Keys()) != 2 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "from-file:3000"
  round_interval_s: 5
  swap_timeout: 10s
node:
  url: "from-file"
`)
	t.Setenv("MIXRELAY_SERVER__ADDR", "from-env:3000")
	t.Setenv("MIXRELAY_NODE__URL", "from-env")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"node.url": "from-flag"}),
	)

	var cfg testConfig
	cfg.Server.SwapTimeout = time.Minute
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "from-env:3000" {
		t.Errorf("Addr = %q, env should override file", cfg.Server.Addr)
	}
	if cfg.Node.URL != "from-flag" {
		t.Errorf("URL = %q, overrides should win", cfg.Node.URL)
	}
	if cfg.Server.RoundInterval != 5 {
		t.Errorf("RoundInterval = %d, want 5", cfg.Server.RoundInterval)
	}
	if cfg.Server.SwapTimeout != 10*time.Second {
		t.Errorf("SwapTimeout = %v, want 10s", cfg.Server.SwapTimeout)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Server.Addr = "127.0.0.1:3000"
	cfg.Server.SwapTimeout = 30 * time.Second

	if err := NewLoader(WithEnvPrefix("MIXRELAY_TEST_UNSET_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:3000" || cfg.Server.SwapTimeout != 30*time.Second {
		t.Errorf("defaults overwritten: %+v", cfg.Server)
	}
}

func TestMapProvider(t *testing.T) {
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}

	out, err := mapProvider{"a.b.c": 1, "a.d": 2, "e": 3}.Read()
	if err != nil {
		t.Fatal(err)
	}
	a := out["a"].(map[string]any)
	if a["d"] != 2 || a["b"].(map[string]any)["c"] != 1 || out["e"] != 3 {
		t.Errorf("Read() = %v", out)
	}
}
