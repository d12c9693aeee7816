package config

import "time"

// ServerConfig is the root configuration for mixrelay-server.
// It is immutable once loaded.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Metrics MetricsSection `koanf:"metrics"`
	Node    NodeSection    `koanf:"node"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RPC endpoint and the round cadence.
type ServerSection struct {
	// Addr is the RPC bind address (host:port).
	Addr string `koanf:"addr" validate:"required"`

	// RoundIntervalS is the number of seconds between rounds.
	RoundIntervalS int `koanf:"round_interval_s" validate:"gte=1"`

	// SwapTimeout bounds one swap call on the engine. 0 disables.
	SwapTimeout time.Duration `koanf:"swap_timeout" validate:"gte=0"`

	// RoundTimeout bounds one round on the engine. 0 disables.
	RoundTimeout time.Duration `koanf:"round_timeout" validate:"gte=0"`

	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gt=0"`

	// RateLimitRPS is the per-client request rate. 0 disables limiting.
	RateLimitRPS float64 `koanf:"rate_limit_rps" validate:"gte=0"`

	// RateLimitBurst is the per-client burst size.
	RateLimitBurst int `koanf:"rate_limit_burst" validate:"gte=0"`

	// TrustedProxies lists reverse proxies (CIDRs or IPs) allowed to name
	// the client through X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr|ip"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// RoundInterval returns the round cadence as a duration.
func (s ServerSection) RoundInterval() time.Duration {
	return time.Duration(s.RoundIntervalS) * time.Second
}

// MetricsSection configures the Prometheus listener.
type MetricsSection struct {
	// Addr is the /metrics bind address. Empty disables the listener.
	Addr string `koanf:"addr"`
}

// NodeSection configures the ledger node client.
type NodeSection struct {
	URL        string        `koanf:"url" validate:"required,url"`
	SecretPath string        `koanf:"secret_path"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

// StorageSection configures the swap store.
type StorageSection struct {
	DataDir    string        `koanf:"data_dir" validate:"required"`
	GCInterval time.Duration `koanf:"gc_interval" validate:"gt=0"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json text console"`
}
