package config

import "time"

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:3000"
	DefaultRoundIntervalS  = 30
	DefaultSwapTimeout     = 30 * time.Second
	DefaultRoundTimeout    = 5 * time.Minute
	DefaultMaxBodyBytes    = 1 << 20 // 1MB
	DefaultRateLimitBurst  = 20
	DefaultShutdownTimeout = 10 * time.Second

	DefaultNodeURL     = "http://127.0.0.1:3413/v2/foreign"
	DefaultNodeTimeout = 30 * time.Second

	DefaultDataDir    = "./data"
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultAddr,
			RoundIntervalS:  DefaultRoundIntervalS,
			SwapTimeout:     DefaultSwapTimeout,
			RoundTimeout:    DefaultRoundTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			RateLimitBurst:  DefaultRateLimitBurst,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Node: NodeSection{
			URL:     DefaultNodeURL,
			Timeout: DefaultNodeTimeout,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
