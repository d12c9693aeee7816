package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mixrelay-go/internal/core/service"
	"github.com/yndnr/mixrelay-go/internal/infra/buildinfo"
	"github.com/yndnr/mixrelay-go/internal/infra/shutdown"
	"github.com/yndnr/mixrelay-go/internal/node"
	"github.com/yndnr/mixrelay-go/internal/server/config"
	"github.com/yndnr/mixrelay-go/internal/server/relay"
	"github.com/yndnr/mixrelay-go/internal/server/round"
	"github.com/yndnr/mixrelay-go/internal/server/rpcserver"
	"github.com/yndnr/mixrelay-go/internal/storage"
	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

// ServeCommand starts the relay. It is also the default action.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the relay until SIGINT or SIGTERM",
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}
	return runServer(cfg)
}

// runServer wires the relay's components and blocks until it stops.
func runServer(cfg *config.ServerConfig) error {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	sanitized := config.Sanitize(cfg)
	log.Info("starting mixrelay-server",
		"version", info.Version,
		"commit", info.Commit,
		"addr", sanitized.Server.Addr,
		"node_url", sanitized.Node.URL,
		"data_dir", sanitized.Storage.DataDir,
		"round_interval_s", sanitized.Server.RoundIntervalS)

	metrics := metric.NewRegistry()
	metrics.SetBuildInfo(info.Version, info.Commit, info.GoVersion)

	nodeCfg := node.DefaultConfig(cfg.Node.URL)
	nodeCfg.SecretPath = cfg.Node.SecretPath
	nodeCfg.Timeout = cfg.Node.Timeout
	nodeClient, err := node.New(nodeCfg, log)
	if err != nil {
		return fmt.Errorf("init node client: %w", err)
	}

	storeCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	storeCfg.GCInterval = cfg.Storage.GCInterval
	store, err := storage.Open(storeCfg, logger.Slog(log).With("component", "storage"))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	store.RegisterMetrics(metrics.Registerer())
	metrics.Registerer().MustRegister(metric.NewPendingCollector(store.PendingCount))

	handler := shutdown.NewHandler(cfg.Server.ShutdownTimeout)
	stopSignals := handler.NotifySignals()
	defer stopSignals()

	handler.OnShutdown(func(_ context.Context) error {
		log.Info("closing swap store")
		return store.Close()
	})

	mixer := service.NewMixer(nodeClient, store, log)

	runErr := relay.Listen(handler.Context(), mixer, relay.Config{
		RPC: rpcserver.Config{
			Addr:           cfg.Server.Addr,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			TrustedProxies: cfg.Server.TrustedProxies,
		},
		Round: round.Config{
			Interval:     cfg.Server.RoundIntervalS,
			CloseTimeout: cfg.Server.ShutdownTimeout,
		},
		SwapTimeout:  cfg.Server.SwapTimeout,
		RoundTimeout: cfg.Server.RoundTimeout,
		MetricsAddr:  cfg.Metrics.Addr,
	}, metrics, log)
	if runErr != nil {
		log.Error("relay stopped with error", "error", runErr)
	}

	if err := handler.RunHooks(); err != nil {
		log.Error("shutdown hooks failed", "error", err)
		return errors.Join(runErr, err)
	}

	log.Info("server stopped gracefully")
	return runErr
}
