package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mixrelay-go/internal/cli/output"
	"github.com/yndnr/mixrelay-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Validate the configuration and exit",
				Action: configCheck,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: configShow,
			},
		},
	}
}

func configCheck(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	_, err := fmt.Fprintln(c.App.Writer, "configuration OK")
	return err
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	f, err := formatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, configView(config.Sanitize(cfg)))
}

// settings is a flattened config keyed by dotted path.
type settings map[string]any

// Table implements output.Tabular.
func (s settings) Table() *output.Table {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		t.AddRow(k, fmt.Sprint(s[k]))
	}
	return t
}

// configView flattens the config into dotted keys for display.
func configView(cfg *config.ServerConfig) settings {
	return settings{
		"server.addr":             cfg.Server.Addr,
		"server.round_interval_s": cfg.Server.RoundIntervalS,
		"server.swap_timeout":     cfg.Server.SwapTimeout.String(),
		"server.round_timeout":    cfg.Server.RoundTimeout.String(),
		"server.max_body_bytes":   cfg.Server.MaxBodyBytes,
		"server.rate_limit_rps":   cfg.Server.RateLimitRPS,
		"server.rate_limit_burst": cfg.Server.RateLimitBurst,
		"server.trusted_proxies":  strings.Join(cfg.Server.TrustedProxies, ","),
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		"metrics.addr":            cfg.Metrics.Addr,
		"node.url":                cfg.Node.URL,
		"node.secret_path":        cfg.Node.SecretPath,
		"node.timeout":            cfg.Node.Timeout.String(),
		"storage.data_dir":        cfg.Storage.DataDir,
		"storage.gc_interval":     cfg.Storage.GCInterval.String(),
		"log.level":               cfg.Log.Level,
		"log.format":              cfg.Log.Format,
	}
}
