package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mixrelay-go/internal/cli/output"
	"github.com/yndnr/mixrelay-go/internal/infra/buildinfo"
	"github.com/yndnr/mixrelay-go/internal/infra/confloader"
	"github.com/yndnr/mixrelay-go/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "mixrelay-server",
		Usage:   "coin-swap mix relay",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			ConfigCommand(),
			StoreCommand(),
			VersionCommand(),
		},
		HideVersion: true,
	}
}

// globalFlags returns the flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			EnvVars: []string{"MIXRELAY_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "RPC bind address (overrides server.addr)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (overrides log.level)",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Swap store directory (overrides storage.data_dir)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format for inspection commands: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// flagOverrides maps set command-line flags onto config keys.
var flagOverrides = map[string]string{
	"addr":      "server.addr",
	"log-level": "log.level",
	"data-dir":  "storage.data_dir",
}

// loadConfig loads defaults, the config file, the environment and flag
// overrides, then validates the result.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	overrides := make(map[string]any)
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// formatter returns the formatter selected by --output.
func formatter(c *cli.Context) (output.Formatter, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid --output: %v", err), 2)
	}
	return output.NewFormatter(format), nil
}
