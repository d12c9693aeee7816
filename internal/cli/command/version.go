package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mixrelay-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			if c.String("output") == "table" {
				_, err := fmt.Fprintf(c.App.Writer, "mixrelay-server %s\n", buildinfo.String())
				return err
			}
			f, err := formatter(c)
			if err != nil {
				return err
			}
			return f.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
