// Package cli provides the command-line interface for the auto-click runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/istale/auto-click-system/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write diagnostic logs to this file",
		EnvVars: []string{"AUTOCLICK_LOG_FILE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "auto-click",
		Usage:   "Record and replay anchor-relative screen click flows",
		Version: Version,
		Description: `auto-click stores click sequences relative to an anchor image and
replays them by re-locating the anchor on the current screen, so flows
survive window movement between sessions.

Examples:
  auto-click init ./myproject --name "Invoice entry"
  auto-click validate ./myproject
  auto-click list ./myproject
  auto-click run ./myproject --frame screen.png --flow a1b2c3d4
  auto-click record ./myproject --title Login --anchor-image ok.png \
      --click-in-image 20,20 --anchor-origin 100,50 < events.txt`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if path := c.String("log-file"); path != "" {
				if err := logger.Init(path); err != nil {
					return err
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			initCommand,
			validateCommand,
			listCommand,
			runCommand,
			recordCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
