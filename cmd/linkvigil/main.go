package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pjoubert/linkvigil/internal/app"
	"github.com/pjoubert/linkvigil/internal/config"
	"github.com/pjoubert/linkvigil/internal/version"
)

func main() {
	if err := newCLIApp().Run(os.Args); err != nil {
		log.Fatalf("❌ linkvigil failed: %v", err)
	}
}

// runPipeline is indirected so tests can capture the effective config
// without running a real batch.
var runPipeline = func(cfg *config.Config, inputFile string) error {
	return app.New(cfg, inputFile).Run()
}

func newCLIApp() *cli.App {
	cliApp := &cli.App{
		Name:    "linkvigil",
		Usage:   "Check bookmark liveness and snapshot reachable content",
		Version: version.Version,
		Commands: []*cli.Command{
			checkCmd(),
		},
	}
	// Let errors flow back to main instead of exiting mid-handler.
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Probe every bookmark in a state file, then download content for the reachable ones",
		ArgsUsage: "<bookmarks file (json or yaml)>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Root directory for content and state snapshots"},
			&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout"},
			&cli.DurationFlag{Name: "delay", Usage: "Base per-domain stagger between requests"},
			&cli.StringFlag{Name: "user-agent", Usage: "User-Agent header sent on every request"},
			&cli.IntFlag{Name: "max-urls", Usage: "Process at most this many bookmarks (0 = all)"},
			&cli.IntFlag{Name: "max-in-flight", Usage: "Max concurrent requests per phase (0 = unbounded)"},
			&cli.BoolFlag{Name: "no-download", Usage: "Stop after the URL check phase"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one bookmarks file argument", 2)
			}

			cfg := config.Load()
			applyFlags(cfg, c)

			return runPipeline(cfg, c.Args().First())
		},
	}
}

// applyFlags overrides environment-derived settings with any flag the
// user set explicitly.
func applyFlags(cfg *config.Config, c *cli.Context) {
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("delay") {
		cfg.Delay = c.Duration("delay")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("max-urls") {
		cfg.MaxURLs = c.Int("max-urls")
	}
	if c.IsSet("max-in-flight") {
		cfg.MaxInFlight = c.Int("max-in-flight")
	}
	if c.IsSet("no-download") {
		cfg.NoDownload = c.Bool("no-download")
	}
}
