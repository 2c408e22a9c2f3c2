// Command bylawbot serves bylaw search over HTTP, ingests the bylaw corpus
// and annotates citations from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/bylawbot/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bylawbot:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "bylawbot",
		Usage:   "Oak Bay bylaw search, citation and answer service",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the config (missing file is ignored)",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "environment name; selects config/<env>.yaml and the log format",
				Sources: cli.EnvVars("ENV"),
				Value:   "local",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "explicit config file path (overrides --env lookup)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "ingest",
				Usage: "load a YAML corpus, embed its sections and store them in the index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "corpus",
						Usage:    "corpus YAML file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "recreate-index",
						Usage: "drop and recreate the search index before ingesting (after a schema change)",
					},
				},
				Action: ingestAction,
			},
			{
				Name:  "annotate",
				Usage: "read text from stdin and print it with verified citations marked",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: text or json",
						Value: "text",
					},
				},
				Action: annotateAction,
			},
		},
	}
}
