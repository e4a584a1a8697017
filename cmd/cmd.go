// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the enrichment HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the enrichment HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// resolveCommand groups resolution task operations.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resolve",
		Aliases: []string{"res"},
		Usage:   "Batch link-resolution operations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Submit a resolution task",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "wait",
						Aliases: []string{"w"},
						Usage:   "Block until the task reaches a terminal state",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ResolveRun,
			},
			{
				Name:  "status",
				Usage: "Show the status of a resolution task",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ResolveStatus,
			},
			{
				Name:  "stop",
				Usage: "Request a cooperative stop of a resolution task",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ResolveStop,
			},
			{
				Name:  "watch",
				Usage: "Watch a resolution task in an interactive view",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.Watch,
			},
		},
	}
}

// searchCommand queries the catalog.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search tracks by natural-language query",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "exclude-explicit",
				Usage: "Filter out explicit tracks",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// embedCommand backfills missing embeddings.
func embedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "embed",
		Usage: "Generate embeddings for tracks missing them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of tracks to embed, 0 for all",
			},
		},
		Action: r.Embed,
	}
}

// statsCommand reports enrichment coverage.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show catalog enrichment statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}

// importCommand loads tracks into the catalog.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import tracks from a JSON file into the catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Action: r.Import,
	}
}

// exportCommand writes the catalog to CSV.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the catalog to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.Export,
	}
}
