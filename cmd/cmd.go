// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage YouTube authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with YouTube using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the cached token state",
				Action: r.AuthStatus,
			},
		},
	}
}

// uploadCommand handles upload run operations
func uploadCommand(r *Runner) *cli.Command {
	folderFlag := func() *cli.StringFlag {
		return &cli.StringFlag{
			Name:     "folder",
			Aliases:  []string{"f"},
			Usage:    "Local folder holding the media files",
			Required: true,
		}
	}

	return &cli.Command{
		Name:    "upload",
		Aliases: []string{"up"},
		Usage:   "Upload media folders as playlists",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a full upload over a folder",
				Flags: []cli.Flag{
					folderFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent transfer workers",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Reconcile and report without transferring",
					},
				},
				Action: r.UploadRun,
			},
			{
				Name:  "status",
				Usage: "Show pending and uploaded items without transferring",
				Flags: []cli.Flag{
					folderFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UploadStatus,
			},
			{
				Name:  "ui",
				Usage: "Interactive TUI for upload runs",
				Flags: []cli.Flag{
					folderFlag(),
				},
				Action: r.UploadUI,
			},
		},
	}
}

// runsCommand exposes run history queries
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect recorded upload runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Filter by collection name",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to return",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a starter config and initialize the run database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
