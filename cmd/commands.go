// submodule commands contains command definitions
package main

import (
	"strings"
	"time"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:    "cratedig",
		Usage:   "Dig for Spotify tracks by genre, era and language",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("CRATEDIG_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Configure,
		Commands: r.register(),
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and run database migrations",
		Action: r.Setup,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in to Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the sign-in URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Delete the current session",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user and credential state",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Whoami,
	}
}

func criteriaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Genre, e.g. \"hip hop\"",
		},
		&cli.StringFlag{
			Name:    "era",
			Aliases: []string{"e"},
			Usage:   "Era: 2020s, 2010s, 2000s, 1990s, 1980s, 1970s, 1960s or Oldies",
		},
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   "Language keyword, e.g. Spanish",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Provider result offset; use the printed next offset to regenerate",
		},
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Search tracks matching a genre, era and language",
		Flags: append(criteriaFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the page to a file instead of stdout",
			},
		),
		Action: r.Recommend,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List the genres, eras and languages available as filters",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Genres,
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Create and list playlists",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Save tracks as a private Spotify playlist",
				Flags: append(criteriaFlags(),
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.StringSliceFlag{
						Name:  "uri",
						Usage: "Track URI to add (repeatable); defaults to the recommendation page for the given filters",
					},
				),
				Action: r.PlaylistCreate,
			},
			{
				Name:  "list",
				Usage: "List playlists created with this tool",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include playlists from every session",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistList,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, defaults to server.host:server.port",
			},
		},
		Action: r.Serve,
	}
}
