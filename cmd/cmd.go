// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, markdown, csv, json)",
		Value:   value,
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

func indexFlag() cli.Flag {
	return &cli.IntFlag{
		Name:     "index",
		Aliases:  []string{"i"},
		Usage:    "Zero-based row index",
		Required: true,
	}
}

// setupCommand handles setup operations for the config file, database and card.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "card",
				Usage: "Write a starter card.yaml",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing card config",
					},
				},
				Action: r.SetupCard,
			},
		},
	}
}

// authCommand handles Home Assistant authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Home Assistant authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser and store the token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check credentials against the Home Assistant API",
				Action: r.AuthStatus,
			},
		},
	}
}

// serveCommand runs the HTTP API with the live state stream.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the card over HTTP with live Home Assistant state",
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive card.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive card",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "live",
				Usage: "Follow state changes over the websocket API (otherwise load states once)",
				Value: true,
			},
		},
		Action: r.TUI,
	}
}

// statusCommand prints one render pass of the card.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show stations and players with their live state",
		Flags: []cli.Flag{
			formatFlag("text"),
			prettyFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Status,
	}
}

// dropCommand drops a station on a player.
func dropCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "drop",
		Usage: "Connect a station to a player and start playback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Aliases:  []string{"s"},
				Usage:    "Station name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "player",
				Aliases:  []string{"p"},
				Usage:    "Player entity id",
				Required: true,
			},
		},
		Action: r.Drop,
	}
}

// connectionsCommand prints the persisted connection map.
func connectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connections",
		Usage: "Show which station each player was last given",
		Flags: []cli.Flag{
			formatFlag("text"),
			prettyFlag(),
		},
		Action: r.Connections,
	}
}

// stationsCommand edits the stations list of the card config.
func stationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stations",
		Usage: "Edit the card's stations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List configured stations",
				Action: r.StationsList,
			},
			{
				Name:  "add",
				Usage: "Append a station",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Station name", Required: true},
					&cli.StringFlag{Name: "url", Usage: "Stream URL", Required: true},
				},
				Action: r.StationsAdd,
			},
			{
				Name:   "remove",
				Usage:  "Remove a station",
				Flags:  []cli.Flag{indexFlag()},
				Action: r.StationsRemove,
			},
			{
				Name:  "set",
				Usage: "Change one field (name, url) of a station",
				Flags: []cli.Flag{
					indexFlag(),
					&cli.StringFlag{Name: "field", Usage: "name or url", Required: true},
					&cli.StringFlag{Name: "value", Usage: "New value"},
				},
				Action: r.StationsSet,
			},
		},
	}
}

// playersCommand edits the media players list of the card config.
func playersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "players",
		Usage: "Edit the card's media players",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List configured players",
				Action: r.PlayersList,
			},
			{
				Name:  "add",
				Usage: "Append a player",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "entity-id", Usage: "media_player entity id", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name override"},
				},
				Action: r.PlayersAdd,
			},
			{
				Name:   "remove",
				Usage:  "Remove a player",
				Flags:  []cli.Flag{indexFlag()},
				Action: r.PlayersRemove,
			},
			{
				Name:  "set",
				Usage: "Change one field (entity_id, name) of a player",
				Flags: []cli.Flag{
					indexFlag(),
					&cli.StringFlag{Name: "field", Usage: "entity_id or name", Required: true},
					&cli.StringFlag{Name: "value", Usage: "New value"},
				},
				Action: r.PlayersSet,
			},
		},
	}
}

// discoverCommand browses the local network for Home Assistant.
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Find Home Assistant instances on the local network",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to browse",
				Value: 3 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Discover,
	}
}
