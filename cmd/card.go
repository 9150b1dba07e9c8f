package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/editor"
	"github.com/desertthunder/webradio/internal/formatter"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/urfave/cli/v3"
)

// Status renders the card once against the current Home Assistant states.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	c, err := r.newCard(store, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	hass, err := r.homeAssistant(store)
	if err != nil {
		return err
	}
	snapshot, err := r.snapshot(ctx, hass)
	if err != nil {
		return err
	}
	view := c.Render(snapshot)

	var data []byte
	switch format {
	case formatter.JSON:
		if path := cmd.String("output"); path == "" {
			return r.writeJSON(view, cmd.Bool("pretty"))
		}
		data, err = marshalJSON(view, cmd.Bool("pretty"))
	case formatter.Markdown:
		data = formatter.StatusToMarkdown(view)
	case formatter.CSV:
		data, err = formatter.StatusToCSV(view)
	default:
		data = formatter.StatusToText(view)
	}
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, data); err != nil {
			return err
		}
		return r.writePlain("✓ Status written to %s\n", path)
	}
	return r.writeBytes(data)
}

// Drop connects a station to a player: the same drag and drop the card performs, driven from the command line.
func (r *Runner) Drop(ctx context.Context, cmd *cli.Command) error {
	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	hass, err := r.homeAssistant(store)
	if err != nil {
		return err
	}

	var callErr error
	dispatcher := card.DispatcherFunc(func(call models.ServiceCall) {
		callErr = hass.CallService(ctx, call)
	})

	c, err := r.newCard(store, dispatcher)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg, _ := c.Config()
	station, ok := cfg.Station(cmd.String("station"))
	if !ok {
		return fmt.Errorf("%w: no station named %q", shared.ErrInvalidArgument, cmd.String("station"))
	}

	snapshot, err := r.snapshot(ctx, hass)
	if err != nil {
		return err
	}

	player := cmd.String("player")
	c.BeginDrag(station)
	c.HoverTarget(player)
	if err := c.Drop(snapshot, player); err != nil {
		return err
	}
	if callErr != nil {
		return fmt.Errorf("connection saved but playback failed: %w", callErr)
	}

	return r.writePlain("✓ %s → %s\n", station.Name, player)
}

// Connections prints the persisted connection map.
func (r *Runner) Connections(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	c := card.New(store, nil, card.WithStorageKey(r.config.Card.StorageKey), card.WithLogger(r.logger))
	defer c.Close()
	conns := c.Connections()

	switch format {
	case formatter.JSON:
		return r.writeJSON(conns, cmd.Bool("pretty"))
	case formatter.CSV:
		data, err := formatter.ConnectionsToCSV(conns)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return r.writeBytes(formatter.ConnectionsToText(conns))
	}
}

// editCard applies fn through an editor on the YAML card config and saves the final emission.
func (r *Runner) editCard(fn func(*editor.Editor) error) error {
	file := r.cardFile()
	cfg, err := file.Load()
	if err != nil {
		return err
	}

	var latest *models.CardConfig
	ed := editor.New(cfg, func(next models.CardConfig) { latest = &next })
	if err := fn(ed); err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	if err := file.Save(*latest); err != nil {
		return err
	}
	r.logger.Info("card config saved", "path", file.Path())
	return r.writePlain("✓ Saved %s\n", file.Path())
}

// StationsList prints the configured stations with their indices.
func (r *Runner) StationsList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.cardFile().Load()
	if err != nil {
		return err
	}
	for i, st := range cfg.Stations {
		r.writePlain("%d  %s <%s>\n", i, st.Name, st.URL)
	}
	return nil
}

func (r *Runner) StationsAdd(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		if err := ed.AddStation(); err != nil {
			return err
		}
		i := len(ed.Config().Stations) - 1
		if err := ed.UpdateStation(i, editor.FieldName, cmd.String("name")); err != nil {
			return err
		}
		return ed.UpdateStation(i, editor.FieldURL, cmd.String("url"))
	})
}

func (r *Runner) StationsRemove(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		return ed.RemoveStation(cmd.Int("index"))
	})
}

func (r *Runner) StationsSet(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		return ed.UpdateStation(cmd.Int("index"), cmd.String("field"), cmd.String("value"))
	})
}

// PlayersList prints the configured players with their indices.
func (r *Runner) PlayersList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.cardFile().Load()
	if err != nil {
		return err
	}
	for i, p := range cfg.MediaPlayers {
		line := fmt.Sprintf("%d  %s", i, p.EntityID)
		if name := strings.TrimSpace(p.Name); name != "" {
			line += " (" + name + ")"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

func (r *Runner) PlayersAdd(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		if err := ed.AddPlayer(); err != nil {
			return err
		}
		i := len(ed.Config().MediaPlayers) - 1
		if err := ed.UpdatePlayer(i, editor.FieldEntityID, cmd.String("entity-id")); err != nil {
			return err
		}
		return ed.UpdatePlayer(i, editor.FieldName, cmd.String("name"))
	})
}

func (r *Runner) PlayersRemove(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		return ed.RemovePlayer(cmd.Int("index"))
	})
}

func (r *Runner) PlayersSet(ctx context.Context, cmd *cli.Command) error {
	return r.editCard(func(ed *editor.Editor) error {
		return ed.UpdatePlayer(cmd.Int("index"), cmd.String("field"), cmd.String("value"))
	})
}
