// Package editor implements the card configuration editor.
//
// Every edit builds a new [models.CardConfig] with freshly copied lists and hands the whole configuration to the
// change callback. The editor never patches a configuration it was given.
package editor

import (
	"fmt"
	"sync"

	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
)

// Editable field names.
const (
	FieldName     = "name"
	FieldURL      = "url"
	FieldEntityID = "entity_id"
)

// Editor holds a working copy of a card configuration.
type Editor struct {
	mu       sync.Mutex
	config   models.CardConfig
	onChange func(models.CardConfig)
}

// New starts an editor from cfg. A nil onChange discards emissions.
func New(cfg models.CardConfig, onChange func(models.CardConfig)) *Editor {
	if onChange == nil {
		onChange = func(models.CardConfig) {}
	}
	return &Editor{config: fork(cfg), onChange: onChange}
}

// Config returns a copy of the working configuration.
func (e *Editor) Config() models.CardConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fork(e.config)
}

// UpdateStation sets field (name or url) of station i.
func (e *Editor) UpdateStation(i int, field, value string) error {
	return e.edit(func(cfg *models.CardConfig) error {
		if err := checkIndex("station", i, len(cfg.Stations)); err != nil {
			return err
		}
		switch field {
		case FieldName:
			cfg.Stations[i].Name = value
		case FieldURL:
			cfg.Stations[i].URL = value
		default:
			return fmt.Errorf("%w: unknown station field %q", shared.ErrInvalidArgument, field)
		}
		return nil
	})
}

// AddStation appends a blank station.
func (e *Editor) AddStation() error {
	return e.edit(func(cfg *models.CardConfig) error {
		cfg.Stations = append(cfg.Stations, models.Station{})
		return nil
	})
}

// RemoveStation deletes station i.
func (e *Editor) RemoveStation(i int) error {
	return e.edit(func(cfg *models.CardConfig) error {
		if err := checkIndex("station", i, len(cfg.Stations)); err != nil {
			return err
		}
		cfg.Stations = append(cfg.Stations[:i], cfg.Stations[i+1:]...)
		return nil
	})
}

// UpdatePlayer sets field (entity_id or name) of player i.
func (e *Editor) UpdatePlayer(i int, field, value string) error {
	return e.edit(func(cfg *models.CardConfig) error {
		if err := checkIndex("player", i, len(cfg.MediaPlayers)); err != nil {
			return err
		}
		switch field {
		case FieldEntityID:
			cfg.MediaPlayers[i].EntityID = value
		case FieldName:
			cfg.MediaPlayers[i].Name = value
		default:
			return fmt.Errorf("%w: unknown player field %q", shared.ErrInvalidArgument, field)
		}
		return nil
	})
}

// AddPlayer appends a blank player.
func (e *Editor) AddPlayer() error {
	return e.edit(func(cfg *models.CardConfig) error {
		cfg.MediaPlayers = append(cfg.MediaPlayers, models.PlayerRef{})
		return nil
	})
}

// RemovePlayer deletes player i.
func (e *Editor) RemovePlayer(i int) error {
	return e.edit(func(cfg *models.CardConfig) error {
		if err := checkIndex("player", i, len(cfg.MediaPlayers)); err != nil {
			return err
		}
		cfg.MediaPlayers = append(cfg.MediaPlayers[:i], cfg.MediaPlayers[i+1:]...)
		return nil
	})
}

// edit applies fn to a fresh copy and, on success, adopts and emits it.
func (e *Editor) edit(fn func(*models.CardConfig) error) error {
	e.mu.Lock()
	next := fork(e.config)
	if err := fn(&next); err != nil {
		e.mu.Unlock()
		return err
	}
	e.config = next
	emit := fork(next)
	e.mu.Unlock()

	e.onChange(emit)
	return nil
}

// fork copies cfg. Unlike Clone, missing lists become empty ones so the editor always emits both keys.
func fork(cfg models.CardConfig) models.CardConfig {
	return models.CardConfig{
		Stations:     append(make([]models.Station, 0, len(cfg.Stations)), cfg.Stations...),
		MediaPlayers: append(make([]models.PlayerRef, 0, len(cfg.MediaPlayers)), cfg.MediaPlayers...),
	}
}

func checkIndex(kind string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s index %d out of range [0, %d)", shared.ErrInvalidArgument, kind, i, n)
	}
	return nil
}
