package services

import (
	"context"

	"github.com/desertthunder/webradio/internal/models"
)

// HomeAssistant is the part of the REST API the card's hosts depend on.
type HomeAssistant interface {
	Caller

	// Ping checks reachability and credentials.
	Ping(ctx context.Context) error

	// Snapshot returns every entity state keyed by entity id.
	Snapshot(ctx context.Context) (models.Snapshot, error)

	// MediaPlayers returns the media_player entities.
	MediaPlayers(ctx context.Context) ([]models.EntityState, error)
}

var _ HomeAssistant = (*HassService)(nil)

// StatusSource yields the live status the card renders against.
type StatusSource interface {
	Snapshot() models.Snapshot
}

var _ StatusSource = (*StateStream)(nil)

// StaticSource serves a fixed snapshot, as loaded once over REST.
type StaticSource struct {
	snapshot models.Snapshot
}

func NewStaticSource(s models.Snapshot) *StaticSource {
	if s == nil {
		s = models.Snapshot{}
	}
	return &StaticSource{snapshot: s}
}

func (s *StaticSource) Snapshot() models.Snapshot { return s.snapshot }
