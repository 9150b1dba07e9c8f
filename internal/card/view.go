package card

import (
	"strings"

	"github.com/desertthunder/webradio/internal/models"
)

// Tile classes.
const (
	ClassPlayer      = "player"
	ClassDragOver    = "player dragover"
	ClassUnavailable = "player unavailable"
)

// View is one render pass of the card.
type View struct {
	Empty    bool            `json:"empty"`
	Stations []StationTile   `json:"stations"`
	Players  []PlayerTile    `json:"players"`
	Dragging *models.Station `json:"dragging,omitempty"`
}

type StationTile struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Dragging bool   `json:"dragging"`
}

// PlayerTile is the projection of one configured player.
type PlayerTile struct {
	EntityID       string   `json:"entity_id"`
	DisplayName    string   `json:"display_name"`
	Class          string   `json:"class"`
	Unavailable    bool     `json:"unavailable"`
	DropTarget     bool     `json:"drop_target"`
	Selected       bool     `json:"selected"`
	PlayingStation string   `json:"playing_station,omitempty"`
	State          string   `json:"state"`
	VolumeLevel    *float64 `json:"volume_level,omitempty"`
	Muted          bool     `json:"muted"`
	MediaTitle     string   `json:"media_title,omitempty"`
}

// Player returns the tile for entityID.
func (v View) Player(entityID string) (PlayerTile, bool) {
	for _, p := range v.Players {
		if p.EntityID == entityID {
			return p, true
		}
	}
	return PlayerTile{}, false
}

// Render projects the card against snapshot. It has no side effects.
func (c *Card) Render(snapshot models.Snapshot) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config == nil {
		return View{Empty: true}
	}

	view := View{
		Stations: make([]StationTile, 0, len(c.config.Stations)),
		Players:  make([]PlayerTile, 0, len(c.config.MediaPlayers)),
	}
	if c.dragged != nil {
		s := *c.dragged
		view.Dragging = &s
	}

	for _, st := range c.config.Stations {
		view.Stations = append(view.Stations, StationTile{
			Name:     st.Name,
			URL:      st.URL,
			Dragging: c.dragged != nil && *c.dragged == st,
		})
	}

	for _, ref := range c.config.MediaPlayers {
		view.Players = append(view.Players, c.projectPlayer(snapshot, ref))
	}
	return view
}

func (c *Card) projectPlayer(snapshot models.Snapshot, ref models.PlayerRef) PlayerTile {
	live, ok := snapshot.Lookup(ref.EntityID)
	tile := PlayerTile{
		EntityID:    ref.EntityID,
		DisplayName: DisplayName(ref, live, ok),
		Unavailable: Unavailable(snapshot, ref.EntityID),
		Selected:    c.selected == ref.EntityID,
	}
	if ok {
		tile.State = live.State
		tile.VolumeLevel = live.Attributes.VolumeLevel
		tile.Muted = live.Muted()
		tile.MediaTitle = live.Attributes.MediaTitle
	}

	tile.DropTarget = !tile.Unavailable && c.dragged != nil && c.hover == ref.EntityID

	switch {
	case tile.Unavailable:
		tile.Class = ClassUnavailable
	case tile.DropTarget:
		tile.Class = ClassDragOver
	default:
		tile.Class = ClassPlayer
	}

	if conn, found := c.connections[ref.EntityID]; found && ok {
		if live.State == models.StatePlaying || live.State == models.StatePaused {
			tile.PlayingStation = conn.Name
		}
	}
	return tile
}

// DisplayName resolves a player's label: override name, then friendly name, then entity id.
func DisplayName(ref models.PlayerRef, live models.EntityState, ok bool) string {
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	if ok && strings.TrimSpace(live.Attributes.FriendlyName) != "" {
		return live.Attributes.FriendlyName
	}
	return ref.EntityID
}
