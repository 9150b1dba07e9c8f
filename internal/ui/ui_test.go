package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/repositories"
	tu "github.com/desertthunder/webradio/internal/testing"
)

type snapshotSource struct{ s models.Snapshot }

func (s snapshotSource) Snapshot() models.Snapshot { return s.s }

func setupModel(t *testing.T) (*Model, *card.Card, *tu.RecordingDispatcher) {
	t.Helper()
	notifier := NewNotifier()
	d := &tu.RecordingDispatcher{}
	c := card.New(repositories.NewMemoryStore(), d,
		card.WithLogger(log.New(io.Discard)),
		card.WithLongPressDelay(50*time.Millisecond),
		card.WithEvents(notifier.Events()),
	)
	t.Cleanup(c.Close)

	err := c.SetConfig(models.CardConfig{
		Stations:     []models.Station{{Name: "Willy", URL: "u1"}, {Name: "Studio Brussel", URL: "u2"}},
		MediaPlayers: []models.PlayerRef{{EntityID: "media_player.kitchen", Name: "Kitchen"}, {EntityID: "media_player.den"}},
	})
	if err != nil {
		t.Fatalf("failed to set config: %v", err)
	}

	status := snapshotSource{tu.StaticStatus("media_player.kitchen", "idle", "media_player.den", "unavailable")}
	return NewModel(context.Background(), c, status, nil, notifier), c, d
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Cells for the tiles of the fixture.
var (
	stationX = 2
	playerX  = columnWidth + 2
	row0     = headerLines
	row1     = headerLines + 1
)

func TestMouseDragAndDrop(t *testing.T) {
	t.Run("Drop", func(t *testing.T) {
		m, c, d := setupModel(t)

		m.Update(mouse(tea.MouseActionPress, stationX, row0))
		if c.State() != card.Dragging {
			t.Fatalf("expected dragging, got %v", c.State())
		}

		m.Update(mouse(tea.MouseActionMotion, playerX, row0))
		if c.State() != card.HoveringTarget {
			t.Fatalf("expected hovering, got %v", c.State())
		}
		kitchen, _ := c.Render(m.snapshot).Player("media_player.kitchen")
		if kitchen.Class != card.ClassDragOver {
			t.Errorf("expected dragover class, got %q", kitchen.Class)
		}

		m.Update(mouse(tea.MouseActionRelease, playerX, row0))
		if c.State() != card.Idle {
			t.Errorf("expected idle after drop, got %v", c.State())
		}
		if got := c.Connections()["media_player.kitchen"]; got.Name != "Willy" {
			t.Errorf("expected Willy connected, got %+v", got)
		}
		if call := d.Last(t); call.Service != "play_media" {
			t.Errorf("expected play_media, got %s", call.Service)
		}
	})

	t.Run("LeaveClearsHover", func(t *testing.T) {
		m, c, _ := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, stationX, row0))
		m.Update(mouse(tea.MouseActionMotion, playerX, row0))
		m.Update(mouse(tea.MouseActionMotion, stationX, row1))
		if c.State() != card.Dragging {
			t.Errorf("expected dragging without a target, got %v", c.State())
		}
	})

	t.Run("ReleaseOutsideCancels", func(t *testing.T) {
		m, c, d := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, stationX, row0))
		m.Update(mouse(tea.MouseActionRelease, stationX, row0+10))
		if c.State() != card.Idle || len(c.Connections()) != 0 || len(d.Calls()) != 0 {
			t.Error("release outside a player should cancel the drag")
		}
	})

	t.Run("DropOnUnavailable", func(t *testing.T) {
		m, c, d := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, stationX, row0))
		m.Update(mouse(tea.MouseActionMotion, playerX, row1))
		m.Update(mouse(tea.MouseActionRelease, playerX, row1))

		if !errors.Is(m.err, card.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", m.err)
		}
		if len(c.Connections()) != 0 || len(d.Calls()) != 0 {
			t.Error("drop on an unavailable player must not commit")
		}
		if !strings.Contains(m.View(), "unavailable") {
			t.Error("expected the view to report the unavailable player")
		}
	})
}

func TestPress(t *testing.T) {
	t.Run("TapSelects", func(t *testing.T) {
		m, c, _ := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, playerX, row0))
		m.Update(mouse(tea.MouseActionRelease, playerX, row0))
		if c.Selected() != "media_player.kitchen" {
			t.Errorf("expected kitchen selected, got %q", c.Selected())
		}
	})

	t.Run("LongPressOpensDetails", func(t *testing.T) {
		m, c, _ := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, playerX, row0))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		msg := m.notifier.wait(ctx)()
		if msg == nil {
			t.Fatal("long press did not fire")
		}
		m.Update(msg)
		if m.details != "media_player.kitchen" {
			t.Errorf("expected details for kitchen, got %q", m.details)
		}
		if !strings.Contains(m.View(), "entity:  media_player.kitchen") {
			t.Error("expected the details pane in the view")
		}

		m.Update(mouse(tea.MouseActionRelease, playerX, row0))
		if c.Selected() != "" {
			t.Error("release after a long press must not select")
		}
	})

	t.Run("MoveAwayCancels", func(t *testing.T) {
		m, c, _ := setupModel(t)
		m.Update(mouse(tea.MouseActionPress, playerX, row0))
		m.Update(mouse(tea.MouseActionMotion, playerX, row1))
		if c.Pressing("media_player.kitchen") {
			t.Error("moving off the tile should cancel the press")
		}
		m.Update(mouse(tea.MouseActionRelease, playerX, row1))
		if c.Selected() != "" {
			t.Error("cancelled press must not select")
		}
	})
}

func TestKeyboard(t *testing.T) {
	t.Run("DragAndDrop", func(t *testing.T) {
		m, c, d := setupModel(t)

		m.Update(runes("j"))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if c.State() != card.HoveringTarget || m.focus != PlayersPane {
			t.Fatalf("expected hovering with players focused, got %v / %v", c.State(), m.focus)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if got := c.Connections()["media_player.kitchen"]; got.Name != "Studio Brussel" {
			t.Errorf("expected Studio Brussel connected, got %+v", got)
		}
		if len(d.Calls()) != 1 {
			t.Errorf("expected one call, got %d", len(d.Calls()))
		}
	})

	t.Run("EscCancels", func(t *testing.T) {
		m, c, _ := setupModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if c.State() != card.Idle {
			t.Errorf("expected idle, got %v", c.State())
		}
	})

	t.Run("Controls", func(t *testing.T) {
		m, _, d := setupModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyTab})

		tests := []struct {
			key     tea.KeyMsg
			service string
		}{
			{runes("m"), "volume_mute"},
			{runes("+"), "volume_set"},
			{runes(" "), "media_play_pause"},
			{runes("s"), "media_stop"},
			{runes("n"), "media_next_track"},
			{runes("p"), "media_previous_track"},
		}
		for _, tt := range tests {
			m.Update(tt.key)
			if call := d.Last(t); call.Service != tt.service {
				t.Errorf("%q: expected %s, got %s", tt.key.String(), tt.service, call.Service)
			}
		}
	})

	t.Run("VolumeStep", func(t *testing.T) {
		m, _, d := setupModel(t)
		m.snapshot = m.snapshot.With(models.EntityState{
			EntityID:   "media_player.kitchen",
			State:      models.StateIdle,
			Attributes: models.Attributes{VolumeLevel: models.Float64(0.5)},
		})
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(runes("-"))
		level, _ := d.Last(t).Data["volume_level"].(float64)
		if level < 0.449 || level > 0.451 {
			t.Errorf("expected 0.45, got %v", level)
		}
	})

	t.Run("ControlsOnUnavailable", func(t *testing.T) {
		m, _, d := setupModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(runes("j"))
		m.Update(runes("m"))
		if len(d.Calls()) != 0 {
			t.Error("unavailable players must not receive calls")
		}
		if !errors.Is(m.err, card.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", m.err)
		}
	})

	t.Run("Details", func(t *testing.T) {
		m, _, _ := setupModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(runes("d"))
		if m.details != "media_player.kitchen" {
			t.Errorf("expected details for kitchen, got %q", m.details)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.details != "" {
			t.Error("esc should close the details pane")
		}
	})
}

func TestSnapshotUpdates(t *testing.T) {
	m, c, _ := setupModel(t)
	updates := make(chan models.Snapshot, 1)
	m.updates = updates

	m.Update(mouse(tea.MouseActionPress, stationX, row0))
	m.Update(mouse(tea.MouseActionRelease, playerX, row0))
	if len(c.Connections()) != 1 {
		t.Fatal("expected a connection")
	}
	if strings.Contains(m.View(), "♪ Willy") {
		t.Error("idle player should not show a station")
	}

	updates <- m.snapshot.With(models.EntityState{EntityID: "media_player.kitchen", State: models.StatePlaying})
	msg := waitForSnapshot(context.Background(), updates)()
	m.Update(msg)
	if !strings.Contains(m.View(), "♪ Willy") {
		t.Error("playing player should show its station")
	}
}

func TestView(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		m, c, _ := setupModel(t)
		_ = c.SetConfig(models.CardConfig{})
		if !strings.Contains(m.View(), "No valid card configuration") {
			t.Error("expected the empty card message")
		}
	})

	t.Run("Tiles", func(t *testing.T) {
		m, _, _ := setupModel(t)
		out := m.View()
		for _, want := range []string{"Willy", "Studio Brussel", "Kitchen", "media_player.den"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in view", want)
			}
		}
	})

	t.Run("Hit", func(t *testing.T) {
		m, c, _ := setupModel(t)
		view := c.Render(m.snapshot)

		if pane, i, ok := m.hit(view, stationX, row1); !ok || pane != StationsPane || i != 1 {
			t.Errorf("unexpected hit %v %d %v", pane, i, ok)
		}
		if pane, i, ok := m.hit(view, playerX, row0); !ok || pane != PlayersPane || i != 0 {
			t.Errorf("unexpected hit %v %d %v", pane, i, ok)
		}
		if _, _, ok := m.hit(view, playerX, 0); ok {
			t.Error("header should not hit a tile")
		}
	})

	t.Run("Truncate", func(t *testing.T) {
		if got := truncate("Studio Brussel", 6); got != "Studi…" {
			t.Errorf("unexpected %q", got)
		}
		if got := truncate("Willy", 6); got != "Willy" {
			t.Errorf("unexpected %q", got)
		}
	})
}
