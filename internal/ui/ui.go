package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
)

// Pane is the column that has keyboard focus.
type Pane int

const (
	StationsPane Pane = iota
	PlayersPane
)

const (
	// headerLines is the number of lines above the first tile row: title, margin and column headings.
	headerLines = 3
	// columnWidth is the width of the stations column. Players start at this x offset.
	columnWidth = 28

	volumeStep = 0.05
)

// StatusSource supplies the snapshot the card renders against.
type StatusSource interface {
	Snapshot() models.Snapshot
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	card     *card.Card
	updates  <-chan models.Snapshot
	notifier *Notifier
	snapshot models.Snapshot

	focus   Pane
	cursor  [2]int
	pressed string
	details string
	err     error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI model for c. updates may be nil when the status is static. notifier must be the one whose
// [Notifier.Events] were given to c, or nil to disable the details pane on long press.
func NewModel(ctx context.Context, c *card.Card, status StatusSource, updates <-chan models.Snapshot, notifier *Notifier) *Model {
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &Model{
		ctx:      ctx,
		card:     c,
		updates:  updates,
		notifier: notifier,
		snapshot: status.Snapshot(),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts listening for status updates and long-press events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.ctx, m.updates), m.notifier.wait(m.ctx))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case Msg:
		switch msg.kind {
		case MsgSnapshot:
			m.snapshot = msg.data.(models.Snapshot)
			return m, waitForSnapshot(m.ctx, m.updates)
		case MsgDetails:
			m.details = msg.data.(string)
			return m, m.notifier.wait(m.ctx)
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.card.Render(m.snapshot)
	dragging := view.Dragging != nil

	switch {
	case key.Matches(msg, m.keys.quit):
		m.card.CancelDrag()
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		switch {
		case dragging:
			m.card.CancelDrag()
		case m.details != "":
			m.details = ""
		}
		m.err = nil
		return m, nil

	case key.Matches(msg, m.keys.focus):
		if !dragging {
			m.focus = 1 - m.focus
		}
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.move(view, -1, dragging)
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.move(view, 1, dragging)
		return m, nil

	case key.Matches(msg, m.keys.enter):
		m.enter(view, dragging)
		return m, nil
	}

	if dragging || m.focus != PlayersPane {
		return m, nil
	}
	tile, ok := m.focused(view)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.details):
		m.details = tile.EntityID
	case key.Matches(msg, m.keys.volUp):
		m.setErr(m.card.SetVolume(m.snapshot, tile.EntityID, volume(tile)+volumeStep))
	case key.Matches(msg, m.keys.volDown):
		m.setErr(m.card.SetVolume(m.snapshot, tile.EntityID, volume(tile)-volumeStep))
	case key.Matches(msg, m.keys.mute):
		m.setErr(m.card.ToggleMute(m.snapshot, tile.EntityID))
	case key.Matches(msg, m.keys.toggle):
		m.setErr(m.card.Transport(m.snapshot, tile.EntityID, card.ActionPlayPause))
	case key.Matches(msg, m.keys.stop):
		m.setErr(m.card.Transport(m.snapshot, tile.EntityID, card.ActionStop))
	case key.Matches(msg, m.keys.next):
		m.setErr(m.card.Transport(m.snapshot, tile.EntityID, card.ActionNext))
	case key.Matches(msg, m.keys.previous):
		m.setErr(m.card.Transport(m.snapshot, tile.EntityID, card.ActionPrevious))
	}
	return m, nil
}

// move shifts the cursor of the focused column. While dragging the players column follows the cursor as the hover
// target.
func (m *Model) move(view card.View, delta int, dragging bool) {
	n := len(view.Stations)
	if m.focus == PlayersPane {
		n = len(view.Players)
	}
	if n == 0 {
		return
	}
	m.cursor[m.focus] = min(max(m.cursor[m.focus]+delta, 0), n-1)

	if dragging && m.focus == PlayersPane {
		m.card.HoverTarget(view.Players[m.cursor[PlayersPane]].EntityID)
	}
}

// enter is the keyboard fallback for drag and drop: pick a station, walk the players, drop.
func (m *Model) enter(view card.View, dragging bool) {
	m.err = nil
	switch {
	case dragging:
		if tile, ok := m.focused(view); ok {
			m.setErr(m.card.Drop(m.snapshot, tile.EntityID))
		} else {
			m.card.CancelDrag()
		}
	case m.focus == StationsPane:
		i := m.cursor[StationsPane]
		if i >= len(view.Stations) {
			return
		}
		st := view.Stations[i]
		m.card.BeginDrag(models.Station{Name: st.Name, URL: st.URL})
		m.focus = PlayersPane
		if tile, ok := m.focused(view); ok {
			m.card.HoverTarget(tile.EntityID)
		}
	default:
		if tile, ok := m.focused(view); ok {
			m.setErr(m.card.Select(m.snapshot, tile.EntityID))
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	view := m.card.Render(m.snapshot)
	pane, i, hit := m.hit(view, msg.X, msg.Y)
	overPlayer := hit && pane == PlayersPane

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !hit {
			return m, nil
		}
		m.err = nil
		m.focus = pane
		m.cursor[pane] = i
		if pane == StationsPane {
			st := view.Stations[i]
			m.card.BeginDrag(models.Station{Name: st.Name, URL: st.URL})
			return m, nil
		}
		m.pressed = view.Players[i].EntityID
		m.card.PressStart(m.pressed)

	case tea.MouseActionMotion:
		if view.Dragging == nil {
			if m.pressed != "" && (!overPlayer || view.Players[i].EntityID != m.pressed) {
				m.card.PressCancel(m.pressed)
				m.pressed = ""
			}
			return m, nil
		}
		if overPlayer {
			m.card.HoverTarget(view.Players[i].EntityID)
		} else {
			m.card.ClearHover()
		}

	case tea.MouseActionRelease:
		if view.Dragging != nil {
			if overPlayer {
				m.setErr(m.card.Drop(m.snapshot, view.Players[i].EntityID))
			} else {
				m.card.CancelDrag()
			}
			return m, nil
		}
		if m.pressed == "" {
			return m, nil
		}
		id := m.pressed
		m.pressed = ""
		if !overPlayer || view.Players[i].EntityID != id {
			m.card.PressCancel(id)
			return m, nil
		}
		if m.card.PressEnd(id) {
			m.setErr(m.card.Select(m.snapshot, id))
		}
	}
	return m, nil
}

// hit maps a cell to the tile drawn there.
func (m *Model) hit(view card.View, x, y int) (Pane, int, bool) {
	row := y - headerLines
	if row < 0 || x < 0 {
		return 0, 0, false
	}
	if x < columnWidth {
		return StationsPane, row, row < len(view.Stations)
	}
	return PlayersPane, row, row < len(view.Players)
}

func (m *Model) focused(view card.View) (card.PlayerTile, bool) {
	i := m.cursor[PlayersPane]
	if i >= len(view.Players) {
		return card.PlayerTile{}, false
	}
	return view.Players[i], true
}

func (m *Model) setErr(err error) {
	m.err = err
}

func volume(tile card.PlayerTile) float64 {
	if tile.VolumeLevel == nil {
		return 0
	}
	return *tile.VolumeLevel
}

// View renders the card, the details pane and the status line.
func (m *Model) View() string {
	view := m.card.Render(m.snapshot)
	if view.Empty {
		return styles.warn.Render("No valid card configuration.\n\nRun `webradio setup card` and edit card.yaml.\n\nPress q to quit")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Web Radio"))
	b.WriteString("\n")
	b.WriteString(pad(styles.heading.Render("Stations"), columnWidth))
	b.WriteString(styles.heading.Render("Players"))
	b.WriteString("\n")

	rows := max(len(view.Stations), len(view.Players))
	for i := range rows {
		left := ""
		if i < len(view.Stations) {
			left = m.renderStation(view.Stations[i], i)
		}
		right := ""
		if i < len(view.Players) {
			right = m.renderPlayer(view.Players[i], i)
		}
		b.WriteString(pad(left, columnWidth))
		b.WriteString(right)
		b.WriteString("\n")
	}

	if m.details != "" {
		if tile, ok := view.Player(m.details); ok {
			b.WriteString("\n")
			b.WriteString(renderDetails(tile))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(describe(m.err)))
	case view.Dragging != nil:
		b.WriteString(styles.ok.Render(fmt.Sprintf("Dragging %s: drop it on a player", view.Dragging.Name)))
	}
	b.WriteString("\n")

	if view.Dragging != nil {
		b.WriteString(m.help.ShortHelpView(m.keys.dragHelp()))
	} else {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return b.String()
}

func (m *Model) renderStation(st card.StationTile, i int) string {
	marker := "  "
	if m.focus == StationsPane && m.cursor[StationsPane] == i {
		marker = "> "
	}
	label := marker + truncate(st.Name, columnWidth-len(marker)-1)
	if st.Dragging {
		return styles.dragover.Render(label)
	}
	return styles.tile.Render(label)
}

func (m *Model) renderPlayer(tile card.PlayerTile, i int) string {
	marker := "  "
	if m.focus == PlayersPane && m.cursor[PlayersPane] == i {
		marker = "> "
	}

	parts := []string{tile.DisplayName}
	if tile.PlayingStation != "" {
		parts = append(parts, "♪ "+tile.PlayingStation)
	}
	switch {
	case tile.Unavailable:
		parts = append(parts, "unavailable")
	case tile.Muted:
		parts = append(parts, "muted")
	case tile.VolumeLevel != nil:
		parts = append(parts, fmt.Sprintf("%d%%", int(*tile.VolumeLevel*100+0.5)))
	}
	return styles.For(tile.Class, tile.Selected).Render(marker + strings.Join(parts, " · "))
}

func renderDetails(tile card.PlayerTile) string {
	lines := []string{
		styles.heading.Render(tile.DisplayName),
		"entity:  " + tile.EntityID,
		"state:   " + orDash(tile.State),
		"station: " + orDash(tile.PlayingStation),
		"title:   " + orDash(tile.MediaTitle),
	}
	if tile.VolumeLevel != nil {
		lines = append(lines, fmt.Sprintf("volume:  %.2f", *tile.VolumeLevel))
	}
	lines = append(lines, fmt.Sprintf("muted:   %t", tile.Muted))
	return styles.details.Render(strings.Join(lines, "\n"))
}

func describe(err error) string {
	switch {
	case errors.Is(err, card.ErrUnavailable):
		return "That player is unavailable"
	case errors.Is(err, card.ErrNoDrag):
		return "Nothing is being dragged"
	default:
		return "Error: " + err.Error()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// pad right-pads s to width cells, ignoring ANSI sequences.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
