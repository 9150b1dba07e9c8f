package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgDetails
)

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s models.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// detailsMsg is the constructor for [MsgDetails]
func detailsMsg(entityID string) Msg {
	return Msg{kind: MsgDetails, data: entityID}
}

// Notifier carries long-press events from the card's timers into the program.
type Notifier struct {
	ch chan string
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan string, 8)}
}

// ShowDetails queues a details request. Requests are dropped while the queue is full.
func (n *Notifier) ShowDetails(entityID string) {
	select {
	case n.ch <- entityID:
	default:
	}
}

// Events returns the card callbacks that feed this notifier.
func (n *Notifier) Events() card.Events {
	return card.Events{ShowDetails: n.ShowDetails}
}

func (n *Notifier) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case id := <-n.ch:
			return detailsMsg(id)
		case <-ctx.Done():
			return nil
		}
	}
}

func waitForSnapshot(ctx context.Context, updates <-chan models.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			return snapshotMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}
