package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	focus    key.Binding
	enter    key.Binding
	back     key.Binding
	details  key.Binding
	volUp    key.Binding
	volDown  key.Binding
	mute     key.Binding
	toggle   key.Binding
	stop     key.Binding
	next     key.Binding
	previous key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch column")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick/drop")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		details:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		volUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		volDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.focus, k.enter, k.details, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.focus, k.enter, k.back},
		{k.volUp, k.volDown, k.mute, k.details},
		{k.toggle, k.stop, k.next, k.previous, k.quit},
	}
}

// dragHelp is shown while a station is being dragged.
func (k keyMap) dragHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.enter, k.back}
}
