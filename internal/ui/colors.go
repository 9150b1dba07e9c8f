package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/webradio/internal/card"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title       lipgloss.Style
	heading     lipgloss.Style
	ok          lipgloss.Style
	err         lipgloss.Style
	warn        lipgloss.Style
	help        lipgloss.Style
	tile        lipgloss.Style
	dragover    lipgloss.Style
	unavailable lipgloss.Style
	selected    lipgloss.Style
	details     lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:       NewBold(t).MarginBottom(1),
		heading:     NewBold(h).Underline(true),
		ok:          NewBold(s),
		err:         NewBold(e),
		warn:        NewStyle(w),
		help:        NewEm(h),
		tile:        lipgloss.NewStyle(),
		dragover:    NewBold(t).Reverse(true),
		unavailable: NewEm(h).Strikethrough(true),
		selected:    NewBold(s),
		details:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
	}
}

// For picks the tile style for a player class.
func (p *Palette) For(class string, selected bool) lipgloss.Style {
	switch {
	case class == card.ClassUnavailable:
		return p.unavailable
	case class == card.ClassDragOver:
		return p.dragover
	case selected:
		return p.selected
	default:
		return p.tile
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
