// Package render formats trees, generation rows and statistics as terminal
// text.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Tint is one of the eight basic ANSI foreground colours.
type Tint int

const (
	Black Tint = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

// Palette colours text with the basic ANSI colours. A disabled palette
// returns text unchanged.
type Palette struct {
	enabled  bool
	renderer *lipgloss.Renderer
	styles   [8]lipgloss.Style
}

// NewPalette returns a palette. Colour output does not depend on the
// terminal the process is attached to.
func NewPalette(enabled bool) Palette {
	p := Palette{enabled: enabled}
	if !enabled {
		return p
	}
	p.renderer = lipgloss.NewRenderer(io.Discard)
	p.renderer.SetColorProfile(termenv.ANSI)
	for i := range p.styles {
		p.styles[i] = p.renderer.NewStyle().Foreground(lipgloss.ANSIColor(i))
	}
	return p
}

// Enabled reports whether the palette emits colour.
func (p Palette) Enabled() bool {
	return p.enabled
}

// Toggle returns a palette with colour switched.
func (p Palette) Toggle() Palette {
	return NewPalette(!p.enabled)
}

// Paint renders s in the given tint. Tints wrap modulo 8.
func (p Palette) Paint(s string, t Tint) string {
	if !p.enabled || s == "" {
		return s
	}
	return p.styles[((int(t)%8)+8)%8].Render(s)
}
