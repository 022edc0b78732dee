package ui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/visibility"
)

// Palette
const (
	colorVisible  = "#7CFC00" // lawn green
	colorSoft     = "#FFD700" // gold
	colorBlocked  = "#FF6347" // tomato
	colorAbsent   = "#444444"
	colorMuted    = "60"
	colorLabel    = "135"
	colorAccent   = "#9D4EDD"
	colorError    = "#E84A27"
	colorMoonWarn = "#FF4500"
)

// Sample glyphs, one cell per sample.
const (
	glyphVisible = "█"
	glyphSoft    = "▓"
	glyphBlocked = "░"
	glyphAbsent  = "·"
)

func stateGlyph(s visibility.State) (glyph, color string) {
	switch s {
	case visibility.Visible:
		return glyphVisible, colorVisible
	case visibility.SoftLimit:
		return glyphSoft, colorSoft
	case visibility.Blocked:
		return glyphBlocked, colorBlocked
	default:
		return glyphAbsent, colorAbsent
	}
}

// gradientColor returns a hex color for position col of width along the
// title gradient: blue, purple, magenta, then pink.
func gradientColor(col, width int) string {
	x := 0.0
	if width > 1 {
		x = float64(col) / float64(width-1)
	}

	var r, g, b float64
	switch {
	case x < 0.33:
		t := x / 0.33
		r, g, b = 59+t*(139-59), 130+t*(92-130), 246
	case x < 0.66:
		t := (x - 0.33) / 0.33
		r, g, b = 139+t*(217-139), 92+t*(70-92), 246+t*(239-246)
	default:
		t := (x - 0.66) / 0.34
		r, g, b = 217+t*(236-217), 70+t*(72-70), 239+t*(153-239)
	}
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	return int(math.Round(max(0, min(255, v))))
}

// style returns a foreground style, or a bare style when output is plain.
func (r Renderer) style(color string) lipgloss.Style {
	if r.Plain {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func (r Renderer) label(s string) string {
	if r.Plain {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel)).Bold(true).Render(s)
}

func (r Renderer) muted(s string) string {
	return r.style(colorMuted).Render(s)
}

// title renders text with the gradient, one rune at a time.
func (r Renderer) title(text string) string {
	if r.Plain {
		return text
	}
	runes := []rune(text)
	var out string
	for i, c := range runes {
		out += lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(i, len(runes)))).Bold(true).Render(string(c))
	}
	return out
}
