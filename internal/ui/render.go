package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/mosaic"
	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/session"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// moonWarnDeg is the Moon distance below which it is highlighted.
const moonWarnDeg = 30.0

// Renderer formats plans as terminal text.
type Renderer struct {
	// Zone is used for every displayed time; nil means UTC.
	Zone *time.Location
	// Plain disables colors.
	Plain bool
	// Width bounds the visibility bar; 0 means one cell per sample.
	Width int
}

func (r Renderer) zone() *time.Location {
	if r.Zone == nil {
		return time.UTC
	}
	return r.Zone
}

func (r Renderer) clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.In(r.zone()).Format("15:04")
}

// Target renders the one-line target header.
func (r Renderer) Target(t resolver.Target) string {
	line := r.label(t.Name) + "  " + t.Coordinates + "  " + r.muted("["+string(t.Source)+"]")
	if t.Info != "" {
		line += "  " + r.muted(t.Info)
	}
	return line
}

// Night renders the night summary, the rise/transit/set window and a
// visibility bar with an hourly axis.
func (r Renderer) Night(p session.NightPlan) string {
	var b strings.Builder
	n := p.Night

	b.WriteString(r.Target(p.Target) + "\n")
	fmt.Fprintf(&b, "%s %s   dusk %s   dawn %s   midnight %s\n",
		r.label("Night of"), p.Date.Format(time.DateOnly),
		r.clock(n.Sunset), r.clock(n.Sunrise), r.clock(n.Midnight))

	moon := fmt.Sprintf("Moon %.0f%% lit, %.1f° from target", n.MoonPhase, n.MoonDistanceDeg)
	if n.MoonDistanceDeg < moonWarnDeg {
		moon = r.style(colorMoonWarn).Render(moon)
	}
	b.WriteString(moon + "\n")

	if w := p.Window; w != nil {
		b.WriteString(r.window(*w) + "\n")
	}

	samples := r.fit(n.Samples)
	b.WriteString(r.bar(samples) + "\n")
	b.WriteString(r.muted(r.axis(samples)) + "\n")
	b.WriteString(r.totals(n.Samples))
	if n.MeridianIndex >= 0 && n.MeridianIndex < len(n.Samples) {
		b.WriteString("\n" + r.muted("meridian "+r.clock(n.Samples[n.MeridianIndex].Time)))
	}
	return b.String()
}

func (r Renderer) window(w visibility.Window) string {
	switch {
	case w.NeverUp:
		return r.muted("Below horizon all night")
	case w.AlwaysUp:
		return fmt.Sprintf("Up all night, transit %s @ %.0f°", r.clock(w.Transit), w.MaxAltDeg)
	}
	return fmt.Sprintf("Rise %s   Transit %s @ %.0f°   Set %s",
		r.clock(w.Rise), r.clock(w.Transit), w.MaxAltDeg, r.clock(w.Set))
}

// fit downsamples to Width cells by picking evenly spaced samples.
func (r Renderer) fit(samples []visibility.Sample) []visibility.Sample {
	if r.Width <= 0 || len(samples) <= r.Width {
		return samples
	}
	out := make([]visibility.Sample, r.Width)
	for i := range out {
		out[i] = samples[i*len(samples)/r.Width]
	}
	return out
}

func (r Renderer) bar(samples []visibility.Sample) string {
	var b strings.Builder
	for _, s := range samples {
		glyph, color := stateGlyph(s.State)
		b.WriteString(r.style(color).Render(glyph))
	}
	return b.String()
}

// axis marks each cell where a new hour starts with the hour's first digit
// pair, padding the rest.
func (r Renderer) axis(samples []visibility.Sample) string {
	cells := []rune(strings.Repeat(" ", len(samples)))
	last := -1
	for i, s := range samples {
		h := s.Time.In(r.zone()).Hour()
		if h == last {
			continue
		}
		last = h
		label := fmt.Sprintf("%02d", h)
		if i+len(label) > len(cells) {
			break
		}
		copy(cells[i:], []rune(label))
	}
	return string(cells)
}

// totals sums time per state, assuming evenly spaced samples.
func (r Renderer) totals(samples []visibility.Sample) string {
	if len(samples) < 2 {
		return ""
	}
	step := samples[1].Time.Sub(samples[0].Time)
	var visible, soft, blocked time.Duration
	for _, s := range samples {
		switch s.State {
		case visibility.Visible:
			visible += step
		case visibility.SoftLimit:
			soft += step
		case visibility.Blocked:
			blocked += step
		}
	}
	return fmt.Sprintf("%s %s   %s %s   %s %s",
		r.style(colorVisible).Render(glyphVisible+" visible"), hm(visible),
		r.style(colorSoft).Render(glyphSoft+" soft"), hm(soft),
		r.style(colorBlocked).Render(glyphBlocked+" blocked"), hm(blocked))
}

func hm(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

// Year renders one row per calendar month, one cell per day.
func (r Renderer) Year(p session.YearPlan) string {
	var b strings.Builder
	b.WriteString(r.Target(p.Target) + "\n")
	fmt.Fprintf(&b, "%s from %s, altitude at local midnight (%s ≥ %.0f°)\n",
		r.label("Year"), p.Start.Format(time.DateOnly),
		r.style(colorVisible).Render(glyphVisible), visibility.YearVisibleAltitude)

	var row strings.Builder
	var month time.Month
	var year int
	flush := func() {
		if row.Len() > 0 {
			fmt.Fprintf(&b, "%s %d  %s\n", r.label(month.String()[:3]), year, row.String())
			row.Reset()
		}
	}
	for _, s := range p.Year.Samples {
		if s.Time.Month() != month || s.Time.Year() != year {
			flush()
			month, year = s.Time.Month(), s.Time.Year()
		}
		glyph, color := stateGlyph(s.State)
		row.WriteString(r.style(color).Render(glyph))
	}
	flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// Mosaic renders the panel table of a grid, row by row.
func (r Renderer) Mosaic(p session.MosaicPlan) string {
	var b strings.Builder
	b.WriteString(r.Target(p.Target) + "\n")
	rows := len(p.Panels)
	cols := 0
	if rows > 0 {
		cols = len(p.Panels[0])
	}
	fmt.Fprintf(&b, "%s %dx%d, field %.3f°x%.3f°, overlap %.0f%%\n",
		r.label("Mosaic"), cols, rows, p.FOV.X, p.FOV.Y, p.Overlap*100)
	for _, row := range p.Panels {
		for _, panel := range row {
			b.WriteString(r.Panel(panel) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// List renders the panels and markers of a coordinate list.
func (r Renderer) List(p session.ListPlan) string {
	lines := make([]string, 0, len(p.Panels)+len(p.Markers))
	for _, panel := range p.Panels {
		lines = append(lines, r.Panel(panel))
	}
	for _, m := range p.Markers {
		lines = append(lines, r.muted(fmt.Sprintf("%-8s %s", m.Name, coordtext.FormatCanonical(m.Center))))
	}
	return strings.Join(lines, "\n")
}

// Panel renders one panel: name, overlay label and canonical centre.
func (r Renderer) Panel(p mosaic.Panel) string {
	return fmt.Sprintf("%s %s  %s", r.label(fmt.Sprintf("%-8s", p.Name)), p.Text, r.muted(coordtext.FormatCanonical(p.Center)))
}
