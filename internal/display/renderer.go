package display

import (
	"strings"
	"time"
)

// Geometry describes the matrix and font in pixels. The text grid is
// derived from it: rows/font-height lines of cols/font-width characters.
type Geometry struct {
	Rows int
	Cols int

	FontWidth  int
	FontHeight int

	// XIndent shifts all text right; YIndent nudges rows up or down to
	// center tall fonts with empty top pixel rows.
	XIndent int
	YIndent int

	// LatencyBarSeconds is the data age represented by one bar
	// character; zero disables the staleness bar.
	LatencyBarSeconds int
	// LatencyBarYIndent is the pixel baseline of the staleness bar.
	LatencyBarYIndent int
}

// Lines is the number of text rows that fit on the matrix.
func (g Geometry) Lines() int {
	return g.Rows / g.FontHeight
}

// Chars is the number of characters that fit on one row.
func (g Geometry) Chars() int {
	return g.Cols / g.FontWidth
}

// Grid returns the text-cell dimensions of the geometry.
func (g Geometry) Grid() (lines, chars int) {
	return g.Lines(), g.Chars()
}

// LatencyBars converts the snapshot age into the number of staleness
// bar characters, clamped to [0, maxBars]. One bar per
// LatencyBarSeconds of age.
func (g Geometry) LatencyBars(age time.Duration, maxBars int) int {
	if g.LatencyBarSeconds <= 0 || age < 0 {
		return 0
	}
	bars := int(age/time.Second) / g.LatencyBarSeconds
	if bars > maxBars {
		return maxBars
	}
	return bars
}

// Renderer draws formatted text rows onto a Surface.
type Renderer struct {
	surface Surface
	geo     Geometry
}

// NewRenderer wraps surface with the given geometry.
func NewRenderer(surface Surface, geo Geometry) *Renderer {
	return &Renderer{surface: surface, geo: geo}
}

// Geometry returns the renderer's pixel geometry.
func (r *Renderer) Geometry() Geometry {
	return r.geo
}

// Draw paints one full frame: every non-empty row at its pixel offset,
// the staleness bar for the age between now and serverTime, then one
// atomic swap. A swap failure is a surface failure and is returned to
// the caller; it is not retried.
func (r *Renderer) Draw(rows []string, serverTime, now time.Time, color Color) error {
	r.surface.Clear()

	for i, row := range rows {
		if row == "" {
			continue
		}
		y := (i+1)*r.geo.FontHeight + r.geo.YIndent
		r.surface.DrawText(r.geo.XIndent, y, color, row)
	}

	if bars := r.geo.LatencyBars(now.Sub(serverTime), r.geo.Chars()); bars > 0 {
		r.surface.DrawText(r.geo.XIndent, r.geo.LatencyBarYIndent, color, strings.Repeat("_", bars))
	}

	return r.surface.Swap()
}

// Blank clears the visible frame. Used on shutdown so the matrix does
// not keep glowing with stale departures.
func (r *Renderer) Blank() error {
	r.surface.Clear()
	return r.surface.Swap()
}
