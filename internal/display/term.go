package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TermSurface renders the matrix contents into a terminal. It exists so
// the board can be developed and demoed without LED hardware; any real
// matrix driver plugs in behind the same Surface interface.
//
// Pixel coordinates are mapped to text cells using the font metrics:
// column x/font-width, and the row whose glyph box contains the text
// baseline. Row zero is reserved for the staleness bar, which the
// renderer draws above the first text baseline.
type TermSurface struct {
	mu    sync.Mutex
	w     io.Writer
	geo   Geometry
	back  []termCell
	homed bool
}

type termCell struct {
	text  string
	color Color
}

// NewTermSurface builds a terminal surface for the given geometry,
// writing frames to w.
func NewTermSurface(w io.Writer, geo Geometry) *TermSurface {
	return &TermSurface{
		w:    w,
		geo:  geo,
		back: make([]termCell, geo.Lines()+1),
	}
}

// DrawText records text at the cell row containing baseline y. Only one
// text run per row is kept, which matches how the renderer draws.
func (t *TermSurface) DrawText(x, y int, color Color, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := 0
	if y > 0 {
		row = (y + t.geo.FontHeight - 1) / t.geo.FontHeight
	}
	if row < 0 || row >= len(t.back) {
		return
	}

	indent := x / t.geo.FontWidth
	t.back[row] = termCell{text: strings.Repeat(" ", indent) + text, color: color}
}

// Clear blanks the back buffer.
func (t *TermSurface) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.back {
		t.back[i] = termCell{}
	}
}

// Swap repaints the whole frame in place using ANSI cursor homing.
func (t *TermSurface) Swap() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.homed {
		// Move back to the frame origin instead of scrolling.
		fmt.Fprintf(&b, "\x1b[%dA", len(t.back))
	}
	t.homed = true

	for _, cell := range t.back {
		b.WriteString("\x1b[2K")
		if cell.text != "" {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(cell.color)))
			b.WriteString(style.Render(cell.text))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

// Close blanks the frame and leaves the cursor below it.
func (t *TermSurface) Close() error {
	t.Clear()
	return t.Swap()
}

func hexColor(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
