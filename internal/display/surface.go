// Package display owns the rendering side of the board: the Surface
// abstraction over an LED matrix, the geometry math mapping text rows to
// pixel offsets, the staleness bar and the time-of-day text color.
package display

// Color is an RGB triple as accepted by the matrix driver.
type Color struct {
	R, G, B uint8
}

// Surface is a double-buffered rectangular drawing target. Draw calls
// paint the back buffer; Swap commits it atomically so a frame is never
// shown half-drawn. Implementations wrap an RGB matrix driver or, for
// development, a terminal.
type Surface interface {
	// DrawText paints text with its baseline at pixel position (x, y).
	DrawText(x, y int, color Color, text string)
	// Clear blanks the back buffer.
	Clear()
	// Swap commits the back buffer to the visible frame.
	Swap() error
	// Close releases the surface, leaving it blanked.
	Close() error
}
