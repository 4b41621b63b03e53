package display

import (
	"math"
	"time"
)

// ColorAt picks the decorative text color for an instant: a full trip
// around the hue wheel per day, at full saturation, so the board slowly
// drifts through the spectrum as the day passes.
func ColorAt(t time.Time) Color {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	hue := 360 * float64(secs) / 86400
	return hsv(hue, 1, 1)
}

// hsv converts hue [0,360), saturation and value [0,1] to RGB.
func hsv(h, s, v float64) Color {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return Color{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
	}
}
