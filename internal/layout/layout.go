// Package layout turns a departure snapshot into the exact text rows of
// the LED matrix: a fixed number of lines, each a fixed number of
// characters, shared fairly between the configured stops.
package layout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"futarboard.hu/internal/futar"
)

// Stop is one configured stop: its API identifier and the one-or-two
// character sign shown at the start of its rows.
type Stop struct {
	ID   string
	Sign string
}

// Grid is the text geometry of the display.
type Grid struct {
	Lines int
	Chars int
}

// Fixed field widths of one row: sign(2) + route(4) + countdown(3).
// The headsign fills whatever remains.
const (
	signWidth      = 2
	routeWidth     = 4
	countdownWidth = 3
	fixedWidth     = signWidth + routeWidth + countdownWidth
)

// MinDepartureSecondsDefault drops entries that left more than ten
// seconds ago.
const MinDepartureSecondsDefault = -10

// imminentSeconds is the threshold below which no countdown is shown;
// a "0'" (or negative) countdown would be noise, the vehicle is there.
const imminentSeconds = 30

// SplitEven divides n lines among k stops as evenly as possible, the
// first n%k stops receiving one extra line. The parts always sum to n
// and never differ by more than one.
func SplitEven(n, k int) []int {
	parts := make([]int, k)
	for i := range parts {
		parts[i] = n / k
		if i < n%k {
			parts[i]++
		}
	}
	return parts
}

// Format renders snap into exactly grid.Lines rows. Each row is exactly
// grid.Chars characters, or the empty string for an unused line.
//
// Lines are allocated per stop with SplitEven in configured order.
// Entries whose remaining time (relative to the snapshot's server time,
// truncated toward zero) is below minDepartureSeconds are dropped.
// Within a stop, entries are kept in snapshot order up to the stop's
// allotment; short stops are padded with empty strings.
//
// The result is a pure function of its inputs, so repeated calls with
// the same snapshot yield byte-identical rows.
func Format(snap *futar.Snapshot, grid Grid, stops []Stop, minDepartureSeconds int) []string {
	rows := make([]string, 0, grid.Lines)
	if len(stops) == 0 {
		for range grid.Lines {
			rows = append(rows, "")
		}
		return rows
	}

	parts := SplitEven(grid.Lines, len(stops))

	// Bucket surviving entries by stop, preserving source order.
	remaining := make(map[string][]int, len(stops))
	byStop := make(map[string][]futar.Departure, len(stops))
	for _, dep := range snap.Departures {
		secs := int(dep.DepartureAt.Sub(snap.ServerTime) / time.Second)
		if secs < minDepartureSeconds {
			continue
		}
		byStop[dep.StopID] = append(byStop[dep.StopID], dep)
		remaining[dep.StopID] = append(remaining[dep.StopID], secs)
	}

	for i, stop := range stops {
		quota := parts[i]
		entries := byStop[stop.ID]
		if len(entries) > quota {
			entries = entries[:quota]
		}
		for j, dep := range entries {
			rows = append(rows, formatRow(stop.Sign, dep, remaining[stop.ID][j], grid.Chars))
		}
		for range quota - len(entries) {
			rows = append(rows, "")
		}
	}

	return rows
}

// formatRow renders one departure as an exactly chars-wide row. Grids
// narrower than the fixed columns still get full rows: the headsign
// collapses to nothing and the fixed fields are trimmed from the right.
func formatRow(sign string, dep futar.Departure, remainingSeconds, chars int) string {
	var b strings.Builder
	b.WriteString(fit(sign, signWidth))
	b.WriteString(fit(dep.RouteName, routeWidth))
	b.WriteString(fitHeadsign(dep.Headsign, max(chars-fixedWidth, 0)))
	b.WriteString(countdown(remainingSeconds))
	return fit(b.String(), chars)
}

// countdown renders the 3-character departure field: blank when the
// vehicle is imminent, otherwise whole minutes with a minute sign.
// Rounding is half-away-from-zero (math.Round): 90s shows 2', 150s
// shows 3'.
func countdown(seconds int) string {
	if seconds <= imminentSeconds {
		return strings.Repeat(" ", countdownWidth)
	}
	minutes := int(math.Round(float64(seconds) / 60))
	if minutes > 99 {
		// Two digits is all the field has.
		minutes = 99
	}
	return fmt.Sprintf("%2d'", minutes)
}

// fit truncates or right-pads s to exactly width characters. Widths are
// counted in runes; the matrix font is one cell per rune.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return string(r) + strings.Repeat(" ", width-len(r))
}

// fitHeadsign is fit plus cleanup at the cut: when truncation lands on
// separator punctuation, the dangling separators are stripped so the
// row does not end mid-phrase with "Kelenföld," or "Örs vezér -".
func fitHeadsign(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
		for len(r) > 0 && isSeparator(r[len(r)-1]) {
			r = r[:len(r)-1]
		}
	}
	return string(r) + strings.Repeat(" ", width-len(r))
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', ',', '.', ';', ':', '-', '/':
		return true
	}
	return false
}
