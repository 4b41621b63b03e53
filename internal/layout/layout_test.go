package layout

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarboard.hu/internal/futar"
)

var serverTime = time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

func departure(stopID, route, headsign string, remainingSeconds int) futar.Departure {
	return futar.Departure{
		StopID:      stopID,
		RouteName:   route,
		Headsign:    headsign,
		DepartureAt: serverTime.Add(time.Duration(remainingSeconds) * time.Second),
		Certainty:   futar.CertaintyLive,
	}
}

func snapshot(departures ...futar.Departure) *futar.Snapshot {
	return &futar.Snapshot{ServerTime: serverTime, Departures: departures}
}

func TestSplitEven(t *testing.T) {
	tests := []struct {
		name     string
		n, k     int
		expected []int
	}{
		{"exact division", 6, 3, []int{2, 2, 2}},
		{"remainder to the first stops", 8, 3, []int{3, 3, 2}},
		{"two stops five lines", 5, 2, []int{3, 2}},
		{"single stop", 4, 1, []int{4}},
		{"more stops than lines", 2, 4, []int{1, 1, 0, 0}},
		{"zero lines", 0, 3, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitEven(tt.n, tt.k))
		})
	}
}

func TestSplitEven_Properties(t *testing.T) {
	// Parts sum exactly to n and never differ by more than one.
	for n := 0; n <= 12; n++ {
		for k := 1; k <= 8; k++ {
			parts := SplitEven(n, k)
			require.Len(t, parts, k)

			sum, lo, hi := 0, parts[0], parts[0]
			for _, p := range parts {
				sum += p
				lo = min(lo, p)
				hi = max(hi, p)
			}
			assert.Equal(t, n, sum, "n=%d k=%d", n, k)
			assert.LessOrEqual(t, hi-lo, 1, "n=%d k=%d", n, k)
		}
	}
}

func TestFormat_RowDimensions(t *testing.T) {
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}, {ID: "BKK_F2", Sign: "B"}}
	snap := snapshot(
		departure("BKK_F1", "9", "Óbuda, Bogdáni út", 300),
		departure("BKK_F2", "6", "Móricz Zsigmond körtér", 120),
		departure("BKK_F1", "109", "Óbuda, Bogdáni út", 480),
	)
	grid := Grid{Lines: 4, Chars: 16}

	rows := Format(snap, grid, stops, MinDepartureSecondsDefault)

	require.Len(t, rows, grid.Lines)
	for i, row := range rows {
		if row == "" {
			continue
		}
		assert.Equal(t, grid.Chars, utf8.RuneCountInString(row), "row %d: %q", i, row)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(departure("BKK_F1", "9", "Óbuda", 300))
	grid := Grid{Lines: 4, Chars: 16}

	first := Format(snap, grid, stops, MinDepartureSecondsDefault)
	second := Format(snap, grid, stops, MinDepartureSecondsDefault)
	assert.Equal(t, first, second)
}

func TestFormat_FairAllocationAndPadding(t *testing.T) {
	// Two stops, five lines: allotment [3, 2]. The first stop has only
	// one surviving entry, so its block is [row, "", ""].
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}, {ID: "BKK_F2", Sign: "B"}}
	snap := snapshot(
		departure("BKK_F1", "9", "Bogdáni út", 300),
		departure("BKK_F2", "6", "Körtér", 120),
		departure("BKK_F2", "6", "Körtér", 600),
	)

	rows := Format(snap, Grid{Lines: 5, Chars: 16}, stops, MinDepartureSecondsDefault)

	require.Len(t, rows, 5)
	assert.NotEmpty(t, rows[0])
	assert.Equal(t, "", rows[1])
	assert.Equal(t, "", rows[2])
	assert.NotEmpty(t, rows[3])
	assert.NotEmpty(t, rows[4])

	assert.Equal(t, "A ", rows[0][:2])
	assert.Equal(t, "B ", rows[3][:2])
}

func TestFormat_PerStopTruncationKeepsSourceOrder(t *testing.T) {
	// One stop, two lines, three entries: the earliest-listed two win.
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(
		departure("BKK_F1", "9", "First", 300),
		departure("BKK_F1", "29", "Second", 400),
		departure("BKK_F1", "109", "Third", 500),
	)

	rows := Format(snap, Grid{Lines: 2, Chars: 20}, stops, MinDepartureSecondsDefault)

	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "First")
	assert.Contains(t, rows[1], "Second")
}

func TestFormat_DropsEntriesBelowFloor(t *testing.T) {
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(
		departure("BKK_F1", "9", "Gone", -15),
		departure("BKK_F1", "9", "Boarding", -10),
		departure("BKK_F1", "9", "Later", 300),
	)

	rows := Format(snap, Grid{Lines: 3, Chars: 20}, stops, -10)

	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "Boarding")
	assert.Contains(t, rows[1], "Later")
	assert.Equal(t, "", rows[2])
}

func TestFormat_UnknownStopsShowNothing(t *testing.T) {
	// Entries for stops outside the configured universe are ignored.
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(departure("BKK_F9", "9", "Elsewhere", 300))

	rows := Format(snap, Grid{Lines: 2, Chars: 16}, stops, MinDepartureSecondsDefault)

	assert.Equal(t, []string{"", ""}, rows)
}

func TestFormat_MoreStopsThanLines(t *testing.T) {
	// K > L: the trailing stop gets zero lines and shows nothing even
	// though it has entries.
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}, {ID: "BKK_F2", Sign: "B"}}
	snap := snapshot(
		departure("BKK_F1", "9", "Shown", 300),
		departure("BKK_F2", "6", "Squeezed out", 120),
	)

	rows := Format(snap, Grid{Lines: 1, Chars: 20}, stops, MinDepartureSecondsDefault)

	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "Shown")
}

func TestFormat_RowFields(t *testing.T) {
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(departure("BKK_F1", "9", "Bogdáni út", 95))

	rows := Format(snap, Grid{Lines: 1, Chars: 19}, stops, MinDepartureSecondsDefault)

	// sign(2) + route(4) + headsign(10) + countdown(3)
	require.Len(t, rows, 1)
	assert.Equal(t, "A 9   Bogdáni út 2'", rows[0])
}

func TestFormat_GridNarrowerThanFixedColumns(t *testing.T) {
	// Eight characters cannot hold the nine fixed columns; the headsign
	// collapses and the remaining fields are trimmed from the right.
	stops := []Stop{{ID: "BKK_F1", Sign: "A"}}
	snap := snapshot(departure("BKK_F1", "9", "Bogdáni út", 95))

	for _, chars := range []int{8, 4, 1} {
		rows := Format(snap, Grid{Lines: 2, Chars: chars}, stops, MinDepartureSecondsDefault)
		require.Len(t, rows, 2, "chars=%d", chars)
		assert.Equal(t, chars, utf8.RuneCountInString(rows[0]), "chars=%d", chars)
		assert.Equal(t, "", rows[1], "chars=%d", chars)
	}

	rows := Format(snap, Grid{Lines: 1, Chars: 8}, stops, MinDepartureSecondsDefault)
	assert.Equal(t, "A 9    2", rows[0])
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected string
	}{
		{"imminent renders blank", 25, "   "},
		{"exactly thirty renders blank", 30, "   "},
		{"just over thirty rounds to one minute", 31, " 1'"},
		{"95 seconds rounds to two minutes", 95, " 2'"},
		{"half minute rounds away from zero", 90, " 2'"},
		{"two and a half minutes rounds away from zero", 150, " 3'"},
		{"double digits", 600, "10'"},
		{"clamped to two digits", 6600, "99'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countdown(tt.seconds))
		})
	}
}

func TestFitHeadsign(t *testing.T) {
	tests := []struct {
		name     string
		headsign string
		width    int
		expected string
	}{
		{"shorter is padded", "Körtér", 10, "Körtér    "},
		{"exactly at the boundary is untouched", "Bogdáni út", 10, "Bogdáni út"},
		{"truncated", "Móricz Zsigmond körtér", 10, "Móricz Zsi"},
		{"separator stripped at the cut", "Óbuda, Bogdáni út", 7, "Óbuda  "},
		{"trailing space stripped then repadded", "Örs vezér tere", 10, "Örs vezér "},
		{"zero width collapses to nothing", "Bogdáni út", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitHeadsign(tt.headsign, tt.width)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.width, utf8.RuneCountInString(got))
		})
	}
}
