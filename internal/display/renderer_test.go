package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	x, y  int
	color Color
	text  string
}

// fakeSurface records draw calls for assertion.
type fakeSurface struct {
	calls   []drawCall
	clears  int
	swaps   int
	swapErr error
}

func (f *fakeSurface) DrawText(x, y int, color Color, text string) {
	f.calls = append(f.calls, drawCall{x, y, color, text})
}

func (f *fakeSurface) Clear()       { f.clears++ }
func (f *fakeSurface) Swap() error  { f.swaps++; return f.swapErr }
func (f *fakeSurface) Close() error { return nil }

func testGeometry() Geometry {
	return Geometry{
		Rows:              48,
		Cols:              96,
		FontWidth:         6,
		FontHeight:        12,
		XIndent:           2,
		YIndent:           -2,
		LatencyBarSeconds: 60,
		LatencyBarYIndent: 0,
	}
}

func TestGeometry_Grid(t *testing.T) {
	geo := testGeometry()

	assert.Equal(t, 4, geo.Lines())
	assert.Equal(t, 16, geo.Chars())

	lines, chars := geo.Grid()
	assert.Equal(t, 4, lines)
	assert.Equal(t, 16, chars)
}

func TestGeometry_LatencyBars(t *testing.T) {
	geo := testGeometry()

	tests := []struct {
		name     string
		age      time.Duration
		expected int
	}{
		{"fresh", 0, 0},
		{"under one bar", 59 * time.Second, 0},
		{"exactly one bar", 60 * time.Second, 1},
		{"three bars", 3 * time.Minute, 3},
		{"clamped to width", 2 * time.Hour, 16},
		{"negative age", -time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, geo.LatencyBars(tt.age, geo.Chars()))
		})
	}
}

func TestGeometry_LatencyBarsDisabled(t *testing.T) {
	geo := testGeometry()
	geo.LatencyBarSeconds = 0

	assert.Equal(t, 0, geo.LatencyBars(time.Hour, geo.Chars()))
}

func TestRenderer_Draw(t *testing.T) {
	surface := &fakeSurface{}
	renderer := NewRenderer(surface, testGeometry())
	color := Color{R: 255, G: 128, B: 0}

	serverTime := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	now := serverTime.Add(2 * time.Minute)

	rows := []string{"9    Bogdáni  2'", "", "6    Móricz   5'", ""}
	require.NoError(t, renderer.Draw(rows, serverTime, now, color))

	assert.Equal(t, 1, surface.clears)
	assert.Equal(t, 1, surface.swaps)

	// Empty rows are skipped, so two text rows plus the staleness bar.
	require.Len(t, surface.calls, 3)

	assert.Equal(t, drawCall{x: 2, y: 10, color: color, text: rows[0]}, surface.calls[0])
	assert.Equal(t, drawCall{x: 2, y: 34, color: color, text: rows[2]}, surface.calls[1])

	bar := surface.calls[2]
	assert.Equal(t, 2, bar.x)
	assert.Equal(t, 0, bar.y)
	assert.Equal(t, "__", bar.text)
}

func TestRenderer_DrawFreshSnapshotHasNoBar(t *testing.T) {
	surface := &fakeSurface{}
	renderer := NewRenderer(surface, testGeometry())

	now := time.Date(2024, 6, 15, 8, 0, 30, 0, time.UTC)
	require.NoError(t, renderer.Draw([]string{"row"}, now.Add(-30*time.Second), now, Color{}))

	require.Len(t, surface.calls, 1)
	assert.Equal(t, "row", surface.calls[0].text)
}

func TestRenderer_DrawSwapFailure(t *testing.T) {
	surface := &fakeSurface{swapErr: errors.New("matrix gone")}
	renderer := NewRenderer(surface, testGeometry())

	err := renderer.Draw([]string{"row"}, time.Now(), time.Now(), Color{})
	assert.Error(t, err)
}

func TestRenderer_Blank(t *testing.T) {
	surface := &fakeSurface{}
	renderer := NewRenderer(surface, testGeometry())

	require.NoError(t, renderer.Blank())
	assert.Equal(t, 1, surface.clears)
	assert.Equal(t, 1, surface.swaps)
	assert.Empty(t, surface.calls)
}
