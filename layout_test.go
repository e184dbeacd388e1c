package recording

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func uidRange(n int) []uint32 {
	uids := make([]uint32, n)
	for i := range uids {
		uids[i] = uint32(100 + i)
	}
	return uids
}

func TestNewLayoutEmpty(t *testing.T) {
	l := NewLayout()
	assert.Empty(t, l.Regions)
	assert.Zero(t, l.CanvasWidth)
	require.NoError(t, l.Validate())

	l.AddRegion(Region{UID: 1, Width: 1, Height: 1, Alpha: 1})
	assert.Len(t, l.Regions, 1)
}

func TestLayoutValidate(t *testing.T) {
	full := Region{UID: 1, Width: 1, Height: 1, Alpha: 1}
	tests := []struct {
		name    string
		layout  Layout
		wantErr error
	}{
		{"ok", Layout{CanvasWidth: 640, CanvasHeight: 480, BackgroundColor: "#00FF00", Regions: []Region{full}}, nil},
		{"negative canvas", Layout{CanvasWidth: -1}, ErrInvalidLayout},
		{"bad color", Layout{BackgroundColor: "green"}, ErrInvalidLayout},
		{"short color", Layout{BackgroundColor: "#0f0"}, ErrInvalidLayout},
		{"x outside", Layout{Regions: []Region{{X: 1.5, Width: 0.1, Height: 0.1, Alpha: 1}}}, ErrInvalidLayout},
		{"negative height", Layout{Regions: []Region{{Width: 0.1, Height: -0.1, Alpha: 1}}}, ErrInvalidLayout},
		{"alpha", Layout{Regions: []Region{{Width: 1, Height: 1, Alpha: 2}}}, ErrInvalidLayout},
		{"z order", Layout{Regions: []Region{{Width: 1, Height: 1, Alpha: 1, ZOrder: 101}}}, ErrInvalidLayout},
		{"too many", Layout{Regions: make([]Region, MaxRegions+1)}, ErrTooManyRegions},
		{"max regions", Layout{Regions: make([]Region, MaxRegions)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseLayoutMode(t *testing.T) {
	for _, m := range []LayoutMode{LayoutDefault, LayoutBestFit, LayoutVerticalPresentation} {
		got, err := ParseLayoutMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseLayoutMode("Best-Fit")
	require.NoError(t, err)
	assert.Equal(t, LayoutBestFit, got)

	_, err = ParseLayoutMode("mosaic")
	assert.Error(t, err)
}

func TestBuildLayoutCanvas(t *testing.T) {
	_, err := BuildLayout(LayoutDefault, 0, 480, uidRange(1), 0)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	l, err := BuildLayout(LayoutBestFit, 640, 480, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 640, l.CanvasWidth)
	assert.Equal(t, 480, l.CanvasHeight)
	assert.Equal(t, DefaultBackgroundColor, l.BackgroundColor)
	assert.Empty(t, l.Regions)
}

func TestBuildLayoutDefault(t *testing.T) {
	l, err := BuildLayout(LayoutDefault, 640, 480, []uint32{1, 2, 3}, 0)
	require.NoError(t, err)

	thumbH := 0.235 * 640.0 / 480.0
	y := 1 - (thumbH + 0.012*640.0/480.0)
	want := []Region{
		{UID: 1, Width: 1, Height: 1, Alpha: 1},
		{UID: 2, X: 0.012, Y: y, Width: 0.235, Height: thumbH, ZOrder: 1, Alpha: 1},
		{UID: 3, X: 0.259, Y: y, Width: 0.235, Height: thumbH, ZOrder: 2, Alpha: 1},
	}
	if diff := cmp.Diff(want, l.Regions, approx); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, l.Validate())
}

func TestBuildLayoutDefaultStaysOnCanvas(t *testing.T) {
	// A wide canvas makes thumbnails taller than the canvas allows.
	l, err := BuildLayout(LayoutDefault, 1920, 360, uidRange(MaxRegions), 0)
	require.NoError(t, err)
	require.Len(t, l.Regions, MaxRegions)
	require.NoError(t, l.Validate())

	_, err = BuildLayout(LayoutDefault, 640, 480, uidRange(MaxRegions+1), 0)
	assert.ErrorIs(t, err, ErrTooManyRegions)
}

func TestBuildLayoutBestFit(t *testing.T) {
	tests := []struct {
		users int
		cell  float64
	}{
		{1, 1},
		{3, 0.5},
		{4, 0.5},
		{5, 1.0 / 3},
		{9, 1.0 / 3},
		{10, 0.25},
		{16, 0.25},
	}
	for _, tt := range tests {
		l, err := BuildLayout(LayoutBestFit, 640, 640, uidRange(tt.users), 0)
		require.NoError(t, err)
		require.Len(t, l.Regions, tt.users)
		require.NoError(t, l.Validate())

		last := l.Regions[tt.users-1]
		assert.InDelta(t, tt.cell, last.Width, 1e-9, "users=%d", tt.users)
		assert.InDelta(t, tt.cell, last.Height, 1e-9, "users=%d", tt.users)
	}

	l, err := BuildLayout(LayoutBestFit, 640, 480, []uint32{7, 8}, 0)
	require.NoError(t, err)
	want := []Region{
		{UID: 7, Width: 0.5, Height: 1, Alpha: 1},
		{UID: 8, X: 0.5, Width: 0.5, Height: 1, Alpha: 1},
	}
	if diff := cmp.Diff(want, l.Regions, approx); diff != "" {
		t.Errorf("two users mismatch (-want +got):\n%s", diff)
	}

	l, err = BuildLayout(LayoutBestFit, 640, 480, uidRange(5), 0)
	require.NoError(t, err)
	if diff := cmp.Diff(Region{UID: 104, X: 1.0 / 3, Y: 1.0 / 3, Width: 1.0 / 3, Height: 1.0 / 3, Alpha: 1}, l.Regions[4], approx); diff != "" {
		t.Errorf("fifth cell mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLayoutBestFitSeventeen(t *testing.T) {
	l, err := BuildLayout(LayoutBestFit, 640, 480, uidRange(MaxRegions), 0)
	require.NoError(t, err)
	require.Len(t, l.Regions, MaxRegions)
	require.NoError(t, l.Validate())

	assert.InDelta(t, 0.3, l.Regions[5].X, 1e-9)
	assert.InDelta(t, 0.2, l.Regions[5].Y, 1e-9)
	assert.InDelta(t, 0.4, l.Regions[16].X, 1e-9)
	assert.InDelta(t, 0.8, l.Regions[16].Y, 1e-9)

	_, err = BuildLayout(LayoutBestFit, 640, 480, uidRange(MaxRegions+1), 0)
	assert.ErrorIs(t, err, ErrTooManyRegions)
}

func TestBuildLayoutVertical(t *testing.T) {
	l, err := BuildLayout(LayoutVerticalPresentation, 640, 480, []uint32{1, 2, 3}, 2)
	require.NoError(t, err)
	want := []Region{
		{UID: 1, X: 0.8, Width: 0.2, Height: 0.25, Alpha: 1},
		{UID: 2, Width: 0.8, Height: 1, Alpha: 1, RenderMode: RenderModeHidden},
		{UID: 3, X: 0.8, Y: 0.25, Width: 0.2, Height: 0.25, Alpha: 1},
	}
	if diff := cmp.Diff(want, l.Regions, approx); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLayoutVerticalGrids(t *testing.T) {
	tests := []struct {
		name      string
		thumbs    int
		mainWidth float64
		tileH     float64
	}{
		{"four", 4, 0.8, 0.25},
		{"six", 6, 6.0 / 7, 1.0 / 6},
		{"eight", 8, 8.0 / 9, 0.125},
		{"two columns", 10, 0.8, 0.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uids := append([]uint32{1}, uidRange(tt.thumbs)...)
			l, err := BuildLayout(LayoutVerticalPresentation, 1280, 720, uids, 1)
			require.NoError(t, err)
			require.Len(t, l.Regions, tt.thumbs+1)
			require.NoError(t, l.Validate())

			assert.InDelta(t, tt.mainWidth, l.Regions[0].Width, 1e-9)
			assert.InDelta(t, tt.tileH, l.Regions[1].Height, 1e-9)
			for _, r := range l.Regions[1:] {
				assert.LessOrEqual(t, r.X+r.Width, 1+1e-9)
				assert.GreaterOrEqual(t, r.X, tt.mainWidth-1e-9)
			}
		})
	}

	// Tenth thumbnail lands in the second column.
	uids := append([]uint32{1}, uidRange(10)...)
	l, err := BuildLayout(LayoutVerticalPresentation, 1280, 720, uids, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, l.Regions[10].X, 1e-9)
	assert.InDelta(t, 0.125, l.Regions[10].Y, 1e-9)
}

func TestBuildLayoutVerticalOverflow(t *testing.T) {
	uids := append([]uint32{1}, uidRange(20)...)
	l, err := BuildLayout(LayoutVerticalPresentation, 1280, 720, uids, 1)
	require.NoError(t, err)
	assert.Len(t, l.Regions, MaxRegions)
	require.NoError(t, l.Validate())
}

func TestBuildLayoutVerticalWithoutMain(t *testing.T) {
	l, err := BuildLayout(LayoutVerticalPresentation, 1280, 720, []uint32{5, 6}, 99)
	require.NoError(t, err)
	require.Len(t, l.Regions, 2)
	for _, r := range l.Regions {
		assert.InDelta(t, 0.8, r.X, 1e-9)
	}
}
