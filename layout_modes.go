package recording

import (
	"fmt"
	"strings"
)

// DefaultBackgroundColor is the canvas color used by BuildLayout.
const DefaultBackgroundColor = "#23b9dc"

// LayoutMode selects a region arrangement for BuildLayout.
type LayoutMode int

const (
	// LayoutDefault shows the first user full screen with the others as
	// floating thumbnails along the bottom, four per row.
	LayoutDefault LayoutMode = iota
	// LayoutBestFit tiles all users in the smallest square grid that fits them.
	LayoutBestFit
	// LayoutVerticalPresentation gives one user most of the canvas and stacks
	// the others in a column on the right.
	LayoutVerticalPresentation
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutDefault:
		return "default"
	case LayoutBestFit:
		return "bestfit"
	case LayoutVerticalPresentation:
		return "vertical"
	default:
		return fmt.Sprintf("LayoutMode(%d)", int(m))
	}
}

// ParseLayoutMode accepts the names returned by LayoutMode.String.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "floating":
		return LayoutDefault, nil
	case "bestfit", "best-fit", "grid":
		return LayoutBestFit, nil
	case "vertical", "vertical-presentation", "presentation":
		return LayoutVerticalPresentation, nil
	default:
		return 0, fmt.Errorf("unknown layout mode %q", s)
	}
}

// BuildLayout arranges uids on a width x height canvas. maxResolutionUID is
// only used by LayoutVerticalPresentation.
func BuildLayout(mode LayoutMode, width, height int, uids []uint32, maxResolutionUID uint32) (*Layout, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidLayout, width, height)
	}

	l := &Layout{
		CanvasWidth:     width,
		CanvasHeight:    height,
		BackgroundColor: DefaultBackgroundColor,
	}
	if len(uids) == 0 {
		return l, nil
	}

	switch mode {
	case LayoutDefault:
		if len(uids) > MaxRegions {
			return nil, fmt.Errorf("%w: %d users", ErrTooManyRegions, len(uids))
		}
		l.Regions = floatingRegions(uids, float64(width)/float64(height))
	case LayoutBestFit:
		regions, err := bestFitRegions(uids)
		if err != nil {
			return nil, err
		}
		l.Regions = regions
	case LayoutVerticalPresentation:
		l.Regions = verticalRegions(uids, maxResolutionUID)
	default:
		return nil, fmt.Errorf("%w: mode %v", ErrInvalidLayout, mode)
	}
	return l, nil
}

// Floating thumbnail geometry, relative to canvas width.
const (
	thumbWidth = 0.235
	thumbEdge  = 0.012
	thumbsRow  = 4
)

func floatingRegions(uids []uint32, aspect float64) []Region {
	regions := make([]Region, len(uids))
	regions[0] = Region{UID: uids[0], Width: 1, Height: 1, Alpha: 1}

	thumbHeight := min(thumbWidth*aspect, 1)
	vEdge := thumbEdge * aspect
	for i := 1; i < len(uids); i++ {
		col := float64((i - 1) % thumbsRow)
		row := float64((i - 1) / thumbsRow)
		regions[i] = Region{
			UID:    uids[i],
			X:      col*(thumbWidth+thumbEdge) + thumbEdge,
			Y:      max(1-(row+1)*(thumbHeight+vEdge), 0),
			Width:  thumbWidth,
			Height: thumbHeight,
			ZOrder: i,
			Alpha:  1,
		}
	}
	return regions
}

func bestFitRegions(uids []uint32) ([]Region, error) {
	switch n := len(uids); {
	case n == 1:
		return gridRegions(uids, 1), nil
	case n == 2:
		return []Region{
			{UID: uids[0], X: 0, Width: 0.5, Height: 1, Alpha: 1},
			{UID: uids[1], X: 0.5, Width: 0.5, Height: 1, Alpha: 1},
		}, nil
	case n <= 4:
		return gridRegions(uids, 2), nil
	case n <= 9:
		return gridRegions(uids, 3), nil
	case n <= 16:
		return gridRegions(uids, 4), nil
	case n == MaxRegions:
		return seventeenRegions(uids), nil
	default:
		return nil, fmt.Errorf("%w: %d users", ErrTooManyRegions, n)
	}
}

func gridRegions(uids []uint32, n int) []Region {
	cell := 1 / float64(n)
	regions := make([]Region, len(uids))
	for i, uid := range uids {
		regions[i] = Region{
			UID:    uid,
			X:      cell * float64(i%n),
			Y:      cell * float64(i/n),
			Width:  cell,
			Height: cell,
			Alpha:  1,
		}
	}
	return regions
}

// seventeenRegions lays out four rows of four 1/5 cells, centred, with the
// seventeenth user centred on a fifth row.
func seventeenRegions(uids []uint32) []Region {
	const cell = 0.2
	regions := make([]Region, len(uids))
	for i, uid := range uids {
		r := Region{
			UID:    uid,
			X:      cell/2 + cell*float64(i%4),
			Y:      cell * float64(i/4),
			Width:  cell,
			Height: cell,
			Alpha:  1,
		}
		if i == 16 {
			r.X = (1 - cell) / 2
		}
		regions[i] = r
	}
	return regions
}

// presentation column geometry, chosen by how many thumbnails are needed.
type presentationGrid struct {
	mainWidth float64
	columns   []float64 // x of each thumbnail column
	rows      int
	tileW     float64
}

var presentationGrids = []presentationGrid{
	{mainWidth: 0.8, columns: []float64{0.8}, rows: 4, tileW: 0.2},
	{mainWidth: 6.0 / 7, columns: []float64{6.0 / 7}, rows: 6, tileW: 1.0 / 7},
	{mainWidth: 8.0 / 9, columns: []float64{8.0 / 9}, rows: 8, tileW: 1.0 / 9},
	{mainWidth: 0.8, columns: []float64{0.8, 0.9}, rows: 8, tileW: 0.1},
}

func pickPresentationGrid(thumbs int) presentationGrid {
	for _, g := range presentationGrids {
		if thumbs <= g.rows*len(g.columns) {
			return g
		}
	}
	return presentationGrids[len(presentationGrids)-1]
}

func verticalRegions(uids []uint32, maxResolutionUID uint32) []Region {
	hasMain := false
	for _, uid := range uids {
		if uid == maxResolutionUID {
			hasMain = true
			break
		}
	}
	thumbs := len(uids)
	if hasMain {
		thumbs--
	}
	g := pickPresentationGrid(thumbs)
	capacity := g.rows * len(g.columns)
	tileH := 1 / float64(g.rows)

	regions := make([]Region, 0, len(uids))
	slot := 0
	mainPlaced := false
	for _, uid := range uids {
		if uid == maxResolutionUID && !mainPlaced {
			mainPlaced = true
			regions = append(regions, Region{
				UID:        uid,
				Width:      g.mainWidth,
				Height:     1,
				Alpha:      1,
				RenderMode: RenderModeHidden,
			})
			continue
		}
		if slot >= capacity {
			// More users than thumbnails; the rest are not mixed.
			continue
		}
		regions = append(regions, Region{
			UID:    uid,
			X:      g.columns[slot/g.rows],
			Y:      tileH * float64(slot%g.rows),
			Width:  g.tileW,
			Height: tileH,
			Alpha:  1,
		})
		slot++
	}
	return regions
}
