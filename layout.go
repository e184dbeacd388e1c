package recording

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidLayout is returned by Layout.Validate.
	ErrInvalidLayout = errors.New("invalid video mixing layout")
	// ErrTooManyRegions is returned when a layout needs more regions than the SDK mixes.
	ErrTooManyRegions = errors.New("too many regions for video mixing layout")
)

// MaxRegions is the largest number of users the engine composites.
const MaxRegions = 17

// RenderMode controls how a user's video fills its region.
type RenderMode int32

const (
	RenderModeDefault RenderMode = 0
	RenderModeHidden  RenderMode = 1 // crop to fill
	RenderModeFit     RenderMode = 2 // letterbox
)

// Region places one user's video on the mixing canvas. Coordinates and sizes
// are relative to the canvas, in [0,1].
type Region struct {
	UID        uint32
	X, Y       float64
	Width      float64
	Height     float64
	ZOrder     int     // 0 bottom-most, 100 top-most
	Alpha      float64 // 0 transparent, 1 opaque
	RenderMode RenderMode
}

// Layout is a video mixing layout (VideoMixingLayout).
type Layout struct {
	CanvasWidth     int
	CanvasHeight    int
	BackgroundColor string // "#RRGGBB", empty for the engine default
	KeepLastFrame   bool   // hold a user's last frame when their video stops
	AppData         string
	Regions         []Region
}

// NewLayout returns an empty layout: no regions, engine-chosen canvas.
func NewLayout() *Layout {
	return &Layout{}
}

// AddRegion appends r to the layout.
func (l *Layout) AddRegion(r Region) {
	l.Regions = append(l.Regions, r)
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks region geometry and the region count.
func (l *Layout) Validate() error {
	if l.CanvasWidth < 0 || l.CanvasHeight < 0 {
		return fmt.Errorf("%w: negative canvas %dx%d", ErrInvalidLayout, l.CanvasWidth, l.CanvasHeight)
	}
	if l.BackgroundColor != "" && !colorPattern.MatchString(l.BackgroundColor) {
		return fmt.Errorf("%w: background color %q", ErrInvalidLayout, l.BackgroundColor)
	}
	if len(l.Regions) > MaxRegions {
		return fmt.Errorf("%w: %d regions, max %d", ErrTooManyRegions, len(l.Regions), MaxRegions)
	}
	for i, r := range l.Regions {
		if !unit(r.X) || !unit(r.Y) || !unit(r.Width) || !unit(r.Height) {
			return fmt.Errorf("%w: region %d (uid %d) outside the canvas", ErrInvalidLayout, i, r.UID)
		}
		if !unit(r.Alpha) {
			return fmt.Errorf("%w: region %d alpha %v", ErrInvalidLayout, i, r.Alpha)
		}
		if r.ZOrder < 0 || r.ZOrder > 100 {
			return fmt.Errorf("%w: region %d z-order %d", ErrInvalidLayout, i, r.ZOrder)
		}
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
