package terrametrics

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"terrametrics/internal/util"
)

// Reducer selects a statistical aggregation.
type Reducer int

const (
	ReducerMean Reducer = iota
	ReducerStdDev
	ReducerMin
	ReducerMax
	ReducerMedian
	ReducerMode
	ReducerSum
	ReducerCount
)

func (r Reducer) String() string {
	switch r {
	case ReducerMean:
		return "mean"
	case ReducerStdDev:
		return "stdDev"
	case ReducerMin:
		return "min"
	case ReducerMax:
		return "max"
	case ReducerMedian:
		return "median"
	case ReducerMode:
		return "mode"
	case ReducerSum:
		return "sum"
	case ReducerCount:
		return "count"
	default:
		return "unknown"
	}
}

// ParseReducer maps a reducer name to a Reducer.
func ParseReducer(name string) (Reducer, error) {
	for r := ReducerMean; r <= ReducerCount; r++ {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: reducer=%q must be one of [mean, stdDev, min, max, median, mode, sum, count]", ErrInvalidArgument, name)
}

const metersPerDegree = 111319.49079327357

// Grid georeferences the pixels of an image. Origin is the outer corner of
// pixel (0, 0); PixelHeight is negative for north-up rasters.
type Grid struct {
	Width       int
	Height      int
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64
	// Geographic is true when coordinates are longitude/latitude degrees,
	// false for projected grids in meters.
	Geographic bool
}

// NewGrid returns a north-up grid.
func NewGrid(width, height int, originX, originY, pixelSize float64, geographic bool) Grid {
	return Grid{
		Width:       width,
		Height:      height,
		OriginX:     originX,
		OriginY:     originY,
		PixelWidth:  pixelSize,
		PixelHeight: -pixelSize,
		Geographic:  geographic,
	}
}

func (g Grid) validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: grid size %dx%d must be positive", ErrInvalidArgument, g.Width, g.Height)
	}
	if g.PixelWidth == 0 || g.PixelHeight == 0 || math.IsNaN(g.PixelWidth) || math.IsNaN(g.PixelHeight) {
		return fmt.Errorf("%w: grid pixel size must be non-zero", ErrInvalidArgument)
	}
	return nil
}

func (g Grid) NumPixels() int { return g.Width * g.Height }

// PixelCenter returns the map coordinate of the center of pixel (col, row).
func (g Grid) PixelCenter(col, row int) orb.Point {
	return g.Corner(float64(col)+0.5, float64(row)+0.5)
}

// Corner maps fractional pixel coordinates to map coordinates.
func (g Grid) Corner(col, row float64) orb.Point {
	return orb.Point{g.OriginX + col*g.PixelWidth, g.OriginY + row*g.PixelHeight}
}

// ToPixel maps a map coordinate to fractional pixel coordinates.
func (g Grid) ToPixel(p orb.Point) (col, row float64) {
	return (p[0] - g.OriginX) / g.PixelWidth, (p[1] - g.OriginY) / g.PixelHeight
}

func (g Grid) Bounds() orb.Bound {
	return orb.MultiPoint{g.Corner(0, 0), g.Corner(float64(g.Width), float64(g.Height))}.Bound()
}

// RowPixelSizeMeters returns the pixel width and height in meters for a row.
// Geographic grids use a spherical approximation at the row's latitude.
func (g Grid) RowPixelSizeMeters(row int) (dx, dy float64) {
	dx, dy = math.Abs(g.PixelWidth), math.Abs(g.PixelHeight)
	if !g.Geographic {
		return dx, dy
	}
	lat := util.Deg2Rad(g.PixelCenter(0, row)[1])
	return dx * metersPerDegree * math.Cos(lat), dy * metersPerDegree
}

// NominalScale is the pixel size in meters at the grid center.
func (g Grid) NominalScale() float64 {
	dx, dy := g.RowPixelSizeMeters(g.Height / 2)
	return math.Sqrt(dx * dy)
}

// Resample returns the grid covering the same extent with pixels factor
// times larger. Partial blocks at the edges become whole pixels.
func (g Grid) Resample(factor int) Grid {
	if factor <= 1 {
		return g
	}
	out := g
	out.Width = (g.Width + factor - 1) / factor
	out.Height = (g.Height + factor - 1) / factor
	out.PixelWidth = g.PixelWidth * float64(factor)
	out.PixelHeight = g.PixelHeight * float64(factor)
	return out
}

func (g Grid) String() string {
	return fmt.Sprintf("{%dx%d origin=(%f,%f) pixel=(%f,%f) geographic=%t}",
		g.Width, g.Height, g.OriginX, g.OriginY, g.PixelWidth, g.PixelHeight, g.Geographic)
}
