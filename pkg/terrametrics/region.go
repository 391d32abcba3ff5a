package terrametrics

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// geometryContains reports whether p lies inside g. A nil geometry covers
// everything.
func geometryContains(g orb.Geometry, p orb.Point) (bool, error) {
	switch g := g.(type) {
	case nil:
		return true, nil
	case orb.Bound:
		return g.Contains(p), nil
	case orb.Polygon:
		return planar.PolygonContains(g, p), nil
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p), nil
	case orb.Ring:
		return planar.RingContains(g, p), nil
	default:
		return false, fmt.Errorf("%w: unsupported region geometry %T", ErrInvalidArgument, g)
	}
}

// regionPixels lists the indexes of pixels whose centers fall inside g,
// visiting every stride-th row and column.
func regionPixels(grid Grid, g orb.Geometry, stride int) ([]int, error) {
	if stride < 1 {
		stride = 1
	}
	c0, r0, c1, r1 := 0, 0, grid.Width, grid.Height
	if g != nil {
		b := g.Bound()
		ca, ra := grid.ToPixel(b.Min)
		cb, rb := grid.ToPixel(b.Max)
		c0 = clampInt(int(math.Floor(math.Min(ca, cb))), 0, grid.Width)
		c1 = clampInt(int(math.Ceil(math.Max(ca, cb))), 0, grid.Width)
		r0 = clampInt(int(math.Floor(math.Min(ra, rb))), 0, grid.Height)
		r1 = clampInt(int(math.Ceil(math.Max(ra, rb))), 0, grid.Height)
	}

	var idx []int
	for r := r0; r < r1; r += stride {
		for c := c0; c < c1; c += stride {
			inside, err := geometryContains(g, grid.PixelCenter(c, r))
			if err != nil {
				return nil, err
			}
			if inside {
				idx = append(idx, r*grid.Width+c)
			}
		}
	}
	return idx, nil
}

// Clip masks pixels whose centers fall outside g.
func (img *Image) Clip(g orb.Geometry) (*Image, error) {
	if g == nil {
		return img, nil
	}
	idx, err := regionPixels(img.grid, g, 1)
	if err != nil {
		return nil, err
	}
	inside := make([]bool, img.grid.NumPixels())
	for _, i := range idx {
		inside[i] = true
	}
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			if inside[p] {
				data[p] = v
			} else {
				data[p] = math.NaN()
			}
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
