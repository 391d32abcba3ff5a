package terrametrics

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoCellIndex is returned by BoundaryCells in builds without cgo.
var ErrNoCellIndex = errors.New("H3 cell indexing needs a cgo build")

// boundaryPolygons validates the arguments of BoundaryCells.
func boundaryPolygons(f *geojson.Feature, res int) ([]orb.Polygon, error) {
	if res < 0 || res > 15 {
		return nil, fmt.Errorf("%w: H3 resolution %d must be 0..15", ErrInvalidArgument, res)
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	default:
		return nil, fmt.Errorf("%w: boundary geometry %T is not polygonal", ErrInvalidArgument, f.Geometry)
	}
}
