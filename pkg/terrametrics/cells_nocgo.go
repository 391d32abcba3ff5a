//go:build !cgo

package terrametrics

import "github.com/paulmach/orb/geojson"

// BoundaryCells validates its arguments and reports ErrNoCellIndex.
func BoundaryCells(f *geojson.Feature, res int) ([]string, error) {
	if _, err := boundaryPolygons(f, res); err != nil {
		return nil, err
	}
	return nil, ErrNoCellIndex
}
