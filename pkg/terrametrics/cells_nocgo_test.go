//go:build !cgo

package terrametrics

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

func TestBoundaryCellsWithoutCgo(t *testing.T) {
	square := orb.Polygon{{{-120, 40}, {-119.9, 40}, {-119.9, 40.1}, {-120, 40.1}, {-120, 40}}}
	_, err := BoundaryCells(geojson.NewFeature(square), 7)
	assert.ErrorIs(t, err, ErrNoCellIndex)

	_, err = BoundaryCells(geojson.NewFeature(square), -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
