//go:build cgo

package terrametrics

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryCells(t *testing.T) {
	square := orb.Polygon{{{-120, 40}, {-119.9, 40}, {-119.9, 40.1}, {-120, 40.1}, {-120, 40}}}
	f := geojson.NewFeature(orb.MultiPolygon{square})

	cells, err := BoundaryCells(f, 7)
	require.NoError(t, err)
	require.NotEmpty(t, cells)
	for i := 1; i < len(cells); i++ {
		assert.Less(t, cells[i-1], cells[i], "sorted and unique")
	}
	assert.Len(t, cells[0], 15)

	fine, err := BoundaryCells(f, 8)
	require.NoError(t, err)
	assert.Greater(t, len(fine), len(cells))

	_, err = BoundaryCells(f, 16)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = BoundaryCells(geojson.NewFeature(orb.Point{0, 0}), 7)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
