package terrametrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionalDistanceTransformEast(t *testing.T) {
	img := testImage(t, testGrid(5, 1), "c", 0, 0, 0, 0, 1)

	out, err := DirectionalDistanceTransform(img, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 3, 2, 1, 0}, bandOf(t, out, "c"))

	out, err = DirectionalDistanceTransform(img, 0, 2)
	require.NoError(t, err)
	d := bandOf(t, out, "c")
	assert.True(t, math.IsNaN(d[0]))
	assert.True(t, math.IsNaN(d[1]))
	assert.Equal(t, 2.0, d[2])

	out, err = DirectionalDistanceTransform(img, 180, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, out.CountValid(), "only the source itself when searching west")
}

func TestDirectionalDistanceTransformNorth(t *testing.T) {
	img := testImage(t, testGrid(1, 5), "c", 1, 0, 0, 0, 0)
	out, err := DirectionalDistanceTransform(img, 90, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, bandOf(t, out, "c"))
}

func TestDirectionalDistanceTransformArgs(t *testing.T) {
	img := testImage(t, testGrid(2, 1), "c", 0, 1)
	_, err := DirectionalDistanceTransform(img, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = DirectionalDistanceTransform(img, math.NaN(), 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
