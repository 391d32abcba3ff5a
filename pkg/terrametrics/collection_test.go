package terrametrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func observation(t *testing.T, grid Grid, band string, at time.Time, values ...float64) *Image {
	t.Helper()
	return testImage(t, grid, band, values...).Set(PropStartTime, at)
}

func TestImageCollectionFilterDate(t *testing.T) {
	grid := testGrid(1, 1)
	col, err := NewImageCollection(grid,
		observation(t, grid, "q", day0, 1),
		observation(t, grid, "q", day0.Add(12*time.Hour), 2),
		observation(t, grid, "q", day0.Add(24*time.Hour), 3),
		testImage(t, grid, "q", 4),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, col.Len())

	day := col.FilterDate(day0, day0.Add(24*time.Hour))
	require.Equal(t, 2, day.Len(), "end is exclusive and untimed images are dropped")
	assert.Equal(t, 2.0, day.At(1).At(0, 0, 0))
}

func TestImageCollectionFilterBounds(t *testing.T) {
	grid := testGrid(2, 1)
	col, err := NewImageCollection(grid,
		testImage(t, grid, "q", 1, nan),
		testImage(t, grid, "q", nan, 2),
	)
	require.NoError(t, err)

	east := orb.Bound{Min: orb.Point{30, 0}, Max: orb.Point{60, 30}}
	kept, err := col.FilterBounds(east)
	require.NoError(t, err)
	require.Equal(t, 1, kept.Len())
	assert.Equal(t, 2.0, kept.At(0).At(0, 1, 0))

	all, err := col.FilterBounds(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())
}

func TestImageCollectionGridMismatch(t *testing.T) {
	_, err := NewImageCollection(testGrid(1, 1), testImage(t, testGrid(2, 1), "q", 1, 2))
	assert.ErrorIs(t, err, ErrGridMismatch)
}

func TestImageCollectionMapIterate(t *testing.T) {
	grid := testGrid(1, 1)
	col, err := NewImageCollection(grid,
		testImage(t, grid, "v", 1),
		testImage(t, grid, "v", 2),
		testImage(t, grid, "v", 3),
	)
	require.NoError(t, err)

	doubled, err := col.Map(func(img *Image) (*Image, error) {
		return img.Map(func(v float64) float64 { return 2 * v }), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, doubled.At(2).At(0, 0, 0))

	order, err := Iterate(doubled, []float64(nil), func(acc []float64, img *Image) ([]float64, error) {
		return append(acc, img.At(0, 0, 0)), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, order)

	boom := errors.New("boom")
	_, err = col.Map(func(img *Image) (*Image, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = Iterate(col, 0, func(acc int, img *Image) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestImageCollectionReduce(t *testing.T) {
	grid := testGrid(2, 1)
	col, err := NewImageCollection(grid,
		testImage(t, grid, "q", 0, 1),
		testImage(t, grid, "q", 1, nan),
		testImage(t, grid, "q", 0, nan),
	)
	require.NoError(t, err)

	med, err := col.Reduce(ReducerMedian, "q")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, bandOf(t, med, "q"))

	_, err = col.Reduce(ReducerMedian, "missing")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	empty, err := NewImageCollection(grid)
	require.NoError(t, err)
	out, err := empty.Reduce(ReducerMedian, "q")
	require.NoError(t, err)
	for _, v := range bandOf(t, out, "q") {
		assert.True(t, math.IsNaN(v))
	}
}
