package terrametrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernelWeights(t *testing.T) {
	grid := testGrid(5, 5)

	w, err := CircleKernel(1, UnitsPixels, false).Weights(grid)
	require.NoError(t, err)
	r, c := w.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, w.At(0, 0))
	assert.Equal(t, 1.0, w.At(0, 1))

	w, err = CircleKernel(60, UnitsMeters, true).Weights(grid)
	require.NoError(t, err)
	r, _ = w.Dims()
	assert.Equal(t, 5, r)
	var total float64
	var cells int
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			total += w.At(i, j)
			if w.At(i, j) > 0 {
				cells++
			}
		}
	}
	assert.Equal(t, 13, cells)
	assert.InDelta(t, 1, total, 1e-12)

	w, err = SquareKernel(1, UnitsPixels, false).Weights(grid)
	require.NoError(t, err)
	assert.Equal(t, 1.0, w.At(0, 0))

	_, err = CircleKernel(0, UnitsPixels, false).Weights(grid)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReduceNeighborhoodMean(t *testing.T) {
	grid := testGrid(5, 5)
	img := testImage(t, grid, "v", filled(25, 7)...)

	out, err := ReduceNeighborhood(img, ReducerMean, CircleKernel(1, UnitsPixels, true))
	require.NoError(t, err)
	for _, v := range bandOf(t, out, "v") {
		assert.InDelta(t, 7, v, 1e-9)
	}
}

func TestReduceNeighborhoodIgnoresMasked(t *testing.T) {
	data := filled(9, 4)
	data[4] = nan
	data[0] = 10
	img := testImage(t, testGrid(3, 3), "v", data...)

	out, err := ReduceNeighborhood(img, ReducerMean, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	v := bandOf(t, out, "v")
	// Center sees eight valid neighbors: one 10 and seven 4s.
	assert.InDelta(t, (10+7*4)/8.0, v[4], 1e-9)

	all := testImage(t, testGrid(3, 1), "v", nan, nan, nan)
	out, err = ReduceNeighborhood(all, ReducerMean, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	assert.Equal(t, 0, out.CountValid())
}

func TestReduceNeighborhoodWindowed(t *testing.T) {
	img := testImage(t, testGrid(5, 1), "v", 1, 5, 2, 8, 3)
	kernel := SquareKernel(1, UnitsPixels, false)

	tests := []struct {
		reducer Reducer
		want    []float64
	}{
		{ReducerMin, []float64{1, 1, 2, 2, 3}},
		{ReducerMax, []float64{5, 5, 8, 8, 8}},
		{ReducerMedian, []float64{3, 2, 5, 3, 5.5}},
		{ReducerSum, []float64{6, 8, 15, 13, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.reducer.String(), func(t *testing.T) {
			out, err := ReduceNeighborhood(img, tt.reducer, kernel)
			require.NoError(t, err)
			got := bandOf(t, out, "v")
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9, "pixel %d", i)
			}
		})
	}
}

func TestReduceNeighborhoodMode(t *testing.T) {
	img := testImage(t, testGrid(5, 1), "v", 0, 1, 0, 0, 1)
	out, err := ReduceNeighborhood(img, ReducerMode, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, bandOf(t, out, "v"))
}

func TestDilateErode(t *testing.T) {
	grid := testGrid(5, 5)
	data := filled(25, 0)
	data[12] = 1
	data[0] = nan
	img := testImage(t, grid, "m", data...)

	grown, err := Dilate(img, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	g := bandOf(t, grown, "m")
	assert.Equal(t, 0.0, g[0], "masked pixels count as zero")
	var ones int
	for _, v := range g {
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 9, ones)

	shrunk, err := Erode(grown, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	s := bandOf(t, shrunk, "m")
	ones = 0
	for _, v := range s {
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones)
	assert.Equal(t, 1.0, s[12])
}

func TestErodeIgnoresOutsideImage(t *testing.T) {
	img := testImage(t, testGrid(3, 3), "m", filled(9, 1)...)
	out, err := Erode(img, SquareKernel(1, UnitsPixels, false))
	require.NoError(t, err)
	assert.Equal(t, filled(9, 1), bandOf(t, out, "m"))
}

func TestReduceResolution(t *testing.T) {
	grid := testGrid(4, 4)
	values := make([]float64, 16)
	for i := range values {
		values[i] = float64(i + 1)
	}
	img := testImage(t, grid, "v", values...)

	out, err := img.ReduceResolution(2, ReducerMean)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Grid().Width)
	assert.Equal(t, 60.0, out.Grid().PixelWidth)
	assert.Equal(t, []float64{3.5, 5.5, 11.5, 13.5}, bandOf(t, out, "v"))

	odd := testImage(t, testGrid(3, 1), "v", 1, nan, 4)
	out, err = odd.ReduceResolution(2, ReducerMax)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, bandOf(t, out, "v"))

	same, err := img.ReduceResolution(1, ReducerMean)
	require.NoError(t, err)
	assert.Same(t, img, same)

	_, err = img.ReduceResolution(0, ReducerMean)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
