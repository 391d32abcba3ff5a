package terrametrics

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{2.5, 3},
		{2.4, 2},
		{-2.5, -2},
		{0, 0},
		{7.49, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundHalfUp(tt.in), "roundHalfUp(%v)", tt.in)
	}
	for d := 0.0; d < 20; d += 0.25 {
		assert.Equal(t, math.Floor(d+0.5), roundHalfUp(d))
	}
}

func TestTPI(t *testing.T) {
	data := filled(25, 0)
	data[12] = 10
	dem := testImage(t, testGrid(5, 5), "elevation", data...)

	tpi, err := TPI(dem, TPIParams{Kernel: CircleKernel(1, UnitsPixels, false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"tpi"}, tpi.BandNames())
	assert.Equal(t, 8.0, tpi.At(0, 2, 2))
	// -2 + 0.5 truncates to -1.
	assert.Equal(t, -1.0, tpi.At(0, 2, 1))
	assert.Equal(t, 0.0, tpi.At(0, 0, 0))

	assert.Equal(t, CircleKernel(300, UnitsMeters, true), NewTPIParams().Kernel)
}

func TestClassifySlopePosition(t *testing.T) {
	const sd, flat = 10.0, 5.0
	tests := []struct {
		v, s float64
		want float64
	}{
		{11, 0, ClassRidge},
		{10, 0, ClassUpperSlope},
		{7, 30, ClassUpperSlope},
		{5, 10, ClassUpperSlope},
		{5, 5, ClassFlat},
		{0, 10, ClassMiddleSlope},
		{0, 2, ClassFlat},
		{-5, 2, ClassFlat},
		{-5, 10, ClassLowerSlope},
		{-7, 0, ClassLowerSlope},
		{-10, 0, ClassLowerSlope},
		{-10.5, 0, ClassValley},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySlopePosition(tt.v, tt.s, sd, flat), "v=%v s=%v", tt.v, tt.s)
	}
	assert.True(t, math.IsNaN(ClassifySlopePosition(nan, 1, sd, flat)))
	assert.True(t, math.IsNaN(ClassifySlopePosition(1, nan, sd, flat)))
}

func TestClassifySlopePositionIsTotal(t *testing.T) {
	for _, sd := range []float64{0.5, 1, 13.7} {
		for v := -3 * sd; v <= 3*sd; v += sd / 8 {
			for _, s := range []float64{0, 4.9, 5, 5.1, 45} {
				c := ClassifySlopePosition(v, s, sd, 5)
				assert.GreaterOrEqual(t, c, 1.0)
				assert.LessOrEqual(t, c, 6.0)
				assert.Equal(t, c, math.Trunc(c))
			}
		}
	}
}

func TestSlopePosition(t *testing.T) {
	grid := testGrid(5, 1)
	tpi := testImage(t, grid, "tpi", -20, -5, 0, 5, 20)
	slope := testImage(t, grid, "slope", 10, 10, 10, 2, 10)

	out, err := SlopePosition(tpi, slope, NewSlopePositionParams())
	require.NoError(t, err)
	assert.Equal(t, []string{"slope_position"}, out.BandNames())
	assert.Equal(t, []float64{ClassValley, ClassMiddleSlope, ClassMiddleSlope, ClassFlat, ClassRidge}, bandOf(t, out, "slope_position"))
}

func TestSlopePositionEmptyRegion(t *testing.T) {
	grid := testGrid(2, 1)
	tpi := testImage(t, grid, "tpi", 1, 2)
	slope := testImage(t, grid, "slope", 1, 2)

	p := NewSlopePositionParams()
	p.Region = orb.Bound{Min: orb.Point{1e6, 1e6}, Max: orb.Point{2e6, 2e6}}
	_, err := SlopePosition(tpi, slope, p)
	assert.ErrorIs(t, err, ErrEmptyRegion)

	masked := testImage(t, grid, "tpi", nan, nan)
	_, err = SlopePosition(masked, slope, NewSlopePositionParams())
	assert.ErrorIs(t, err, ErrEmptyRegion)
}
