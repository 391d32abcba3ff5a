package terrametrics

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizeSinglePixel(t *testing.T) {
	data := filled(9, 0)
	data[4] = 1
	img := testImage(t, testGrid(3, 3), "m", data...)

	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 1)

	ring := mp[0][0]
	assert.Len(t, ring, 5)
	assert.True(t, ring.Closed())
	assert.Equal(t, orb.CCW, ring.Orientation())
	assert.InDelta(t, 900, planar.Area(mp), 1e-9)
	assert.Equal(t, orb.Bound{Min: orb.Point{30, 30}, Max: orb.Point{60, 60}}, ring.Bound())
}

func TestVectorizeHole(t *testing.T) {
	data := filled(25, 0)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			data[r*5+c] = 1
		}
	}
	data[12] = nan
	img := testImage(t, testGrid(5, 5), "m", data...)

	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 2)
	assert.Len(t, mp[0][0], 5, "collinear vertices are dropped")
	assert.Equal(t, orb.CW, mp[0][1].Orientation())
	assert.InDelta(t, 8*900, planar.Area(mp), 1e-9)
}

func TestVectorizeIslandInHole(t *testing.T) {
	data := filled(49, 1)
	for r := 1; r <= 5; r++ {
		for c := 1; c <= 5; c++ {
			data[r*7+c] = 0
		}
	}
	data[3*7+3] = 1
	img := testImage(t, testGrid(7, 7), "m", data...)

	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 2)

	var withHole, island int
	for _, p := range mp {
		switch len(p) {
		case 2:
			withHole++
		case 1:
			island++
		}
	}
	assert.Equal(t, 1, withHole)
	assert.Equal(t, 1, island)
	assert.InDelta(t, (49-25+1)*900, planar.Area(mp), 1e-9)
}

func TestVectorizeDiagonalPixelsStaySeparate(t *testing.T) {
	img := testImage(t, testGrid(2, 2), "m", 1, 0, 0, 1)
	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 2)
	for _, p := range mp {
		assert.InDelta(t, 900, planar.Area(p), 1e-9)
	}
}

func TestVectorizeEmpty(t *testing.T) {
	img := testImage(t, testGrid(2, 2), "m", 0, nan, 0, 0)
	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	assert.Empty(t, mp)
}

func TestVectorizeOptions(t *testing.T) {
	data := filled(16, 0)
	data[0] = 1
	data[15] = 1
	img := testImage(t, testGrid(4, 4), "m", data...)

	_, err := Vectorize(img, VectorizeOptions{MaxPixels: 4})
	assert.ErrorIs(t, err, ErrTooManyPixels)

	coarse, err := Vectorize(img, VectorizeOptions{Scale: 60})
	require.NoError(t, err)
	require.Len(t, coarse, 2)
	assert.InDelta(t, 2*3600, planar.Area(coarse), 1e-9)

	topLeft := orb.Bound{Min: orb.Point{0, 60}, Max: orb.Point{60, 120}}
	clipped, err := Vectorize(img, VectorizeOptions{Geometry: topLeft})
	require.NoError(t, err)
	require.Len(t, clipped, 1)
	assert.InDelta(t, 900, planar.Area(clipped), 1e-9)
}

func TestSimplify(t *testing.T) {
	img := testImage(t, testGrid(2, 2), "m", 1, 0, 1, 1)
	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 1)
	assert.Len(t, mp[0][0], 7)

	assert.Equal(t, mp, Simplify(mp, 0))

	kept := Simplify(mp, 1)
	assert.Len(t, kept[0][0], 7, "corners deviate by more than the tolerance")
	assert.Len(t, mp[0][0], 7, "input is not modified")
}

func TestSimplifyAtPixelTolerance(t *testing.T) {
	data := filled(49, 0)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			data[r*7+c] = 1
		}
	}
	data[2*7+2] = 0
	data[5*7+5] = 1
	img := testImage(t, testGrid(7, 7), "m", data...)

	mp, err := Vectorize(img, NewVectorizeOptions())
	require.NoError(t, err)
	require.Len(t, mp, 2)

	for _, tol := range []float64{30, 100} {
		simplified := Simplify(mp, tol)
		require.Len(t, simplified, len(mp), "tolerance %g", tol)
		for _, p := range simplified {
			for _, r := range p {
				assert.GreaterOrEqual(t, len(r), 4, "tolerance %g: ring %v", tol, r)
				assert.True(t, r.Closed())
				assert.NotZero(t, planar.Area(r))
			}
		}
	}

	simplified := Simplify(mp, 30)
	var areas []float64
	for _, p := range simplified {
		assert.Len(t, p, 1, "single pixel hole collapses and is dropped")
		areas = append(areas, planar.Area(p))
	}
	assert.ElementsMatch(t, []float64{900, 9 * 900}, areas)

	dot := filled(9, 0)
	dot[4] = 1
	single, err := Vectorize(testImage(t, testGrid(3, 3), "m", dot...), NewVectorizeOptions())
	require.NoError(t, err)
	kept := Simplify(single, 100)
	require.Len(t, kept, 1)
	assert.InDelta(t, 900, planar.Area(kept), 1e-9)
}
