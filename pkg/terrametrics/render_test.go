package terrametrics

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderClasses(t *testing.T) {
	img := testImage(t, testGrid(2, 2), "slope_position", ClassRidge, ClassValley, nan, ClassFlat)
	opts := NewRenderOptions()
	opts.Palette = SlopePositionPalette()

	rgba, err := Render(img, opts)
	require.NoError(t, err)
	assert.Equal(t, 800, rgba.Bounds().Dx())
	assert.Equal(t, 800+legendHeight, rgba.Bounds().Dy())

	palette := SlopePositionPalette()
	assert.Equal(t, palette.Classes[ClassRidge].Color, rgba.RGBAAt(10, 10))
	assert.Equal(t, palette.Classes[ClassValley].Color, rgba.RGBAAt(790, 10))
	assert.Equal(t, maskedColor, rgba.RGBAAt(10, 790))
	assert.Len(t, palette.Legend(), 6)
}

func TestRenderRampAndOutline(t *testing.T) {
	grid := testGrid(4, 4)
	img := testImage(t, grid, "nbr", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15)
	ramp := NewRampPalette(img)
	assert.Equal(t, RampPalette{Min: 0, Max: 15}, ramp)

	opts := RenderOptions{
		Width:   400,
		Outline: orb.MultiPolygon{{{{0, 120}, {60, 120}, {60, 60}, {0, 60}, {0, 120}}}},
	}
	rgba, err := Render(img, opts)
	require.NoError(t, err)
	assert.Equal(t, ramp.Color(0), rgba.RGBAAt(50, 50))
	assert.Equal(t, uint8(255), rgba.RGBAAt(200, 150).R, "outline is drawn in white")
}

func TestEncodings(t *testing.T) {
	img := testImage(t, testGrid(2, 1), "refugia", 0, 1)
	opts := NewRenderOptions()
	opts.Palette = BinaryPalette("refugia")

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img, opts))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())

	jpg, err := RenderJPEGBytes(img, opts)
	require.NoError(t, err)
	require.Greater(t, len(jpg), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, jpg[:2])

	_, err = Render(nil, opts)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
