package terrametrics

import (
	"fmt"
	"math"

	"terrametrics/internal/util"
)

// DirectionalDistanceTransform returns, for every pixel, the distance in
// pixels to the nearest source pixel (non-zero, unmasked) found by searching
// along angleDeg, measured counter-clockwise from east in map coordinates.
// Source pixels get 0; pixels with no source within maxDistance are masked.
// Every band is transformed independently.
func DirectionalDistanceTransform(img *Image, angleDeg float64, maxDistance int) (*Image, error) {
	if maxDistance < 1 {
		return nil, fmt.Errorf("%w: maxDistance %d must be >= 1", ErrInvalidArgument, maxDistance)
	}
	if math.IsNaN(angleDeg) || math.IsInf(angleDeg, 0) {
		return nil, fmt.Errorf("%w: angle must be finite", ErrInvalidArgument)
	}
	grid := img.grid
	theta := util.Deg2Rad(angleDeg)
	stepCol := math.Cos(theta)
	stepRow := -math.Sin(theta)
	if grid.PixelHeight > 0 {
		stepRow = -stepRow
	}

	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		source := func(col, row int) bool {
			v := b.Data[row*grid.Width+col]
			return !math.IsNaN(v) && v != 0
		}
		out := make([]float64, grid.NumPixels())
		for row := 0; row < grid.Height; row++ {
			for col := 0; col < grid.Width; col++ {
				out[row*grid.Width+col] = searchSource(grid, source, col, row, stepCol, stepRow, maxDistance)
			}
		}
		bands[i] = Band{Name: b.Name, Data: out}
	}
	return img.withBands(bands), nil
}

func searchSource(grid Grid, source func(col, row int) bool, col, row int, stepCol, stepRow float64, maxDistance int) float64 {
	if source(col, row) {
		return 0
	}
	for k := 1; k <= maxDistance; k++ {
		c := col + int(math.Round(float64(k)*stepCol))
		r := row + int(math.Round(float64(k)*stepRow))
		if c < 0 || c >= grid.Width || r < 0 || r >= grid.Height {
			break
		}
		if source(c, r) {
			return float64(k)
		}
	}
	return math.NaN()
}
