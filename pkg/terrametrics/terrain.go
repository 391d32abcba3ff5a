package terrametrics

import (
	"fmt"
	"math"

	"terrametrics/internal/util"
)

// hornGradient returns dz/dx (east) and dz/dy (north) in elevation units
// per meter using Horn's 3x3 weights. Edge pixels reuse the nearest row or
// column and masked neighbors take the center value.
func hornGradient(grid Grid, dem []float64, col, row int) (dzdx, dzdy float64) {
	center := dem[row*grid.Width+col]
	z := func(dc, dr int) float64 {
		c := clampInt(col+dc, 0, grid.Width-1)
		r := clampInt(row+dr, 0, grid.Height-1)
		v := dem[r*grid.Width+c]
		if math.IsNaN(v) {
			return center
		}
		return v
	}
	dx, dy := grid.RowPixelSizeMeters(row)

	east := z(1, -1) + 2*z(1, 0) + z(1, 1)
	west := z(-1, -1) + 2*z(-1, 0) + z(-1, 1)
	dzdx = (east - west) / (8 * dx)

	// Row index grows southward on north-up grids.
	north := z(-1, -1) + 2*z(0, -1) + z(1, -1)
	south := z(-1, 1) + 2*z(0, 1) + z(1, 1)
	dzdy = (north - south) / (8 * dy)
	if grid.PixelHeight > 0 {
		dzdy = -dzdy
	}
	return dzdx, dzdy
}

func terrainBand(dem *Image, fn func(dzdx, dzdy float64) float64) ([]float64, error) {
	if dem.NumBands() != 1 {
		return nil, fmt.Errorf("%w: terrain needs a single elevation band, got %v", ErrBandMismatch, dem.BandNames())
	}
	grid := dem.grid
	data := dem.bands[0].Data
	out := make([]float64, grid.NumPixels())
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			p := row*grid.Width + col
			if math.IsNaN(data[p]) {
				out[p] = math.NaN()
				continue
			}
			out[p] = fn(hornGradient(grid, data, col, row))
		}
	}
	return out, nil
}

// Slope returns the terrain slope in degrees in a band named "slope".
func Slope(dem *Image) (*Image, error) {
	data, err := terrainBand(dem, func(dzdx, dzdy float64) float64 {
		return util.Rad2Deg(math.Atan(math.Hypot(dzdx, dzdy)))
	})
	if err != nil {
		return nil, err
	}
	return dem.withBands([]Band{{Name: "slope", Data: data}}), nil
}

// Aspect returns the downslope direction in degrees clockwise from north,
// in [0, 360), in a band named "aspect". Flat pixels face north.
func Aspect(dem *Image) (*Image, error) {
	data, err := terrainBand(dem, func(dzdx, dzdy float64) float64 {
		if dzdx == 0 && dzdy == 0 {
			return 0
		}
		a := util.Rad2Deg(math.Atan2(-dzdx, -dzdy))
		if a < 0 {
			a += 360
		}
		return a
	})
	if err != nil {
		return nil, err
	}
	return dem.withBands([]Band{{Name: "aspect", Data: data}}), nil
}

// PixelLonLat returns an image with "longitude" and "latitude" bands holding
// pixel center coordinates. Only geographic grids are supported.
func PixelLonLat(grid Grid) (*Image, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if !grid.Geographic {
		return nil, fmt.Errorf("%w: pixel longitude/latitude needs a geographic grid", ErrInvalidArgument)
	}
	lon := make([]float64, grid.NumPixels())
	lat := make([]float64, grid.NumPixels())
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			c := grid.PixelCenter(col, row)
			lon[row*grid.Width+col] = c[0]
			lat[row*grid.Width+col] = c[1]
		}
	}
	return NewImage(grid, Band{Name: "longitude", Data: lon}, Band{Name: "latitude", Data: lat})
}
