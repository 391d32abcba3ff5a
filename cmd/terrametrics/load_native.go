//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"
)

// loadPixels reads a single-channel raster at its stored depth. Float TIFFs
// keep their values; integer rasters are not rescaled.
func loadPixels(path string) ([]float64, int, int, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, 0, 0, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	if ch := src.Channels(); ch != 1 {
		return nil, 0, 0, fmt.Errorf("%s: expected a single-band raster, got %d channels", path, ch)
	}
	w, h := src.Cols(), src.Rows()

	floatMat := gocv.NewMat()
	defer floatMat.Close()
	src.ConvertTo(&floatMat, gocv.MatTypeCV64F)

	data, err := floatMat.DataPtrFloat64()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	pixels := make([]float64, w*h)
	copy(pixels, data)
	return pixels, w, h, nil
}
