//go:build purego || js

package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/tiff"
)

// loadPixels decodes a TIFF. Gray rasters keep their integer values; color
// rasters are reduced to 16-bit luminance.
func loadPixels(path string) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			switch src := img.(type) {
			case *image.Gray:
				pixels[y*w+x] = float64(src.GrayAt(px, py).Y)
			case *image.Gray16:
				pixels[y*w+x] = float64(src.Gray16At(px, py).Y)
			default:
				pixels[y*w+x] = float64(color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y)
			}
		}
	}

	return pixels, w, h, nil
}
