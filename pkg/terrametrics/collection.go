package terrametrics

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// ImageCollection is an ordered sequence of images on one grid.
type ImageCollection struct {
	grid   Grid
	images []*Image
}

// NewImageCollection checks that every image shares grid.
func NewImageCollection(grid Grid, images ...*Image) (*ImageCollection, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	for i, img := range images {
		if img.grid != grid {
			return nil, fmt.Errorf("%w: image %d has grid %v, collection has %v", ErrGridMismatch, i, img.grid, grid)
		}
	}
	return &ImageCollection{grid: grid, images: images}, nil
}

func (c *ImageCollection) Grid() Grid       { return c.grid }
func (c *ImageCollection) Len() int         { return len(c.images) }
func (c *ImageCollection) At(i int) *Image  { return c.images[i] }
func (c *ImageCollection) Images() []*Image { return append([]*Image(nil), c.images...) }

// FilterDate keeps images whose start_time lies in [start, end). Images
// without a start_time are dropped.
func (c *ImageCollection) FilterDate(start, end time.Time) *ImageCollection {
	kept := lo.Filter(c.images, func(img *Image, _ int) bool {
		t, ok := img.Time(PropStartTime)
		return ok && !t.Before(start) && t.Before(end)
	})
	return &ImageCollection{grid: c.grid, images: kept}
}

// FilterBounds keeps images holding at least one valid pixel inside g.
func (c *ImageCollection) FilterBounds(g orb.Geometry) (*ImageCollection, error) {
	if g == nil {
		return c, nil
	}
	idx, err := regionPixels(c.grid, g, 1)
	if err != nil {
		return nil, err
	}
	kept := lo.Filter(c.images, func(img *Image, _ int) bool {
		for _, b := range img.bands {
			for _, p := range idx {
				if !math.IsNaN(b.Data[p]) {
					return true
				}
			}
		}
		return false
	})
	return &ImageCollection{grid: c.grid, images: kept}, nil
}

// Map applies fn to every image in order.
func (c *ImageCollection) Map(fn func(*Image) (*Image, error)) (*ImageCollection, error) {
	var err error
	out := lo.Map(c.images, func(img *Image, i int) *Image {
		if err != nil {
			return nil
		}
		var mapped *Image
		if mapped, err = fn(img); err != nil {
			err = fmt.Errorf("mapping image %d: %w", i, err)
		}
		return mapped
	})
	if err != nil {
		return nil, err
	}
	return NewImageCollection(c.grid, out...)
}

// Iterate folds the collection from the first image to the last.
func Iterate[T any](c *ImageCollection, initial T, fn func(acc T, img *Image) (T, error)) (T, error) {
	var err error
	out := lo.Reduce(c.images, func(acc T, img *Image, i int) T {
		if err != nil {
			return acc
		}
		next, ferr := fn(acc, img)
		if ferr != nil {
			err = fmt.Errorf("iterating image %d: %w", i, ferr)
			return acc
		}
		return next
	}, initial)
	return out, err
}

// Reduce aggregates band across images pixel by pixel, skipping masked
// values. An empty collection yields a fully masked image.
func (c *ImageCollection) Reduce(reducer Reducer, band string) (*Image, error) {
	layers := make([][]float64, 0, len(c.images))
	for _, img := range c.images {
		data, err := img.Band(band)
		if err != nil {
			return nil, err
		}
		layers = append(layers, data)
	}
	out := make([]float64, c.grid.NumPixels())
	values := make([]float64, 0, len(layers))
	for p := range out {
		values = values[:0]
		for _, l := range layers {
			if v := l[p]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		out[p] = reduceWindow(reducer, values)
	}
	return NewImage(c.grid, Band{Name: band, Data: out})
}
