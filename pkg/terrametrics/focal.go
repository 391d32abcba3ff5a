package terrametrics

import (
	"fmt"
	"math"
)

// ReduceNeighborhood applies reducer over the kernel footprint around every
// pixel. Masked pixels do not contribute; a pixel whose footprint holds no
// valid value is masked. Mean and Sum weight by the kernel.
func ReduceNeighborhood(img *Image, reducer Reducer, kernel Kernel) (*Image, error) {
	km, err := kernel.toMat(img.grid)
	if err != nil {
		return nil, err
	}
	defer km.Close()

	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		var data []float64
		switch reducer {
		case ReducerMean, ReducerSum:
			data = weightedFocal(img.grid, b.Data, km, reducer == ReducerMean)
		case ReducerMin, ReducerMax, ReducerMedian, ReducerMode, ReducerStdDev, ReducerCount:
			data = windowedFocal(img.grid, b.Data, km, reducer)
		default:
			return nil, fmt.Errorf("%w: neighborhood reducer %v", ErrInvalidArgument, reducer)
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands), nil
}

// weightedFocal computes sum(w*v)/sum(w) over valid pixels by normalized
// convolution on the Mat backend.
func weightedFocal(grid Grid, data []float64, km Mat, normalize bool) []float64 {
	n := len(data)
	values := make([]float64, n)
	valid := make([]float64, n)
	for p, v := range data {
		if !math.IsNaN(v) {
			values[p] = v
			valid[p] = 1
		}
	}

	vm := matFromData(grid.Height, grid.Width, values)
	defer vm.Close()
	cm := matFromData(grid.Height, grid.Width, valid)
	defer cm.Close()
	num := NewMat()
	defer num.Close()
	den := NewMat()
	defer den.Close()

	filter2DConstant(vm, &num, km)
	filter2DConstant(cm, &den, km)

	nd, dd := num.DataFloat64(), den.DataFloat64()
	out := make([]float64, n)
	for p := range out {
		switch {
		case dd[p] <= 1e-12:
			out[p] = math.NaN()
		case normalize:
			out[p] = nd[p] / dd[p]
		default:
			out[p] = nd[p]
		}
	}
	return out
}

func windowedFocal(grid Grid, data []float64, km Mat, reducer Reducer) []float64 {
	rows, cols := grid.Height, grid.Width
	kRows, kCols := km.Rows(), km.Cols()
	weights := km.DataFloat64()
	type off struct{ dr, dc int }
	var offsets []off
	for r := 0; r < kRows; r++ {
		for c := 0; c < kCols; c++ {
			if weights[r*kCols+c] > 0 {
				offsets = append(offsets, off{r - kRows/2, c - kCols/2})
			}
		}
	}

	out := make([]float64, rows*cols)
	window := make([]float64, 0, len(offsets))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			window = window[:0]
			for _, o := range offsets {
				rr, cc := r+o.dr, c+o.dc
				if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
					continue
				}
				if v := data[rr*cols+cc]; !math.IsNaN(v) {
					window = append(window, v)
				}
			}
			out[r*cols+c] = reduceWindow(reducer, window)
		}
	}
	return out
}

func reduceWindow(reducer Reducer, window []float64) float64 {
	if len(window) == 0 {
		return math.NaN()
	}
	v, ok := reduceValues(reducer, window)
	if !ok {
		return math.NaN()
	}
	return v
}

// Dilate grows the non-zero area of a binary image by the kernel footprint.
// Masked pixels count as zero; the result is 0/1 and unmasked.
func Dilate(img *Image, kernel Kernel) (*Image, error) {
	return morph(img, kernel, morphDilate)
}

// Erode shrinks the non-zero area of a binary image by the kernel footprint.
func Erode(img *Image, kernel Kernel) (*Image, error) {
	return morph(img, kernel, morphErode)
}

func morph(img *Image, kernel Kernel, op func(src Mat, dst *Mat, kernel Mat)) (*Image, error) {
	km, err := kernel.toMat(img.grid)
	if err != nil {
		return nil, err
	}
	defer km.Close()

	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		binary := make([]float64, len(b.Data))
		for p, v := range b.Data {
			binary[p] = boolValue(!math.IsNaN(v) && v != 0)
		}
		src := matFromData(img.grid.Height, img.grid.Width, binary)
		dst := NewMat()
		op(src, &dst, km)
		bands[i] = Band{Name: b.Name, Data: matToSlice(dst)}
		src.Close()
		dst.Close()
	}
	return img.withBands(bands), nil
}

// ReduceResolution aggregates factor x factor blocks of pixels with reducer
// onto the coarser grid returned by Grid.Resample.
func (img *Image) ReduceResolution(factor int, reducer Reducer) (*Image, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: resolution factor %d must be >= 1", ErrInvalidArgument, factor)
	}
	if factor == 1 {
		return img, nil
	}
	out := img.grid.Resample(factor)
	bands := make([]Band, len(img.bands))
	block := make([]float64, 0, factor*factor)
	for i, b := range img.bands {
		data := make([]float64, out.NumPixels())
		for r := 0; r < out.Height; r++ {
			for c := 0; c < out.Width; c++ {
				block = block[:0]
				for rr := r * factor; rr < min((r+1)*factor, img.grid.Height); rr++ {
					for cc := c * factor; cc < min((c+1)*factor, img.grid.Width); cc++ {
						if v := b.Data[rr*img.grid.Width+cc]; !math.IsNaN(v) {
							block = append(block, v)
						}
					}
				}
				data[r*out.Width+c] = reduceWindow(reducer, block)
			}
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return &Image{grid: out, bands: bands, props: img.props}, nil
}
