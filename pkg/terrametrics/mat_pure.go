//go:build purego || js

package terrametrics

// Mat is a pure Go 2D float64 matrix.
type Mat struct {
	data []float64
	rows int
	cols int
}

func NewMat() Mat { return Mat{} }

func NewMatWithSize(rows, cols int) Mat {
	return Mat{
		data: make([]float64, rows*cols),
		rows: rows,
		cols: cols,
	}
}

func (m Mat) Rows() int { return m.rows }
func (m Mat) Cols() int { return m.cols }

func (m *Mat) Close() {
	m.data = nil
	m.rows = 0
	m.cols = 0
}

func (m Mat) DataFloat64() []float64 {
	return m.data
}

func ensureSize(dst *Mat, rows, cols int) {
	if dst.rows != rows || dst.cols != cols || dst.data == nil {
		*dst = NewMatWithSize(rows, cols)
	}
}

// --- Pure Go CV operations ---

func filter2DConstant(src Mat, dst *Mat, kernel Mat) {
	rows, cols := src.rows, src.cols
	kRows, kCols := kernel.rows, kernel.cols
	kHalfY, kHalfX := kRows/2, kCols/2
	sd := src.data
	kd := kernel.data

	result := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for kr := 0; kr < kRows; kr++ {
				rr := r + kr - kHalfY
				if rr < 0 || rr >= rows {
					continue
				}
				rowOff := rr * cols
				kOff := kr * kCols
				for kc := 0; kc < kCols; kc++ {
					w := kd[kOff+kc]
					if w == 0 {
						continue
					}
					cc := c + kc - kHalfX
					if cc < 0 || cc >= cols {
						continue
					}
					sum += sd[rowOff+cc] * w
				}
			}
			result[r*cols+c] = sum
		}
	}

	ensureSize(dst, rows, cols)
	copy(dst.data, result)
}

type kernelOffset struct{ dr, dc int }

func footprint(kernel Mat) []kernelOffset {
	halfY, halfX := kernel.rows/2, kernel.cols/2
	var offsets []kernelOffset
	for r := 0; r < kernel.rows; r++ {
		for c := 0; c < kernel.cols; c++ {
			if kernel.data[r*kernel.cols+c] > 0 {
				offsets = append(offsets, kernelOffset{r - halfY, c - halfX})
			}
		}
	}
	return offsets
}

func morphology(src Mat, dst *Mat, kernel Mat, better func(a, b float64) bool) {
	rows, cols := src.rows, src.cols
	offsets := footprint(kernel)
	sd := src.data
	result := make([]float64, rows*cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			best := sd[r*cols+c]
			for _, o := range offsets {
				rr, cc := r+o.dr, c+o.dc
				if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
					continue
				}
				if v := sd[rr*cols+cc]; better(v, best) {
					best = v
				}
			}
			result[r*cols+c] = best
		}
	}

	ensureSize(dst, rows, cols)
	copy(dst.data, result)
}

func morphDilate(src Mat, dst *Mat, kernel Mat) {
	morphology(src, dst, kernel, func(a, b float64) bool { return a > b })
}

func morphErode(src Mat, dst *Mat, kernel Mat) {
	morphology(src, dst, kernel, func(a, b float64) bool { return a < b })
}
