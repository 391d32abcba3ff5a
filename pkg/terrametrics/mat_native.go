//go:build !purego && !js

package terrametrics

import (
	"image"

	"gocv.io/x/gocv"
)

// Mat wraps gocv.Mat for the native OpenCV backend.
type Mat struct {
	m gocv.Mat
}

func NewMat() Mat                       { return Mat{m: gocv.NewMat()} }
func NewMatWithSize(rows, cols int) Mat { return Mat{m: gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)} }
func (mat Mat) Rows() int               { return mat.m.Rows() }
func (mat Mat) Cols() int               { return mat.m.Cols() }
func (mat *Mat) Close()                 { mat.m.Close() }

func (mat Mat) DataFloat64() []float64 {
	data, _ := mat.m.DataPtrFloat64()
	return data
}

// --- CV operations ---

// filter2DConstant correlates src with kernel, treating pixels outside the
// image as zero.
func filter2DConstant(src Mat, dst *Mat, kernel Mat) {
	gocv.Filter2D(src.m, &dst.m, gocv.MatTypeCV64F, kernel.m, image.Pt(-1, -1), 0, gocv.BorderConstant)
}

func structuringElement(kernel Mat) gocv.Mat {
	rows, cols := kernel.Rows(), kernel.Cols()
	weights := kernel.DataFloat64()
	el := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var v uint8
			if weights[r*cols+c] > 0 {
				v = 1
			}
			el.SetUCharAt(r, c, v)
		}
	}
	return el
}

// morphDilate takes the maximum over the non-zero footprint of kernel.
// Out-of-image pixels never win.
func morphDilate(src Mat, dst *Mat, kernel Mat) {
	el := structuringElement(kernel)
	defer el.Close()
	gocv.MorphologyExWithParams(src.m, &dst.m, gocv.MorphDilate, el, 1, gocv.BorderConstant)
}

// morphErode takes the minimum over the non-zero footprint of kernel.
func morphErode(src Mat, dst *Mat, kernel Mat) {
	el := structuringElement(kernel)
	defer el.Close()
	gocv.MorphologyExWithParams(src.m, &dst.m, gocv.MorphErode, el, 1, gocv.BorderConstant)
}
