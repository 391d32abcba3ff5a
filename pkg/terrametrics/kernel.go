package terrametrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelUnits says how a kernel radius is measured.
type KernelUnits int

const (
	UnitsPixels KernelUnits = iota
	UnitsMeters
)

// KernelShape selects the kernel footprint.
type KernelShape int

const (
	ShapeCircle KernelShape = iota
	ShapeSquare
)

// Kernel describes a neighborhood. It is resolved to pixel weights against
// the grid it is applied to.
type Kernel struct {
	Shape     KernelShape
	Radius    float64
	Units     KernelUnits
	Normalize bool
}

// CircleKernel returns a circular kernel of the given radius.
func CircleKernel(radius float64, units KernelUnits, normalize bool) Kernel {
	return Kernel{Shape: ShapeCircle, Radius: radius, Units: units, Normalize: normalize}
}

// SquareKernel returns a square kernel with half-width radius.
func SquareKernel(radius float64, units KernelUnits, normalize bool) Kernel {
	return Kernel{Shape: ShapeSquare, Radius: radius, Units: units, Normalize: normalize}
}

// Weights materializes the kernel for grid as an odd-sized square matrix.
func (k Kernel) Weights(grid Grid) (*mat.Dense, error) {
	if k.Radius <= 0 || math.IsNaN(k.Radius) || math.IsInf(k.Radius, 0) {
		return nil, fmt.Errorf("%w: kernel radius %v must be positive", ErrInvalidArgument, k.Radius)
	}
	radius := k.Radius
	if k.Units == UnitsMeters {
		radius = k.Radius / grid.NominalScale()
	}
	half := int(math.Ceil(radius - 1e-9))
	if half < 1 {
		half = 1
	}
	size := 2*half + 1

	w := mat.NewDense(size, size, nil)
	var total float64
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			dy, dx := float64(r-half), float64(c-half)
			in := true
			if k.Shape == ShapeCircle {
				in = dx*dx+dy*dy <= radius*radius+1e-9
			}
			if in {
				w.Set(r, c, 1)
				total++
			}
		}
	}
	if k.Normalize && total > 0 {
		w.Scale(1/total, w)
	}
	return w, nil
}

func (k Kernel) toMat(grid Grid) (Mat, error) {
	w, err := k.Weights(grid)
	if err != nil {
		return Mat{}, err
	}
	rows, cols := w.Dims()
	return matFromData(rows, cols, w.RawMatrix().Data), nil
}
