package terrametrics

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Slope position classes.
const (
	ClassRidge = iota + 1
	ClassUpperSlope
	ClassMiddleSlope
	ClassFlat
	ClassLowerSlope
	ClassValley
)

// TPIParams configures the neighborhood the elevation is compared against.
type TPIParams struct {
	Kernel Kernel
}

// NewTPIParams returns a 300 m circular neighborhood.
func NewTPIParams() TPIParams {
	return TPIParams{Kernel: CircleKernel(300, UnitsMeters, true)}
}

// TPI returns elevation minus the neighborhood mean elevation, rounded half
// up, in a band named "tpi".
func TPI(dem *Image, p TPIParams) (*Image, error) {
	if dem.NumBands() != 1 {
		return nil, fmt.Errorf("%w: TPI needs a single elevation band, got %v", ErrBandMismatch, dem.BandNames())
	}
	mean, err := ReduceNeighborhood(dem, ReducerMean, p.Kernel)
	if err != nil {
		return nil, err
	}
	diff, err := dem.Subtract(mean)
	if err != nil {
		return nil, err
	}
	return diff.Map(roundHalfUp).Rename("tpi")
}

// roundHalfUp adds one half and truncates toward zero, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Trunc(v + 0.5)
}

// SlopePositionParams configures SlopePosition. Region, Scale and MaxPixels
// bound the standard deviation reduction of the TPI.
type SlopePositionParams struct {
	Region      orb.Geometry
	Scale       float64
	MaxPixels   float64
	FlatDegrees float64
}

// NewSlopePositionParams returns defaults with a 5 degree flat threshold.
func NewSlopePositionParams() SlopePositionParams {
	return SlopePositionParams{MaxPixels: DefaultMaxPixels, FlatDegrees: 5}
}

// SlopePosition classifies each pixel into ClassRidge..ClassValley from its
// TPI and slope (degrees) against the TPI standard deviation over the region.
// The result has one band, "slope_position".
func SlopePosition(tpi, slope *Image, p SlopePositionParams) (*Image, error) {
	if tpi.NumBands() != 1 || slope.NumBands() != 1 {
		return nil, fmt.Errorf("%w: slope position needs single-band tpi and slope, got %v and %v",
			ErrBandMismatch, tpi.BandNames(), slope.BandNames())
	}
	dict, err := ReduceRegion(tpi, ReducerStdDev, RegionOptions{Geometry: p.Region, Scale: p.Scale, MaxPixels: p.MaxPixels})
	if err != nil {
		return nil, err
	}
	sd, ok := dict.Get(tpi.BandNames()[0])
	if !ok || math.IsNaN(sd) {
		return nil, fmt.Errorf("%w: TPI standard deviation is undefined", ErrEmptyRegion)
	}

	classes, err := tpi.Combine(slope, func(v, s float64) float64 {
		return ClassifySlopePosition(v, s, sd, p.FlatDegrees)
	})
	if err != nil {
		return nil, err
	}
	logger().Debug().Float64("sd", sd).Float64("flat_degrees", p.FlatDegrees).Msg("slope position")
	return classes.Rename("slope_position")
}

// ClassifySlopePosition maps one TPI value v and slope s to a class. Rules
// apply in order: ridge, upper slope, middle slope, flat, lower slope,
// valley. A value exactly on +-sd/2 on steep ground belongs to the adjacent
// upper or lower slope class. NaN inputs yield NaN.
func ClassifySlopePosition(v, s, sd, flat float64) float64 {
	if math.IsNaN(v) || math.IsNaN(s) {
		return math.NaN()
	}
	half := sd * 0.5
	switch {
	case v > sd:
		return ClassRidge
	case (half < v && v <= sd) || (v == half && s > flat):
		return ClassUpperSlope
	case -half < v && v < half && s > flat:
		return ClassMiddleSlope
	case -half <= v && v <= half && s <= flat:
		return ClassFlat
	case (-sd <= v && v < -half) || (v == -half && s > flat):
		return ClassLowerSlope
	default:
		return ClassValley
	}
}
