package terrametrics

import (
	"fmt"
	"slices"
)

// DarkObjectSubtraction subtracts, band-wise, the mean of img over the dark
// reference region.
func DarkObjectSubtraction(img *Image, dark RegionOptions) (*Image, error) {
	mean, err := ReduceImage(img, ReducerMean, dark)
	if err != nil {
		return nil, fmt.Errorf("dark object mean: %w", err)
	}
	return img.Subtract(mean)
}

// LinearHistogramMatch rescales target so its per-band mean and standard
// deviation over the region match those of reference. Both images need the
// same bands but may lie on different grids. A band with zero spread in target becomes masked.
func LinearHistogramMatch(target, reference *Image, region RegionOptions) (*Image, error) {
	if !slices.Equal(target.BandNames(), reference.BandNames()) {
		return nil, fmt.Errorf("%w: target %v vs reference %v", ErrBandMismatch, target.BandNames(), reference.BandNames())
	}
	names := target.BandNames()
	stat := func(img *Image, r Reducer) (*Image, error) {
		d, err := ReduceRegion(img, r, region)
		if err != nil {
			return nil, err
		}
		return d.ToImage(target.grid, names...)
	}
	targetMean, err := stat(target, ReducerMean)
	if err != nil {
		return nil, err
	}
	targetSD, err := stat(target, ReducerStdDev)
	if err != nil {
		return nil, err
	}
	refMean, err := stat(reference, ReducerMean)
	if err != nil {
		return nil, err
	}
	refSD, err := stat(reference, ReducerStdDev)
	if err != nil {
		return nil, err
	}

	gain, err := refSD.Divide(targetSD)
	if err != nil {
		return nil, err
	}
	centered, err := target.Subtract(targetMean)
	if err != nil {
		return nil, err
	}
	scaled, err := centered.Multiply(gain)
	if err != nil {
		return nil, err
	}
	return scaled.Add(refMean)
}
