package terrametrics

import (
	"fmt"
	"math"

	"terrametrics/internal/util"
)

// Hemisphere choices for HeatLoadParams.
const (
	HemisphereAuto  = "auto"
	HemisphereNorth = "north"
	HemisphereSouth = "south"
)

// HeatLoadParams configures HeatLoadIndex.
type HeatLoadParams struct {
	// Hemisphere picks the aspect folding axis: "north" folds around 225
	// degrees, "south" around 315, "auto" by the sign of each pixel latitude.
	Hemisphere string
	// ForceLatitude replaces per-pixel latitudes, in degrees.
	ForceLatitude util.Optional[float64]
}

func NewHeatLoadParams() HeatLoadParams {
	return HeatLoadParams{Hemisphere: HemisphereAuto}
}

// FoldAspect folds an aspect in degrees so that the coolest exposure maps to
// 0 and the warmest (SW in the north, NW in the south) to 180.
func FoldAspect(aspectDeg float64, southern bool) float64 {
	axis := 225.0
	if southern {
		axis = 315
	}
	return math.Abs(180 - math.Abs(aspectDeg-axis))
}

// HeatLoad evaluates the McCune and Keon heat load index for one pixel.
// Slope, aspect and latitude are degrees; aspect is folded here.
func HeatLoad(slopeDeg, aspectDeg, latDeg float64, southern bool) float64 {
	s := util.Deg2Rad(slopeDeg)
	a := util.Deg2Rad(FoldAspect(aspectDeg, southern))
	l := util.Deg2Rad(latDeg)
	return math.Exp(1.582*math.Cos(s)*math.Cos(l) -
		1.5*math.Sin(s)*math.Sin(l)*math.Cos(a) -
		0.262*math.Sin(s)*math.Sin(l) +
		0.607*math.Sin(s)*math.Sin(a) -
		1.467)
}

// HeatLoadIndex computes the heat load index from slope and aspect images in
// degrees into a band named "hli". Latitudes come from the grid unless forced,
// so an unforced call needs a geographic grid.
func HeatLoadIndex(slope, aspect *Image, p HeatLoadParams) (*Image, error) {
	hemisphere, err := util.MatchArg("hemisphere", p.Hemisphere, HemisphereAuto, HemisphereNorth, HemisphereSouth)
	if err != nil {
		return nil, err
	}
	if slope.NumBands() != 1 || aspect.NumBands() != 1 {
		return nil, fmt.Errorf("%w: heat load needs single-band slope and aspect, got %v and %v",
			ErrBandMismatch, slope.BandNames(), aspect.BandNames())
	}
	if slope.grid != aspect.grid {
		return nil, fmt.Errorf("%w: %v vs %v", ErrGridMismatch, slope.grid, aspect.grid)
	}

	var lat []float64
	if forced, ok := p.ForceLatitude.Get(); ok {
		lat = make([]float64, slope.grid.NumPixels())
		for i := range lat {
			lat[i] = forced
		}
	} else {
		lonlat, err := PixelLonLat(slope.grid)
		if err != nil {
			return nil, err
		}
		if lat, err = lonlat.Band("latitude"); err != nil {
			return nil, err
		}
	}

	s, a := slope.bands[0].Data, aspect.bands[0].Data
	out := make([]float64, len(s))
	for i := range out {
		if math.IsNaN(s[i]) || math.IsNaN(a[i]) {
			out[i] = math.NaN()
			continue
		}
		southern := hemisphere == HemisphereSouth || (hemisphere == HemisphereAuto && lat[i] < 0)
		out[i] = HeatLoad(s[i], a[i], lat[i], southern)
	}
	return slope.withBands([]Band{{Name: "hli", Data: out}}), nil
}
