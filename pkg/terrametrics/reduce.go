package terrametrics

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// DefaultMaxPixels is the pixel cap used when options leave MaxPixels unset.
const DefaultMaxPixels = 1e13

// RegionOptions selects the pixels a region reduction visits.
type RegionOptions struct {
	// Geometry in grid coordinates; nil covers the whole image.
	Geometry orb.Geometry
	// Scale is the sampling distance in meters; zero means native resolution.
	Scale float64
	// MaxPixels caps the number of candidate pixels; zero means DefaultMaxPixels.
	MaxPixels float64
}

// Dictionary maps band names to reduced values. A nil value means the band
// had no valid pixels in the region.
type Dictionary map[string]*float64

// Get returns the value of a band and whether it is defined.
func (d Dictionary) Get(band string) (float64, bool) {
	v, ok := d[band]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// ToImage broadcasts the dictionary to a constant image with the given band
// order. Undefined values become fully masked bands.
func (d Dictionary) ToImage(grid Grid, bandNames ...string) (*Image, error) {
	values := make([]float64, len(bandNames))
	for i, name := range bandNames {
		v, ok := d[name]
		if !ok {
			return nil, fmt.Errorf("%w: band %q not in reduction result", ErrInvalidArgument, name)
		}
		if v == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *v
		}
	}
	return Constant(grid, bandNames, values)
}

func (d Dictionary) clone() Dictionary {
	out := make(Dictionary, len(d))
	for k, v := range d {
		if v != nil {
			c := *v
			out[k] = &c
		} else {
			out[k] = nil
		}
	}
	return out
}

const reductionCacheSize = 256

var reductionCache, _ = lru.New[uint64, Dictionary](reductionCacheSize)

// ReduceRegion aggregates every band of img over the region.
func ReduceRegion(img *Image, reducer Reducer, opts RegionOptions) (Dictionary, error) {
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	stride := 1
	if opts.Scale > 0 {
		stride = max(1, int(math.Round(opts.Scale/img.grid.NominalScale())))
	}

	idx, err := regionPixels(img.grid, opts.Geometry, stride)
	if err != nil {
		return nil, err
	}
	if float64(len(idx)) > maxPixels {
		return nil, fmt.Errorf("%w: region covers %d pixels, cap is %g", ErrTooManyPixels, len(idx), maxPixels)
	}

	key := reductionKey(img, reducer, opts.Geometry, stride)
	if cached, ok := reductionCache.Get(key); ok {
		return cached.clone(), nil
	}

	out := make(Dictionary, len(img.bands))
	values := make([]float64, 0, len(idx))
	for _, b := range img.bands {
		values = values[:0]
		for _, i := range idx {
			if v := b.Data[i]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		v, ok := reduceValues(reducer, values)
		if ok {
			out[b.Name] = &v
		} else {
			out[b.Name] = nil
		}
	}

	logger().Debug().
		Str("reducer", reducer.String()).
		Int("pixels", len(idx)).
		Int("stride", stride).
		Strs("bands", img.BandNames()).
		Msg("reduce region")

	reductionCache.Add(key, out.clone())
	return out, nil
}

// ReduceImage reduces img over the region and broadcasts the result back to
// a constant image with img's band names.
func ReduceImage(img *Image, reducer Reducer, opts RegionOptions) (*Image, error) {
	d, err := ReduceRegion(img, reducer, opts)
	if err != nil {
		return nil, err
	}
	return d.ToImage(img.grid, img.BandNames()...)
}

// reduceValues aggregates valid values. ok is false when there is nothing
// to aggregate.
func reduceValues(reducer Reducer, values []float64) (float64, bool) {
	if reducer == ReducerCount {
		return float64(len(values)), true
	}
	if len(values) == 0 {
		return 0, false
	}
	data := stats.Float64Data(values)
	var (
		v   float64
		err error
	)
	switch reducer {
	case ReducerMean:
		v, err = stats.Mean(data)
	case ReducerStdDev:
		v, err = stats.StandardDeviationPopulation(data)
	case ReducerMin:
		v, err = stats.Min(data)
	case ReducerMax:
		v, err = stats.Max(data)
	case ReducerMedian:
		v, err = stats.Median(data)
	case ReducerSum:
		v, err = stats.Sum(data)
	case ReducerMode:
		v = modeOf(values)
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

// modeOf returns the most frequent value; ties resolve to the smallest.
func modeOf(values []float64) float64 {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

func reductionKey(img *Image, reducer Reducer, g orb.Geometry, stride int) uint64 {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "%x|%s|%d|", img.fingerprint(), reducer, stride)
	if g != nil {
		_, _ = h.WriteString(wkt.MarshalString(g))
	}
	return h.Sum64()
}
