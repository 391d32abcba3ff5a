package terrametrics

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// BoundaryBand names the band of fire boundary images.
const BoundaryBand = "boundary"

// fireIDNamespace seeds the name-based UUIDs attached to boundaries.
var fireIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("terrametrics/fire-boundary"))

// DetectionSource is one independent stream of active fire observations.
// Each image carries a start_time property and a per-pixel quality band.
type DetectionSource struct {
	Name        string
	Collection  *ImageCollection
	QualityBand string
	// BestQuality is the code marking a confident detection.
	BestQuality float64
}

// FireBoundaryParams configures FireBoundaries.
type FireBoundaryParams struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration
	Region   orb.Geometry
	// Smooth applies a majority filter over Kernel to every interval mask.
	Smooth bool
	Kernel Kernel
	// Cumulative returns running unions instead of per-interval masks.
	Cumulative bool
	Sources    []DetectionSource
	// Parallelism bounds how many interval masks are built at once.
	Parallelism int
}

// NewFireBoundaryParams returns daily, unsmoothed, periodic defaults with a
// 2 km normalized circular smoothing kernel.
func NewFireBoundaryParams() FireBoundaryParams {
	return FireBoundaryParams{
		Interval:    24 * time.Hour,
		Kernel:      CircleKernel(2000, UnitsMeters, true),
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

func (p FireBoundaryParams) validate() error {
	var err error
	if p.Start.IsZero() || p.End.IsZero() {
		err = multierr.Append(err, fmt.Errorf("%w: start and end must be set", ErrInvalidArgument))
	} else if p.End.Before(p.Start) {
		err = multierr.Append(err, fmt.Errorf("%w: end %s before start %s", ErrInvalidArgument, p.End, p.Start))
	}
	if p.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: interval %s must be positive", ErrInvalidArgument, p.Interval))
	}
	if len(p.Sources) == 0 {
		return multierr.Append(err, fmt.Errorf("%w: at least one detection source is required", ErrInvalidArgument))
	}
	for i, s := range p.Sources {
		if s.Collection == nil {
			err = multierr.Append(err, fmt.Errorf("%w: source %d (%s) has no collection", ErrInvalidArgument, i, s.Name))
			continue
		}
		if first := p.Sources[0].Collection; first != nil && s.Collection.Grid() != first.Grid() {
			err = multierr.Append(err, fmt.Errorf("%w: source %s grid differs from source %s", ErrGridMismatch, s.Name, p.Sources[0].Name))
		}
	}
	return err
}

// FireBoundaries builds one binary boundary image per interval start t in
// [Start, End], covering observations in [t, t+Interval). A pixel is in the
// boundary when the median quality of any source equals its best code.
// Non-detections are masked. With Cumulative set, each output is the union of
// all intervals so far and spans from Start to the interval end.
func FireBoundaries(ctx context.Context, p FireBoundaryParams) ([]*Image, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	var starts []time.Time
	for t := p.Start; !t.After(p.End); t = t.Add(p.Interval) {
		starts = append(starts, t)
	}

	masks := make([]*Image, len(starts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Parallelism))
	for i, t := range starts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := intervalBoundary(p, t)
			if err != nil {
				return fmt.Errorf("interval %s: %w", t.Format(time.RFC3339), err)
			}
			masks[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !p.Cumulative {
		return masks, nil
	}
	return accumulateBoundaries(p.Start, masks)
}

func intervalBoundary(p FireBoundaryParams, start time.Time) (*Image, error) {
	end := start.Add(p.Interval)
	grid := p.Sources[0].Collection.Grid()
	union, err := Constant(grid, []string{BoundaryBand}, []float64{0})
	if err != nil {
		return nil, err
	}

	for _, s := range p.Sources {
		col, err := s.Collection.FilterDate(start, end).FilterBounds(p.Region)
		if err != nil {
			return nil, err
		}
		quality, err := col.Reduce(ReducerMedian, s.QualityBand)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.Name, err)
		}
		best := quality.Map(func(v float64) float64 { return boolValue(v == s.BestQuality) })
		if union, err = union.Or(best.Unmask(0)); err != nil {
			return nil, err
		}
		logger().Debug().
			Str("source", s.Name).
			Time("start", start).
			Int("observations", col.Len()).
			Int("detections", best.SelfMask().CountValid()).
			Msg("fire interval")
	}

	if p.Smooth {
		if union, err = ReduceNeighborhood(union, ReducerMode, p.Kernel); err != nil {
			return nil, err
		}
	}
	return tagBoundary(union.SelfMask(), start, end), nil
}

func tagBoundary(img *Image, start, end time.Time) *Image {
	return img.Set(PropStartTime, start).Set(PropEndTime, end).Set(PropID, boundaryID(start, end))
}

// boundaryID is the compact end time followed by a UUID derived from the
// interval, so masks ending at the same time but starting apart differ.
func boundaryID(start, end time.Time) string {
	name := start.UTC().Format(time.RFC3339Nano) + "/" + end.UTC().Format(time.RFC3339Nano)
	return end.UTC().Format("20060102T150405") + "_" + uuid.NewSHA1(fireIDNamespace, []byte(name)).String()
}

// accumulateBoundaries folds per-interval masks into running unions. The
// all-zero seed tagged with start is dropped from the output.
func accumulateBoundaries(start time.Time, masks []*Image) ([]*Image, error) {
	if len(masks) == 0 {
		return nil, nil
	}
	seed, err := Constant(masks[0].grid, []string{BoundaryBand}, []float64{0})
	if err != nil {
		return nil, err
	}
	seed = tagBoundary(seed, start, start)

	col, err := NewImageCollection(masks[0].grid, masks...)
	if err != nil {
		return nil, err
	}
	acc, err := Iterate(col, []*Image{seed}, func(acc []*Image, cur *Image) ([]*Image, error) {
		prev := acc[len(acc)-1]
		sum, err := prev.Unmask(0).Add(cur.Unmask(0))
		if err != nil {
			return nil, err
		}
		end, _ := cur.Time(PropEndTime)
		next := tagBoundary(sum.Threshold(0).SelfMask(), start, end)
		return append(acc, next), nil
	})
	if err != nil {
		return nil, err
	}
	return acc[1:], nil
}

// FireBoundaryToFeature dissolves a boundary image into one multipolygon
// feature, simplified to maxError map units, carrying the image's interval
// and id.
func FireBoundaryToFeature(img *Image, opts VectorizeOptions, maxError float64) (*geojson.Feature, error) {
	mp, err := Vectorize(img, opts)
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(Simplify(mp, maxError))
	if id, ok := img.Get(PropID); ok {
		f.ID = id
		f.Properties[PropID] = id
	}
	for _, key := range []string{PropStartTime, PropEndTime} {
		if t, ok := img.Time(key); ok {
			f.Properties[key] = t.UTC().Format(time.RFC3339)
		}
	}
	return f, nil
}

// FireBoundariesToCollection converts every boundary image, in order.
func FireBoundariesToCollection(imgs []*Image, opts VectorizeOptions, maxError float64) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for i, img := range imgs {
		f, err := FireBoundaryToFeature(img, opts, maxError)
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", i, err)
		}
		fc.Append(f)
	}
	return fc, nil
}
