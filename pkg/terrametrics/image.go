package terrametrics

import (
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Property keys attached to images produced by this package.
const (
	PropStartTime = "start_time"
	PropEndTime   = "end_time"
	PropID        = "id"
)

// Band is one named layer of an image. NaN marks a masked pixel.
type Band struct {
	Name string
	Data []float64
}

// Image is an immutable multi-band raster on a Grid. Every operation returns
// a new Image; band data handed out by accessors must not be modified.
type Image struct {
	grid  Grid
	bands []Band
	props map[string]any

	sumOnce sync.Once
	sum     uint64
}

// NewImage validates the bands against the grid. Band data is not copied.
func NewImage(grid Grid, bands ...Band) (*Image, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: image needs at least one band", ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(bands))
	for _, b := range bands {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: band name must not be empty", ErrInvalidArgument)
		}
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate band %q", ErrInvalidArgument, b.Name)
		}
		seen[b.Name] = struct{}{}
		if len(b.Data) != grid.NumPixels() {
			return nil, fmt.Errorf("%w: band %q has %d pixels, grid has %d", ErrInvalidArgument, b.Name, len(b.Data), grid.NumPixels())
		}
	}
	return &Image{grid: grid, bands: bands}, nil
}

// NewImageFromPixels builds a single-band image by copying pixels.
func NewImageFromPixels(grid Grid, name string, pixels []float64) (*Image, error) {
	return NewImage(grid, Band{Name: name, Data: slices.Clone(pixels)})
}

// Constant returns an image whose bands hold the given values everywhere.
func Constant(grid Grid, names []string, values []float64) (*Image, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d band names for %d values", ErrInvalidArgument, len(names), len(values))
	}
	bands := make([]Band, len(names))
	for i, name := range names {
		data := make([]float64, grid.NumPixels())
		for p := range data {
			data[p] = values[i]
		}
		bands[i] = Band{Name: name, Data: data}
	}
	return NewImage(grid, bands...)
}

func (img *Image) Grid() Grid    { return img.grid }
func (img *Image) NumBands() int { return len(img.bands) }

func (img *Image) BandNames() []string {
	names := make([]string, len(img.bands))
	for i, b := range img.bands {
		names[i] = b.Name
	}
	return names
}

// Band returns the pixels of the named band.
func (img *Image) Band(name string) ([]float64, error) {
	for _, b := range img.bands {
		if b.Name == name {
			return b.Data, nil
		}
	}
	return nil, fmt.Errorf("%w: band %q not in %v", ErrInvalidArgument, name, img.BandNames())
}

// fingerprint hashes the grid, band names and pixels. It is computed on
// first use and kept for the life of the image.
func (img *Image) fingerprint() uint64 {
	img.sumOnce.Do(func() {
		h := xxhash.New()
		var buf [8]byte
		_, _ = fmt.Fprintf(h, "%v", img.grid)
		for _, b := range img.bands {
			_, _ = h.WriteString("|" + b.Name + "|")
			for _, v := range b.Data {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				_, _ = h.Write(buf[:])
			}
		}
		img.sum = h.Sum64()
	})
	return img.sum
}

// At returns the value of band index b at pixel (col, row).
func (img *Image) At(b, col, row int) float64 {
	return img.bands[b].Data[row*img.grid.Width+col]
}

func (img *Image) withBands(bands []Band) *Image {
	return &Image{grid: img.grid, bands: bands, props: img.props}
}

// Select returns the named bands in the given order.
func (img *Image) Select(names ...string) (*Image, error) {
	bands := make([]Band, 0, len(names))
	for _, name := range names {
		data, err := img.Band(name)
		if err != nil {
			return nil, err
		}
		bands = append(bands, Band{Name: name, Data: data})
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: select needs at least one band", ErrInvalidArgument)
	}
	return img.withBands(bands), nil
}

// Rename assigns new names to all bands, in order.
func (img *Image) Rename(names ...string) (*Image, error) {
	if len(names) != len(img.bands) {
		return nil, fmt.Errorf("%w: %d names for %d bands", ErrBandMismatch, len(names), len(img.bands))
	}
	bands := make([]Band, len(names))
	for i, b := range img.bands {
		bands[i] = Band{Name: names[i], Data: b.Data}
	}
	out, err := NewImage(img.grid, bands...)
	if err != nil {
		return nil, err
	}
	out.props = img.props
	return out, nil
}

// AddBands appends the bands of others. Band names must stay unique.
func (img *Image) AddBands(others ...*Image) (*Image, error) {
	bands := slices.Clone(img.bands)
	for _, o := range others {
		if o.grid != img.grid {
			return nil, fmt.Errorf("%w: %v vs %v", ErrGridMismatch, img.grid, o.grid)
		}
		bands = append(bands, o.bands...)
	}
	out, err := NewImage(img.grid, bands...)
	if err != nil {
		return nil, err
	}
	out.props = img.props
	return out, nil
}

// Set returns a copy of the image with a property set.
func (img *Image) Set(key string, value any) *Image {
	props := maps.Clone(img.props)
	if props == nil {
		props = make(map[string]any)
	}
	props[key] = value
	return &Image{grid: img.grid, bands: img.bands, props: props}
}

func (img *Image) Get(key string) (any, bool) {
	v, ok := img.props[key]
	return v, ok
}

// Float returns a numeric property.
func (img *Image) Float(key string) (float64, bool) {
	switch v := img.props[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Time returns a time property.
func (img *Image) Time(key string) (time.Time, bool) {
	t, ok := img.props[key].(time.Time)
	return t, ok
}

// Properties returns a copy of all properties.
func (img *Image) Properties() map[string]any {
	return maps.Clone(img.props)
}

// CopyProperties returns img with the given keys copied from src. With no
// keys, all properties are copied.
func (img *Image) CopyProperties(src *Image, keys ...string) *Image {
	props := maps.Clone(img.props)
	if props == nil {
		props = make(map[string]any)
	}
	if len(keys) == 0 {
		maps.Copy(props, src.props)
	}
	for _, k := range keys {
		if v, ok := src.props[k]; ok {
			props[k] = v
		}
	}
	return &Image{grid: img.grid, bands: img.bands, props: props}
}

// Map applies fn to every unmasked pixel of every band.
func (img *Image) Map(fn func(float64) float64) *Image {
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			if math.IsNaN(v) {
				data[p] = v
				continue
			}
			data[p] = fn(v)
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands)
}

// Combine applies fn pixel-wise to paired bands. Bands pair by position and
// must have identical names, unless one side has a single band, which is
// broadcast. Output bands take the names of the multi-band side, or of img
// when both have the same count. fn sees NaN for masked pixels.
func (img *Image) Combine(other *Image, fn func(a, b float64) float64) (*Image, error) {
	if img.grid != other.grid {
		return nil, fmt.Errorf("%w: %v vs %v", ErrGridMismatch, img.grid, other.grid)
	}
	n, m := len(img.bands), len(other.bands)
	switch {
	case n == m:
		if n > 1 && !slices.Equal(img.BandNames(), other.BandNames()) {
			return nil, fmt.Errorf("%w: %v vs %v", ErrBandMismatch, img.BandNames(), other.BandNames())
		}
	case n != 1 && m != 1:
		return nil, fmt.Errorf("%w: %v vs %v", ErrBandMismatch, img.BandNames(), other.BandNames())
	}

	count := max(n, m)
	names := img.BandNames()
	if m > n {
		names = other.BandNames()
	}
	bands := make([]Band, count)
	for i := 0; i < count; i++ {
		a := img.bands[min(i, n-1)].Data
		b := other.bands[min(i, m-1)].Data
		data := make([]float64, len(a))
		for p := range data {
			data[p] = fn(a[p], b[p])
		}
		bands[i] = Band{Name: names[i], Data: data}
	}
	return img.withBands(bands), nil
}

func nanOr(a, b float64, fn func(a, b float64) float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return fn(a, b)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (img *Image) Add(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 { return a + b })
}

func (img *Image) Subtract(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 { return a - b })
}

func (img *Image) Multiply(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 { return a * b })
}

// Divide masks pixels where the divisor is zero.
func (img *Image) Divide(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	})
}

func (img *Image) Gt(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		return nanOr(a, b, func(a, b float64) float64 { return boolValue(a > b) })
	})
}

func (img *Image) Lt(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		return nanOr(a, b, func(a, b float64) float64 { return boolValue(a < b) })
	})
}

func (img *Image) Eq(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		return nanOr(a, b, func(a, b float64) float64 { return boolValue(a == b) })
	})
}

// Or is the logical or of non-zero pixels; a masked operand masks the result.
func (img *Image) Or(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		return nanOr(a, b, func(a, b float64) float64 { return boolValue(a != 0 || b != 0) })
	})
}

func (img *Image) And(other *Image) (*Image, error) {
	return img.Combine(other, func(a, b float64) float64 {
		return nanOr(a, b, func(a, b float64) float64 { return boolValue(a != 0 && b != 0) })
	})
}

// Not maps zero to one and non-zero to zero.
func (img *Image) Not() *Image {
	return img.Map(func(v float64) float64 { return boolValue(v == 0) })
}

// Threshold maps pixels greater than t to one and the rest to zero.
func (img *Image) Threshold(t float64) *Image {
	return img.Map(func(v float64) float64 { return boolValue(v > t) })
}

// Mask returns, per band, one where the pixel is valid and zero where masked.
func (img *Image) Mask() *Image {
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			data[p] = boolValue(!math.IsNaN(v))
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands)
}

// UpdateMask masks pixels where mask is zero or masked. A single-band mask
// applies to every band.
func (img *Image) UpdateMask(mask *Image) (*Image, error) {
	if len(img.bands) > 1 && len(mask.bands) > 1 && len(mask.bands) != len(img.bands) {
		return nil, fmt.Errorf("%w: mask %v for %v", ErrBandMismatch, mask.BandNames(), img.BandNames())
	}
	if img.grid != mask.grid {
		return nil, fmt.Errorf("%w: %v vs %v", ErrGridMismatch, img.grid, mask.grid)
	}
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		md := mask.bands[min(i, len(mask.bands)-1)].Data
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			if m := md[p]; m == 0 || math.IsNaN(m) {
				data[p] = math.NaN()
			} else {
				data[p] = v
			}
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands), nil
}

// SelfMask masks zero pixels.
func (img *Image) SelfMask() *Image {
	return img.Map(func(v float64) float64 {
		if v == 0 {
			return math.NaN()
		}
		return v
	})
}

// Unmask replaces masked pixels with value.
func (img *Image) Unmask(value float64) *Image {
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			if math.IsNaN(v) {
				data[p] = value
			} else {
				data[p] = v
			}
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.withBands(bands)
}

// Where replaces pixels with value where cond is non-zero and unmasked.
func (img *Image) Where(cond *Image, value float64) (*Image, error) {
	return img.Combine(cond, func(a, c float64) float64 {
		if c != 0 && !math.IsNaN(c) {
			return value
		}
		return a
	})
}

// CountValid returns the number of unmasked pixels in the first band.
func (img *Image) CountValid() int {
	n := 0
	for _, v := range img.bands[0].Data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func (img *Image) String() string {
	return fmt.Sprintf("Image{bands=%v grid=%v props=%v}", img.BandNames(), img.grid, img.props)
}
