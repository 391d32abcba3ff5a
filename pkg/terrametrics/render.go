package terrametrics

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Palette maps a pixel value to a color.
type Palette interface {
	Color(v float64) color.RGBA
	// Legend lists labelled swatches drawn under the quicklook.
	Legend() []LegendEntry
}

type LegendEntry struct {
	Label string
	Color color.RGBA
}

var maskedColor = color.RGBA{40, 40, 40, 255}

// ClassPalette colors integer class values.
type ClassPalette struct {
	Classes map[int]LegendEntry
	// Order lists the classes in legend order.
	Order []int
}

func (p ClassPalette) Color(v float64) color.RGBA {
	if e, ok := p.Classes[int(math.Round(v))]; ok && !math.IsNaN(v) {
		return e.Color
	}
	return maskedColor
}

func (p ClassPalette) Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(p.Order))
	for _, c := range p.Order {
		out = append(out, p.Classes[c])
	}
	return out
}

// SlopePositionPalette colors ridge through valley from warm to cool.
func SlopePositionPalette() ClassPalette {
	return ClassPalette{
		Classes: map[int]LegendEntry{
			ClassRidge:       {"ridge", color.RGBA{200, 60, 40, 255}},
			ClassUpperSlope:  {"upper", color.RGBA{230, 150, 60, 255}},
			ClassMiddleSlope: {"middle", color.RGBA{230, 220, 110, 255}},
			ClassFlat:        {"flat", color.RGBA{170, 200, 120, 255}},
			ClassLowerSlope:  {"lower", color.RGBA{90, 160, 190, 255}},
			ClassValley:      {"valley", color.RGBA{40, 80, 170, 255}},
		},
		Order: []int{ClassRidge, ClassUpperSlope, ClassMiddleSlope, ClassFlat, ClassLowerSlope, ClassValley},
	}
}

// BinaryPalette colors 0/1 masks such as refugia or fire boundaries.
func BinaryPalette(label string) ClassPalette {
	return ClassPalette{
		Classes: map[int]LegendEntry{
			0: {"no " + label, color.RGBA{90, 90, 90, 255}},
			1: {label, color.RGBA{255, 80, 80, 255}},
		},
		Order: []int{1, 0},
	}
}

// RampPalette stretches values linearly between Min and Max on a grayscale.
type RampPalette struct {
	Min, Max float64
}

// NewRampPalette stretches over the valid range of the first band.
func NewRampPalette(img *Image) RampPalette {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range img.bands[0].Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	return RampPalette{Min: lo, Max: hi}
}

func (p RampPalette) Color(v float64) color.RGBA {
	if math.IsNaN(v) {
		return maskedColor
	}
	t := 0.5
	if p.Max > p.Min {
		t = math.Max(0, math.Min(1, (v-p.Min)/(p.Max-p.Min)))
	}
	g := uint8(55 + t*200)
	return color.RGBA{g, g, g, 255}
}

func (p RampPalette) Legend() []LegendEntry {
	return []LegendEntry{
		{fmt.Sprintf("%.4g", p.Min), p.Color(p.Min)},
		{fmt.Sprintf("%.4g", p.Max), p.Color(p.Max)},
	}
}

// RenderOptions configures quicklook rendering.
type RenderOptions struct {
	// Width of the raster part in pixels; height keeps the aspect ratio.
	Width   int
	Palette Palette
	Title   string
	// Outline is drawn over the raster, in map coordinates.
	Outline orb.MultiPolygon
}

func NewRenderOptions() RenderOptions {
	return RenderOptions{Width: 800}
}

const legendHeight = 60

// Render draws the first band of img with a legend strip underneath.
func Render(img *Image, opts RenderOptions) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image to render", ErrInvalidArgument)
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	palette := opts.Palette
	if palette == nil {
		palette = NewRampPalette(img)
	}

	grid := img.grid
	scale := float64(opts.Width) / float64(grid.Width)
	imgW := opts.Width
	imgH := max(1, int(float64(grid.Height)*scale))
	out := image.NewRGBA(image.Rect(0, 0, imgW, imgH+legendHeight))

	data := img.bands[0].Data
	for y := 0; y < imgH; y++ {
		row := min(grid.Height-1, int(float64(y)/scale))
		for x := 0; x < imgW; x++ {
			col := min(grid.Width-1, int(float64(x)/scale))
			out.SetRGBA(x, y, palette.Color(data[row*grid.Width+col]))
		}
	}
	for y := imgH; y < imgH+legendHeight; y++ {
		for x := 0; x < imgW; x++ {
			out.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	outlineColor := color.RGBA{255, 255, 255, 255}
	toScreen := func(p orb.Point) (int, int) {
		c, r := grid.ToPixel(p)
		return int(c * scale), int(r * scale)
	}
	for _, poly := range opts.Outline {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				x0, y0 := toScreen(ring[i-1])
				x1, y1 := toScreen(ring[i])
				drawLine(out, x0, y0, x1, y1, outlineColor)
			}
		}
	}

	face := basicfont.Face7x13
	textColor := color.RGBA{220, 220, 220, 255}
	title := opts.Title
	if title == "" {
		title = img.bands[0].Name
	}
	drawText(out, face, fmt.Sprintf("%s  valid=%d/%d", title, img.CountValid(), grid.NumPixels()), 10, imgH+15, textColor)
	x := 10
	for _, e := range palette.Legend() {
		for dy := 0; dy < 12; dy++ {
			for dx := 0; dx < 12; dx++ {
				out.SetRGBA(x+dx, imgH+26+dy, e.Color)
			}
		}
		drawText(out, face, e.Label, x+16, imgH+37, textColor)
		x += 16 + font.MeasureString(face, e.Label).Round() + 14
	}
	return out, nil
}

// EncodePNG renders img and writes it as PNG.
func EncodePNG(w io.Writer, img *Image, opts RenderOptions) error {
	rgba, err := Render(img, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, rgba); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// RenderJPEGBytes renders img and returns JPEG bytes.
func RenderJPEGBytes(img *Image, opts RenderOptions) ([]byte, error) {
	rgba, err := Render(img, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine draws a 2px line with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		img.Set(x0+1, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
