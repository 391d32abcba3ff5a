package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"

	tm "terrametrics/pkg/terrametrics"
)

// loadBand reads a single-band raster into an image band named name.
// Nodata is matched on the packed value, before scale and offset.
func (c *cli) loadBand(path, name string) (*tm.Image, error) {
	pixels, w, h, err := loadPixels(path)
	if err != nil {
		return nil, err
	}
	for i, v := range pixels {
		if c.hasNodata && v == c.nodata {
			pixels[i] = math.NaN()
			continue
		}
		pixels[i] = v*c.gain + c.offset
	}
	img, err := tm.NewImageFromPixels(c.cfg.GridFor(w, h), name, pixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.log.Debug().Str("path", path).Str("band", name).Int("width", w).Int("height", h).Msg("raster loaded")
	return img, nil
}

// loadBands reads one raster per band and stacks them in order.
func (c *cli) loadBands(paths, names []string) (*tm.Image, error) {
	var out *tm.Image
	for i, path := range paths {
		img, err := c.loadBand(path, names[i])
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = img
			continue
		}
		if out, err = out.AddBands(img); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return out, nil
}

type bandSummary struct {
	Band    string         `yaml:"band"`
	Valid   int            `yaml:"valid"`
	Mean    *float64       `yaml:"mean"`
	StdDev  *float64       `yaml:"std_dev"`
	Min     *float64       `yaml:"min"`
	Max     *float64       `yaml:"max"`
	Classes map[string]int `yaml:"classes,omitempty"`
}

type summary struct {
	Command string            `yaml:"command"`
	Inputs  []string          `yaml:"inputs"`
	Grid    string            `yaml:"grid"`
	Elapsed string            `yaml:"elapsed"`
	Bands   []bandSummary     `yaml:"bands"`
	Outputs []string          `yaml:"outputs"`
	Extra   map[string]string `yaml:"extra,omitempty"`
}

// summarize reduces every band of img over the whole grid. Class counts are
// added for bands rendered with a class palette.
func summarize(img *tm.Image, classes *tm.ClassPalette) (bandSummary, error) {
	opts := tm.RegionOptions{MaxPixels: float64(img.Grid().NumPixels())}
	name := img.BandNames()[0]
	s := bandSummary{Band: name, Valid: img.CountValid()}
	for _, r := range []struct {
		reducer tm.Reducer
		dst     **float64
	}{
		{tm.ReducerMean, &s.Mean},
		{tm.ReducerStdDev, &s.StdDev},
		{tm.ReducerMin, &s.Min},
		{tm.ReducerMax, &s.Max},
	} {
		d, err := tm.ReduceRegion(img, r.reducer, opts)
		if err != nil {
			return s, fmt.Errorf("summarizing %s: %w", name, err)
		}
		if v, ok := d.Get(name); ok {
			*r.dst = &v
		}
	}
	if classes != nil {
		data, err := img.Band(name)
		if err != nil {
			return s, err
		}
		s.Classes = map[string]int{}
		for _, v := range data {
			if math.IsNaN(v) {
				continue
			}
			label := strconv.FormatFloat(v, 'g', -1, 64)
			if e, ok := classes.Classes[int(math.Round(v))]; ok {
				label = e.Label
			}
			s.Classes[label]++
		}
	}
	return s, nil
}

// report collects what one command wrote.
type report struct {
	c       *cli
	summary summary
	start   time.Time
}

func (c *cli) newReport(command string, inputs ...string) *report {
	return &report{
		c:       c,
		start:   time.Now(),
		summary: summary{Command: command, Inputs: inputs},
	}
}

// addBands summarizes every band of img.
func (r *report) addBands(img *tm.Image, classes *tm.ClassPalette) error {
	if r.summary.Grid == "" {
		r.summary.Grid = img.Grid().String()
	}
	for _, name := range img.BandNames() {
		band, err := img.Select(name)
		if err != nil {
			return err
		}
		s, err := summarize(band, classes)
		if err != nil {
			return err
		}
		r.summary.Bands = append(r.summary.Bands, s)
	}
	return nil
}

func (r *report) set(key, value string) {
	if r.summary.Extra == nil {
		r.summary.Extra = map[string]string{}
	}
	r.summary.Extra[key] = value
}

func (r *report) path(name string) string {
	p := filepath.Join(r.c.outDir, name)
	r.summary.Outputs = append(r.summary.Outputs, p)
	return p
}

// png writes a quicklook of the first band of img.
func (r *report) png(name string, img *tm.Image, palette tm.Palette, title string) error {
	opts := tm.NewRenderOptions()
	opts.Width = r.c.cfg.Render.Width
	opts.Palette = palette
	opts.Title = title
	return r.pngWith(name, img, opts)
}

func (r *report) pngWith(name string, img *tm.Image, opts tm.RenderOptions) error {
	f, err := os.Create(r.path(name))
	if err != nil {
		return err
	}
	if err := tm.EncodePNG(f, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return f.Close()
}

func (r *report) geojson(name string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(r.path(name), data, 0o644)
}

// finish writes the YAML summary and prints a short digest to stdout.
func (r *report) finish() error {
	r.summary.Elapsed = time.Since(r.start).Round(time.Millisecond).String()
	path := filepath.Join(r.c.outDir, r.summary.Command+".yaml")
	r.summary.Outputs = append(r.summary.Outputs, path)

	data, err := yaml.Marshal(r.summary)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	r.c.log.Info().Str("command", r.summary.Command).Str("elapsed", r.summary.Elapsed).
		Strs("outputs", r.summary.Outputs).Msg("done")
	r.print()
	return nil
}

func (r *report) print() {
	s := r.summary
	fmt.Printf("=== %s (%s) ===\n", s.Command, s.Elapsed)
	fmt.Printf("  Grid: %s\n", s.Grid)
	for _, b := range s.Bands {
		fmt.Printf("  %-18s valid=%d", b.Band, b.Valid)
		if b.Mean != nil {
			fmt.Printf("  mean=%.4g  sd=%.4g  min=%.4g  max=%.4g", *b.Mean, *b.StdDev, *b.Min, *b.Max)
		}
		fmt.Println()
		labels := make([]string, 0, len(b.Classes))
		for l := range b.Classes {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Printf("    %-14s %d\n", l, b.Classes[l])
		}
	}
	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, s.Extra[k])
	}
	fmt.Println("==============================")
}
