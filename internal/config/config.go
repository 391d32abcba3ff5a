// Package config loads terrametrics job files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"terrametrics/internal/util"
	tm "terrametrics/pkg/terrametrics"
)

// Config is a job file. Every section is optional; missing values keep the
// library defaults.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Grid    GridConfig    `yaml:"grid"`
	TPI     TPIConfig     `yaml:"tpi"`
	HLI     HLIConfig     `yaml:"hli"`
	Burn    BurnConfig    `yaml:"burn"`
	Render  RenderConfig  `yaml:"render"`
	Fire    FireConfig    `yaml:"fire"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"` // debug, info, warn, error, off
	Console bool   `yaml:"console"`
}

// GridConfig georeferences rasters that carry no georeference of their own.
// Origin is the upper-left corner.
type GridConfig struct {
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
	PixelSize  float64 `yaml:"pixel_size"`
	Geographic bool    `yaml:"geographic"`
}

type TPIConfig struct {
	Radius      float64 `yaml:"radius"`
	Units       string  `yaml:"units"` // meters, pixels
	Shape       string  `yaml:"shape"` // circle, square
	FlatDegrees float64 `yaml:"flat_degrees"`
	Scale       float64 `yaml:"scale"`
	MaxPixels   float64 `yaml:"max_pixels"`
	Region      string  `yaml:"region"` // WKT
}

type HLIConfig struct {
	Hemisphere string   `yaml:"hemisphere"` // auto, north, south
	Latitude   *float64 `yaml:"latitude"`
}

type BurnConfig struct {
	NIRBand  string `yaml:"nir_band"`
	SWIRBand string `yaml:"swir_band"`
}

type RenderConfig struct {
	Width int `yaml:"width"`
}

// FireConfig describes a fire boundary job. Observations are single-band
// rasters holding the detection quality of one acquisition.
type FireConfig struct {
	Start        time.Time      `yaml:"start"`
	End          time.Time      `yaml:"end"`
	Interval     string         `yaml:"interval"`
	Region       string         `yaml:"region"` // WKT
	Cumulative   bool           `yaml:"cumulative"`
	Smooth       bool           `yaml:"smooth"`
	SmoothRadius float64        `yaml:"smooth_radius"` // meters
	Parallelism  int            `yaml:"parallelism"`
	Simplify     float64        `yaml:"simplify"` // map units
	H3Resolution *int           `yaml:"h3_resolution"`
	Sources      []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	Name         string              `yaml:"name"`
	QualityBand  string              `yaml:"quality_band"`
	BestQuality  float64             `yaml:"best_quality"`
	Observations []ObservationConfig `yaml:"observations"`
}

type ObservationConfig struct {
	Path  string    `yaml:"path"`
	Start time.Time `yaml:"start_time"`
}

// DefaultConfig returns a job with the library defaults filled in.
func DefaultConfig() *Config {
	tpi := tm.NewTPIParams()
	sp := tm.NewSlopePositionParams()
	burn := tm.NewBurnSeverityParams()
	fire := tm.NewFireBoundaryParams()
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Grid: GridConfig{
			PixelSize: 30,
		},
		TPI: TPIConfig{
			Radius:      tpi.Kernel.Radius,
			Units:       "meters",
			Shape:       "circle",
			FlatDegrees: sp.FlatDegrees,
			MaxPixels:   sp.MaxPixels,
		},
		HLI: HLIConfig{
			Hemisphere: tm.NewHeatLoadParams().Hemisphere,
		},
		Burn: BurnConfig{
			NIRBand:  burn.NIRBand,
			SWIRBand: burn.SWIRBand,
		},
		Render: RenderConfig{
			Width: tm.NewRenderOptions().Width,
		},
		Fire: FireConfig{
			Interval:     fire.Interval.String(),
			Cumulative:   fire.Cumulative,
			SmoothRadius: fire.Kernel.Radius,
		},
	}
}

// Load reads a job file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Observation paths are relative to the job file.
	dir := filepath.Dir(path)
	for i := range cfg.Fire.Sources {
		for j, obs := range cfg.Fire.Sources[i].Observations {
			if obs.Path != "" && !filepath.IsAbs(obs.Path) {
				cfg.Fire.Sources[i].Observations[j].Path = filepath.Join(dir, obs.Path)
			}
		}
	}
	return cfg, nil
}

// Save writes the job file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the sections that do not depend on a subcommand and
// reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Grid.PixelSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("grid.pixel_size must be positive, got %v", c.Grid.PixelSize))
	}
	if _, e := util.MatchArg("tpi.units", c.TPI.Units, "meters", "pixels"); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := util.MatchArg("tpi.shape", c.TPI.Shape, "circle", "square"); e != nil {
		err = multierr.Append(err, e)
	}
	if c.TPI.Radius <= 0 {
		err = multierr.Append(err, fmt.Errorf("tpi.radius must be positive, got %v", c.TPI.Radius))
	}
	if _, e := util.MatchArg("hli.hemisphere", c.HLI.Hemisphere,
		tm.HemisphereAuto, tm.HemisphereNorth, tm.HemisphereSouth); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Render.Width <= 0 {
		err = multierr.Append(err, fmt.Errorf("render.width must be positive, got %d", c.Render.Width))
	}
	if _, e := parseRegion(c.TPI.Region); e != nil {
		err = multierr.Append(err, fmt.Errorf("tpi.region: %w", e))
	}
	return err
}

// GridFor returns the grid of a width x height raster under this job.
func (c *Config) GridFor(width, height int) tm.Grid {
	return tm.NewGrid(width, height, c.Grid.OriginX, c.Grid.OriginY, c.Grid.PixelSize, c.Grid.Geographic)
}

func (c *Config) kernel() tm.Kernel {
	units := tm.UnitsMeters
	if u, _ := util.MatchArg("tpi.units", c.TPI.Units, "meters", "pixels"); u == "pixels" {
		units = tm.UnitsPixels
	}
	if s, _ := util.MatchArg("tpi.shape", c.TPI.Shape, "circle", "square"); s == "square" {
		return tm.SquareKernel(c.TPI.Radius, units, true)
	}
	return tm.CircleKernel(c.TPI.Radius, units, true)
}

// TPIParams converts the tpi section.
func (c *Config) TPIParams() tm.TPIParams {
	p := tm.NewTPIParams()
	p.Kernel = c.kernel()
	return p
}

// SlopePositionParams converts the tpi section.
func (c *Config) SlopePositionParams() (tm.SlopePositionParams, error) {
	p := tm.NewSlopePositionParams()
	region, err := parseRegion(c.TPI.Region)
	if err != nil {
		return p, fmt.Errorf("tpi.region: %w", err)
	}
	p.Region = region
	p.Scale = c.TPI.Scale
	p.FlatDegrees = c.TPI.FlatDegrees
	if c.TPI.MaxPixels > 0 {
		p.MaxPixels = c.TPI.MaxPixels
	}
	return p, nil
}

// HeatLoadParams converts the hli section.
func (c *Config) HeatLoadParams() tm.HeatLoadParams {
	p := tm.NewHeatLoadParams()
	p.Hemisphere = c.HLI.Hemisphere
	if c.HLI.Latitude != nil {
		p.ForceLatitude = util.Some(*c.HLI.Latitude)
	}
	return p
}

// BurnSeverityParams converts the burn section.
func (c *Config) BurnSeverityParams() tm.BurnSeverityParams {
	p := tm.NewBurnSeverityParams()
	if c.Burn.NIRBand != "" {
		p.NIRBand = c.Burn.NIRBand
	}
	if c.Burn.SWIRBand != "" {
		p.SWIRBand = c.Burn.SWIRBand
	}
	return p
}

// ValidateFire checks the fire section.
func (c *Config) ValidateFire() error {
	f := c.Fire
	var err error
	if f.Start.IsZero() || f.End.IsZero() {
		err = multierr.Append(err, fmt.Errorf("fire.start and fire.end are required"))
	}
	if _, e := time.ParseDuration(f.Interval); e != nil {
		err = multierr.Append(err, fmt.Errorf("fire.interval: %w", e))
	}
	if _, e := parseRegion(f.Region); e != nil {
		err = multierr.Append(err, fmt.Errorf("fire.region: %w", e))
	}
	if f.Smooth && f.SmoothRadius <= 0 {
		err = multierr.Append(err, fmt.Errorf("fire.smooth_radius must be positive when smoothing, got %v", f.SmoothRadius))
	}
	if f.H3Resolution != nil && (*f.H3Resolution < 0 || *f.H3Resolution > 15) {
		err = multierr.Append(err, fmt.Errorf("fire.h3_resolution must be in [0, 15], got %d", *f.H3Resolution))
	}
	if len(f.Sources) == 0 {
		err = multierr.Append(err, fmt.Errorf("fire.sources must not be empty"))
	}
	for i, s := range f.Sources {
		if s.QualityBand == "" {
			err = multierr.Append(err, fmt.Errorf("fire.sources[%d].quality_band is required", i))
		}
		for j, obs := range s.Observations {
			if obs.Path == "" || obs.Start.IsZero() {
				err = multierr.Append(err, fmt.Errorf("fire.sources[%d].observations[%d] needs path and start_time", i, j))
			}
		}
	}
	return err
}

// FireBoundaryParams converts the fire section. Sources are attached by
// the caller once the observations are loaded.
func (c *Config) FireBoundaryParams() (tm.FireBoundaryParams, error) {
	p := tm.NewFireBoundaryParams()
	if err := c.ValidateFire(); err != nil {
		return p, err
	}
	interval, _ := time.ParseDuration(c.Fire.Interval)
	region, _ := parseRegion(c.Fire.Region)

	p.Start = c.Fire.Start
	p.End = c.Fire.End
	p.Interval = interval
	p.Region = region
	p.Cumulative = c.Fire.Cumulative
	p.Smooth = c.Fire.Smooth
	p.Kernel = tm.CircleKernel(c.Fire.SmoothRadius, tm.UnitsMeters, true)
	if c.Fire.Parallelism > 0 {
		p.Parallelism = c.Fire.Parallelism
	}
	return p, nil
}

// parseRegion reads a WKT geometry; empty means no region.
func parseRegion(s string) (orb.Geometry, error) {
	if s == "" {
		return nil, nil
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Bound:
		return g, nil
	default:
		return nil, fmt.Errorf("%s is not an areal geometry", g.GeoJSONType())
	}
}
