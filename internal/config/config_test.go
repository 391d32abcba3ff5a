package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "terrametrics/pkg/terrametrics"
)

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300.0, cfg.TPI.Radius)
	assert.Equal(t, 5.0, cfg.TPI.FlatDegrees)
	assert.Equal(t, "nir", cfg.Burn.NIRBand)
	assert.Equal(t, "24h0m0s", cfg.Fire.Interval)

	p := cfg.TPIParams()
	assert.Equal(t, tm.NewTPIParams(), p)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeJob(t, `
grid:
  origin_x: 500000
  origin_y: 4200000
  pixel_size: 10
tpi:
  radius: 5
  units: pixels
  shape: square
  region: POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))
hli:
  hemisphere: south
  latitude: -33.5
burn:
  swir_band: b12
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	grid := cfg.GridFor(4, 3)
	assert.Equal(t, tm.NewGrid(4, 3, 500000, 4200000, 10, false), grid)

	assert.Equal(t, tm.SquareKernel(5, tm.UnitsPixels, true), cfg.TPIParams().Kernel)

	sp, err := cfg.SlopePositionParams()
	require.NoError(t, err)
	assert.IsType(t, orb.Polygon{}, sp.Region)
	assert.Equal(t, 5.0, sp.FlatDegrees)

	hli := cfg.HeatLoadParams()
	assert.Equal(t, tm.HemisphereSouth, hli.Hemisphere)
	lat, ok := hli.ForceLatitude.Get()
	require.True(t, ok)
	assert.Equal(t, -33.5, lat)

	burn := cfg.BurnSeverityParams()
	assert.Equal(t, "nir", burn.NIRBand)
	assert.Equal(t, "b12", burn.SWIRBand)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.PixelSize = 0
	cfg.TPI.Units = "furlongs"
	cfg.HLI.Hemisphere = "east"
	cfg.TPI.Region = "POINT(1 2)"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "grid.pixel_size")
	assert.Contains(t, msg, "tpi.units")
	assert.Contains(t, msg, "hli.hemisphere")
	assert.Contains(t, msg, "tpi.region")
}

func TestFireSection(t *testing.T) {
	path := writeJob(t, `
fire:
  start: 2024-08-01T00:00:00Z
  end: 2024-08-03T00:00:00Z
  interval: 12h
  cumulative: true
  smooth: true
  smooth_radius: 1500
  parallelism: 2
  h3_resolution: 7
  region: POLYGON((0 0, 4000 0, 4000 4000, 0 4000, 0 0))
  sources:
    - name: viirs
      quality_band: confidence
      best_quality: 3
      observations:
        - path: obs/a.tif
          start_time: 2024-08-01T10:00:00Z
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateFire())

	obs := cfg.Fire.Sources[0].Observations[0]
	assert.Equal(t, filepath.Join(filepath.Dir(path), "obs", "a.tif"), obs.Path)
	assert.True(t, obs.Start.Equal(time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)))

	p, err := cfg.FireBoundaryParams()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, p.Interval)
	assert.True(t, p.Cumulative)
	assert.True(t, p.Smooth)
	assert.Equal(t, 2, p.Parallelism)
	assert.Equal(t, tm.CircleKernel(1500, tm.UnitsMeters, true), p.Kernel)
	assert.NotNil(t, p.Region)
	assert.Empty(t, p.Sources)
}

func TestFireSectionInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fire.Interval = "daily"
	res := 16
	cfg.Fire.H3Resolution = &res
	cfg.Fire.Sources = []SourceConfig{{Name: "x", Observations: []ObservationConfig{{}}}}

	_, err := cfg.FireBoundaryParams()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "fire.start")
	assert.Contains(t, msg, "fire.interval")
	assert.Contains(t, msg, "fire.h3_resolution")
	assert.Contains(t, msg, "quality_band")
	assert.Contains(t, msg, "observations[0]")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "job.yaml")
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Render.Width = 320
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, 320, loaded.Render.Width)
}
