package main

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"terrametrics/internal/config"
	tm "terrametrics/pkg/terrametrics"
)

// loadSource reads the observations of one detection source into a
// time-tagged collection.
func (c *cli) loadSource(name, band string, best float64, observations []config.ObservationConfig) (tm.DetectionSource, error) {
	src := tm.DetectionSource{Name: name, QualityBand: band, BestQuality: best}
	if len(observations) == 0 {
		return src, fmt.Errorf("fire source %q has no observations", name)
	}
	images := make([]*tm.Image, 0, len(observations))
	for _, obs := range observations {
		img, err := c.loadBand(obs.Path, band)
		if err != nil {
			return src, fmt.Errorf("fire source %q: %w", name, err)
		}
		images = append(images, img.Set(tm.PropStartTime, obs.Start))
	}
	coll, err := tm.NewImageCollection(images[0].Grid(), images...)
	if err != nil {
		return src, fmt.Errorf("fire source %q: %w", name, err)
	}
	src.Collection = coll
	c.log.Info().Str("source", name).Int("observations", coll.Len()).Msg("detection source loaded")
	return src, nil
}

// attachCells adds the H3 cells covering each boundary as an "h3_cells"
// property. Cells need longitude/latitude coordinates.
func (c *cli) attachCells(fc *geojson.FeatureCollection, res int) error {
	if !c.cfg.Grid.Geographic {
		c.log.Warn().Int("resolution", res).Msg("skipping H3 cells: grid is not geographic")
		return nil
	}
	for i, f := range fc.Features {
		cells, err := tm.BoundaryCells(f, res)
		if errors.Is(err, tm.ErrNoCellIndex) {
			c.log.Warn().Msg("skipping H3 cells: built without cgo")
			return nil
		}
		if err != nil {
			return fmt.Errorf("boundary %d: %w", i, err)
		}
		f.Properties["h3_cells"] = cells
	}
	return nil
}
