//go:build cgo

package terrametrics

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
	"github.com/uber/h3-go/v4"
)

// BoundaryCells returns the sorted, unique H3 cell ids at res covering a
// boundary feature whose coordinates are longitude/latitude degrees.
func BoundaryCells(f *geojson.Feature, res int) ([]string, error) {
	polys, err := boundaryPolygons(f, res)
	if err != nil {
		return nil, err
	}

	var cells []h3.Cell
	for _, poly := range polys {
		if len(poly) == 0 {
			continue
		}
		gp := h3.GeoPolygon{GeoLoop: ringToLoop(poly[0])}
		for _, hole := range poly[1:] {
			gp.Holes = append(gp.Holes, ringToLoop(hole))
		}
		found, err := h3.PolygonToCells(gp, res)
		if err != nil {
			return nil, fmt.Errorf("h3 polyfill: %w", err)
		}
		cells = append(cells, found...)
	}
	cells = lo.Uniq(cells)
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return lo.Map(cells, func(c h3.Cell, _ int) string { return c.String() }), nil
}

func ringToLoop(r orb.Ring) h3.GeoLoop {
	if r.Closed() {
		r = r[:len(r)-1]
	}
	loop := make(h3.GeoLoop, len(r))
	for i, p := range r {
		loop[i] = h3.LatLng{Lat: p.Lat(), Lng: p.Lon()}
	}
	return loop
}
