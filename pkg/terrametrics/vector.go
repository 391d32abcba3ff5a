package terrametrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// VectorizeOptions bounds a raster to vector conversion.
type VectorizeOptions struct {
	// Geometry limits the pixels considered. Nil means the whole image.
	Geometry orb.Geometry
	// Scale is the output pixel size in meters. Zero keeps native resolution.
	Scale float64
	// MaxPixels caps the number of pixels inside Geometry.
	MaxPixels float64
}

// NewVectorizeOptions returns options with the default pixel cap.
func NewVectorizeOptions() VectorizeOptions {
	return VectorizeOptions{MaxPixels: DefaultMaxPixels}
}

// Vectorize dissolves all positive pixels of the first band into a single
// multipolygon in map coordinates. Outer rings are counter-clockwise and
// holes clockwise. Diagonally touching pixels form separate polygons.
func Vectorize(img *Image, opts VectorizeOptions) (orb.MultiPolygon, error) {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	src := img
	if opts.Geometry != nil {
		clipped, err := img.Clip(opts.Geometry)
		if err != nil {
			return nil, err
		}
		src = clipped
	}
	if opts.Scale > 0 {
		if factor := int(math.Round(opts.Scale / img.grid.NominalScale())); factor > 1 {
			coarse, err := src.ReduceResolution(factor, ReducerMax)
			if err != nil {
				return nil, err
			}
			src = coarse
		}
	}

	idx, err := regionPixels(src.grid, opts.Geometry, 1)
	if err != nil {
		return nil, err
	}
	if float64(len(idx)) > opts.MaxPixels {
		return nil, fmt.Errorf("%w: vectorizing %d pixels, cap is %g", ErrTooManyPixels, len(idx), opts.MaxPixels)
	}

	grid := src.grid
	data := src.bands[0].Data
	positive := func(col, row int) bool {
		if col < 0 || col >= grid.Width || row < 0 || row >= grid.Height {
			return false
		}
		v := data[row*grid.Width+col]
		return !math.IsNaN(v) && v > 0
	}

	rings := traceRings(grid.Width, grid.Height, positive)
	polys := assembleRings(rings)

	out := make(orb.MultiPolygon, 0, len(polys))
	for _, poly := range polys {
		mp := make(orb.Polygon, len(poly))
		for i, r := range poly {
			ring := make(orb.Ring, len(r))
			for j, v := range r {
				ring[j] = grid.Corner(float64(v.x), float64(v.y))
			}
			want := orb.CCW
			if i > 0 {
				want = orb.CW
			}
			if ring.Orientation() != want {
				ring.Reverse()
			}
			mp[i] = ring
		}
		out = append(out, mp)
	}

	logger().Debug().Int("polygons", len(out)).Int("pixels", len(idx)).Msg("vectorize")
	return out, nil
}

// Simplify reduces vertices with Douglas-Peucker so that no point moves more
// than maxError map units. A non-positive maxError returns g unchanged.
// Holes that collapse below a valid ring are dropped. A polygon whose outer
// ring collapses is kept unsimplified, so the result has as many polygons
// as g.
func Simplify(g orb.MultiPolygon, maxError float64) orb.MultiPolygon {
	if maxError <= 0 || len(g) == 0 {
		return g
	}
	dp := simplify.DouglasPeucker(maxError)
	out := make(orb.MultiPolygon, 0, len(g))
	for _, p := range g {
		if len(p) == 0 {
			out = append(out, p)
			continue
		}
		shell := dp.Ring(p[0].Clone())
		if !validRing(shell) {
			out = append(out, p.Clone())
			continue
		}
		poly := orb.Polygon{shell}
		for _, h := range p[1:] {
			if hole := dp.Ring(h.Clone()); validRing(hole) {
				poly = append(poly, hole)
			}
		}
		out = append(out, poly)
	}
	return out
}

// validRing reports whether r is a closed linear ring enclosing some area.
func validRing(r orb.Ring) bool {
	return len(r) >= 4 && r.Closed() && planar.Area(r) != 0
}

type vertex struct{ x, y int }

type boundaryEdge struct {
	from, to vertex
	// outside is the non-positive pixel on the left of the edge.
	outside vertex
	used    bool
}

type tracedRing struct {
	vertices []vertex
	area     float64
	outside  vertex
}

// traceRings follows pixel edges between positive and non-positive cells in
// lattice coordinates (y down). Positive pixels lie on the right of every
// edge, so outer rings have positive shoelace area and holes negative.
func traceRings(width, height int, positive func(col, row int) bool) []tracedRing {
	var edges []*boundaryEdge
	outgoing := make(map[vertex][]*boundaryEdge)
	add := func(from, to, outside vertex) {
		e := &boundaryEdge{from: from, to: to, outside: outside}
		edges = append(edges, e)
		outgoing[from] = append(outgoing[from], e)
	}
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if !positive(c, r) {
				continue
			}
			if !positive(c, r-1) {
				add(vertex{c, r}, vertex{c + 1, r}, vertex{c, r - 1})
			}
			if !positive(c+1, r) {
				add(vertex{c + 1, r}, vertex{c + 1, r + 1}, vertex{c + 1, r})
			}
			if !positive(c, r+1) {
				add(vertex{c + 1, r + 1}, vertex{c, r + 1}, vertex{c, r + 1})
			}
			if !positive(c-1, r) {
				add(vertex{c, r + 1}, vertex{c, r}, vertex{c - 1, r})
			}
		}
	}

	var rings []tracedRing
	for _, start := range edges {
		if start.used {
			continue
		}
		ring := tracedRing{outside: start.outside}
		cur := start
		for {
			cur.used = true
			ring.vertices = append(ring.vertices, cur.from)
			next := nextEdge(cur, outgoing[cur.to], start)
			if next == nil || next == start {
				break
			}
			cur = next
		}
		ring.vertices = dropCollinear(ring.vertices)
		ring.area = shoelace(ring.vertices)
		rings = append(rings, ring)
	}
	return rings
}

// nextEdge picks the continuation at a vertex: right turn, then straight,
// then left. At saddle vertices this keeps diagonal pixels apart.
func nextEdge(cur *boundaryEdge, candidates []*boundaryEdge, start *boundaryEdge) *boundaryEdge {
	d1 := vertex{cur.to.x - cur.from.x, cur.to.y - cur.from.y}
	var best *boundaryEdge
	bestRank := 3
	for _, e := range candidates {
		if e.used && e != start {
			continue
		}
		d2 := vertex{e.to.x - e.from.x, e.to.y - e.from.y}
		cross := d1.x*d2.y - d1.y*d2.x
		rank := 1
		switch {
		case cross > 0:
			rank = 0
		case cross < 0:
			rank = 2
		}
		if rank < bestRank {
			best, bestRank = e, rank
		}
	}
	return best
}

func dropCollinear(vs []vertex) []vertex {
	n := len(vs)
	if n < 4 {
		return vs
	}
	out := make([]vertex, 0, n)
	for i, v := range vs {
		prev := vs[(i+n-1)%n]
		next := vs[(i+1)%n]
		if (v.x-prev.x)*(next.y-v.y)-(v.y-prev.y)*(next.x-v.x) != 0 {
			out = append(out, v)
		}
	}
	return out
}

func shoelace(vs []vertex) float64 {
	var sum int
	for i, v := range vs {
		w := vs[(i+1)%len(vs)]
		sum += v.x*w.y - w.x*v.y
	}
	return float64(sum) / 2
}

func latticeRing(vs []vertex) orb.Ring {
	ring := make(orb.Ring, 0, len(vs)+1)
	for _, v := range vs {
		ring = append(ring, orb.Point{float64(v.x), float64(v.y)})
	}
	if len(vs) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// assembleRings groups holes under the smallest outer ring containing them.
// Returned rings are closed.
func assembleRings(rings []tracedRing) [][][]vertex {
	type shell struct {
		ring    tracedRing
		outline orb.Ring
		holes   [][]vertex
	}
	var shells []*shell
	for _, r := range rings {
		if r.area > 0 {
			shells = append(shells, &shell{ring: r, outline: latticeRing(r.vertices)})
		}
	}
	bySize := make([]*shell, len(shells))
	copy(bySize, shells)
	sort.SliceStable(bySize, func(i, j int) bool { return bySize[i].ring.area < bySize[j].ring.area })

	for _, r := range rings {
		if r.area >= 0 {
			continue
		}
		probe := orb.Point{float64(r.outside.x) + 0.5, float64(r.outside.y) + 0.5}
		for _, s := range bySize {
			if planar.RingContains(s.outline, probe) {
				s.holes = append(s.holes, r.vertices)
				break
			}
		}
	}

	closeRing := func(vs []vertex) []vertex {
		return append(append([]vertex(nil), vs...), vs[0])
	}
	out := make([][][]vertex, 0, len(shells))
	for _, s := range shells {
		poly := [][]vertex{closeRing(s.ring.vertices)}
		for _, h := range s.holes {
			poly = append(poly, closeRing(h))
		}
		out = append(out, poly)
	}
	return out
}
