package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// maxSearchCells caps how many prefix scans one radius search may fan out
// into. When a circle spans more cells than this at the fitted precision,
// the decomposition falls back to coarser cells.
const maxSearchCells = 9

// SearchCells decomposes a search circle into the minimal set of geohash
// cell prefixes whose bounding boxes cover it. The returned cells are binary
// prefixes at a common precision: the coarsest precision at which a single
// cell still fits inside the circle's bounding box, so the circle is
// typically covered by the center cell and its neighbors.
//
// precisionBits is the precision at which spot geohashes are indexed. It
// caps the prefix length: a prefix longer than the stored geohashes would
// match nothing. Non-positive values fall back to DefaultPrecisionBits.
//
// The union of the returned cells' bounds always contains the full circle;
// it may include area outside it. Callers restore exact-radius semantics by
// distance-filtering the candidates each prefix scan returns.
func SearchCells(lat, lon, radiusMeters float64, precisionBits int) ([]string, error) {
	if err := validate(lat, lon); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return nil, ErrInvalidCoordinate
	}
	if precisionBits <= 0 {
		precisionBits = DefaultPrecisionBits
	}

	bound := circleBound(lat, lon, radiusMeters)

	for bits := fitBits(bound, precisionBits); ; bits-- {
		g := gridOver(bound, bits)
		if bits > 1 && g.rows*g.cols > maxSearchCells {
			continue
		}
		cells := g.cells(bits)
		sort.Strings(cells)
		return cells, nil
	}
}

// fitBits returns the smallest bit count at which a single geohash cell is
// no larger than the given bounding box in both dimensions, capped at the
// indexing precision. One bit fewer and the cell would exceed the box, so
// cells at this precision are between half the box and the whole box wide.
func fitBits(b orb.Bound, maxBits int) int {
	width := b.Max[0] - b.Min[0]
	height := b.Max[1] - b.Min[1]

	cellW, cellH := 360.0, 180.0
	bits := 0
	for bits < maxBits && (cellW > width || cellH > height) {
		if bits%2 == 0 {
			cellW /= 2
		} else {
			cellH /= 2
		}
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// grid identifies the axis-aligned block of geohash cells intersecting a
// bounding box at a fixed precision. Column indexes are kept unwrapped so a
// box crossing the antimeridian enumerates cells on both sides.
type grid struct {
	firstRow, rows int
	firstCol, cols int
	nrows, ncols   int
	cellW, cellH   float64
}

func gridOver(b orb.Bound, bits int) grid {
	lonBits := (bits + 1) / 2
	latBits := bits / 2

	g := grid{
		nrows: 1 << latBits,
		ncols: 1 << lonBits,
	}
	g.cellW = 360.0 / float64(g.ncols)
	g.cellH = 180.0 / float64(g.nrows)

	clampRow := func(lat float64) int {
		row := int(math.Floor((lat + 90) / g.cellH))
		if row < 0 {
			row = 0
		}
		if row >= g.nrows {
			row = g.nrows - 1
		}
		return row
	}

	g.firstRow = clampRow(b.Min[1])
	g.rows = clampRow(b.Max[1]) - g.firstRow + 1

	g.firstCol = int(math.Floor((b.Min[0] + 180) / g.cellW))
	g.cols = int(math.Floor((b.Max[0]+180)/g.cellW)) - g.firstCol + 1
	if g.cols > g.ncols {
		g.firstCol = 0
		g.cols = g.ncols
	}

	return g
}

// cells encodes every cell of the grid block, wrapping columns past the
// antimeridian back into range and deduplicating the result.
func (g grid) cells(bits int) []string {
	seen := make(map[string]struct{}, g.rows*g.cols)
	out := make([]string, 0, g.rows*g.cols)

	for r := 0; r < g.rows; r++ {
		cLat := -90 + (float64(g.firstRow+r)+0.5)*g.cellH
		for c := 0; c < g.cols; c++ {
			col := ((g.firstCol+c)%g.ncols + g.ncols) % g.ncols
			cLon := -180 + (float64(col)+0.5)*g.cellW

			cell, err := EncodeBinary(cLat, cLon, bits)
			if err != nil {
				continue
			}
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			out = append(out, cell)
		}
	}

	return out
}
