package lidar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DedupMode selects how DotBuffer finds residents near a candidate.
// Both modes accept and reject exactly the same candidates.
type DedupMode int

const (
	// DedupGrid hashes residents into cubic cells of side MinDotDistance and
	// checks the 27 cells around a candidate.
	DedupGrid DedupMode = iota
	// DedupLinear compares the candidate against every resident.
	DedupLinear
)

// String returns the mode name used in configuration files.
func (m DedupMode) String() string {
	switch m {
	case DedupGrid:
		return "grid"
	case DedupLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseDedupMode maps a configuration name to a DedupMode.
func ParseDedupMode(s string) (DedupMode, bool) {
	switch s {
	case "", "grid":
		return DedupGrid, true
	case "linear":
		return DedupLinear, true
	}
	return DedupGrid, false
}

type cellKey struct {
	X, Y, Z int32
}

// spatialGrid maps cells to the buffer slots whose samples fall inside them.
type spatialGrid struct {
	cell  float64
	cells map[cellKey][]int32
}

func newSpatialGrid(cell float64, capacity int) *spatialGrid {
	return &spatialGrid{cell: cell, cells: make(map[cellKey][]int32, capacity)}
}

func (g *spatialGrid) key(p r3.Vec) cellKey {
	return cellKey{
		X: int32(math.Floor(p.X / g.cell)),
		Y: int32(math.Floor(p.Y / g.cell)),
		Z: int32(math.Floor(p.Z / g.cell)),
	}
}

func (g *spatialGrid) add(slot int, p r3.Vec) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], int32(slot))
}

func (g *spatialGrid) remove(slot int, p r3.Vec) {
	k := g.key(p)
	list := g.cells[k]
	for i, s := range list {
		if int(s) == slot {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = list
}

// near reports whether any indexed sample lies strictly within sqrt(r2) of p.
func (g *spatialGrid) near(p r3.Vec, r2 float64, slots []DotSample) bool {
	c := g.key(p)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				for _, s := range g.cells[cellKey{c.X + dx, c.Y + dy, c.Z + dz}] {
					if r3.Norm2(r3.Sub(slots[s].Position, p)) < r2 {
						return true
					}
				}
			}
		}
	}
	return false
}

func (g *spatialGrid) reset() {
	clear(g.cells)
}
