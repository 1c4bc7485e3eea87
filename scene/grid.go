package scene

import (
	"math"

	"github.com/aukilabs/raido/navmesh"
)

// grid is a uniformly subdivided broad phase over the ground footprints of
// the scene obstacles. Each cell holds the indexes of the obstacles whose
// footprint overlaps it.
type grid struct {
	resolution float64
	minX       float64
	minY       float64
	cols       int
	rows       int
	cells      [][]int
}

func newGrid(bounds navmesh.Region, resolution float64) *grid {
	if resolution <= 0 {
		resolution = 1
	}

	cols := max(1, int(math.Ceil(bounds.Width()/resolution)))
	rows := max(1, int(math.Ceil(bounds.Height()/resolution)))

	return &grid{
		resolution: resolution,
		minX:       bounds.MinX(),
		minY:       bounds.MinY(),
		cols:       cols,
		rows:       rows,
		cells:      make([][]int, cols*rows),
	}
}

func (g *grid) insert(obstacle int, footprint navmesh.Region) {
	minCol, minRow, maxCol, maxRow := g.cellRange(footprint)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			i := row*g.cols + col
			g.cells[i] = append(g.cells[i], obstacle)
		}
	}
}

// query calls fn with each obstacle overlapping the cells touched by the
// region, once per obstacle, until fn returns true.
func (g *grid) query(r navmesh.Region, seen []bool, fn func(obstacle int) bool) bool {
	minCol, minRow, maxCol, maxRow := g.cellRange(r)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, o := range g.cells[row*g.cols+col] {
				if seen[o] {
					continue
				}
				seen[o] = true

				if fn(o) {
					return true
				}
			}
		}
	}
	return false
}

func (g *grid) cellRange(r navmesh.Region) (minCol, minRow, maxCol, maxRow int) {
	minCol = g.clamp(int(math.Floor((r.MinX()-g.minX)/g.resolution)), g.cols)
	minRow = g.clamp(int(math.Floor((r.MinY()-g.minY)/g.resolution)), g.rows)
	maxCol = g.clamp(int(math.Floor((r.MaxX()-g.minX)/g.resolution)), g.cols)
	maxRow = g.clamp(int(math.Floor((r.MaxY()-g.minY)/g.resolution)), g.rows)
	return minCol, minRow, maxCol, maxRow
}

func (g *grid) clamp(v, n int) int {
	return max(0, min(v, n-1))
}

// occupancy returns the number of obstacles referenced by each cell, row by
// row.
func (g *grid) occupancy() []int {
	occupancy := make([]int, len(g.cells))
	for i, c := range g.cells {
		occupancy[i] = len(c)
	}
	return occupancy
}
