package raster

import "math"

// Grid is a single-band pixel grid. Unset cells are stored as NaN so that any
// arithmetic over them stays unset instead of producing a misleading number.
type Grid struct {
	Width  int
	Height int
	cells  []float64
}

func NewGrid(width, height int) *Grid {
	cells := make([]float64, width*height)
	for i := range cells {
		cells[i] = math.NaN()
	}
	return &Grid{Width: width, Height: height, cells: cells}
}

// NewGridFromValues wraps a row-major value slice. The slice is owned by the
// grid afterwards.
func NewGridFromValues(width, height int, values []float64) *Grid {
	return &Grid{Width: width, Height: height, cells: values}
}

func (g *Grid) At(x, y int) (float64, bool) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, false
	}
	v := g.cells[y*g.Width+x]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (g *Grid) Set(x, y int, v float64) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return
	}
	g.cells[y*g.Width+x] = v
}

func (g *Grid) Clear(x, y int) {
	g.Set(x, y, math.NaN())
}

// Values exposes the row-major backing slice, NaN marking unset cells.
func (g *Grid) Values() []float64 {
	return g.cells
}

// SetCount returns how many cells hold a value.
func (g *Grid) SetCount() int {
	count := 0
	for _, v := range g.cells {
		if !math.IsNaN(v) {
			count++
		}
	}
	return count
}
