// Package grid owns the 2D temperature field and its boundary policy.
//
// Cells are stored in a single row-major []float64 rather than a slice of
// rows, so a whole grid can be copied into or out of a shared-memory segment
// or a wire payload with one copy call. The four border lines always hold the
// boundary temperature; no update routine ever writes them, and ApplyBoundary
// re-stamps them after bulk buffer copies that might have touched them.
package grid

import (
	"fmt"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// MinDim is the smallest usable grid side: two border lines plus at least one
// interior cell.
const MinDim = 3

// Grid is a fixed-size 2D temperature field.
type Grid struct {
	Width  int
	Height int

	boundary float64
	cells    []float64
}

// New allocates a grid with every interior cell at initialTemp and the four
// border lines fixed at boundaryTemp.
func New(width, height int, initialTemp, boundaryTemp float64) (*Grid, error) {
	if width < MinDim || height < MinDim {
		return nil, fmt.Errorf("grid must be at least %dx%d, got %dx%d", MinDim, MinDim, width, height)
	}

	g := &Grid{
		Width:    width,
		Height:   height,
		boundary: boundaryTemp,
		cells:    make([]float64, width*height),
	}
	for i := range g.cells {
		g.cells[i] = initialTemp
	}
	g.ApplyBoundary()
	return g, nil
}

// Row returns the cells of row r as a slice aliasing the grid's storage.
func (g *Grid) Row(r int) []float64 {
	return g.cells[r*g.Width : (r+1)*g.Width]
}

// At returns the cell at row r, column c.
func (g *Grid) At(r, c int) float64 { return g.cells[r*g.Width+c] }

// Set assigns the cell at row r, column c.
func (g *Grid) Set(r, c int, v float64) { g.cells[r*g.Width+c] = v }

// Cells exposes the backing row-major storage. Callers copy through it when
// seeding shared segments; they must not hold it across a grid swap.
func (g *Grid) Cells() []float64 { return g.cells }

// InteriorRows returns the number of rows strictly inside the border.
func (g *Grid) InteriorRows() int { return g.Height - 2 }

// BoundaryTemp returns the fixed border temperature.
func (g *Grid) BoundaryTemp() float64 { return g.boundary }

// ApplyBoundary re-stamps the four border lines with the boundary
// temperature. Callers that bulk-copy whole buffers call it afterwards.
func (g *Grid) ApplyBoundary() {
	StampBoundary(g.cells, g.Width, g.Height, g.boundary)
}

// StampBoundary writes the boundary temperature onto the border cells of a
// raw row-major buffer. Split out from ApplyBoundary so shared-memory
// segments can be re-stamped in place without wrapping them in a Grid.
func StampBoundary(cells []float64, width, height int, boundary float64) {
	top := cells[:width]
	bottom := cells[(height-1)*width : height*width]
	for c := 0; c < width; c++ {
		top[c] = boundary
		bottom[c] = boundary
	}
	for r := 1; r < height-1; r++ {
		cells[r*width] = boundary
		cells[r*width+width-1] = boundary
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		Width:    g.Width,
		Height:   g.Height,
		boundary: g.boundary,
		cells:    make([]float64, len(g.cells)),
	}
	copy(c.cells, g.cells)
	return c
}

// CopyFrom overwrites this grid's cells from a raw row-major buffer of the
// same dimensions and re-stamps the borders.
func (g *Grid) CopyFrom(cells []float64) {
	copy(g.cells, cells)
	g.ApplyBoundary()
}

// MeanInterior averages all cells strictly inside the border.
func (g *Grid) MeanInterior() float64 {
	sum := 0.0
	for r := 1; r < g.Height-1; r++ {
		row := g.Row(r)
		for c := 1; c < g.Width-1; c++ {
			sum += row[c]
		}
	}
	return sum / float64((g.Width-2)*(g.Height-2))
}

// MaxDiff returns the maximum absolute per-cell difference between two grids
// of identical dimensions. This is the convergence metric.
func (g *Grid) MaxDiff(other *Grid) float64 {
	return MaxDiffCells(g.cells, other.cells)
}

// MaxDiffBand returns the maximum absolute difference between two grids over
// one band's interior cells. Threaded workers report this per round so the
// coordinator can fold local maxima into the global convergence metric.
func (g *Grid) MaxDiffBand(other *Grid, band partition.Band) float64 {
	max := 0.0
	for r := band.Start; r < band.End; r++ {
		a := g.Row(r)
		b := other.Row(r)
		for c := 1; c < g.Width-1; c++ {
			d := a[c] - b[c]
			if d < 0 {
				d = -d
			}
			if d > max {
				max = d
			}
		}
	}
	return max
}

// MaxDiffCells is MaxDiff over raw row-major buffers.
func MaxDiffCells(a, b []float64) float64 {
	max := 0.0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

// JacobiStep writes, for every interior cell in the band, the 4-neighbor
// average of read into write. Border cells are never written. Jacobi
// semantics: write never aliases read.
func JacobiStep(read, write *Grid, band partition.Band) {
	JacobiStepCells(read.cells, write.cells, read.Width, band.Start, band.End)
}

// JacobiStepCells is JacobiStep over raw row-major buffers, updating interior
// cells of rows [startRow, endRow). The shared-segment workers run it
// directly on mapped segments.
func JacobiStepCells(read, write []float64, width, startRow, endRow int) {
	for r := startRow; r < endRow; r++ {
		north := read[(r-1)*width : r*width]
		mid := read[r*width : (r+1)*width]
		south := read[(r+1)*width : (r+2)*width]
		out := write[r*width : (r+1)*width]
		for c := 1; c < width-1; c++ {
			out[c] = 0.25 * (north[c] + south[c] + mid[c-1] + mid[c+1])
		}
	}
}
