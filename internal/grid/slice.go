package grid

import "github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"

// Slice is a copied sub-rectangle of a grid covering one band plus one halo
// row above and below it, clamped to the grid bounds. It is the minimum data
// a distributed worker needs to advance its band one iteration, and it never
// aliases the grid it was extracted from.
type Slice struct {
	Top   int // absolute grid row of Cells' first row
	Rows  int
	Width int
	Cells []float64 // row-major, Rows*Width
}

// ExtractSlice copies the band's rows plus halo rows out of the grid.
func (g *Grid) ExtractSlice(band partition.Band) Slice {
	top := band.Start - 1
	if top < 0 {
		top = 0
	}
	bottom := band.End + 1
	if bottom > g.Height {
		bottom = g.Height
	}

	s := Slice{
		Top:   top,
		Rows:  bottom - top,
		Width: g.Width,
		Cells: make([]float64, (bottom-top)*g.Width),
	}
	copy(s.Cells, g.cells[top*g.Width:bottom*g.Width])
	return s
}

// MergeSlice copies the band's interior cells from the slice back into the
// grid. Halo rows and border columns in the slice are ignored, so a merge can
// never disturb the boundary.
func (g *Grid) MergeSlice(s Slice, band partition.Band) {
	for r := band.Start; r < band.End; r++ {
		src := s.Cells[(r-s.Top)*s.Width : (r-s.Top+1)*s.Width]
		dst := g.Row(r)
		copy(dst[1:g.Width-1], src[1:s.Width-1])
	}
}

// Jacobi returns a new slice whose interior cells hold the 4-neighbor average
// of the receiver; halo rows and border columns are carried over unchanged.
// This is the whole of a distributed worker's compute step.
func (s Slice) Jacobi() Slice {
	out := Slice{
		Top:   s.Top,
		Rows:  s.Rows,
		Width: s.Width,
		Cells: make([]float64, len(s.Cells)),
	}
	copy(out.Cells, s.Cells)
	JacobiStepCells(s.Cells, out.Cells, s.Width, 1, s.Rows-1)
	return out
}
