package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

func mustNew(t *testing.T, w, h int, initial, boundary float64) *Grid {
	t.Helper()
	g, err := New(w, h, initial, boundary)
	require.NoError(t, err)
	return g
}

func interiorBand(g *Grid) partition.Band {
	return partition.Band{Start: 1, End: g.Height - 1}
}

func TestNewFixesBoundary(t *testing.T) {
	g := mustNew(t, 5, 4, 0, 100)

	for c := 0; c < g.Width; c++ {
		assert.Equal(t, 100.0, g.At(0, c))
		assert.Equal(t, 100.0, g.At(g.Height-1, c))
	}
	for r := 0; r < g.Height; r++ {
		assert.Equal(t, 100.0, g.At(r, 0))
		assert.Equal(t, 100.0, g.At(r, g.Width-1))
	}
	assert.Equal(t, 0.0, g.At(1, 1))
	assert.Equal(t, 0.0, g.At(2, 3))
}

func TestNewRejectsTinyGrids(t *testing.T) {
	for _, dims := range [][2]int{{2, 5}, {5, 2}, {0, 0}, {1, 3}} {
		_, err := New(dims[0], dims[1], 0, 100)
		assert.Error(t, err, "dims %v", dims)
	}
}

func TestJacobiStepAveragesNeighbors(t *testing.T) {
	g := mustNew(t, 3, 3, 0, 100)
	next := g.Clone()

	JacobiStep(g, next, interiorBand(g))

	// The single interior cell is surrounded by four boundary cells.
	assert.Equal(t, 100.0, next.At(1, 1))
	// Borders stay untouched.
	assert.Equal(t, 100.0, next.At(0, 1))
	assert.Equal(t, 100.0, next.At(2, 1))
}

// A uniform grid whose interior already equals the boundary is a fixed point
// of the Jacobi update.
func TestJacobiStepFixedPoint(t *testing.T) {
	g := mustNew(t, 8, 8, 100, 100)
	next := g.Clone()

	JacobiStep(g, next, interiorBand(g))

	assert.Zero(t, g.MaxDiff(next))
}

// Splitting one step across several bands must be indistinguishable from one
// whole-interior step.
func TestJacobiStepBandedMatchesWhole(t *testing.T) {
	g := mustNew(t, 9, 11, 0, 100)
	// Perturb the interior so the test is not a fixed point.
	g.Set(3, 4, 42.5)
	g.Set(7, 2, -13.25)

	whole := g.Clone()
	JacobiStep(g, whole, interiorBand(g))

	banded := g.Clone()
	bands, err := partition.Plan(g.InteriorRows(), 4)
	require.NoError(t, err)
	for _, b := range bands {
		JacobiStep(g, banded, b)
	}

	if diff := cmp.Diff(whole.Cells(), banded.Cells()); diff != "" {
		t.Fatalf("banded step diverged from whole step (-whole +banded):\n%s", diff)
	}
}

func TestApplyBoundaryRestampsAfterBulkCopy(t *testing.T) {
	g := mustNew(t, 4, 4, 0, 100)

	raw := make([]float64, g.Width*g.Height)
	for i := range raw {
		raw[i] = 7.0 // stray writes everywhere, borders included
	}
	g.CopyFrom(raw)

	assert.Equal(t, 100.0, g.At(0, 0))
	assert.Equal(t, 100.0, g.At(3, 3))
	assert.Equal(t, 100.0, g.At(1, 0))
	assert.Equal(t, 7.0, g.At(1, 1))
}

func TestMeanInterior(t *testing.T) {
	g := mustNew(t, 4, 4, 2, 100)
	// 2x2 interior, all at 2.
	assert.Equal(t, 2.0, g.MeanInterior())

	g.Set(1, 1, 6)
	assert.Equal(t, 3.0, g.MeanInterior())
}

func TestMaxDiff(t *testing.T) {
	a := mustNew(t, 5, 5, 0, 100)
	b := a.Clone()
	assert.Zero(t, a.MaxDiff(b))

	b.Set(2, 2, 3.5)
	b.Set(3, 3, -1.0)
	assert.Equal(t, 3.5, a.MaxDiff(b))
	assert.Equal(t, 3.5, b.MaxDiff(a))
}

func TestExtractMergeSlice(t *testing.T) {
	g := mustNew(t, 6, 10, 0, 100)
	for r := 1; r < g.Height-1; r++ {
		for c := 1; c < g.Width-1; c++ {
			g.Set(r, c, float64(r*10+c))
		}
	}

	band := partition.Band{Start: 4, End: 7}
	s := g.ExtractSlice(band)

	// One halo row above and below the band.
	assert.Equal(t, 3, s.Top)
	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, g.Width, s.Width)
	assert.Equal(t, g.At(3, 2), s.Cells[2])

	// The slice is a copy, not a view.
	s.Cells[0] = -999
	assert.Equal(t, 100.0, g.At(3, 0))

	// Merging writes the band's interior only.
	dst := mustNew(t, 6, 10, 0, 100)
	dst.MergeSlice(g.ExtractSlice(band), band)
	for r := band.Start; r < band.End; r++ {
		for c := 1; c < g.Width-1; c++ {
			assert.Equal(t, g.At(r, c), dst.At(r, c))
		}
	}
	// Halo rows were ignored.
	assert.Equal(t, 0.0, dst.At(3, 2))
	assert.Equal(t, 0.0, dst.At(7, 2))
}

func TestSliceClampedAtGridEdges(t *testing.T) {
	g := mustNew(t, 5, 6, 0, 100)

	top := g.ExtractSlice(partition.Band{Start: 1, End: 3})
	assert.Equal(t, 0, top.Top)
	assert.Equal(t, 4, top.Rows)

	bottom := g.ExtractSlice(partition.Band{Start: 3, End: 5})
	assert.Equal(t, 2, bottom.Top)
	assert.Equal(t, 4, bottom.Rows)
}

// A worker computing on a slice must produce exactly what the same band of a
// whole-grid step produces.
func TestSliceJacobiMatchesGridStep(t *testing.T) {
	g := mustNew(t, 7, 9, 0, 100)
	g.Set(2, 3, 55)
	g.Set(5, 5, -20)

	want := g.Clone()
	JacobiStep(g, want, interiorBand(g))

	got := g.Clone()
	bands, err := partition.Plan(g.InteriorRows(), 3)
	require.NoError(t, err)
	for _, b := range bands {
		got.MergeSlice(g.ExtractSlice(b).Jacobi(), b)
	}

	if diff := cmp.Diff(want.Cells(), got.Cells()); diff != "" {
		t.Fatalf("slice compute diverged from grid step:\n%s", diff)
	}
}
