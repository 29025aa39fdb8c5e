package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"tiny width", func(p *Params) { p.Width = 2 }},
		{"tiny height", func(p *Params) { p.Height = 2 }},
		{"zero iterations", func(p *Params) { p.Iterations = 0 }},
		{"zero threshold", func(p *Params) { p.Threshold = 0 }},
		{"negative threshold", func(p *Params) { p.Threshold = -1 }},
		{"zero check interval", func(p *Params) { p.CheckInterval = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParams(10, 10, 100, 1)
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}

	assert.NoError(t, NewParams(3, 3, 1, 1).Validate())
}

func TestCheckDue(t *testing.T) {
	// Interval 1 checks every iteration.
	for iter := 1; iter <= 5; iter++ {
		assert.True(t, CheckDue(iter, 1))
	}
	// Interval 10 checks iterations 1, 11, 21, ...
	assert.True(t, CheckDue(1, 10))
	assert.False(t, CheckDue(2, 10))
	assert.False(t, CheckDue(10, 10))
	assert.True(t, CheckDue(11, 10))
	assert.True(t, CheckDue(21, 10))
}

// A uniform grid whose interior already equals the boundary is a fixed point:
// the very first convergence check must fire.
func TestSequentialFixedPointConvergesImmediately(t *testing.T) {
	p := NewParams(12, 12, 100, 1)
	p.InitialTemp = p.BoundaryTemp

	res, err := NewSequential().Simulate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.True(t, res.Converged)
	assert.InDelta(t, p.BoundaryTemp, res.MeanInteriorTemp, 1e-12)
}

// The classic hot plate: all four sides at 100, interior starting cold. Every
// interior cell tends to 100. A 20x20 plate needs roughly 1100 iterations to
// push the per-iteration residual under 1e-6.
func TestSequentialHotPlateSteadyState(t *testing.T) {
	p := NewParams(20, 20, 2000, 1)

	res, err := NewSequential().Simulate(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Less(t, res.Iterations, 2000)
	assert.InDelta(t, 100.0, res.MeanInteriorTemp, 0.01)
}

// Once converged at iteration K, spending the rest of the budget moves the
// mean only marginally. The per-cell residual at convergence is bounded by
// threshold/(1-rho) with rho the Jacobi spectral radius, so the mean cannot
// be expected to move by less than the raw threshold; 1e-3 is a safe bound
// for a 20x20 plate at threshold 1e-6.
func TestSequentialConvergenceIsStable(t *testing.T) {
	p := NewParams(20, 20, 2000, 1)

	converged, err := NewSequential().Simulate(context.Background(), p)
	require.NoError(t, err)
	require.True(t, converged.Converged)

	// Force the full budget by making the threshold unreachable.
	exhausted := p
	exhausted.Threshold = math.SmallestNonzeroFloat64
	full, err := NewSequential().Simulate(context.Background(), exhausted)
	require.NoError(t, err)
	require.False(t, full.Converged)
	require.Equal(t, exhausted.Iterations, full.Iterations)

	assert.Less(t, math.Abs(full.MeanInteriorTemp-converged.MeanInteriorTemp), 1e-3)
}

func TestSequentialBudgetExhaustion(t *testing.T) {
	p := NewParams(30, 30, 5, 1)

	res, err := NewSequential().Simulate(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, 5, res.Iterations)
}

func TestSequentialCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSequential().Simulate(ctx, NewParams(10, 10, 100, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
