package engine

import (
	"context"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// Sequential is the reference backend: one Jacobi sweep over the whole
// interior per iteration. Every other backend must agree with it numerically.
type Sequential struct{}

// NewSequential returns the sequential engine.
func NewSequential() *Sequential { return &Sequential{} }

// Simulate runs the Jacobi iteration until convergence or budget exhaustion.
func (e *Sequential) Simulate(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	logger := ctxlog.From(ctx)

	cur, err := grid.New(p.Width, p.Height, p.InitialTemp, p.BoundaryTemp)
	if err != nil {
		return Result{}, err
	}
	next := cur.Clone()
	interior := partition.Band{Start: 1, End: p.Height - 1}

	for iter := 1; iter <= p.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		grid.JacobiStep(cur, next, interior)

		converged := false
		if CheckDue(iter, p.CheckInterval) {
			converged = next.MaxDiff(cur) < p.Threshold
		}
		cur, next = next, cur

		if converged {
			logger.Debug("Sequential run converged.", "iteration", iter)
			return Result{Iterations: iter, Converged: true, MeanInteriorTemp: cur.MeanInterior()}, nil
		}
	}

	logger.Debug("Sequential run exhausted iteration budget.", "iterations", p.Iterations)
	return Result{Iterations: p.Iterations, Converged: false, MeanInteriorTemp: cur.MeanInterior()}, nil
}
