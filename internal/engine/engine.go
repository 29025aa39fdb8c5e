// Package engine defines the simulation entry point shared by all backends
// and implements the two in-process ones (sequential and threaded). The
// shared-segment and distributed backends live in their own packages but
// speak the same Params/Result contract.
package engine

import (
	"context"
	"fmt"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
)

// Default simulation parameters, matching the classic hot-plate setup.
const (
	DefaultInitialTemp   = 0.0
	DefaultBoundaryTemp  = 100.0
	DefaultThreshold     = 1e-6
	DefaultCheckInterval = 1
)

// Params configures one simulation run. Use NewParams for the defaults and
// override fields as needed.
type Params struct {
	Width      int
	Height     int
	Iterations int // iteration budget; the run may converge earlier
	Workers    int // parallel resource count; ignored by the sequential engine

	InitialTemp  float64
	BoundaryTemp float64
	Threshold    float64 // max-abs-difference below which the run is converged

	// CheckInterval is how many iterations pass between convergence checks.
	// Backends where the check requires copying a buffer out (the
	// shared-segment engine) default it higher; the run may then overshoot
	// the true convergence point by up to CheckInterval-1 iterations.
	CheckInterval int
}

// NewParams returns Params with the standard defaults applied.
func NewParams(width, height, iterations, workers int) Params {
	return Params{
		Width:         width,
		Height:        height,
		Iterations:    iterations,
		Workers:       workers,
		InitialTemp:   DefaultInitialTemp,
		BoundaryTemp:  DefaultBoundaryTemp,
		Threshold:     DefaultThreshold,
		CheckInterval: DefaultCheckInterval,
	}
}

// Validate reports the first structural problem with the parameters.
func (p Params) Validate() error {
	if p.Width < grid.MinDim || p.Height < grid.MinDim {
		return fmt.Errorf("grid must be at least %dx%d, got %dx%d", grid.MinDim, grid.MinDim, p.Width, p.Height)
	}
	if p.Iterations < 1 {
		return fmt.Errorf("iteration budget must be positive, got %d", p.Iterations)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("convergence threshold must be positive, got %g", p.Threshold)
	}
	if p.CheckInterval < 1 {
		return fmt.Errorf("check interval must be positive, got %d", p.CheckInterval)
	}
	return nil
}

// Result is what one Simulate call produces.
type Result struct {
	Iterations       int
	Converged        bool
	MeanInteriorTemp float64
}

// Engine runs one simulation to convergence or budget exhaustion. Every
// backend creates all of its resources inside Simulate and tears them down
// before returning, on success and on error.
type Engine interface {
	Simulate(ctx context.Context, p Params) (Result, error)
}

// CheckDue reports whether convergence should be measured after 1-based
// iteration iter, given the check interval. The first iteration is always
// checked so a grid that starts at its fixed point converges immediately.
func CheckDue(iter, interval int) bool {
	return (iter-1)%interval == 0
}
