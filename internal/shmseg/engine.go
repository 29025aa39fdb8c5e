package shmseg

import (
	"context"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// DefaultCheckInterval is the shared-segment engine's convergence cadence.
// Checking requires copying a whole segment out, so it only happens every
// few iterations; the run may overshoot the convergence point by up to
// DefaultCheckInterval-1 iterations. Callers tune Params.CheckInterval when
// a denser check is worth the copies.
const DefaultCheckInterval = 10

// Engine is the shared-segment backend. Two segments are created once per
// run, seeded with the initial grid, and ping-pong between the read and
// write roles; a persistent pool of workers advances the bands in place.
type Engine struct {
	newPool func(ctx context.Context, workers int) (Pool, error)
}

// NewEngine returns a shared-segment engine whose workers are processes
// spawned from workerBinary (normally the heatgrid binary with the
// segment-worker role). An empty workerBinary selects the in-process pool.
func NewEngine(workerBinary string, workerArgs ...string) *Engine {
	return &Engine{
		newPool: func(ctx context.Context, workers int) (Pool, error) {
			if workerBinary == "" {
				return NewGoroutinePool(workers), nil
			}
			return NewProcessPool(ctx, workers, workerBinary, workerArgs...)
		},
	}
}

// Simulate runs the iteration loop over the segment pair. Teardown order is
// fixed on every exit path: drain the pool first, then unmap and unlink the
// segments, so no worker can attach a name that is being destroyed.
func (e *Engine) Simulate(ctx context.Context, p engine.Params) (engine.Result, error) {
	if err := p.Validate(); err != nil {
		return engine.Result{}, err
	}
	logger := ctxlog.From(ctx)

	bands, err := partition.Plan(p.Height-2, partition.Clamp(p.Height-2, p.Workers))
	if err != nil {
		return engine.Result{}, err
	}

	g, err := grid.New(p.Width, p.Height, p.InitialTemp, p.BoundaryTemp)
	if err != nil {
		return engine.Result{}, err
	}

	size := p.Width * p.Height * 8
	segA, err := Create(NewSegmentName(), size)
	if err != nil {
		return engine.Result{}, &engine.ResourceInitError{Resource: "shared segment", Err: err}
	}
	defer destroySegment(ctx, segA)

	segB, err := Create(NewSegmentName(), size)
	if err != nil {
		return engine.Result{}, &engine.ResourceInitError{Resource: "shared segment", Err: err}
	}
	defer destroySegment(ctx, segB)

	copy(segA.Float64s(), g.Cells())
	copy(segB.Float64s(), g.Cells())

	pool, err := e.newPool(ctx, len(bands))
	if err != nil {
		return engine.Result{}, &engine.ResourceInitError{Resource: "worker pool", Err: err}
	}
	// Registered after the segment cleanups: deferred calls run LIFO, so the
	// pool is drained before either segment is destroyed.
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("Worker pool did not drain cleanly.", "error", cerr)
		}
	}()

	logger.Debug("Shared segments ready.", "read", segA.Name, "write", segB.Name, "workers", len(bands))

	read, write := segA, segB
	prev := make([]float64, p.Width*p.Height)

	for iter := 1; iter <= p.Iterations; iter++ {
		// Borders must hold BoundaryTemp before any worker reads them.
		grid.StampBoundary(read.Float64s(), p.Width, p.Height, p.BoundaryTemp)

		due := engine.CheckDue(iter, p.CheckInterval)
		if due {
			copy(prev, read.Float64s())
		}

		jobs := make([]Job, len(bands))
		for i, band := range bands {
			jobs[i] = Job{
				ReadName:  read.Name,
				WriteName: write.Name,
				Width:     p.Width,
				Height:    p.Height,
				Band:      band,
			}
		}
		if err := pool.Dispatch(ctx, jobs); err != nil {
			return engine.Result{}, err
		}

		grid.StampBoundary(write.Float64s(), p.Width, p.Height, p.BoundaryTemp)

		converged := due && grid.MaxDiffCells(write.Float64s(), prev) < p.Threshold
		read, write = write, read

		if converged {
			g.CopyFrom(read.Float64s())
			logger.Debug("Shared-segment run converged.", "iteration", iter)
			return engine.Result{Iterations: iter, Converged: true, MeanInteriorTemp: g.MeanInterior()}, nil
		}
	}

	g.CopyFrom(read.Float64s())
	logger.Debug("Shared-segment run exhausted iteration budget.", "iterations", p.Iterations)
	return engine.Result{Iterations: p.Iterations, Converged: false, MeanInteriorTemp: g.MeanInterior()}, nil
}

func destroySegment(ctx context.Context, s *Segment) {
	logger := ctxlog.From(ctx)
	if err := s.Close(); err != nil {
		logger.Warn("Segment unmap failed.", "segment", s.Name, "error", err)
	}
	if err := s.Unlink(); err != nil {
		logger.Warn("Segment unlink failed.", "segment", s.Name, "error", err)
	}
}
