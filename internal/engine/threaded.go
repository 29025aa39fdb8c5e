package engine

import (
	"context"
	"sync"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// Threaded runs the Jacobi iteration with a fixed set of long-lived worker
// goroutines, one per band, coordinated in strict lock-step rounds by a
// two-phase barrier: a start release and a done rendezvous. No worker starts
// round N+1 before every worker finished round N.
//
// Oversized worker counts are clamped to one band per interior row.
type Threaded struct{}

// NewThreaded returns the threaded engine.
func NewThreaded() *Threaded { return &Threaded{} }

// threadedRun is the state shared between the coordinator and its workers
// for the duration of one Simulate call. The coordinator only mutates it
// between the done rendezvous and the next start release, so the barrier
// ordering makes every field race-free without locks.
type threadedRun struct {
	read  *grid.Grid
	write *grid.Grid
	stop  bool      // raised once; workers seeing it skip compute and exit
	diffs []float64 // per-worker local max-abs-difference for the round
	done  sync.WaitGroup
}

// worker is one band-bound loop. Released by a start signal, it either exits
// (stop raised) or advances its band one Jacobi step, records its local
// max-difference, and reports to the done barrier.
func (run *threadedRun) worker(id int, band partition.Band, start <-chan struct{}) {
	for range start {
		if run.stop {
			run.done.Done()
			return
		}
		grid.JacobiStep(run.read, run.write, band)
		run.diffs[id] = run.write.MaxDiffBand(run.read, band)
		run.done.Done()
	}
}

// Simulate spawns the workers, drives the rounds, and always performs the
// stop handshake before returning so no worker goroutine is left blocked.
func (e *Threaded) Simulate(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	logger := ctxlog.From(ctx)

	bands, err := partition.Plan(p.Height-2, partition.Clamp(p.Height-2, p.Workers))
	if err != nil {
		return Result{}, err
	}

	cur, err := grid.New(p.Width, p.Height, p.InitialTemp, p.BoundaryTemp)
	if err != nil {
		return Result{}, err
	}

	run := &threadedRun{
		read:  cur,
		write: cur.Clone(),
		diffs: make([]float64, len(bands)),
	}
	starts := make([]chan struct{}, len(bands))
	for i, band := range bands {
		starts[i] = make(chan struct{}, 1)
		go run.worker(i, band, starts[i])
	}
	logger.Debug("Threaded workers started.", "workers", len(bands))

	release := func() {
		run.done.Add(len(bands))
		for _, ch := range starts {
			ch <- struct{}{}
		}
		run.done.Wait()
	}
	// stopAll is the one way out: raise the flag, release every worker one
	// last time, and wait for all of them to land on the done barrier.
	stopAll := func() {
		run.stop = true
		release()
		for _, ch := range starts {
			close(ch)
		}
	}

	for iter := 1; iter <= p.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			stopAll()
			return Result{}, err
		}

		release()

		converged := false
		if CheckDue(iter, p.CheckInterval) {
			// The global metric is the worst band, never a single
			// worker's value.
			maxDiff := 0.0
			for _, d := range run.diffs {
				if d > maxDiff {
					maxDiff = d
				}
			}
			converged = maxDiff < p.Threshold
		}
		run.read, run.write = run.write, run.read

		if converged {
			stopAll()
			logger.Debug("Threaded run converged.", "iteration", iter)
			return Result{Iterations: iter, Converged: true, MeanInteriorTemp: run.read.MeanInterior()}, nil
		}
	}

	stopAll()
	logger.Debug("Threaded run exhausted iteration budget.", "iterations", p.Iterations)
	return Result{Iterations: p.Iterations, Converged: false, MeanInteriorTemp: run.read.MeanInterior()}, nil
}
