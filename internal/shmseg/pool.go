package shmseg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
)

// Pool dispatches one round of jobs and blocks until every job completed.
// The engine never starts round N+1 before Dispatch for round N returned.
type Pool interface {
	Dispatch(ctx context.Context, jobs []Job) error
	Close() error
}

// GoroutinePool runs jobs in the calling process through the same
// attach-by-name path the process workers use. It backs small runs, runs
// without a configured worker binary, and the test suite.
type GoroutinePool struct {
	workers int
}

// NewGoroutinePool returns a pool of at most workers concurrent jobs.
func NewGoroutinePool(workers int) *GoroutinePool {
	return &GoroutinePool{workers: workers}
}

// Dispatch fans the jobs out and joins all of them.
func (p *GoroutinePool) Dispatch(ctx context.Context, jobs []Job) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := job.Run(); err != nil {
				return &engine.WorkerFailure{Worker: i, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// Close is a no-op; goroutine workers hold no resources between rounds.
func (p *GoroutinePool) Close() error { return nil }

// ProcessPool keeps a fixed set of long-lived worker processes, each running
// the segment-worker role and speaking the line-delimited job/ack protocol
// over its stdin/stdout. Job i of a round goes to process i.
type ProcessPool struct {
	procs []*workerProc
}

type workerProc struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
}

// NewProcessPool starts workers processes from the given binary and
// arguments. On any spawn failure the already-started processes are torn
// down before the error is returned.
func NewProcessPool(ctx context.Context, workers int, binary string, args ...string) (*ProcessPool, error) {
	p := &ProcessPool{}
	for i := 0; i < workers; i++ {
		proc, err := startWorkerProc(ctx, binary, args)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("starting worker process %d: %w", i, err)
		}
		p.procs = append(p.procs, proc)
	}
	return p, nil
}

func startWorkerProc(ctx context.Context, binary string, args []string) (*workerProc, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &workerProc{
		cmd:   cmd,
		stdin: stdin,
		enc:   json.NewEncoder(stdin),
		dec:   json.NewDecoder(stdout),
	}, nil
}

// Dispatch sends each job to its process and waits for every ack.
func (p *ProcessPool) Dispatch(ctx context.Context, jobs []Job) error {
	if len(jobs) > len(p.procs) {
		return fmt.Errorf("%d jobs dispatched to a pool of %d workers", len(jobs), len(p.procs))
	}

	g, _ := errgroup.WithContext(ctx)
	for i, job := range jobs {
		proc := p.procs[i]
		g.Go(func() error {
			if err := proc.enc.Encode(job); err != nil {
				return &engine.WorkerFailure{Worker: i, Err: fmt.Errorf("sending job: %w", err)}
			}
			var reply ack
			if err := proc.dec.Decode(&reply); err != nil {
				return &engine.WorkerFailure{Worker: i, Err: fmt.Errorf("reading ack: %w", err)}
			}
			if !reply.OK {
				return &engine.WorkerFailure{Worker: i, Err: fmt.Errorf("job rejected: %s", reply.Error)}
			}
			return nil
		})
	}
	return g.Wait()
}

// Close drains the pool: closing each worker's stdin is the shutdown signal,
// then every process is awaited. Must complete before segments are
// destroyed, otherwise a straggler could attach a dying name.
func (p *ProcessPool) Close() error {
	var firstErr error
	for _, proc := range p.procs {
		if err := proc.stdin.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, proc := range p.procs {
		if err := proc.cmd.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.procs = nil
	return firstErr
}
