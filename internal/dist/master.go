package dist

import (
	"context"
	"fmt"
	"net"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// Master is the distributed coordinator. It accepts exactly Workers inbound
// connections, assigns each a pre-computed band in connection order (network
// timing therefore decides the worker-to-band mapping; no determinism is
// promised or needed), and drives lock-step iteration rounds: all slices are
// sent before any result is read, so workers compute concurrently with the
// remaining dispatches.
type Master struct {
	// Addr is the TCP listen address, e.g. ":8888" or "127.0.0.1:0".
	Addr string

	// OnListen, when set, fires once with the bound address. Used to launch
	// local workers against an ephemeral port.
	OnListen func(net.Addr)
}

// NewMaster returns a master listening on addr.
func NewMaster(addr string) *Master { return &Master{Addr: addr} }

// Simulate listens, gathers the workers, runs the rounds, and closes every
// socket (and the listener) before returning, on success and on failure.
//
// Unlike the in-process engines the master rejects an oversized worker count
// outright: connected sockets cannot be silently discarded.
func (m *Master) Simulate(ctx context.Context, p engine.Params) (engine.Result, error) {
	if err := p.Validate(); err != nil {
		return engine.Result{}, err
	}
	logger := ctxlog.From(ctx)

	bands, err := partition.Plan(p.Height-2, p.Workers)
	if err != nil {
		return engine.Result{}, err
	}

	ln, err := net.Listen("tcp", m.Addr)
	if err != nil {
		return engine.Result{}, &engine.ResourceInitError{Resource: "listening socket", Err: err}
	}
	defer ln.Close()
	// Unblock Accept and all socket I/O if the context dies while we wait.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	if m.OnListen != nil {
		m.OnListen(ln.Addr())
	}
	logger.Info("Master listening, waiting for workers.", "address", ln.Addr().String(), "workers", p.Workers)

	conns := make([]net.Conn, 0, p.Workers)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < p.Workers; i++ {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return engine.Result{}, ctx.Err()
			}
			return engine.Result{}, &engine.ResourceInitError{Resource: "worker connection", Err: err}
		}
		conns = append(conns, conn)
		logger.Debug("Worker connected.", "worker", i, "remote", conn.RemoteAddr().String(), "band", fmt.Sprintf("[%d,%d)", bands[i].Start, bands[i].End))
	}

	cur, err := grid.New(p.Width, p.Height, p.InitialTemp, p.BoundaryTemp)
	if err != nil {
		return engine.Result{}, err
	}
	next := cur.Clone()

	for iter := 1; iter <= p.Iterations; iter++ {
		// Send every slice before reading any result.
		for i, band := range bands {
			if err := SendSlice(conns[i], cur.ExtractSlice(band)); err != nil {
				return engine.Result{}, &engine.WorkerFailure{Worker: i, Err: err}
			}
		}
		for i, band := range bands {
			s, err := RecvSlice(conns[i])
			if err != nil {
				return engine.Result{}, &engine.WorkerFailure{Worker: i, Err: err}
			}
			if s.Width != p.Width || s.Top > band.Start-1 || s.Top+s.Rows < band.End {
				return engine.Result{}, &engine.WorkerFailure{Worker: i, Err: fmt.Errorf("result slice %dx%d@%d does not cover band [%d,%d)", s.Rows, s.Width, s.Top, band.Start, band.End)}
			}
			next.MergeSlice(s, band)
		}

		// The master holds the whole reassembled grid, so convergence comes
		// straight from it; no per-worker aggregation is involved.
		converged := false
		if engine.CheckDue(iter, p.CheckInterval) {
			converged = next.MaxDiff(cur) < p.Threshold
		}
		cur, next = next, cur

		if converged {
			logger.Debug("Distributed run converged.", "iteration", iter)
			return engine.Result{Iterations: iter, Converged: true, MeanInteriorTemp: cur.MeanInterior()}, nil
		}
	}

	logger.Debug("Distributed run exhausted iteration budget.", "iterations", p.Iterations)
	return engine.Result{Iterations: p.Iterations, Converged: false, MeanInteriorTemp: cur.MeanInterior()}, nil
}
