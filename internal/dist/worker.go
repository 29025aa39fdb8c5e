package dist

import (
	"context"
	"errors"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
)

// WorkerState is one step of the worker's connection lifecycle.
type WorkerState int

const (
	Disconnected WorkerState = iota
	Connected
	AwaitingSlice
	Processing
	SendingResult
	Closed
)

func (s WorkerState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case AwaitingSlice:
		return "awaiting-slice"
	case Processing:
		return "processing"
	case SendingResult:
		return "sending-result"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Worker is one distributed compute peer. It connects once and then loops:
// receive a halo slice, advance its interior rows one Jacobi step, send the
// result back. It knows nothing about the global iteration count, the grid,
// or the other workers.
//
// Reaching MaxIterations, a clean end-of-stream, and a transport error all
// terminate the loop normally — the master disconnects on purpose when the
// run is over, and the worker cannot tell the difference.
type Worker struct {
	// Addr is the master's host:port.
	Addr string

	// MaxIterations caps the number of slices processed; 0 means loop until
	// disconnected.
	MaxIterations int

	state WorkerState
}

// NewWorker returns a worker for the master at addr.
func NewWorker(addr string) *Worker { return &Worker{Addr: addr} }

// State reports the current lifecycle state. Only meaningful to observe
// after Run returned.
func (w *Worker) State() WorkerState { return w.state }

// Run dials the master and serves slices until termination. It blocks for
// the whole lifetime of the connection.
func (w *Worker) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx)
	w.state = Disconnected

	conn, err := net.Dial("tcp", w.Addr)
	if err != nil {
		return &engine.ResourceInitError{Resource: "master connection", Err: err}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	w.state = Connected
	logger.Debug("Worker connected to master.", "address", w.Addr)

	iterations := 0
	for {
		w.state = AwaitingSlice
		s, err := RecvSlice(conn)
		if err != nil {
			w.state = Closed
			if errors.Is(err, io.EOF) {
				logger.Debug("Worker disconnected by master.", "iterations", iterations)
			} else {
				logger.Debug("Worker connection lost.", "iterations", iterations, "error", err)
			}
			return nil
		}

		w.state = Processing
		out := s.Jacobi()

		w.state = SendingResult
		if err := SendSlice(conn, out); err != nil {
			w.state = Closed
			logger.Debug("Worker send failed, closing.", "iterations", iterations, "error", err)
			return nil
		}

		iterations++
		if w.MaxIterations > 0 && iterations >= w.MaxIterations {
			w.state = Closed
			logger.Debug("Worker reached iteration cap.", "iterations", iterations)
			return nil
		}
	}
}

// RunLocalWorkers launches n in-process workers against addr and returns the
// group to wait on. Backs the workers_local scenario mode and the tests; the
// workers are identical to out-of-process ones, they just share the binary.
func RunLocalWorkers(ctx context.Context, addr string, n int) *errgroup.Group {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return NewWorker(addr).Run(ctx)
		})
	}
	return g
}
