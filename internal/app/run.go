package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/dist"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/scenario"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/shmseg"
)

// Run executes the main application logic for the configured role.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.With(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "role", a.config.Role)

	switch a.config.Role {
	case RoleSegmentWorker:
		// Stdio job loop for the shared-segment process pool. Logs must not
		// touch stdout, the parent reads acks from it.
		return shmseg.ServeJobs(os.Stdin, os.Stdout)
	case RoleWorker:
		return a.runWorker(ctx)
	default:
		return a.runSimulations(ctx)
	}
}

// runWorker connects to a remote master and processes slices until the
// master disconnects.
func (a *App) runWorker(ctx context.Context) error {
	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	addr := net.JoinHostPort(a.config.Host, strconv.Itoa(a.config.Port))
	a.logger.Info("Worker connecting to master.", "addr", addr)

	worker := dist.NewWorker(addr)
	if err := worker.Run(ctx); err != nil {
		return fmt.Errorf("worker terminated: %w", err)
	}
	a.logger.Info("Worker finished.", "state", worker.State())
	return nil
}

// runSimulations resolves the list of simulations to execute, either from a
// scenario path or from the ad-hoc engine flags, and runs them in order.
func (a *App) runSimulations(ctx context.Context) error {
	runs, err := a.resolveRuns(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("Simulations resolved.", "count", len(runs))

	for _, r := range runs {
		if err := a.runOne(ctx, r); err != nil {
			return fmt.Errorf("simulation %q: %w", r.Name, err)
		}
	}
	return nil
}

func (a *App) resolveRuns(ctx context.Context) ([]scenario.Run, error) {
	if a.config.ScenarioPath != "" {
		return scenario.NewLoader().Load(ctx, a.config.ScenarioPath)
	}

	params := engine.NewParams(a.config.Width, a.config.Height, a.config.Iterations, a.config.Workers)
	run := scenario.NewRun("ad-hoc", a.config.Engine, params)
	if a.config.Port != 0 {
		run.Port = a.config.Port
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return []scenario.Run{run}, nil
}

// runOne builds the engine for a single resolved simulation, executes it,
// and logs the result.
func (a *App) runOne(ctx context.Context, r scenario.Run) error {
	logger := a.logger.With("simulation", r.Name, "engine", r.Engine)
	ctx = ctxlog.With(ctx, logger)

	eng, cleanup, err := a.buildEngine(ctx, r)
	if err != nil {
		return err
	}

	logger.Info("🌡️ Simulation starting.",
		"width", r.Params.Width,
		"height", r.Params.Height,
		"iterations", r.Params.Iterations,
		"workers", r.Params.Workers,
	)

	start := time.Now()
	result, err := eng.Simulate(ctx, r.Params)
	if cleanup != nil {
		if cerr := cleanup(); err == nil && cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	logger.Info("🏁 Simulation finished.",
		"iterations_run", result.Iterations,
		"converged", result.Converged,
		"mean_temp", result.MeanInteriorTemp,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// buildEngine maps an engine name to a backend. The optional cleanup joins
// helpers that outlive Simulate, such as in-process distributed workers.
func (a *App) buildEngine(ctx context.Context, r scenario.Run) (engine.Engine, func() error, error) {
	switch r.Engine {
	case scenario.EngineSequential:
		return engine.NewSequential(), nil, nil

	case scenario.EngineThreaded:
		return engine.NewThreaded(), nil, nil

	case scenario.EngineShared:
		binary, err := os.Executable()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving worker binary: %w", err)
		}
		return shmseg.NewEngine(binary, "--role", RoleSegmentWorker), nil, nil

	case scenario.EngineDistributed:
		host := a.config.Host
		if host == "" {
			host = "localhost"
		}
		master := dist.NewMaster(net.JoinHostPort(host, strconv.Itoa(r.Port)))

		if !r.LocalWorkers {
			return master, nil, nil
		}
		var grp *errgroup.Group
		master.OnListen = func(addr net.Addr) {
			a.logger.Info("Launching local workers.", "addr", addr.String(), "count", r.Params.Workers)
			grp = dist.RunLocalWorkers(ctx, addr.String(), r.Params.Workers)
		}
		cleanup := func() error {
			if grp == nil {
				return nil
			}
			return grp.Wait()
		}
		return master, cleanup, nil
	}

	return nil, nil, fmt.Errorf("unknown engine %q", r.Engine)
}
