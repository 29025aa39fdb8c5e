// Package scenario loads simulation scenarios from HCL files. A scenario
// file holds one or more simulation blocks:
//
//	simulation "big-threaded" {
//	  engine     = "threaded"
//	  width      = 500
//	  height     = 500
//	  iterations = 1000
//	  workers    = 8
//	}
//
// Only engine, width, height and iterations are required; everything else
// falls back to the engine defaults.
package scenario

import (
	"fmt"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/shmseg"
)

// Engine names accepted in a simulation block.
const (
	EngineSequential  = "sequential"
	EngineThreaded    = "threaded"
	EngineShared      = "shared"
	EngineDistributed = "distributed"
)

// DefaultPort is the master port used when a distributed block names none.
const DefaultPort = 8888

// Run is one fully-resolved simulation to execute.
type Run struct {
	Name   string
	Engine string
	Params engine.Params

	// Distributed only.
	Port         int
	LocalWorkers bool // launch in-process workers instead of waiting for remote ones
}

func validEngine(name string) bool {
	switch name {
	case EngineSequential, EngineThreaded, EngineShared, EngineDistributed:
		return true
	}
	return false
}

// defaultCheckInterval returns the per-engine convergence check cadence used
// when a block does not set one.
func defaultCheckInterval(engineName string) int {
	if engineName == EngineShared {
		return shmseg.DefaultCheckInterval
	}
	return engine.DefaultCheckInterval
}

// NewRun builds a run with engine-specific defaults applied, for callers
// assembling a simulation outside an HCL file.
func NewRun(name, engineName string, params engine.Params) Run {
	if params.CheckInterval == engine.DefaultCheckInterval {
		params.CheckInterval = defaultCheckInterval(engineName)
	}
	return Run{Name: name, Engine: engineName, Params: params, Port: DefaultPort}
}

// Validate reports the first problem with a resolved run beyond what the
// engine itself validates.
func (r Run) Validate() error {
	if !validEngine(r.Engine) {
		return fmt.Errorf("simulation %q: unknown engine %q", r.Name, r.Engine)
	}
	if r.Engine == EngineDistributed && (r.Port < 1 || r.Port > 65535) {
		return fmt.Errorf("simulation %q: invalid port %d", r.Name, r.Port)
	}
	return r.Params.Validate()
}
