package app

import "errors"

// Process roles. A single binary serves as the simulation driver, as a
// TCP worker joining a remote master, and as the stdio job-loop child
// spawned by the shared-segment process pool.
const (
	RoleRun           = "run"
	RoleWorker        = "worker"
	RoleSegmentWorker = "segment-worker"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenarioPath string // hcl file or directory of simulation blocks
	Engine       string // ad-hoc run when no scenario is given

	Width      int
	Height     int
	Iterations int
	Workers    int

	Role string
	Host string
	Port int

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Role {
	case RoleRun:
		if cfg.ScenarioPath == "" && cfg.Engine == "" {
			return nil, errors.New("either a scenario path or an engine is required")
		}
	case RoleWorker:
		if cfg.Host == "" {
			return nil, errors.New("worker role requires a master host")
		}
		if cfg.Port < 1 || cfg.Port > 65535 {
			return nil, errors.New("worker role requires a valid master port")
		}
	case RoleSegmentWorker:
		// No configuration beyond the role itself; jobs arrive on stdin.
	default:
		return nil, errors.New("role must be 'run', 'worker', or 'segment-worker'")
	}

	return &cfg, nil
}
