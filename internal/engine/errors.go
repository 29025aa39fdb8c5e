package engine

import "fmt"

// ResourceInitError reports a failure to acquire a backing resource (shared
// segment, socket, listener) before the iteration loop started.
type ResourceInitError struct {
	Resource string
	Err      error
}

func (e *ResourceInitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Resource, e.Err)
}

func (e *ResourceInitError) Unwrap() error { return e.Err }

// WorkerFailure reports that one worker (goroutine, process, or connection)
// failed mid-round. A partial round is unusable because reassembly assumes
// every band reports, so a WorkerFailure is fatal to the whole run; the
// engine still tears all resources down before surfacing it.
type WorkerFailure struct {
	Worker int
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %d failed: %v", e.Worker, e.Err)
}

func (e *WorkerFailure) Unwrap() error { return e.Err }
