package shmseg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/partition"
)

// Job tells one worker to advance one band by one Jacobi step, reading from
// the segment named ReadName and writing into WriteName. Segments are always
// referenced by name so the descriptor is self-contained across processes.
type Job struct {
	ReadName  string         `json:"read"`
	WriteName string         `json:"write"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Band      partition.Band `json:"band"`
}

// ack is a worker's reply to one job.
type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Run executes the job in the calling process: attach both segments by name,
// step the band, detach. Both the in-process pool and the segment-worker
// role go through here, so tests exercise the same path as production.
func (j Job) Run() error {
	size := j.Width * j.Height * 8

	read, err := Attach(j.ReadName, size)
	if err != nil {
		return err
	}
	defer read.Close()

	write, err := Attach(j.WriteName, size)
	if err != nil {
		return err
	}
	defer write.Close()

	grid.JacobiStepCells(read.Float64s(), write.Float64s(), j.Width, j.Band.Start, j.Band.End)
	return nil
}

// ServeJobs is the segment-worker process loop: one JSON job per line in, one
// JSON ack per line out, until EOF. EOF is the normal shutdown signal — the
// pool simply closes the worker's stdin when draining.
func ServeJobs(r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	enc := json.NewEncoder(w)

	for {
		var job Job
		if err := dec.Decode(&job); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decoding job: %w", err)
		}

		reply := ack{OK: true}
		if err := job.Run(); err != nil {
			reply = ack{OK: false, Error: err.Error()}
		}
		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("encoding ack: %w", err)
		}
	}
}
