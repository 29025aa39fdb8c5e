// Package partition splits the interior rows of a grid into contiguous,
// non-overlapping bands, one per worker. Every engine uses the same plan so
// that a given (rows, workers) pair always maps rows to workers identically.
package partition

import "fmt"

// Band is the half-open range [Start, End) of interior rows one worker owns.
type Band struct {
	Start int // inclusive
	End   int // exclusive
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int { return b.End - b.Start }

// InvalidPartitionError reports a worker count that cannot be mapped onto the
// available interior rows.
type InvalidPartitionError struct {
	Workers int
	Rows    int
}

func (e *InvalidPartitionError) Error() string {
	return fmt.Sprintf("cannot partition %d interior rows across %d workers", e.Rows, e.Workers)
}

// Plan divides interiorRows rows (starting at absolute row 1) across workers.
// The split is deterministic: each band gets interiorRows/workers rows, and
// the first interiorRows%workers bands get one extra row, so band sizes
// differ by at most one. Bands are returned in row order and tile
// [1, interiorRows+1) exactly.
//
// Plan fails when workers < 1 or workers > interiorRows; callers that may
// hold more workers than rows decide between Clamp and rejection.
func Plan(interiorRows, workers int) ([]Band, error) {
	if workers < 1 || workers > interiorRows {
		return nil, &InvalidPartitionError{Workers: workers, Rows: interiorRows}
	}

	base := interiorRows / workers
	remainder := interiorRows % workers

	bands := make([]Band, workers)
	start := 1
	for i := range bands {
		rows := base
		if i < remainder {
			rows++
		}
		bands[i] = Band{Start: start, End: start + rows}
		start = bands[i].End
	}
	return bands, nil
}

// Clamp caps workers at one band per interior row. The in-process engines use
// it so oversized worker counts degrade to fewer workers instead of failing;
// the distributed master must not, since already-connected sockets cannot be
// silently discarded.
func Clamp(interiorRows, workers int) int {
	if workers > interiorRows {
		return interiorRows
	}
	return workers
}
