// Package dist implements the distributed backend: a master that drives a
// fixed set of TCP workers, exchanging halo slices in length-prefixed frames.
// Master and worker are independent state machines that share nothing but
// the framed wire format.
package dist

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
)

// maxFrameSize bounds a frame payload. A prefix above it is treated as
// malformed rather than honored with a giant allocation.
const maxFrameSize = 1 << 28

// sliceHeaderSize is rows, cols, top — three big-endian uint32s.
const sliceHeaderSize = 12

// TransportError reports a failed or short read/write on a connection. Any
// TransportError is fatal for that connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// WriteFrame writes one [4-byte big-endian length][payload] message.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return &TransportError{Op: "writing length prefix", Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &TransportError{Op: "writing payload", Err: err}
	}
	return nil
}

// ReadFrame reads one message. A clean end-of-stream on a frame boundary is
// returned as io.EOF; a stream that dies mid-frame (short prefix or short
// payload) is a TransportError.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &TransportError{Op: "reading length prefix", Err: err}
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length > maxFrameSize {
		return nil, &TransportError{Op: "validating length prefix", Err: fmt.Errorf("frame of %d bytes exceeds limit", length)}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &TransportError{Op: "reading payload", Err: err}
	}
	return payload, nil
}

// EncodeSlice serializes a halo slice: rows, cols, top header followed by
// the row-major cells as big-endian IEEE-754 bits. Floats travel as raw bits
// so a round trip is bit-identical.
func EncodeSlice(s grid.Slice) []byte {
	buf := make([]byte, sliceHeaderSize+8*len(s.Cells))
	binary.BigEndian.PutUint32(buf[0:4], uint32(s.Rows))
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.Width))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.Top))
	for i, v := range s.Cells {
		binary.BigEndian.PutUint64(buf[sliceHeaderSize+8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeSlice is the inverse of EncodeSlice.
func DecodeSlice(payload []byte) (grid.Slice, error) {
	if len(payload) < sliceHeaderSize {
		return grid.Slice{}, &TransportError{Op: "decoding slice header", Err: fmt.Errorf("payload of %d bytes is too short", len(payload))}
	}
	rows := int(binary.BigEndian.Uint32(payload[0:4]))
	width := int(binary.BigEndian.Uint32(payload[4:8]))
	top := int(binary.BigEndian.Uint32(payload[8:12]))

	// The dimensions come off the wire, so bound them before any size
	// arithmetic: rows*width must stay under the frame limit, and the
	// division form of the check cannot overflow.
	const maxCells = (maxFrameSize - sliceHeaderSize) / 8
	if rows == 0 || width == 0 || rows > maxCells/width {
		return grid.Slice{}, &TransportError{Op: "decoding slice header", Err: fmt.Errorf("implausible %dx%d slice", rows, width)}
	}

	if want := sliceHeaderSize + 8*rows*width; len(payload) != want {
		return grid.Slice{}, &TransportError{Op: "decoding slice cells", Err: fmt.Errorf("payload is %d bytes, %dx%d slice needs %d", len(payload), rows, width, want)}
	}

	s := grid.Slice{Top: top, Rows: rows, Width: width, Cells: make([]float64, rows*width)}
	for i := range s.Cells {
		s.Cells[i] = math.Float64frombits(binary.BigEndian.Uint64(payload[sliceHeaderSize+8*i:]))
	}
	return s, nil
}

// SendSlice frames and writes one slice.
func SendSlice(w io.Writer, s grid.Slice) error {
	return WriteFrame(w, EncodeSlice(s))
}

// RecvSlice reads and decodes one slice. io.EOF passes through untouched so
// callers can tell an intentional disconnect from a mid-frame failure.
func RecvSlice(r io.Reader) (grid.Slice, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return grid.Slice{}, err
	}
	return DecodeSlice(payload)
}
