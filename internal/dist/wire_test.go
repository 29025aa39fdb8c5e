package dist

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/grid"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello halo")

	require.NoError(t, WriteFrame(&buf, payload))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameShortReads(t *testing.T) {
	// Short length prefix.
	_, err := ReadFrame(strings.NewReader("\x00\x00"))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	// Prefix promises more payload than the stream holds.
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("full payload")))
	truncated := buf.Bytes()[:buf.Len()-5]
	_, err = ReadFrame(bytes.NewReader(truncated))
	require.ErrorAs(t, err, &terr)
}

func TestReadFrameOversizedPrefix(t *testing.T) {
	_, err := ReadFrame(strings.NewReader("\xff\xff\xff\xff"))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}

// Serialization must reproduce the exact bits sent, including the values
// float comparison would mishandle.
func TestSliceRoundTripBitIdentical(t *testing.T) {
	s := grid.Slice{
		Top:   4,
		Rows:  2,
		Width: 4,
		Cells: []float64{
			0, math.Copysign(0, -1), math.NaN(), math.Inf(1),
			math.Inf(-1), math.Pi, math.SmallestNonzeroFloat64, -273.15,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, SendSlice(&buf, s))
	got, err := RecvSlice(&buf)
	require.NoError(t, err)

	assert.Equal(t, s.Top, got.Top)
	assert.Equal(t, s.Rows, got.Rows)
	assert.Equal(t, s.Width, got.Width)
	require.Len(t, got.Cells, len(s.Cells))
	for i := range s.Cells {
		assert.Equal(t, math.Float64bits(s.Cells[i]), math.Float64bits(got.Cells[i]), "cell %d", i)
	}
}

func TestDecodeSliceMalformed(t *testing.T) {
	var terr *TransportError

	// Header truncated.
	_, err := DecodeSlice(make([]byte, 7))
	require.ErrorAs(t, err, &terr)

	// Header promises the wrong number of cells.
	s := grid.Slice{Top: 0, Rows: 2, Width: 3, Cells: make([]float64, 6)}
	payload := EncodeSlice(s)
	_, err = DecodeSlice(payload[:len(payload)-8])
	require.ErrorAs(t, err, &terr)

	// Dimensions whose product wraps around 64 bits. The bogus size check
	// would pass and the cell allocation would panic; this must surface as
	// a transport error like any other malformed header.
	overflow := make([]byte, sliceHeaderSize)
	binary.BigEndian.PutUint32(overflow[0:4], 1<<30) // rows
	binary.BigEndian.PutUint32(overflow[4:8], 1<<31) // cols
	_, err = DecodeSlice(overflow)
	require.ErrorAs(t, err, &terr)

	// Zero-dimension headers are malformed too, whatever the payload says.
	zero := make([]byte, sliceHeaderSize)
	_, err = DecodeSlice(zero)
	require.ErrorAs(t, err, &terr)

	// Oversized but non-wrapping dimensions.
	huge := make([]byte, sliceHeaderSize)
	binary.BigEndian.PutUint32(huge[0:4], 1<<20)
	binary.BigEndian.PutUint32(huge[4:8], 1<<20)
	_, err = DecodeSlice(huge)
	require.ErrorAs(t, err, &terr)
}
