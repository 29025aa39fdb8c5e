package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPlan(t *testing.T) {
	testCases := []struct {
		name     string
		rows     int
		workers  int
		expected []Band
	}{
		{
			name:     "even split",
			rows:     8,
			workers:  4,
			expected: []Band{{1, 3}, {3, 5}, {5, 7}, {7, 9}},
		},
		{
			name:     "remainder goes to first bands",
			rows:     10,
			workers:  3,
			expected: []Band{{1, 5}, {5, 9}, {9, 11}},
		},
		{
			name:     "single worker",
			rows:     5,
			workers:  1,
			expected: []Band{{1, 6}},
		},
		{
			name:     "one row per worker",
			rows:     3,
			workers:  3,
			expected: []Band{{1, 2}, {2, 3}, {3, 4}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bands, err := Plan(tc.rows, tc.workers)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, bands)
		})
	}
}

func TestPlanInvalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		rows    int
		workers int
	}{
		{"zero workers", 10, 0},
		{"negative workers", 10, -1},
		{"more workers than rows", 3, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bands, err := Plan(tc.rows, tc.workers)
			assert.Nil(t, bands)

			var perr *InvalidPartitionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.workers, perr.Workers)
			assert.Equal(t, tc.rows, perr.Rows)
		})
	}
}

// Bands must tile [1, rows+1) exactly: ordered, gap-free, non-overlapping,
// sizes differing by at most one.
func TestPlanProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.IntRange(1, 10000).Draw(t, "rows")
		workers := rapid.IntRange(1, rows).Draw(t, "workers")

		bands, err := Plan(rows, workers)
		require.NoError(t, err)
		require.Len(t, bands, workers)

		next := 1
		minRows, maxRows := rows, 0
		for _, b := range bands {
			require.Equal(t, next, b.Start, "bands must be contiguous and ordered")
			require.Greater(t, b.End, b.Start, "bands must be non-empty")
			next = b.End
			if b.Rows() < minRows {
				minRows = b.Rows()
			}
			if b.Rows() > maxRows {
				maxRows = b.Rows()
			}
		}
		require.Equal(t, rows+1, next, "bands must cover the full interior")
		require.LessOrEqual(t, maxRows-minRows, 1, "band sizes must differ by at most one")
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 4, Clamp(10, 4))
	assert.Equal(t, 10, Clamp(10, 10))
	assert.Equal(t, 10, Clamp(10, 64))
	assert.Equal(t, 1, Clamp(1, 8))
}
