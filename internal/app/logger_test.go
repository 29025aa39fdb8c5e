package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	testCases := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "warn", wantDebug: false, wantInfo: false},
		{level: "error", wantDebug: false, wantInfo: false},
		{level: "nonsense", wantDebug: false, wantInfo: true}, // falls back to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			out := &bytes.Buffer{}
			logger := newLogger(tc.level, "text", out)

			logger.Debug("debug line")
			logger.Info("info line")

			assert.Equal(t, tc.wantDebug, bytes.Contains(out.Bytes(), []byte("debug line")))
			assert.Equal(t, tc.wantInfo, bytes.Contains(out.Bytes(), []byte("info line")))
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	out := &bytes.Buffer{}
	newLogger("info", "json", out).Info("structured", "engine", "threaded")

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "structured", record["msg"])
	assert.Equal(t, "threaded", record["engine"])

	out.Reset()
	newLogger("info", "text", out).Info("flat", "engine", "shared")
	assert.Contains(t, out.String(), "engine=shared")
}
