package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "paymaster.log")

	l, err := New(&Config{
		LogFile:     logFile,
		MaxSize: 1,
		Console: &console,
	})
	require.NoError(t, err)

	l.WithComponent("fees").Info("estimate done")
	l.LogError("estimate failed", errors.New("boom"))
	_ = l.Sync()

	assert.Contains(t, console.String(), "estimate done")
	assert.Contains(t, console.String(), "boom")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fees", entry["component"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestProductionLevelSkipsDebug(t *testing.T) {
	var console bytes.Buffer
	l, err := New(&Config{Console: &console})
	require.NoError(t, err)

	end := l.TrackPerformance("estimate")
	end()
	l.Debug("hidden")
	l.Info("visible")

	assert.NotContains(t, console.String(), "hidden")
	assert.NotContains(t, console.String(), "Operation completed")
	assert.Contains(t, console.String(), "visible")
}

func TestWithOperationAddsCorrelationID(t *testing.T) {
	var console bytes.Buffer
	l, err := New(&Config{Console: &console})
	require.NoError(t, err)

	l.WithOperation("convert").Info("step")
	assert.Contains(t, console.String(), "correlation_id")
	assert.Contains(t, console.String(), "convert")
}
