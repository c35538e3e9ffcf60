package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelTrace, ParseLogLevel("trace"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLogLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("bogus"))
}

func TestLimitedLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	ll := NewLimitedLogger(&buf, LogLevelWarn)
	defer SetGlobal(nil)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")

	ll.SetLevel(LogLevelDebug)
	Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestTrace_NoopWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	NewLimitedLogger(&buf, LogLevelInfo)
	defer SetGlobal(nil)

	Trace("op")()

	assert.Equal(t, 0, buf.Len())
}

func TestTrace_LogsDuration(t *testing.T) {
	var buf bytes.Buffer
	NewLimitedLogger(&buf, LogLevelTrace)
	defer SetGlobal(nil)

	Trace("generator.Run")()

	assert.Contains(t, buf.String(), "[TRACE] generator.Run:")
}

func TestOpen_RotatesPastMaxLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctagline.log")

	var seed strings.Builder
	for range MaxLogLines {
		seed.WriteString("old\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(seed.String()), 0o644))

	ll, err := Open(path, LogLevelInfo)
	require.NoError(t, err)
	defer SetGlobal(nil)

	Info("newest line")
	require.NoError(t, ll.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")

	assert.Equal(t, MaxLogLines, len(lines))
	assert.Contains(t, lines[len(lines)-1], "newest line")
}

func TestEnabled_FollowsGlobalLevel(t *testing.T) {
	var buf bytes.Buffer
	ll := NewLimitedLogger(&buf, LogLevelInfo)
	defer SetGlobal(nil)

	assert.False(t, Enabled(LogLevelDebug))
	assert.True(t, Enabled(LogLevelInfo))
	assert.True(t, Enabled(LogLevelError))

	ll.SetLevel(LogLevelDebug)
	assert.True(t, Enabled(LogLevelDebug))
	assert.False(t, Enabled(LogLevelTrace))
}
