package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewTextLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "debug", Format: "text", Output: &buf})

	logger.Info("exchange complete", "session_id", "s1", "tool_calls", 2)
	out := buf.String()
	assert.Contains(t, out, "exchange complete")
	assert.Contains(t, out, "session_id=s1")
	assert.Contains(t, out, "tool_calls=2")
}

func TestNewJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("suppressed")
	logger.Warn("emitted")
	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "emitted")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l := New(nil)
	assert.Equal(t, l, OrNoOp(l))
}
