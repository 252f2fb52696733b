package logx

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(log.New(&buf, "", 0))

	logger.Debug("hidden at default level")
	logger.Info("visible info")
	logger.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden at default level")
	assert.Contains(t, out, "INFO: visible info")
	assert.Contains(t, out, "WARN: visible warn")
}

func TestDefaultLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(log.New(&buf, "", 0))

	logger.SetLevel(protocol.LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "DEBUG: now visible")

	buf.Reset()
	logger.SetLevel(protocol.LogLevelError)
	logger.Warn("now hidden")
	logger.Error("still visible")
	out := buf.String()
	assert.NotContains(t, out, "now hidden")
	assert.Contains(t, out, "ERROR: still visible")
}

func TestNewLoggerNilFallsBackToStderr(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	logger.Info("no panic on the stderr fallback")
}
