// Package logx provides the local console logger used across the adapters.
// This is the "log" channel of the contract; protocol-level logging to the
// host rides a separate path and must not be conflated with it.
package logx

import (
	"log"
	"os"
	"sync"

	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// Logger defines the interface for local logging.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	SetLevel(level protocol.LogLevel)
}

// DefaultLogger is a basic Logger implementation on the standard log package.
type DefaultLogger struct {
	logger *log.Logger
	level  protocol.LogLevel
	mu     sync.Mutex
}

// NewDefaultLogger creates a logger writing to stderr with standard flags.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[AppsKit] ", log.LstdFlags|log.Lmsgprefix),
		level:  protocol.LogLevelInfo,
	}
}

// NewLogger creates a logger writing to the given standard logger, or a
// stderr-backed one when nil is passed.
func NewLogger(base *log.Logger) *DefaultLogger {
	if base == nil {
		return NewDefaultLogger()
	}
	return &DefaultLogger{logger: base, level: protocol.LogLevelInfo}
}

func (l *DefaultLogger) enabled(level protocol.LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level.Severity() >= l.level.Severity()
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	if l.enabled(protocol.LogLevelDebug) {
		l.logger.Printf("DEBUG: "+format, v...)
	}
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	if l.enabled(protocol.LogLevelInfo) {
		l.logger.Printf("INFO: "+format, v...)
	}
}

func (l *DefaultLogger) Warn(format string, v ...interface{}) {
	if l.enabled(protocol.LogLevelWarn) {
		l.logger.Printf("WARN: "+format, v...)
	}
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	if l.enabled(protocol.LogLevelError) {
		l.logger.Printf("ERROR: "+format, v...)
	}
}

// SetLevel updates the minimum level the logger emits.
func (l *DefaultLogger) SetLevel(level protocol.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Ensure interface compliance
var _ Logger = (*DefaultLogger)(nil)
