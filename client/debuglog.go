package client

import (
	"context"
	"sync"
	"time"

	"github.com/AndurilCode/mcp-apps-kit/logx"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// DebugLogToolName is the well-known tool the debug transport ships batches
// to. A host without this tool is a normal, expected condition handled by
// console fallback.
const DebugLogToolName = "debug_log"

// DebugLoggerOptions configures the batching debug log transport.
type DebugLoggerOptions struct {
	// Enabled turns the transport on. Default off.
	Enabled bool
	// MinLevel drops entries below it immediately. Default info.
	MinLevel protocol.LogLevel
	// BatchSize triggers a flush when the buffer reaches it. Default 10.
	BatchSize int
	// MaxBuffer caps the buffer; overflowing entries drop oldest-first to
	// the console. Default 100.
	MaxBuffer int
	// FlushInterval is the timer-based flush period, armed only while the
	// buffer is non-empty. Default 5s.
	FlushInterval time.Duration
	// Source tags every entry.
	Source string
	// TransportTimeout bounds each flush call. Default 10s.
	TransportTimeout time.Duration
}

func (o DebugLoggerOptions) withDefaults() DebugLoggerOptions {
	if o.MinLevel == "" {
		o.MinLevel = protocol.LogLevelInfo
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.MaxBuffer <= 0 {
		o.MaxBuffer = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.TransportTimeout <= 0 {
		o.TransportTimeout = 10 * time.Second
	}
	return o
}

// DebugLogger batches diagnostic entries and ships them through the
// attached adapter's tool-call channel. On any transport failure it latches
// into console fallback for the current adapter; attaching a new adapter
// re-enables transport. It is decoupled from the adapter's own Log/SendLog
// channels.
type DebugLogger struct {
	console logx.Logger

	mu      sync.Mutex
	opts    DebugLoggerOptions
	adapter Adapter
	buffer  []protocol.LogEntry
	timer   *time.Timer
	failed  bool
}

// NewDebugLogger creates a transport with the given options. Console output
// (both the fallback path and overflow drops) goes through console, which
// defaults to a stderr logger when nil.
func NewDebugLogger(opts DebugLoggerOptions, console logx.Logger) *DebugLogger {
	if console == nil {
		console = logx.NewDefaultLogger()
	}
	return &DebugLogger{
		console: console,
		opts:    opts.withDefaults(),
	}
}

// Attach points the transport at an adapter and clears any failure latch
// carried over from a previous adapter.
func (d *DebugLogger) Attach(adapter Adapter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adapter = adapter
	d.failed = false
}

// Debug records a debug-level entry.
func (d *DebugLogger) Debug(message string, data interface{}) {
	d.log(protocol.LogLevelDebug, message, data)
}

// Info records an info-level entry.
func (d *DebugLogger) Info(message string, data interface{}) {
	d.log(protocol.LogLevelInfo, message, data)
}

// Warn records a warn-level entry.
func (d *DebugLogger) Warn(message string, data interface{}) {
	d.log(protocol.LogLevelWarn, message, data)
}

// Error records an error-level entry and flushes the whole buffer
// immediately.
func (d *DebugLogger) Error(message string, data interface{}) {
	d.log(protocol.LogLevelError, message, data)
}

func (d *DebugLogger) log(level protocol.LogLevel, message string, data interface{}) {
	d.mu.Lock()
	if !d.opts.Enabled || level.Severity() < d.opts.MinLevel.Severity() {
		d.mu.Unlock()
		return
	}

	entry := protocol.NewLogEntry(level, message, data, d.opts.Source)

	if d.failed || d.adapter == nil {
		d.mu.Unlock()
		d.consoleEmit(entry)
		return
	}

	d.buffer = append(d.buffer, entry)

	// Overflow drops oldest entries to the console.
	var overflow []protocol.LogEntry
	if len(d.buffer) > d.opts.MaxBuffer {
		n := len(d.buffer) - d.opts.MaxBuffer
		overflow = append(overflow, d.buffer[:n]...)
		d.buffer = append([]protocol.LogEntry(nil), d.buffer[n:]...)
	}

	var batch []protocol.LogEntry
	switch {
	case level == protocol.LogLevelError:
		batch = d.takeBufferLocked()
	case len(d.buffer) >= d.opts.BatchSize:
		batch = d.takeBufferLocked()
	default:
		d.armTimerLocked()
	}
	d.mu.Unlock()

	for _, dropped := range overflow {
		d.consoleEmit(dropped)
	}
	if batch != nil {
		d.transport(batch)
	}
}

// Flush ships any buffered entries immediately.
func (d *DebugLogger) Flush() {
	d.mu.Lock()
	batch := d.takeBufferLocked()
	d.mu.Unlock()
	if batch != nil {
		d.transport(batch)
	}
}

// takeBufferLocked removes and returns the whole buffer and disarms the
// flush timer. Callers hold d.mu.
func (d *DebugLogger) takeBufferLocked() []protocol.LogEntry {
	if len(d.buffer) == 0 {
		return nil
	}
	batch := d.buffer
	d.buffer = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return batch
}

// armTimerLocked schedules a timer flush. The timer exists only while the
// buffer is non-empty. Callers hold d.mu.
func (d *DebugLogger) armTimerLocked() {
	if d.timer != nil {
		return
	}
	d.timer = time.AfterFunc(d.opts.FlushInterval, func() {
		d.mu.Lock()
		d.timer = nil
		batch := d.takeBufferLocked()
		d.mu.Unlock()
		if batch != nil {
			d.transport(batch)
		}
	})
}

func (d *DebugLogger) transport(batch []protocol.LogEntry) {
	d.mu.Lock()
	adapter := d.adapter
	failed := d.failed
	timeout := d.opts.TransportTimeout
	d.mu.Unlock()

	if failed || adapter == nil {
		for _, entry := range batch {
			d.consoleEmit(entry)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := adapter.CallTool(ctx, DebugLogToolName, map[string]interface{}{
		"entries": batch,
	})
	if err == nil {
		return
	}

	// One failure marks the transport dead for this adapter; everything
	// buffered and subsequent falls back to the console without retrying.
	d.mu.Lock()
	d.failed = true
	remaining := d.takeBufferLocked()
	d.mu.Unlock()

	d.console.Warn("debug log transport failed, falling back to console: %v", err)
	for _, entry := range batch {
		d.consoleEmit(entry)
	}
	for _, entry := range remaining {
		d.consoleEmit(entry)
	}
}

func (d *DebugLogger) consoleEmit(entry protocol.LogEntry) {
	logToConsole(d.console, entry.Level, entry.Message, entry.Data)
}
