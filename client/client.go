package client

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/AndurilCode/mcp-apps-kit/logx"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// ViewportObserver reports widget layout changes. The embedding layer
// supplies one (in a browser build this wraps a resize observer on the
// document body); Observe returns a detach function.
type ViewportObserver interface {
	Observe(callback func(width, height float64)) (detach func())
}

// Client wraps a connected adapter and is the one object widget code talks
// to. It owns no mutable state beyond debug-logger wiring and the tool call
// lookup table; everything else delegates to the adapter.
type Client struct {
	adapter Adapter
	logger  logx.Logger
	debug   *DebugLogger

	// callSurface maps "call<ToolName>" names to tool names. Built once at
	// construction; intentionally not enumerable through the API.
	callSurface map[string]string
}

// New detects the host for the given environment, constructs and connects
// the matching adapter, and wraps it in a Client.
func New(ctx context.Context, env Environment, options ...Option) (*Client, error) {
	adapter, err := NewAdapter(env, options...)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx); err != nil {
		return nil, err
	}
	return NewClient(adapter, options...), nil
}

// NewClient wraps an already constructed adapter.
func NewClient(adapter Adapter, options ...Option) *Client {
	opts := applyOptions(options)

	c := &Client{
		adapter:     adapter,
		logger:      opts.Logger,
		callSurface: make(map[string]string, len(opts.KnownTools)),
	}
	for _, tool := range opts.KnownTools {
		c.callSurface[surfaceNameForTool(tool)] = tool
	}

	if opts.DebugLog != nil {
		c.debug = NewDebugLogger(*opts.DebugLog, opts.Logger)
		c.debug.Attach(adapter)
	}
	return c
}

// Adapter returns the underlying adapter.
func (c *Client) Adapter() Adapter {
	return c.adapter
}

// DebugLogger returns the attached debug log transport, nil when none was
// configured.
func (c *Client) DebugLogger() *DebugLogger {
	return c.debug
}

// surfaceNameForTool derives the dynamic call surface name for a tool:
// "getWeather" becomes "callGetWeather".
func surfaceNameForTool(tool string) string {
	if tool == "" {
		return "call"
	}
	r, size := utf8.DecodeRuneInString(tool)
	return "call" + string(unicode.ToUpper(r)) + tool[size:]
}

// toolNameForSurface recovers the tool name from a call surface name. Only
// names that begin with "call" and carry at least one more character
// qualify; the first character of the suffix is lower-cased.
func toolNameForSurface(surface string) (string, bool) {
	if !strings.HasPrefix(surface, "call") || len(surface) <= len("call") {
		return "", false
	}
	suffix := surface[len("call"):]
	r, size := utf8.DecodeRuneInString(suffix)
	return string(unicode.ToLower(r)) + suffix[size:], true
}

// Call dispatches a dynamic "call<ToolName>" surface name to CallTool.
// Names registered via WithKnownTools resolve through the lookup table
// (preserving their exact casing); other well-formed surface names derive
// the tool name by lower-casing the first suffix character. Malformed
// surface names are rejected.
func (c *Client) Call(ctx context.Context, surface string, args map[string]interface{}) (map[string]interface{}, error) {
	if tool, ok := c.callSurface[surface]; ok {
		return c.adapter.CallTool(ctx, tool, args)
	}
	tool, ok := toolNameForSurface(surface)
	if !ok {
		return nil, NewAdapterError(c.adapter.Type(), "Call", surface, ErrUnknownToolSurface)
	}
	return c.adapter.CallTool(ctx, tool, args)
}

// CallTool invokes a server-declared tool by its exact name.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	return c.adapter.CallTool(ctx, name, args)
}

// SendMessage asks the host to append a message to the conversation.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.adapter.SendMessage(ctx, text)
}

// OpenLink asks the host to open an external link.
func (c *Client) OpenLink(ctx context.Context, url string) error {
	return c.adapter.OpenLink(ctx, url)
}

// RequestDisplayMode asks the host for a display mode.
func (c *Client) RequestDisplayMode(ctx context.Context, mode protocol.DisplayMode) (protocol.DisplayMode, error) {
	return c.adapter.RequestDisplayMode(ctx, mode)
}

// RequestClose asks the host to dismiss the widget.
func (c *Client) RequestClose(ctx context.Context) error {
	return c.adapter.RequestClose(ctx)
}

// SetState persists widget state on hosts that support it.
func (c *Client) SetState(ctx context.Context, state map[string]interface{}) error {
	return c.adapter.SetState(ctx, state)
}

// GetState returns previously persisted widget state.
func (c *Client) GetState(ctx context.Context) (map[string]interface{}, error) {
	return c.adapter.GetState(ctx)
}

// ReadResource reads a resource through the host.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContent, error) {
	return c.adapter.ReadResource(ctx, uri)
}

// Log writes to the local console channel.
func (c *Client) Log(level protocol.LogLevel, message string, data interface{}) {
	c.adapter.Log(level, message, data)
}

// SendLog ships one entry over the host's protocol logging channel.
func (c *Client) SendLog(ctx context.Context, entry protocol.LogEntry) error {
	return c.adapter.SendLog(ctx, entry)
}

// SendSizeChanged reports the widget's rendered size, best effort.
func (c *Client) SendSizeChanged(ctx context.Context, width, height float64) error {
	return c.adapter.SendSizeChanged(ctx, width, height)
}

// GetHostContext returns the current host context snapshot.
func (c *Client) GetHostContext() protocol.HostContext {
	return c.adapter.GetHostContext()
}

// GetHostCapabilities returns the advertised capability set.
func (c *Client) GetHostCapabilities() *protocol.HostCapabilities {
	return c.adapter.GetHostCapabilities()
}

// GetHostVersion returns the host version string.
func (c *Client) GetHostVersion() string {
	return c.adapter.GetHostVersion()
}

// ToolInput returns the last known tool input.
func (c *Client) ToolInput() map[string]interface{} {
	return c.adapter.ToolInput()
}

// ToolOutput returns the last known tool output.
func (c *Client) ToolOutput() map[string]interface{} {
	return c.adapter.ToolOutput()
}

// ToolResponseMeta returns the last known tool response metadata.
func (c *Client) ToolResponseMeta() map[string]interface{} {
	return c.adapter.ToolResponseMeta()
}

// OnToolResult registers a tool-result listener.
func (c *Client) OnToolResult(handler func(map[string]interface{})) Unsubscribe {
	return c.adapter.OnToolResult(handler)
}

// OnToolInput registers a tool-input listener.
func (c *Client) OnToolInput(handler func(map[string]interface{})) Unsubscribe {
	return c.adapter.OnToolInput(handler)
}

// OnToolInputPartial registers a streaming tool-input listener.
func (c *Client) OnToolInputPartial(handler func(map[string]interface{})) Unsubscribe {
	return c.adapter.OnToolInputPartial(handler)
}

// OnToolCancelled registers a tool-cancelled listener.
func (c *Client) OnToolCancelled(handler func(map[string]interface{})) Unsubscribe {
	return c.adapter.OnToolCancelled(handler)
}

// OnHostContextChange registers a context-change listener.
func (c *Client) OnHostContextChange(handler func(protocol.HostContext)) Unsubscribe {
	return c.adapter.OnHostContextChange(handler)
}

// OnTeardown registers a teardown listener.
func (c *Client) OnTeardown(handler func()) Unsubscribe {
	return c.adapter.OnTeardown(handler)
}

// SetCallToolHandler registers the widget-exposed tool handler.
func (c *Client) SetCallToolHandler(handler CallToolHandler) {
	c.adapter.SetCallToolHandler(handler)
}

// SetListToolsHandler registers the widget-exposed tool lister.
func (c *Client) SetListToolsHandler(handler ListToolsHandler) {
	c.adapter.SetListToolsHandler(handler)
}

// File returns the file-capable view of the adapter when the host supports
// file transfer. Callers feature-detect structurally instead of catching
// runtime errors.
func (c *Client) File() (FileAdapter, bool) {
	file, ok := c.adapter.(FileAdapter)
	if !ok {
		return nil, false
	}
	caps := c.adapter.GetHostCapabilities()
	if caps != nil && !caps.FileUpload {
		return nil, false
	}
	return file, true
}

// SetupSizeChangedNotifications forwards rounded layout sizes to the host
// on every observed change and returns an idempotent disposer. A nil
// observer (no layout environment) yields a no-op disposer.
func (c *Client) SetupSizeChangedNotifications(observer ViewportObserver) func() {
	if observer == nil {
		return func() {}
	}
	detach := observer.Observe(func(width, height float64) {
		if err := c.adapter.SendSizeChanged(context.Background(), math.Round(width), math.Round(height)); err != nil {
			c.logger.Debug("size notification failed: %v", err)
		}
	})
	var once sync.Once
	return func() {
		once.Do(detach)
	}
}
