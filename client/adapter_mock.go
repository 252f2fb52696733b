package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/AndurilCode/mcp-apps-kit/logx"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// MockToolHandler lets tests script the result of CallTool on the mock
// adapter. The default handler echoes the arguments back.
type MockToolHandler func(name string, args map[string]interface{}) (map[string]interface{}, error)

// MockAdapter is a fully in-process implementation of the contract with no
// external I/O, used for local development and as the default when no real
// host is detected. It advertises the union of all capabilities so
// host-agnostic widget code can be exercised against every feature, and each
// subscription has a companion Emit method for triggering notifications
// without a real host.
type MockAdapter struct {
	logger logx.Logger

	mu          sync.Mutex
	connected   bool
	hostCtx     protocol.HostContext
	caps        protocol.HostCapabilities
	state       map[string]interface{}
	files       map[string][]byte
	toolHandler MockToolHandler
	toolInput   map[string]interface{}
	toolOutput  map[string]interface{}
	toolMeta    map[string]interface{}

	sentMessages []string
	openedLinks  []string
	sentLogs     []protocol.LogEntry

	toolResultSubs  subscribers[func(map[string]interface{})]
	toolInputSubs   subscribers[func(map[string]interface{})]
	toolPartialSubs subscribers[func(map[string]interface{})]
	toolCancelSubs  subscribers[func(map[string]interface{})]
	contextSubs     subscribers[func(protocol.HostContext)]
	teardownSubs    subscribers[func()]

	handlerMu        sync.Mutex
	callToolHandler  CallToolHandler
	listToolsHandler ListToolsHandler
}

// NewMockAdapter creates a mock adapter with a complete default context and
// the full capability union.
func NewMockAdapter(options ...Option) *MockAdapter {
	opts := applyOptions(options)
	return &MockAdapter{
		logger:  opts.Logger,
		hostCtx: protocol.DefaultHostContext(),
		caps:    protocol.AllCapabilities(),
		files:   make(map[string][]byte),
	}
}

// SetToolHandler scripts the result of CallTool.
func (a *MockAdapter) SetToolHandler(handler MockToolHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toolHandler = handler
}

// Type returns the host type tag.
func (a *MockAdapter) Type() HostType {
	return HostMock
}

// Connect marks the adapter connected. Repeated calls are no-ops.
func (a *MockAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return nil
	}
	a.connected = true
	a.logger.Info("mock host connected")
	return nil
}

// IsConnected reports whether Connect has completed.
func (a *MockAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// Close marks the adapter disconnected.
func (a *MockAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	return nil
}

// CallTool runs the scripted tool handler, or echoes the arguments when
// none is set. Results are deterministic and observable via ToolOutput.
func (a *MockAdapter) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	if !a.IsConnected() {
		return nil, NewNotConnectedError(HostMock, "CallTool")
	}
	a.logger.Info("mock tool call: %s %v", name, args)

	a.mu.Lock()
	handler := a.toolHandler
	a.mu.Unlock()

	var output map[string]interface{}
	if handler != nil {
		result, err := handler(name, args)
		if err != nil {
			return nil, err
		}
		output = result
	} else {
		output = map[string]interface{}{"tool": name, "echo": args}
	}

	a.mu.Lock()
	a.toolOutput = output
	a.mu.Unlock()
	return output, nil
}

// SendMessage records the message and logs it.
func (a *MockAdapter) SendMessage(ctx context.Context, text string) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMock, "SendMessage")
	}
	a.logger.Info("mock send message: %s", text)
	a.mu.Lock()
	a.sentMessages = append(a.sentMessages, text)
	a.mu.Unlock()
	return nil
}

// OpenLink records the link and logs it.
func (a *MockAdapter) OpenLink(ctx context.Context, url string) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMock, "OpenLink")
	}
	a.logger.Info("mock open link: %s", url)
	a.mu.Lock()
	a.openedLinks = append(a.openedLinks, url)
	a.mu.Unlock()
	return nil
}

// SentMessages returns every message sent so far, for test assertions.
func (a *MockAdapter) SentMessages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sentMessages...)
}

// OpenedLinks returns every link opened so far, for test assertions.
func (a *MockAdapter) OpenedLinks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.openedLinks...)
}

// SentLogs returns every protocol log entry shipped so far.
func (a *MockAdapter) SentLogs() []protocol.LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]protocol.LogEntry(nil), a.sentLogs...)
}

// RequestDisplayMode always grants the requested mode and notifies context
// subscribers of the change.
func (a *MockAdapter) RequestDisplayMode(ctx context.Context, mode protocol.DisplayMode) (protocol.DisplayMode, error) {
	if !a.IsConnected() {
		return "", NewNotConnectedError(HostMock, "RequestDisplayMode")
	}
	a.mu.Lock()
	a.hostCtx.DisplayMode = mode
	snapshot := a.hostCtx.Clone()
	a.mu.Unlock()

	for _, handler := range a.contextSubs.snapshot() {
		handler(snapshot)
	}
	return mode, nil
}

// RequestClose logs the request; the mock host has nothing to dismiss.
func (a *MockAdapter) RequestClose(ctx context.Context) error {
	a.logger.Info("mock close requested")
	return nil
}

// SetState stores a copy of the state; GetState round-trips it exactly.
func (a *MockAdapter) SetState(ctx context.Context, state map[string]interface{}) error {
	copied := make(map[string]interface{}, len(state))
	for k, v := range state {
		copied[k] = v
	}
	a.mu.Lock()
	a.state = copied
	a.mu.Unlock()
	return nil
}

// GetState returns the last stored state, nil when none was set.
func (a *MockAdapter) GetState(ctx context.Context) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, nil
}

// ReadResource returns a deterministic text content for any URI.
func (a *MockAdapter) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContent, error) {
	return []protocol.ResourceContent{{
		URI:      uri,
		MimeType: "text/plain",
		Text:     "mock resource: " + uri,
	}}, nil
}

// Log writes to the local console channel.
func (a *MockAdapter) Log(level protocol.LogLevel, message string, data interface{}) {
	logToConsole(a.logger, level, message, data)
}

// SendLog records the entry as the protocol-level channel would.
func (a *MockAdapter) SendLog(ctx context.Context, entry protocol.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sentLogs = append(a.sentLogs, entry)
	return nil
}

// SendSizeChanged updates the viewport and logs the report.
func (a *MockAdapter) SendSizeChanged(ctx context.Context, width, height float64) error {
	a.logger.Info("mock size changed: %.0fx%.0f", width, height)
	a.mu.Lock()
	a.hostCtx.Viewport.Width = width
	a.hostCtx.Viewport.Height = height
	a.mu.Unlock()
	return nil
}

// UploadFile stores the file in memory and returns a deterministic id.
func (a *MockAdapter) UploadFile(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := fmt.Sprintf("file-%d", len(a.files)+1)
	a.files[id] = append([]byte(nil), data...)
	return id, nil
}

// GetFileDownloadURL resolves an uploaded file id to a mock URL.
func (a *MockAdapter) GetFileDownloadURL(ctx context.Context, fileID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.files[fileID]; !ok {
		return "", NewAdapterError(HostMock, "GetFileDownloadURL", "unknown file id: "+fileID, nil)
	}
	return "mock://files/" + fileID, nil
}

// GetHostContext returns the current context snapshot.
func (a *MockAdapter) GetHostContext() protocol.HostContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hostCtx.Clone()
}

// GetHostCapabilities returns the full union once connected, nil before.
func (a *MockAdapter) GetHostCapabilities() *protocol.HostCapabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil
	}
	caps := a.caps
	return &caps
}

// GetHostVersion reports a fixed development version once connected.
func (a *MockAdapter) GetHostVersion() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return ""
	}
	return "mock-1.0"
}

// ToolInput returns the last emitted tool input.
func (a *MockAdapter) ToolInput() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolInput
}

// ToolOutput returns the last tool output.
func (a *MockAdapter) ToolOutput() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolOutput
}

// ToolResponseMeta returns the last emitted tool metadata.
func (a *MockAdapter) ToolResponseMeta() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolMeta
}

// OnToolResult registers a tool-result listener.
func (a *MockAdapter) OnToolResult(handler func(map[string]interface{})) Unsubscribe {
	return a.toolResultSubs.add(handler)
}

// EmitToolResult triggers tool-result listeners as a host would.
func (a *MockAdapter) EmitToolResult(payload map[string]interface{}) {
	a.mu.Lock()
	a.toolOutput = payload
	a.mu.Unlock()
	for _, handler := range a.toolResultSubs.snapshot() {
		handler(payload)
	}
}

// OnToolInput registers a tool-input listener.
func (a *MockAdapter) OnToolInput(handler func(map[string]interface{})) Unsubscribe {
	return a.toolInputSubs.add(handler)
}

// EmitToolInput triggers tool-input listeners as a host would.
func (a *MockAdapter) EmitToolInput(payload map[string]interface{}) {
	a.mu.Lock()
	a.toolInput = payload
	a.mu.Unlock()
	for _, handler := range a.toolInputSubs.snapshot() {
		handler(payload)
	}
}

// OnToolInputPartial registers a streaming tool-input listener.
func (a *MockAdapter) OnToolInputPartial(handler func(map[string]interface{})) Unsubscribe {
	return a.toolPartialSubs.add(handler)
}

// EmitToolInputPartial triggers partial-input listeners as a host would.
func (a *MockAdapter) EmitToolInputPartial(payload map[string]interface{}) {
	for _, handler := range a.toolPartialSubs.snapshot() {
		handler(payload)
	}
}

// OnToolCancelled registers a tool-cancelled listener.
func (a *MockAdapter) OnToolCancelled(handler func(map[string]interface{})) Unsubscribe {
	return a.toolCancelSubs.add(handler)
}

// EmitToolCancelled triggers tool-cancelled listeners as a host would.
func (a *MockAdapter) EmitToolCancelled(payload map[string]interface{}) {
	for _, handler := range a.toolCancelSubs.snapshot() {
		handler(payload)
	}
}

// OnHostContextChange registers a context-change listener.
func (a *MockAdapter) OnHostContextChange(handler func(protocol.HostContext)) Unsubscribe {
	return a.contextSubs.add(handler)
}

// EmitHostContextChange overlays the raw payload onto the current context
// and notifies listeners, as a whole-context change from a host would.
func (a *MockAdapter) EmitHostContextChange(raw map[string]interface{}) {
	a.mu.Lock()
	merged, dropped := protocol.MergeHostContext(a.hostCtx, raw)
	a.hostCtx = merged
	snapshot := merged.Clone()
	a.mu.Unlock()

	if len(dropped) > 0 {
		a.logger.Debug("mock context change dropped fields: %v", dropped)
	}
	for _, handler := range a.contextSubs.snapshot() {
		handler(snapshot)
	}
}

// OnTeardown registers a teardown listener.
func (a *MockAdapter) OnTeardown(handler func()) Unsubscribe {
	return a.teardownSubs.add(handler)
}

// EmitTeardown triggers teardown listeners as a host would.
func (a *MockAdapter) EmitTeardown() {
	for _, handler := range a.teardownSubs.snapshot() {
		handler()
	}
}

// SetCallToolHandler registers the widget-exposed tool handler.
func (a *MockAdapter) SetCallToolHandler(handler CallToolHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.callToolHandler = handler
}

// SetListToolsHandler registers the widget-exposed tool lister.
func (a *MockAdapter) SetListToolsHandler(handler ListToolsHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.listToolsHandler = handler
}

// HostCallTool invokes the registered widget tool handler the way a host
// would. Without a handler it returns an explicit error result instead of
// failing silently.
func (a *MockAdapter) HostCallTool(ctx context.Context, name string, args map[string]interface{}) protocol.CallToolResult {
	a.handlerMu.Lock()
	handler := a.callToolHandler
	a.handlerMu.Unlock()

	if handler == nil {
		return errorToolResult("no tool handler registered")
	}
	output, err := handler(ctx, name, args)
	if err != nil {
		return errorToolResult(err.Error())
	}
	return wrapToolOutput(output)
}

// HostListTools enumerates widget tool names the way a host would; only
// names are returned.
func (a *MockAdapter) HostListTools(ctx context.Context) []string {
	a.handlerMu.Lock()
	handler := a.listToolsHandler
	a.handlerMu.Unlock()

	if handler == nil {
		return []string{}
	}
	descriptors, err := handler(ctx)
	if err != nil {
		return []string{}
	}
	names := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		names = append(names, descriptor.Name)
	}
	return names
}

var (
	_ Adapter     = (*MockAdapter)(nil)
	_ FileAdapter = (*MockAdapter)(nil)
)
