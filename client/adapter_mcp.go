package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/AndurilCode/mcp-apps-kit/logx"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

type connState int

const (
	stateUnconnected connState = iota
	stateConnecting
	stateConnected
)

// MCPAdapter binds the contract to an embedded-RPC host: a structured
// request/notification protocol carried over a message port across the
// embedding boundary.
//
// This host has no state persistence; SetState and GetState are intentional
// no-ops so callers can use them unconditionally.
type MCPAdapter struct {
	port   MessagePort
	logger logx.Logger
	opts   *Options

	mu          sync.Mutex
	state       connState
	caps        *protocol.HostCapabilities
	hostVersion string
	hostCtx     protocol.HostContext
	toolName    string
	toolInput   map[string]interface{}
	toolOutput  map[string]interface{}
	toolMeta    map[string]interface{}

	pendingMu sync.Mutex
	pending   map[string]chan *protocol.Response

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

// NewMCPAdapter creates an adapter speaking the embedded-RPC protocol over
// the given port. The context is fully populated with defaults before any
// host communication happens.
func NewMCPAdapter(port MessagePort, options ...Option) *MCPAdapter {
	opts := applyOptions(options)
	return &MCPAdapter{
		port:    port,
		logger:  opts.Logger,
		opts:    opts,
		hostCtx: protocol.DefaultHostContext(),
		pending: make(map[string]chan *protocol.Response),
	}
}

// Type returns the host type tag.
func (a *MCPAdapter) Type() HostType {
	return HostMCP
}

// Connect performs the handshake. The message handler is registered on the
// port before the initialize request goes out, so a host message arriving
// during the handshake is never lost. Connect is idempotent, and a handshake
// timeout resolves into a degraded connection rather than an error.
func (a *MCPAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.state != stateUnconnected {
		a.mu.Unlock()
		return nil
	}
	a.state = stateConnecting
	a.mu.Unlock()

	// Register handlers before issuing the handshake.
	a.port.SetMessageHandler(a.handleMessage)

	if err := a.port.Open(ctx); err != nil {
		a.mu.Lock()
		a.state = stateUnconnected
		a.mu.Unlock()
		return NewAdapterError(HostMCP, "Connect", "failed to open message port", err)
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, a.opts.ConnectTimeout)
	defer cancel()

	params := protocol.InitializeParams{
		Capabilities: protocol.WidgetCapabilities{Tools: &struct{}{}},
	}
	resp, err := a.request(handshakeCtx, protocol.MethodInitialize, params)

	a.mu.Lock()
	a.state = stateConnected
	a.mu.Unlock()

	if err != nil {
		// The host may be slow or absent; resolve anyway and operate with
		// defaults until it answers something.
		a.logger.Warn("mcp handshake did not complete: %v", err)
		return nil
	}

	var result protocol.InitializeResult
	if err := protocol.UnmarshalPayload(resp.Result, &result); err != nil {
		a.logger.Warn("mcp handshake returned malformed result: %v", err)
		return nil
	}
	a.seedFromHandshake(result)
	return nil
}

func (a *MCPAdapter) seedFromHandshake(result protocol.InitializeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hostVersion = result.HostVersion
	if result.Capabilities != nil {
		caps := *result.Capabilities
		a.caps = &caps
	} else {
		caps := protocol.MCPHostCapabilities()
		a.caps = &caps
	}
	if result.HostContext != nil {
		merged, dropped := protocol.MergeHostContext(a.hostCtx, result.HostContext)
		a.hostCtx = merged
		if len(dropped) > 0 {
			a.logger.Debug("mcp handshake context dropped fields: %v", dropped)
		}
	}
	if result.ToolInfo != nil {
		a.toolName = result.ToolInfo.Name
		if result.ToolInfo.Meta != nil {
			a.toolMeta = result.ToolInfo.Meta
		}
	}
}

// IsConnected reports whether Connect has completed.
func (a *MCPAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateConnected
}

// Close tears the port down.
func (a *MCPAdapter) Close() error {
	a.mu.Lock()
	a.state = stateUnconnected
	a.mu.Unlock()
	return a.port.Close()
}

// request sends one request frame and waits for its response or context
// cancellation. Only the connect handshake carries an internal timeout;
// other calls are bounded by the caller.
func (a *MCPAdapter) request(ctx context.Context, method string, params interface{}) (*protocol.Response, error) {
	id := uuid.NewString()
	ch := make(chan *protocol.Response, 1)

	a.pendingMu.Lock()
	a.pending[id] = ch
	a.pendingMu.Unlock()
	defer func() {
		a.pendingMu.Lock()
		delete(a.pending, id)
		a.pendingMu.Unlock()
	}()

	frame, err := json.Marshal(protocol.NewRequest(id, method, params))
	if err != nil {
		return nil, NewAdapterError(HostMCP, method, "failed to marshal request", err)
	}
	if err := a.port.Send(frame); err != nil {
		return nil, NewAdapterError(HostMCP, method, "failed to send request", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, NewAdapterError(HostMCP, method, resp.Error.Message, ErrHostDeclined)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, NewAdapterError(HostMCP, method, "request aborted", ctx.Err())
	}
}

func (a *MCPAdapter) notify(method string, params interface{}) error {
	frame, err := json.Marshal(protocol.NewNotification(method, params))
	if err != nil {
		return err
	}
	return a.port.Send(frame)
}

// handleMessage routes one inbound frame: a response to a pending request,
// a host-initiated request the widget serves, or a notification.
func (a *MCPAdapter) handleMessage(data []byte) {
	var envelope protocol.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		a.logger.Debug("mcp: ignoring unparseable frame: %v", err)
		return
	}

	switch {
	case envelope.Method == "" && envelope.ID != "":
		a.routeResponse(&envelope)
	case envelope.Method != "" && envelope.ID != "":
		a.serveRequest(&envelope)
	case envelope.Method != "":
		a.dispatchNotification(&envelope)
	}
}

func (a *MCPAdapter) routeResponse(envelope *protocol.Envelope) {
	a.pendingMu.Lock()
	ch, ok := a.pending[envelope.ID]
	a.pendingMu.Unlock()
	if !ok {
		a.logger.Debug("mcp: response for unknown request id %s", envelope.ID)
		return
	}
	resp := &protocol.Response{
		JSONRPC: envelope.JSONRPC,
		ID:      envelope.ID,
		Result:  envelope.Result,
		Error:   envelope.Error,
	}
	select {
	case ch <- resp:
	default:
	}
}

func (a *MCPAdapter) dispatchNotification(envelope *protocol.Envelope) {
	switch envelope.Method {
	case protocol.NotificationHostContextChanged:
		a.handleContextChanged(envelope.Params)
	case protocol.NotificationToolInput:
		payload := decodeObjectPayload(envelope.Params)
		a.mu.Lock()
		a.toolInput = payload
		a.mu.Unlock()
		for _, handler := range a.toolInputSubs.snapshot() {
			handler(payload)
		}
	case protocol.NotificationToolInputPartial:
		payload := decodeObjectPayload(envelope.Params)
		for _, handler := range a.toolPartialSubs.snapshot() {
			handler(payload)
		}
	case protocol.NotificationToolResult:
		a.handleToolResult(envelope.Params)
	case protocol.NotificationToolCancelled:
		payload := decodeObjectPayload(envelope.Params)
		for _, handler := range a.toolCancelSubs.snapshot() {
			handler(payload)
		}
	case protocol.NotificationTeardown:
		for _, handler := range a.teardownSubs.snapshot() {
			handler()
		}
	default:
		a.logger.Debug("mcp: ignoring unknown notification %s", envelope.Method)
	}
}

func (a *MCPAdapter) handleContextChanged(params json.RawMessage) {
	var payload protocol.HostContextChangedParams
	if err := protocol.UnmarshalPayload(params, &payload); err != nil || payload.Context == nil {
		a.logger.Debug("mcp: ignoring malformed host-context-changed payload")
		return
	}

	// Whole-context notifications merge onto a freshly created default so
	// stale fields do not survive a replacement.
	merged, dropped := protocol.MergeHostContext(protocol.DefaultHostContext(), payload.Context)
	if len(dropped) > 0 {
		a.logger.Debug("mcp: context change dropped fields: %v", dropped)
	}

	a.mu.Lock()
	unchanged := contextEqual(a.hostCtx, merged)
	if !unchanged {
		a.hostCtx = merged
	}
	a.mu.Unlock()

	if unchanged {
		return
	}
	snapshot := merged.Clone()
	for _, handler := range a.contextSubs.snapshot() {
		handler(snapshot)
	}
}

func (a *MCPAdapter) handleToolResult(params json.RawMessage) {
	var result protocol.CallToolResult
	if err := protocol.UnmarshalPayload(params, &result); err != nil {
		a.logger.Debug("mcp: ignoring malformed tool-result payload: %v", err)
		return
	}
	output := protocol.ExtractToolOutput(&result)

	a.mu.Lock()
	a.toolOutput = output
	if result.Meta != nil {
		a.toolMeta = result.Meta
	}
	toolName := a.toolName
	a.mu.Unlock()

	// Wrap under the current tool name so generic result listeners can
	// multiplex safely.
	payload := output
	if toolName != "" && !result.IsError {
		payload = map[string]interface{}{toolName: output}
	}
	for _, handler := range a.toolResultSubs.snapshot() {
		handler(payload)
	}
}

// serveRequest answers the two inbound RPC methods the widget must serve:
// widget/call-tool and widget/list-tools.
func (a *MCPAdapter) serveRequest(envelope *protocol.Envelope) {
	switch envelope.Method {
	case protocol.MethodWidgetCallTool:
		go a.serveCallTool(envelope.ID, envelope.Params)
	case protocol.MethodWidgetListTools:
		go a.serveListTools(envelope.ID)
	default:
		a.respond(protocol.NewErrorResponse(envelope.ID, protocol.CodeMethodNotFound, "method not supported: "+envelope.Method))
	}
}

func (a *MCPAdapter) serveCallTool(id string, params json.RawMessage) {
	var call protocol.CallToolParams
	if err := protocol.UnmarshalPayload(params, &call); err != nil {
		a.respond(protocol.NewErrorResponse(id, protocol.CodeInvalidParams, "invalid call-tool params"))
		return
	}

	a.handlerMu.Lock()
	handler := a.callToolHandler
	a.handlerMu.Unlock()

	if handler == nil {
		a.respondResult(id, errorToolResult("no tool handler registered"))
		return
	}

	output, err := handler(context.Background(), call.Name, call.Arguments)
	if err != nil {
		a.respondResult(id, errorToolResult(err.Error()))
		return
	}
	a.respondResult(id, wrapToolOutput(output))
}

func (a *MCPAdapter) serveListTools(id string) {
	a.handlerMu.Lock()
	handler := a.listToolsHandler
	a.handlerMu.Unlock()

	result := protocol.ListToolsResult{Tools: []protocol.ToolName{}}
	if handler != nil {
		descriptors, err := handler(context.Background())
		if err != nil {
			a.respond(protocol.NewErrorResponse(id, protocol.CodeInternalError, err.Error()))
			return
		}
		for _, descriptor := range descriptors {
			result.Tools = append(result.Tools, protocol.ToolName{Name: descriptor.Name})
		}
	}
	a.respondResult(id, result)
}

func (a *MCPAdapter) respondResult(id string, result interface{}) {
	resp, err := protocol.NewSuccessResponse(id, result)
	if err != nil {
		resp = protocol.NewErrorResponse(id, protocol.CodeInternalError, "failed to marshal result")
	}
	a.respond(resp)
}

func (a *MCPAdapter) respond(resp *protocol.Response) {
	frame, err := json.Marshal(resp)
	if err != nil {
		a.logger.Error("mcp: failed to marshal response: %v", err)
		return
	}
	if err := a.port.Send(frame); err != nil {
		a.logger.Error("mcp: failed to send response: %v", err)
	}
}

func errorToolResult(message string) protocol.CallToolResult {
	return protocol.CallToolResult{
		IsError: true,
		Content: []protocol.TextContent{{Type: "text", Text: message}},
	}
}

func wrapToolOutput(output map[string]interface{}) protocol.CallToolResult {
	if output == nil {
		output = map[string]interface{}{}
	}
	text, err := json.Marshal(output)
	if err != nil {
		text = []byte("{}")
	}
	return protocol.CallToolResult{
		StructuredContent: output,
		Content:           []protocol.TextContent{{Type: "text", Text: string(text)}},
	}
}

// CallTool invokes a server-declared tool through the host.
func (a *MCPAdapter) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	if !a.IsConnected() {
		return nil, NewNotConnectedError(HostMCP, "CallTool")
	}
	resp, err := a.request(ctx, protocol.MethodCallTool, protocol.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var result protocol.CallToolResult
	if err := protocol.UnmarshalPayload(resp.Result, &result); err != nil {
		// A result we cannot decode still counts as success with no output.
		return map[string]interface{}{}, nil
	}
	if result.IsError {
		message := "tool call failed"
		if len(result.Content) > 0 {
			message = result.Content[0].Text
		}
		return nil, NewAdapterError(HostMCP, "CallTool", message, ErrHostDeclined)
	}
	return protocol.ExtractToolOutput(&result), nil
}

// SendMessage asks the host to append a message to the conversation.
func (a *MCPAdapter) SendMessage(ctx context.Context, text string) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMCP, "SendMessage")
	}
	_, err := a.request(ctx, protocol.MethodSendMessage, protocol.SendMessageParams{Text: text})
	return err
}

// OpenLink asks the host to open an external link.
func (a *MCPAdapter) OpenLink(ctx context.Context, url string) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMCP, "OpenLink")
	}
	_, err := a.request(ctx, protocol.MethodOpenLink, protocol.OpenLinkParams{URL: url})
	return err
}

// RequestDisplayMode asks the host for a display mode and returns the mode
// actually granted.
func (a *MCPAdapter) RequestDisplayMode(ctx context.Context, mode protocol.DisplayMode) (protocol.DisplayMode, error) {
	if !a.IsConnected() {
		return "", NewNotConnectedError(HostMCP, "RequestDisplayMode")
	}
	resp, err := a.request(ctx, protocol.MethodRequestDisplayMode, protocol.DisplayModeParams{Mode: mode})
	if err != nil {
		return "", err
	}
	var result protocol.DisplayModeResult
	if err := protocol.UnmarshalPayload(resp.Result, &result); err != nil || result.Mode == "" {
		return mode, nil
	}

	a.mu.Lock()
	a.hostCtx.DisplayMode = result.Mode
	a.mu.Unlock()
	return result.Mode, nil
}

// RequestClose asks the host to dismiss the widget.
func (a *MCPAdapter) RequestClose(ctx context.Context) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMCP, "RequestClose")
	}
	_, err := a.request(ctx, protocol.MethodRequestClose, nil)
	return err
}

// SetState is an intentional no-op: this host has no widget state
// persistence, and callers must be able to call it safely regardless.
func (a *MCPAdapter) SetState(ctx context.Context, state map[string]interface{}) error {
	return nil
}

// GetState always returns nil; see SetState.
func (a *MCPAdapter) GetState(ctx context.Context) (map[string]interface{}, error) {
	return nil, nil
}

// ReadResource proxies a resource read through the host and normalizes the
// response permissively: entries that cannot be interpreted are dropped and
// a malformed response yields an empty list rather than an error.
func (a *MCPAdapter) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContent, error) {
	if !a.IsConnected() {
		return nil, NewNotConnectedError(HostMCP, "ReadResource")
	}
	resp, err := a.request(ctx, protocol.MethodReadResource, protocol.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Contents []interface{} `json:"contents"`
	}
	if err := protocol.UnmarshalPayload(resp.Result, &payload); err != nil {
		return []protocol.ResourceContent{}, nil
	}
	return protocol.NormalizeResourceContents(payload.Contents), nil
}

// Log writes to the local console channel.
func (a *MCPAdapter) Log(level protocol.LogLevel, message string, data interface{}) {
	logToConsole(a.logger, level, message, data)
}

// SendLog ships one entry to the host over the protocol logging channel.
func (a *MCPAdapter) SendLog(ctx context.Context, entry protocol.LogEntry) error {
	if !a.IsConnected() {
		return NewNotConnectedError(HostMCP, "SendLog")
	}
	_, err := a.request(ctx, protocol.MethodSendLog, protocol.SendLogParams{
		Level:   entry.Level,
		Message: entry.Message,
		Data:    entry.Data,
	})
	return err
}

// SendSizeChanged reports the widget's rendered size. This is fire and
// forget: before connect it is a silent no-op, and send failures are
// swallowed after a diagnostic.
func (a *MCPAdapter) SendSizeChanged(ctx context.Context, width, height float64) error {
	if !a.IsConnected() {
		return nil
	}
	if err := a.notify(protocol.NotificationSizeChanged, protocol.SizeChangedParams{Width: width, Height: height}); err != nil {
		a.logger.Debug("mcp: size notification failed: %v", err)
	}
	return nil
}

// GetHostContext returns the current context snapshot. It is complete even
// before Connect.
func (a *MCPAdapter) GetHostContext() protocol.HostContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hostCtx.Clone()
}

// GetHostCapabilities returns the advertised capability set, nil before the
// handshake completes.
func (a *MCPAdapter) GetHostCapabilities() *protocol.HostCapabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.caps == nil {
		return nil
	}
	caps := *a.caps
	return &caps
}

// GetHostVersion returns the host version string, empty before the
// handshake completes.
func (a *MCPAdapter) GetHostVersion() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hostVersion
}

// ToolInput returns the last known tool input.
func (a *MCPAdapter) ToolInput() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolInput
}

// ToolOutput returns the last known tool output.
func (a *MCPAdapter) ToolOutput() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolOutput
}

// ToolResponseMeta returns the last known tool response metadata.
func (a *MCPAdapter) ToolResponseMeta() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolMeta
}

// OnToolResult registers a tool-result listener.
func (a *MCPAdapter) OnToolResult(handler func(map[string]interface{})) Unsubscribe {
	return a.toolResultSubs.add(handler)
}

// OnToolInput registers a tool-input listener.
func (a *MCPAdapter) OnToolInput(handler func(map[string]interface{})) Unsubscribe {
	return a.toolInputSubs.add(handler)
}

// OnToolInputPartial registers a streaming tool-input listener.
func (a *MCPAdapter) OnToolInputPartial(handler func(map[string]interface{})) Unsubscribe {
	return a.toolPartialSubs.add(handler)
}

// OnToolCancelled registers a tool-cancelled listener.
func (a *MCPAdapter) OnToolCancelled(handler func(map[string]interface{})) Unsubscribe {
	return a.toolCancelSubs.add(handler)
}

// OnHostContextChange registers a context-change listener.
func (a *MCPAdapter) OnHostContextChange(handler func(protocol.HostContext)) Unsubscribe {
	return a.contextSubs.add(handler)
}

// OnTeardown registers a teardown listener.
func (a *MCPAdapter) OnTeardown(handler func()) Unsubscribe {
	return a.teardownSubs.add(handler)
}

// SetCallToolHandler registers the single handler serving host-initiated
// tool calls.
func (a *MCPAdapter) SetCallToolHandler(handler CallToolHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.callToolHandler = handler
}

// SetListToolsHandler registers the handler serving host-initiated tool
// listing.
func (a *MCPAdapter) SetListToolsHandler(handler ListToolsHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.listToolsHandler = handler
}

func decodeObjectPayload(raw json.RawMessage) map[string]interface{} {
	var payload map[string]interface{}
	if err := protocol.UnmarshalPayload(raw, &payload); err != nil || payload == nil {
		return map[string]interface{}{}
	}
	return payload
}

func contextEqual(a, b protocol.HostContext) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

func logToConsole(logger logx.Logger, level protocol.LogLevel, message string, data interface{}) {
	format := "%s"
	args := []interface{}{message}
	if data != nil {
		format = "%s %v"
		args = append(args, protocol.SanitizeValue(data))
	}
	switch level {
	case protocol.LogLevelDebug:
		logger.Debug(format, args...)
	case protocol.LogLevelWarn:
		logger.Warn(format, args...)
	case protocol.LogLevelError:
		logger.Error(format, args...)
	default:
		logger.Info(format, args...)
	}
}

var _ Adapter = (*MCPAdapter)(nil)
