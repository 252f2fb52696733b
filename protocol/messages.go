package protocol

import (
	"encoding/json"
	"fmt"
)

// Method names for requests the widget sends to the embedded-RPC host.
const (
	MethodInitialize         = "initialize"
	MethodCallTool           = "tools/call"
	MethodReadResource       = "resources/read"
	MethodSendMessage        = "message/send"
	MethodOpenLink           = "link/open"
	MethodRequestDisplayMode = "display-mode/request"
	MethodRequestClose       = "close/request"
	MethodSendLog            = "log/send"
)

// Notification names pushed by the embedded-RPC host to the widget.
const (
	NotificationHostContextChanged = "host-context-changed"
	NotificationToolInput          = "tool-input"
	NotificationToolInputPartial   = "tool-input-partial"
	NotificationToolResult         = "tool-result"
	NotificationToolCancelled      = "tool-cancelled"
	NotificationTeardown           = "teardown"
	NotificationSizeChanged        = "size/changed"
)

// Inbound request methods the widget must be able to serve for the host.
const (
	MethodWidgetCallTool  = "widget/call-tool"
	MethodWidgetListTools = "widget/list-tools"
)

// ErrorPayload is the error object of a failed response.
type ErrorPayload struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Request is a JSON-RPC 2.0 shaped request carried over the host boundary.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Response answers a Request with the same ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// Notification is a one-way message without an ID.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Envelope is the union shape every inbound frame is decoded into before
// being routed as a response, inbound request, or notification.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// NewRequest creates a request envelope.
func NewRequest(id, method string, params interface{}) *Request {
	return &Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// NewNotification creates a notification envelope.
func NewNotification(method string, params interface{}) *Notification {
	return &Notification{JSONRPC: "2.0", Method: method, Params: params}
}

// NewSuccessResponse creates a success response for the given request ID.
func NewSuccessResponse(id string, result interface{}) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response result: %w", err)
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: raw}, nil
}

// NewErrorResponse creates an error response for the given request ID.
func NewErrorResponse(id string, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: &ErrorPayload{Code: code, Message: message}}
}

// UnmarshalPayload decodes a raw params or result payload into target.
func UnmarshalPayload(payload json.RawMessage, target interface{}) error {
	if len(payload) == 0 || string(payload) == "null" {
		return fmt.Errorf("payload is empty, cannot unmarshal")
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}

// InitializeParams declares the widget's own capabilities to the host.
type InitializeParams struct {
	Capabilities WidgetCapabilities `json:"capabilities"`
}

// WidgetCapabilities is what the widget itself supports. Declaring the tool
// capability tells the host it may issue widget/call-tool requests.
type WidgetCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

// InitializeResult is the handshake payload returned by the embedded-RPC
// host. Everything beyond the version is optional; adapters fall back to
// defaults for any missing piece.
type InitializeResult struct {
	HostVersion  string                 `json:"hostVersion,omitempty"`
	Capabilities *HostCapabilities      `json:"capabilities,omitempty"`
	HostContext  map[string]interface{} `json:"hostContext,omitempty"`
	ToolInfo     *ToolInfo              `json:"toolInfo,omitempty"`
}

// ToolInfo identifies the tool invocation this widget instance renders.
type ToolInfo struct {
	Name string                 `json:"name"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// CallToolParams is the payload for tools/call and widget/call-tool.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// TextContent is one text block of a tool call result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the payload answering tools/call and widget/call-tool.
type CallToolResult struct {
	Content           []TextContent          `json:"content,omitempty"`
	StructuredContent map[string]interface{} `json:"structuredContent,omitempty"`
	Meta              map[string]interface{} `json:"_meta,omitempty"`
	IsError           bool                   `json:"isError,omitempty"`
}

// ExtractToolOutput applies the tool output extraction order: the structured
// payload when present, else the first text content block when it parses to
// a JSON object, else the empty object.
func ExtractToolOutput(result *CallToolResult) map[string]interface{} {
	if result == nil {
		return map[string]interface{}{}
	}
	if result.StructuredContent != nil {
		return result.StructuredContent
	}
	for _, block := range result.Content {
		if block.Type != "text" {
			continue
		}
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(block.Text), &parsed); err == nil && parsed != nil {
			return parsed
		}
		break
	}
	return map[string]interface{}{}
}

// ListToolsResult answers widget/list-tools. Only tool names travel back
// through this channel; full schemas are not echoed to the host.
type ListToolsResult struct {
	Tools []ToolName `json:"tools"`
}

// ToolName is a name-only tool listing entry.
type ToolName struct {
	Name string `json:"name"`
}

// ReadResourceParams is the payload for resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// DisplayModeParams is the payload for display-mode/request.
type DisplayModeParams struct {
	Mode DisplayMode `json:"mode"`
}

// DisplayModeResult reports the mode the host actually granted.
type DisplayModeResult struct {
	Mode DisplayMode `json:"mode"`
}

// SizeChangedParams is the payload for size/changed notifications.
type SizeChangedParams struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SendMessageParams is the payload for message/send.
type SendMessageParams struct {
	Text string `json:"text"`
}

// OpenLinkParams is the payload for link/open.
type OpenLinkParams struct {
	URL string `json:"url"`
}

// HostContextChangedParams carries a whole-context replacement payload.
type HostContextChangedParams struct {
	Context map[string]interface{} `json:"context"`
}

// SendLogParams is the payload for log/send.
type SendLogParams struct {
	Level   LogLevel    `json:"level"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used on the widget-served side of the boundary.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)
