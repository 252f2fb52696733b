// Package client provides the unified widget client and the host protocol
// adapters behind it. A widget talks to exactly one object, the Client; the
// adapter underneath binds that surface to whichever host integration the
// environment offers (embedded-RPC, injected-global, or an in-process mock).
package client

import (
	"context"
	"sync"

	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// HostType identifies which host integration surface an adapter binds to.
type HostType string

const (
	HostMock   HostType = "mock"
	HostMCP    HostType = "mcp"
	HostOpenAI HostType = "openai"
)

// Unsubscribe removes a previously registered handler. Calling it more than
// once is safe and removes the handler exactly once.
type Unsubscribe func()

// CallToolHandler serves host-initiated tool calls against the widget.
type CallToolHandler func(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)

// ToolDescriptor describes one tool the widget exposes to the host. Only
// the name travels back through the list-tools channel.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// ListToolsHandler enumerates the tools the widget exposes to the host.
type ListToolsHandler func(ctx context.Context) ([]ToolDescriptor, error)

// Adapter is the capability surface every host binding implements.
//
// Connect is idempotent and bounded by an internal timeout; it resolves even
// when the host is slow or absent, leaving the adapter in a degraded mode
// rather than failing hard. Operations that need the host reject with a
// not-connected error before Connect completes. Optional features degrade
// per the host's advertised capabilities: state persistence and size
// notifications no-op silently, while explicit feature calls reject with a
// descriptive error.
type Adapter interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Close() error
	Type() HostType

	CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)
	SendMessage(ctx context.Context, text string) error
	OpenLink(ctx context.Context, url string) error
	RequestDisplayMode(ctx context.Context, mode protocol.DisplayMode) (protocol.DisplayMode, error)
	RequestClose(ctx context.Context) error

	SetState(ctx context.Context, state map[string]interface{}) error
	GetState(ctx context.Context) (map[string]interface{}, error)

	ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContent, error)

	// Log writes to the local console channel; SendLog ships an entry to the
	// host over the protocol channel. The two are distinct.
	Log(level protocol.LogLevel, message string, data interface{})
	SendLog(ctx context.Context, entry protocol.LogEntry) error

	SendSizeChanged(ctx context.Context, width, height float64) error

	GetHostContext() protocol.HostContext
	GetHostCapabilities() *protocol.HostCapabilities
	GetHostVersion() string

	// Synchronous snapshots of the last known tool I/O, owned by the adapter
	// and replaced wholesale on every update.
	ToolInput() map[string]interface{}
	ToolOutput() map[string]interface{}
	ToolResponseMeta() map[string]interface{}

	OnToolResult(handler func(map[string]interface{})) Unsubscribe
	OnToolInput(handler func(map[string]interface{})) Unsubscribe
	OnToolInputPartial(handler func(map[string]interface{})) Unsubscribe
	OnToolCancelled(handler func(map[string]interface{})) Unsubscribe
	OnHostContextChange(handler func(protocol.HostContext)) Unsubscribe
	OnTeardown(handler func()) Unsubscribe

	SetCallToolHandler(handler CallToolHandler)
	SetListToolsHandler(handler ListToolsHandler)
}

// FileAdapter extends Adapter with file transfer, present only on hosts that
// advertise file support. Callers feature-detect with a type assertion (the
// Client exposes File for this) instead of hitting a runtime error.
type FileAdapter interface {
	Adapter
	UploadFile(ctx context.Context, name, mimeType string, data []byte) (string, error)
	GetFileDownloadURL(ctx context.Context, fileID string) (string, error)
}

// subscribers is an ordered handler registry. Handlers fire in registration
// order and the returned Unsubscribe is idempotent.
type subscribers[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]T
	order    []int
}

func (s *subscribers[T]) add(handler T) Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]T)
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscribers[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers[T]) snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		if handler, ok := s.handlers[id]; ok {
			out = append(out, handler)
		}
	}
	return out
}
