package client

import (
	"context"
	"strings"

	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// GlobalHost is the fixed surface of the injected-global host object:
// property getters read synchronously, methods forward to the host.
type GlobalHost interface {
	Theme() string
	DisplayMode() string
	Locale() string
	UserAgent() string
	View() string
	SafeArea() *protocol.SafeAreaInsets
	MaxHeight() float64

	Init(ctx context.Context) error
	CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)
	SendMessage(ctx context.Context, text string) error
	OpenLink(ctx context.Context, url string) error
	RequestDisplayMode(ctx context.Context, mode string) (string, error)
	Close(ctx context.Context) error
	SetState(ctx context.Context, state map[string]interface{}) error
	GetState(ctx context.Context) (map[string]interface{}, error)
	UploadFile(ctx context.Context, name, mimeType string, data []byte) (string, error)
	GetFileDownloadURL(ctx context.Context, fileID string) (string, error)
	ReadResource(ctx context.Context, uri string) ([]interface{}, error)
	NotifyIntrinsicHeight(ctx context.Context, height float64) error
}

// GlobalHostProvider hands out the injected global, which may not exist yet:
// Lookup returns nil until the host injects it. Refresh carries the host's
// broadcast "something changed, re-read now" signal; it is not a payload
// carrier.
type GlobalHostProvider interface {
	Lookup() GlobalHost
	Refresh() <-chan struct{}
}

// Environment describes the ambient signals host detection inspects. The
// embedding layer constructs one of these from whatever runtime it has.
type Environment struct {
	// HasRuntime is false when there is no execution environment at all
	// (e.g. prerendering); detection then always picks the mock host.
	HasRuntime bool
	// Global provides the injected-global host object, when the embedding
	// layer supports one.
	Global GlobalHostProvider
	// URL is the widget's own document URL.
	URL string
	// Referrer is the embedding document's URL, when known.
	Referrer string
	// EmbeddedParent is true when the widget window has a different parent
	// window, i.e. it runs inside an iframe.
	EmbeddedParent bool
	// Port is the message channel to the embedding host, required by the
	// embedded-RPC adapter.
	Port MessagePort
}

// injectedHostMarkers are URL/referrer fragments indicating the widget runs
// inside the injected-global host's sandbox even before the global appears.
var injectedHostMarkers = []string{"chatgpt.com", "openai.com", "oaiusercontent.com"}

func matchesInjectedHost(env Environment) bool {
	for _, marker := range injectedHostMarkers {
		if strings.Contains(env.URL, marker) || strings.Contains(env.Referrer, marker) {
			return true
		}
	}
	return false
}

// DetectHost picks the protocol for the ambient environment. The ordering is
// load-bearing: the injected-global checks precede the iframe check because
// some hosts present both signals at once, and the injected-global host
// takes priority.
func DetectHost(env Environment) HostType {
	if !env.HasRuntime {
		return HostMock
	}
	if env.Global != nil && env.Global.Lookup() != nil {
		return HostOpenAI
	}
	// The global may be injected asynchronously; sandbox heuristics pick the
	// same protocol ahead of its arrival.
	if matchesInjectedHost(env) {
		return HostOpenAI
	}
	if env.EmbeddedParent {
		return HostMCP
	}
	return HostMock
}

// NewAdapter maps the detected host type to a concrete adapter instance.
func NewAdapter(env Environment, options ...Option) (Adapter, error) {
	switch DetectHost(env) {
	case HostOpenAI:
		return NewOpenAIAdapter(env.Global, options...), nil
	case HostMCP:
		if env.Port == nil {
			return nil, NewAdapterError(HostMCP, "NewAdapter", "embedded host detected but no message port provided", nil)
		}
		return NewMCPAdapter(env.Port, options...), nil
	default:
		return NewMockAdapter(options...), nil
	}
}
