package client

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/AndurilCode/mcp-apps-kit/logx"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

// OpenAIAdapter binds the contract to a host that injects a global object
// asynchronously and signals context changes with a lightweight refresh
// broadcast instead of payload-carrying notifications.
//
// The capability surface of this host is hard-coded: there is no live
// negotiation. Bidirectional tools, partial input streaming, and protocol
// logging are unsupported; the corresponding methods are safe no-ops that
// emit a debug diagnostic.
type OpenAIAdapter struct {
	provider GlobalHostProvider
	logger   logx.Logger
	opts     *Options

	mu         sync.Mutex
	state      connState
	host       GlobalHost
	caps       *protocol.HostCapabilities
	hostCtx    protocol.HostContext
	localState map[string]interface{}
	done       chan struct{}

	contextSubs  subscribers[func(protocol.HostContext)]
	teardownSubs subscribers[func()]

	// Registrable but never emitted on this host; registration still hands
	// back a working unsubscribe so widget code stays host-agnostic.
	toolResultSubs  subscribers[func(map[string]interface{})]
	toolInputSubs   subscribers[func(map[string]interface{})]
	toolPartialSubs subscribers[func(map[string]interface{})]
	toolCancelSubs  subscribers[func(map[string]interface{})]
}

// NewOpenAIAdapter creates an adapter over the given provider. The context
// is fully populated with defaults before the global ever appears.
func NewOpenAIAdapter(provider GlobalHostProvider, options ...Option) *OpenAIAdapter {
	opts := applyOptions(options)
	ctx := protocol.DefaultHostContext()
	ctx.AvailableDisplayModes = []protocol.DisplayMode{
		protocol.DisplayModeInline, protocol.DisplayModeFullscreen, protocol.DisplayModePiP,
	}
	return &OpenAIAdapter{
		provider: provider,
		logger:   opts.Logger,
		opts:     opts,
		hostCtx:  ctx,
		done:     make(chan struct{}),
	}
}

// Type returns the host type tag.
func (a *OpenAIAdapter) Type() HostType {
	return HostOpenAI
}

// Connect polls for the injected global, racing the refresh broadcast under
// the connect timeout. Either signal short-circuits the wait; if the timeout
// elapses the adapter proceeds in a degraded offline mode instead of
// failing. Connect is idempotent.
func (a *OpenAIAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.state != stateUnconnected {
		a.mu.Unlock()
		return nil
	}
	a.state = stateConnecting
	a.mu.Unlock()

	host := a.waitForGlobal(ctx)

	caps := protocol.OpenAIHostCapabilities()
	a.mu.Lock()
	a.host = host
	a.caps = &caps
	a.state = stateConnected
	a.mu.Unlock()

	if host == nil {
		a.logger.Warn("openai host global did not appear within %v, proceeding in offline mode", a.opts.ConnectTimeout)
	} else {
		if err := host.Init(ctx); err != nil {
			a.logger.Debug("openai host init failed: %v", err)
		}
		a.readHostProperties(host, true)
		a.logHostMethods(host)
	}

	go a.watchRefresh()
	return nil
}

func (a *OpenAIAdapter) waitForGlobal(ctx context.Context) GlobalHost {
	if a.provider == nil {
		return nil
	}
	if host := a.provider.Lookup(); host != nil {
		return host
	}

	deadline := time.NewTimer(a.opts.ConnectTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(a.opts.PollInterval)
	defer ticker.Stop()

	var refresh <-chan struct{}
	if a.provider.Refresh() != nil {
		refresh = a.provider.Refresh()
	}

	for {
		select {
		case <-ticker.C:
			if host := a.provider.Lookup(); host != nil {
				return host
			}
		case <-refresh:
			if host := a.provider.Lookup(); host != nil {
				return host
			}
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// readHostProperties synchronously reads every known property the global
// exposes into the context. When notify is false the update is silent;
// otherwise subscribers are notified only if a tracked field (theme, locale,
// display mode) actually changed.
func (a *OpenAIAdapter) readHostProperties(host GlobalHost, initial bool) {
	next := protocol.DefaultHostContext()
	next.AvailableDisplayModes = []protocol.DisplayMode{
		protocol.DisplayModeInline, protocol.DisplayModeFullscreen, protocol.DisplayModePiP,
	}

	if theme := host.Theme(); theme == string(protocol.ThemeDark) {
		next.Theme = protocol.ThemeDark
	}
	if mode := host.DisplayMode(); mode != "" {
		switch protocol.DisplayMode(mode) {
		case protocol.DisplayModeInline, protocol.DisplayModeFullscreen, protocol.DisplayModePiP:
			next.DisplayMode = protocol.DisplayMode(mode)
		}
	}
	if locale := host.Locale(); locale != "" {
		next.Locale = locale
	}
	next.UserAgent = host.UserAgent()
	next.View = host.View()
	if insets := host.SafeArea(); insets != nil {
		value := *insets
		next.SafeArea = &value
	}
	if maxHeight := host.MaxHeight(); maxHeight > 0 {
		next.Viewport.Height = maxHeight
		next.Viewport.MaxHeight = &maxHeight
	}

	a.mu.Lock()
	previous := a.hostCtx
	a.hostCtx = next
	a.mu.Unlock()

	if initial {
		return
	}
	if previous.Theme == next.Theme && previous.Locale == next.Locale && previous.DisplayMode == next.DisplayMode {
		// Coalesce: nothing observable changed, skip the redundant notify.
		return
	}
	snapshot := next.Clone()
	for _, handler := range a.contextSubs.snapshot() {
		handler(snapshot)
	}
}

// watchRefresh re-reads host properties after each refresh broadcast, with a
// short settle delay so the host finishes updating its globals first.
func (a *OpenAIAdapter) watchRefresh() {
	if a.provider == nil || a.provider.Refresh() == nil {
		return
	}
	refresh := a.provider.Refresh()
	for {
		select {
		case _, ok := <-refresh:
			if !ok {
				return
			}
			time.Sleep(a.opts.SettleDelay)
			host := a.provider.Lookup()
			if host == nil {
				continue
			}
			a.mu.Lock()
			a.host = host
			a.mu.Unlock()
			a.readHostProperties(host, false)
		case <-a.done:
			return
		}
	}
}

func (a *OpenAIAdapter) logHostMethods(host GlobalHost) {
	t := reflect.TypeOf(host)
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	a.logger.Debug("openai host global available, methods: %v", names)
}

// IsConnected reports whether Connect has completed.
func (a *OpenAIAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateConnected
}

// Close stops the refresh watcher and fires teardown listeners.
func (a *OpenAIAdapter) Close() error {
	a.mu.Lock()
	alreadyClosed := false
	select {
	case <-a.done:
		alreadyClosed = true
	default:
		close(a.done)
	}
	a.state = stateUnconnected
	a.mu.Unlock()

	if !alreadyClosed {
		for _, handler := range a.teardownSubs.snapshot() {
			handler()
		}
	}
	return nil
}

func (a *OpenAIAdapter) liveHost(op string) (GlobalHost, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateConnected {
		return nil, NewNotConnectedError(HostOpenAI, op)
	}
	if a.host == nil {
		return nil, NewHostUnavailableError(HostOpenAI, op)
	}
	return a.host, nil
}

// CallTool invokes a server-declared tool through the host global.
func (a *OpenAIAdapter) CallTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	host, err := a.liveHost("CallTool")
	if err != nil {
		return nil, err
	}
	result, err := host.CallTool(ctx, name, args)
	if err != nil {
		return nil, NewAdapterError(HostOpenAI, "CallTool", "host declined tool call", err)
	}
	return result, nil
}

// SendMessage asks the host to append a message to the conversation.
func (a *OpenAIAdapter) SendMessage(ctx context.Context, text string) error {
	host, err := a.liveHost("SendMessage")
	if err != nil {
		return err
	}
	return host.SendMessage(ctx, text)
}

// OpenLink asks the host to open an external link.
func (a *OpenAIAdapter) OpenLink(ctx context.Context, url string) error {
	host, err := a.liveHost("OpenLink")
	if err != nil {
		return err
	}
	return host.OpenLink(ctx, url)
}

// RequestDisplayMode asks the host for a display mode and returns the mode
// actually granted.
func (a *OpenAIAdapter) RequestDisplayMode(ctx context.Context, mode protocol.DisplayMode) (protocol.DisplayMode, error) {
	host, err := a.liveHost("RequestDisplayMode")
	if err != nil {
		return "", err
	}
	granted, err := host.RequestDisplayMode(ctx, string(mode))
	if err != nil {
		return "", NewAdapterError(HostOpenAI, "RequestDisplayMode", "host declined display mode", err)
	}
	result := protocol.DisplayMode(granted)
	switch result {
	case protocol.DisplayModeInline, protocol.DisplayModeFullscreen, protocol.DisplayModePiP:
	default:
		result = mode
	}

	a.mu.Lock()
	a.hostCtx.DisplayMode = result
	a.mu.Unlock()
	return result, nil
}

// RequestClose asks the host to dismiss the widget.
func (a *OpenAIAdapter) RequestClose(ctx context.Context) error {
	host, err := a.liveHost("RequestClose")
	if err != nil {
		return err
	}
	return host.Close(ctx)
}

// SetState stores widget state with the host when it is live, else in a
// local map. Either way the persistence is per-render only.
func (a *OpenAIAdapter) SetState(ctx context.Context, state map[string]interface{}) error {
	a.mu.Lock()
	host := a.host
	a.mu.Unlock()

	if host != nil {
		return host.SetState(ctx, state)
	}
	copied := make(map[string]interface{}, len(state))
	for k, v := range state {
		copied[k] = v
	}
	a.mu.Lock()
	a.localState = copied
	a.mu.Unlock()
	return nil
}

// GetState returns the last stored widget state, nil when none was set.
func (a *OpenAIAdapter) GetState(ctx context.Context) (map[string]interface{}, error) {
	a.mu.Lock()
	host := a.host
	local := a.localState
	a.mu.Unlock()

	if host != nil {
		return host.GetState(ctx)
	}
	return local, nil
}

// ReadResource proxies a resource read through the host global. Without a
// live host the read yields an empty list rather than failing.
func (a *OpenAIAdapter) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContent, error) {
	host, err := a.liveHost("ReadResource")
	if err != nil {
		if IsNotConnectedError(err) {
			return nil, err
		}
		return []protocol.ResourceContent{}, nil
	}
	raw, err := host.ReadResource(ctx, uri)
	if err != nil {
		a.logger.Debug("openai resource read failed: %v", err)
		return []protocol.ResourceContent{}, nil
	}
	return protocol.NormalizeResourceContents(raw), nil
}

// Log writes to the local console channel. This host has no other logging
// surface.
func (a *OpenAIAdapter) Log(level protocol.LogLevel, message string, data interface{}) {
	logToConsole(a.logger, level, message, data)
}

// SendLog is a safe no-op: this host exposes no protocol logging channel.
func (a *OpenAIAdapter) SendLog(ctx context.Context, entry protocol.LogEntry) error {
	a.logger.Debug("openai host has no protocol logging, dropping entry: %s", entry.Message)
	return nil
}

// SendSizeChanged maps the generic size report onto this host's intrinsic
// height primitive. Width changes are inherently unsupported and dropped.
func (a *OpenAIAdapter) SendSizeChanged(ctx context.Context, width, height float64) error {
	a.mu.Lock()
	host := a.host
	a.mu.Unlock()
	if host == nil {
		return nil
	}
	if err := host.NotifyIntrinsicHeight(ctx, height); err != nil {
		a.logger.Debug("openai height notification failed: %v", err)
	}
	return nil
}

// UploadFile forwards a file upload to the host global.
func (a *OpenAIAdapter) UploadFile(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	host, err := a.liveHost("UploadFile")
	if err != nil {
		return "", err
	}
	return host.UploadFile(ctx, name, mimeType, data)
}

// GetFileDownloadURL resolves a previously uploaded file to a download URL.
func (a *OpenAIAdapter) GetFileDownloadURL(ctx context.Context, fileID string) (string, error) {
	host, err := a.liveHost("GetFileDownloadURL")
	if err != nil {
		return "", err
	}
	return host.GetFileDownloadURL(ctx, fileID)
}

// GetHostContext returns the current context snapshot.
func (a *OpenAIAdapter) GetHostContext() protocol.HostContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hostCtx.Clone()
}

// GetHostCapabilities returns the hard-coded capability profile, nil before
// Connect completes.
func (a *OpenAIAdapter) GetHostCapabilities() *protocol.HostCapabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.caps == nil {
		return nil
	}
	caps := *a.caps
	return &caps
}

// GetHostVersion returns the host version. This host does not report one.
func (a *OpenAIAdapter) GetHostVersion() string {
	return ""
}

// ToolInput returns nil: this host does not deliver tool input.
func (a *OpenAIAdapter) ToolInput() map[string]interface{} {
	return nil
}

// ToolOutput returns nil: this host does not deliver tool results.
func (a *OpenAIAdapter) ToolOutput() map[string]interface{} {
	return nil
}

// ToolResponseMeta returns nil: this host does not deliver tool metadata.
func (a *OpenAIAdapter) ToolResponseMeta() map[string]interface{} {
	return nil
}

// OnToolResult registers a listener that never fires on this host.
func (a *OpenAIAdapter) OnToolResult(handler func(map[string]interface{})) Unsubscribe {
	return a.toolResultSubs.add(handler)
}

// OnToolInput registers a listener that never fires on this host.
func (a *OpenAIAdapter) OnToolInput(handler func(map[string]interface{})) Unsubscribe {
	return a.toolInputSubs.add(handler)
}

// OnToolInputPartial registers a listener that never fires on this host.
func (a *OpenAIAdapter) OnToolInputPartial(handler func(map[string]interface{})) Unsubscribe {
	return a.toolPartialSubs.add(handler)
}

// OnToolCancelled registers a listener that never fires on this host.
func (a *OpenAIAdapter) OnToolCancelled(handler func(map[string]interface{})) Unsubscribe {
	return a.toolCancelSubs.add(handler)
}

// OnHostContextChange registers a context-change listener.
func (a *OpenAIAdapter) OnHostContextChange(handler func(protocol.HostContext)) Unsubscribe {
	return a.contextSubs.add(handler)
}

// OnTeardown registers a teardown listener. This host signals teardown by
// discarding the sandbox, so the listener only fires on Close.
func (a *OpenAIAdapter) OnTeardown(handler func()) Unsubscribe {
	return a.teardownSubs.add(handler)
}

// SetCallToolHandler is a safe no-op: this host cannot call widget tools.
func (a *OpenAIAdapter) SetCallToolHandler(handler CallToolHandler) {
	a.logger.Debug("openai host does not support widget-exposed tools, ignoring call-tool handler")
}

// SetListToolsHandler is a safe no-op: this host cannot list widget tools.
func (a *OpenAIAdapter) SetListToolsHandler(handler ListToolsHandler) {
	a.logger.Debug("openai host does not support widget-exposed tools, ignoring list-tools handler")
}

var (
	_ Adapter     = (*OpenAIAdapter)(nil)
	_ FileAdapter = (*OpenAIAdapter)(nil)
)
