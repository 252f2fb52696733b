package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceNameForTool(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"getWeather", "callGetWeather"},
		{"refresh", "callRefresh"},
		{"HTTPFetch", "callHTTPFetch"},
		{"x", "callX"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, surfaceNameForTool(tt.tool))
	}
}

func TestToolNameForSurface(t *testing.T) {
	tests := []struct {
		surface string
		want    string
		ok      bool
	}{
		{"callGetWeather", "getWeather", true},
		{"callRefresh", "refresh", true},
		{"callX", "x", true},
		{"call", "", false},
		{"fetch", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := toolNameForSurface(tt.surface)
		assert.Equal(t, tt.ok, ok, tt.surface)
		assert.Equal(t, tt.want, got, tt.surface)
	}
}

func TestClientCallDispatch(t *testing.T) {
	adapter := connectedMock(t)
	var called []string
	adapter.SetToolHandler(func(name string, args map[string]interface{}) (map[string]interface{}, error) {
		called = append(called, name)
		return map[string]interface{}{"ok": true}, nil
	})

	c := NewClient(adapter, WithKnownTools("HTTPFetch"))
	ctx := context.Background()

	// Known tools resolve through the table and keep their exact casing.
	_, err := c.Call(ctx, "callHTTPFetch", nil)
	require.NoError(t, err)

	// Unknown but well-formed surfaces derive the tool name.
	_, err = c.Call(ctx, "callGetWeather", map[string]interface{}{"city": "Lisbon"})
	require.NoError(t, err)

	assert.Equal(t, []string{"HTTPFetch", "getWeather"}, called)
}

func TestClientCallRejectsMalformedSurfaces(t *testing.T) {
	c := NewClient(connectedMock(t))

	for _, surface := range []string{"call", "fetch", ""} {
		_, err := c.Call(context.Background(), surface, nil)
		require.Error(t, err, surface)
		assert.True(t, errors.Is(err, ErrUnknownToolSurface), surface)
	}
}

func TestClientNewConnectsMockForEmptyEnvironment(t *testing.T) {
	c, err := New(context.Background(), Environment{})
	require.NoError(t, err)

	assert.Equal(t, HostMock, c.Adapter().Type())
	assert.True(t, c.Adapter().IsConnected())

	result, err := c.Call(context.Background(), "callGetWeather", nil)
	require.NoError(t, err)
	assert.Equal(t, "getWeather", result["tool"])
}

func TestClientFileFeatureDetection(t *testing.T) {
	c := NewClient(connectedMock(t))
	file, ok := c.File()
	require.True(t, ok)
	require.NotNil(t, file)

	id, err := file.UploadFile(context.Background(), "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// The embedded-RPC host has no file surface at all.
	widgetPort, _ := NewPipePair()
	c = NewClient(NewMCPAdapter(widgetPort))
	_, ok = c.File()
	assert.False(t, ok)
}

type fakeObserver struct {
	callback func(width, height float64)
	detached int
}

func (o *fakeObserver) Observe(callback func(width, height float64)) func() {
	o.callback = callback
	return func() { o.detached++ }
}

func TestClientSetupSizeChangedNotifications(t *testing.T) {
	adapter := connectedMock(t)
	c := NewClient(adapter)

	observer := &fakeObserver{}
	dispose := c.SetupSizeChangedNotifications(observer)
	require.NotNil(t, observer.callback)

	// Sizes are rounded before they reach the host.
	observer.callback(100.4, 200.6)
	viewport := adapter.GetHostContext().Viewport
	assert.Equal(t, 100.0, viewport.Width)
	assert.Equal(t, 201.0, viewport.Height)

	// Disposal is idempotent.
	dispose()
	dispose()
	assert.Equal(t, 1, observer.detached)
}

func TestClientSetupSizeChangedNotificationsNilObserver(t *testing.T) {
	c := NewClient(connectedMock(t))

	dispose := c.SetupSizeChangedNotifications(nil)
	require.NotNil(t, dispose)
	dispose()
}

func TestClientDebugLoggerWiring(t *testing.T) {
	adapter := connectedMock(t)
	recorder := &batchRecorder{}
	adapter.SetToolHandler(recorder.handler)

	c := NewClient(adapter, WithDebugLog(DebugLoggerOptions{
		Enabled:   true,
		BatchSize: 1,
		Source:    "widget-tests",
	}))
	require.NotNil(t, c.DebugLogger())

	c.DebugLogger().Info("wired", nil)
	require.Equal(t, 1, recorder.count())
	entry := recorder.batch(t, 0)[0]
	assert.Equal(t, "wired", entry.Message)
	assert.Equal(t, "widget-tests", entry.Source)

	assert.Nil(t, NewClient(adapter).DebugLogger())
}

func TestClientDelegatesSubscriptions(t *testing.T) {
	adapter := connectedMock(t)
	c := NewClient(adapter)

	results := 0
	unsub := c.OnToolResult(func(map[string]interface{}) { results++ })
	adapter.EmitToolResult(map[string]interface{}{"n": 1})
	assert.Equal(t, 1, results)

	unsub()
	adapter.EmitToolResult(map[string]interface{}{"n": 2})
	assert.Equal(t, 1, results)
}
