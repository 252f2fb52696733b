package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

func connectedMock(t *testing.T, options ...Option) *MockAdapter {
	t.Helper()
	a := NewMockAdapter(options...)
	require.NoError(t, a.Connect(context.Background()))
	return a
}

func TestMockAdapterRequiresConnect(t *testing.T) {
	a := NewMockAdapter()

	_, err := a.CallTool(context.Background(), "getWeather", nil)
	assert.True(t, IsNotConnectedError(err))
	assert.True(t, IsNotConnectedError(a.SendMessage(context.Background(), "hi")))
	assert.Nil(t, a.GetHostCapabilities())
	assert.Empty(t, a.GetHostVersion())
}

func TestMockAdapterConnectIsIdempotent(t *testing.T) {
	a := connectedMock(t)
	require.NoError(t, a.Connect(context.Background()))

	assert.True(t, a.IsConnected())
	assert.Equal(t, "mock-1.0", a.GetHostVersion())

	caps := a.GetHostCapabilities()
	require.NotNil(t, caps)
	assert.True(t, caps.WidgetTools)
	assert.True(t, caps.FileUpload)
	assert.True(t, caps.StatePersistence)
}

func TestMockAdapterCallToolEchoesByDefault(t *testing.T) {
	a := connectedMock(t)

	args := map[string]interface{}{"city": "Lisbon"}
	result, err := a.CallTool(context.Background(), "getWeather", args)
	require.NoError(t, err)
	assert.Equal(t, "getWeather", result["tool"])
	assert.Equal(t, args, result["echo"])
	assert.Equal(t, result, a.ToolOutput())
}

func TestMockAdapterCallToolRunsScriptedHandler(t *testing.T) {
	a := connectedMock(t)
	a.SetToolHandler(func(name string, args map[string]interface{}) (map[string]interface{}, error) {
		if name == "boom" {
			return nil, errors.New("scripted failure")
		}
		return map[string]interface{}{"temp": 21}, nil
	})

	result, err := a.CallTool(context.Background(), "getWeather", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"temp": 21}, result)

	_, err = a.CallTool(context.Background(), "boom", nil)
	assert.EqualError(t, err, "scripted failure")
}

func TestMockAdapterStateRoundTripsExactly(t *testing.T) {
	a := connectedMock(t)
	ctx := context.Background()

	initial, err := a.GetState(ctx)
	require.NoError(t, err)
	assert.Nil(t, initial)

	state := map[string]interface{}{"visits": 3, "name": "w"}
	require.NoError(t, a.SetState(ctx, state))

	// Mutating the caller's map after SetState must not leak into storage.
	state["visits"] = 99

	stored, err := a.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"visits": 3, "name": "w"}, stored)
}

func TestMockAdapterRecordsOutboundTraffic(t *testing.T) {
	a := connectedMock(t)
	ctx := context.Background()

	require.NoError(t, a.SendMessage(ctx, "hello"))
	require.NoError(t, a.OpenLink(ctx, "https://example.com"))
	require.NoError(t, a.SendLog(ctx, protocol.NewLogEntry(protocol.LogLevelInfo, "logged", nil, "test")))

	assert.Equal(t, []string{"hello"}, a.SentMessages())
	assert.Equal(t, []string{"https://example.com"}, a.OpenedLinks())
	require.Len(t, a.SentLogs(), 1)
	assert.Equal(t, "logged", a.SentLogs()[0].Message)
}

func TestMockAdapterRequestDisplayModeGrantsAndNotifies(t *testing.T) {
	a := connectedMock(t)

	var seen []protocol.DisplayMode
	a.OnHostContextChange(func(ctx protocol.HostContext) {
		seen = append(seen, ctx.DisplayMode)
	})

	granted, err := a.RequestDisplayMode(context.Background(), protocol.DisplayModeFullscreen)
	require.NoError(t, err)
	assert.Equal(t, protocol.DisplayModeFullscreen, granted)
	assert.Equal(t, []protocol.DisplayMode{protocol.DisplayModeFullscreen}, seen)
	assert.Equal(t, protocol.DisplayModeFullscreen, a.GetHostContext().DisplayMode)
}

func TestMockAdapterEmitHostContextChangeMergesDefensively(t *testing.T) {
	a := connectedMock(t)

	var seen []protocol.HostContext
	a.OnHostContextChange(func(ctx protocol.HostContext) {
		seen = append(seen, ctx)
	})

	a.EmitHostContextChange(map[string]interface{}{
		"theme":  "dark",
		"locale": 42,
	})

	require.Len(t, seen, 1)
	assert.Equal(t, protocol.ThemeDark, seen[0].Theme)
	// The mistyped locale is dropped, not zeroed.
	assert.Equal(t, "en", seen[0].Locale)
}

func TestMockAdapterUnsubscribeIsIdempotent(t *testing.T) {
	a := connectedMock(t)

	first := 0
	second := 0
	unsub := a.OnToolResult(func(map[string]interface{}) { first++ })
	a.OnToolResult(func(map[string]interface{}) { second++ })

	a.EmitToolResult(map[string]interface{}{"n": 1})
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	unsub()
	unsub()

	a.EmitToolResult(map[string]interface{}{"n": 2})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestMockAdapterEmitCompanions(t *testing.T) {
	a := connectedMock(t)

	var inputs, partials, cancels []map[string]interface{}
	teardowns := 0
	a.OnToolInput(func(p map[string]interface{}) { inputs = append(inputs, p) })
	a.OnToolInputPartial(func(p map[string]interface{}) { partials = append(partials, p) })
	a.OnToolCancelled(func(p map[string]interface{}) { cancels = append(cancels, p) })
	a.OnTeardown(func() { teardowns++ })

	a.EmitToolInput(map[string]interface{}{"city": "Lisbon"})
	a.EmitToolInputPartial(map[string]interface{}{"city": "Lis"})
	a.EmitToolCancelled(map[string]interface{}{"reason": "user"})
	a.EmitTeardown()

	require.Len(t, inputs, 1)
	assert.Equal(t, inputs[0], a.ToolInput())
	assert.Len(t, partials, 1)
	assert.Len(t, cancels, 1)
	assert.Equal(t, 1, teardowns)
}

func TestMockAdapterHostCallTool(t *testing.T) {
	a := connectedMock(t)
	ctx := context.Background()

	result := a.HostCallTool(ctx, "refresh", nil)
	assert.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Equal(t, "no tool handler registered", result.Content[0].Text)

	a.SetCallToolHandler(func(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"handled": name}, nil
	})
	result = a.HostCallTool(ctx, "refresh", nil)
	assert.False(t, result.IsError)
	assert.Equal(t, map[string]interface{}{"handled": "refresh"}, result.StructuredContent)
}

func TestMockAdapterHostListToolsReturnsNamesOnly(t *testing.T) {
	a := connectedMock(t)
	ctx := context.Background()

	assert.Empty(t, a.HostListTools(ctx))

	a.SetListToolsHandler(func(ctx context.Context) ([]ToolDescriptor, error) {
		return []ToolDescriptor{
			{Name: "refresh", Description: "re-render", InputSchema: map[string]interface{}{"type": "object"}},
			{Name: "highlight"},
		}, nil
	})
	assert.Equal(t, []string{"refresh", "highlight"}, a.HostListTools(ctx))
}

func TestMockAdapterFileLifecycle(t *testing.T) {
	a := connectedMock(t)
	ctx := context.Background()

	id, err := a.UploadFile(ctx, "report.csv", "text/csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)

	url, err := a.GetFileDownloadURL(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "mock://files/file-1", url)

	_, err = a.GetFileDownloadURL(ctx, "file-404")
	assert.Error(t, err)
}

func TestMockAdapterSizeChangedUpdatesViewport(t *testing.T) {
	a := connectedMock(t)

	require.NoError(t, a.SendSizeChanged(context.Background(), 400, 300))
	viewport := a.GetHostContext().Viewport
	assert.Equal(t, 400.0, viewport.Width)
	assert.Equal(t, 300.0, viewport.Height)
}

func TestMockAdapterReadResourceIsDeterministic(t *testing.T) {
	a := connectedMock(t)

	contents, err := a.ReadResource(context.Background(), "ui://widget/index.html")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "ui://widget/index.html", contents[0].URI)
	assert.Contains(t, contents[0].Text, "ui://widget/index.html")
}
