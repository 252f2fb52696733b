package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHost(t *testing.T) {
	withGlobal := newFakeProvider(&fakeGlobalHost{})
	withoutGlobal := newFakeProvider(nil)

	tests := []struct {
		name string
		env  Environment
		want HostType
	}{
		{
			name: "no runtime always picks mock",
			env:  Environment{HasRuntime: false, Global: withGlobal, EmbeddedParent: true},
			want: HostMock,
		},
		{
			name: "present global picks openai",
			env:  Environment{HasRuntime: true, Global: withGlobal},
			want: HostOpenAI,
		},
		{
			name: "present global beats embedded parent",
			env:  Environment{HasRuntime: true, Global: withGlobal, EmbeddedParent: true},
			want: HostOpenAI,
		},
		{
			name: "url marker picks openai before the global appears",
			env:  Environment{HasRuntime: true, Global: withoutGlobal, URL: "https://chatgpt.com/widget/abc", EmbeddedParent: true},
			want: HostOpenAI,
		},
		{
			name: "referrer marker picks openai without a provider",
			env:  Environment{HasRuntime: true, Referrer: "https://oaiusercontent.com/frame", EmbeddedParent: true},
			want: HostOpenAI,
		},
		{
			name: "embedded parent picks mcp",
			env:  Environment{HasRuntime: true, EmbeddedParent: true},
			want: HostMCP,
		},
		{
			name: "absent global without other signals falls through to mock",
			env:  Environment{HasRuntime: true, Global: withoutGlobal},
			want: HostMock,
		},
		{
			name: "bare runtime picks mock",
			env:  Environment{HasRuntime: true},
			want: HostMock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHost(tt.env))
		})
	}
}

func TestNewAdapterMapsHostTypes(t *testing.T) {
	adapter, err := NewAdapter(Environment{})
	require.NoError(t, err)
	assert.Equal(t, HostMock, adapter.Type())

	widgetPort, _ := NewPipePair()
	adapter, err = NewAdapter(Environment{HasRuntime: true, EmbeddedParent: true, Port: widgetPort})
	require.NoError(t, err)
	assert.Equal(t, HostMCP, adapter.Type())

	adapter, err = NewAdapter(Environment{HasRuntime: true, Global: newFakeProvider(&fakeGlobalHost{})})
	require.NoError(t, err)
	assert.Equal(t, HostOpenAI, adapter.Type())
}

func TestNewAdapterRequiresPortForEmbeddedHost(t *testing.T) {
	_, err := NewAdapter(Environment{HasRuntime: true, EmbeddedParent: true})
	require.Error(t, err)

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, HostMCP, adapterErr.Adapter)
}
