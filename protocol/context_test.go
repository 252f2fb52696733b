package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHostContextIsComplete(t *testing.T) {
	ctx := DefaultHostContext()

	assert.Equal(t, ThemeLight, ctx.Theme)
	assert.Equal(t, DisplayModeInline, ctx.DisplayMode)
	assert.NotEmpty(t, ctx.AvailableDisplayModes)
	assert.Equal(t, "en", ctx.Locale)
	assert.Equal(t, PlatformWeb, ctx.Platform)
}

func TestMergeHostContextOverlaysKnownFields(t *testing.T) {
	base := DefaultHostContext()

	merged, dropped := MergeHostContext(base, map[string]interface{}{
		"theme":       "dark",
		"displayMode": "fullscreen",
		"locale":      "pt-PT",
		"timeZone":    "Europe/Lisbon",
		"platform":    "mobile",
		"userAgent":   "TestAgent/1.0",
		"view":        "detail",
		"viewport": map[string]interface{}{
			"width":  390.0,
			"height": 844.0,
		},
		"deviceCapabilities": map[string]interface{}{
			"touch": true,
			"hover": false,
		},
		"safeAreaInsets": map[string]interface{}{
			"top": 47.0, "bottom": 34.0, "left": 0.0, "right": 0.0,
		},
	})

	assert.Empty(t, dropped)
	assert.Equal(t, ThemeDark, merged.Theme)
	assert.Equal(t, DisplayModeFullscreen, merged.DisplayMode)
	assert.Equal(t, "pt-PT", merged.Locale)
	assert.Equal(t, "Europe/Lisbon", merged.TimeZone)
	assert.Equal(t, PlatformMobile, merged.Platform)
	assert.Equal(t, "TestAgent/1.0", merged.UserAgent)
	assert.Equal(t, "detail", merged.View)
	assert.Equal(t, 390.0, merged.Viewport.Width)
	require.NotNil(t, merged.Device)
	assert.True(t, merged.Device.Touch)
	require.NotNil(t, merged.SafeArea)
	assert.Equal(t, 47.0, merged.SafeArea.Top)

	// The base is never mutated.
	assert.Equal(t, ThemeLight, base.Theme)
}

func TestMergeHostContextDropsMistypedFields(t *testing.T) {
	base := DefaultHostContext()

	merged, dropped := MergeHostContext(base, map[string]interface{}{
		"theme":       123,
		"displayMode": "sideways",
		"locale":      "",
		"viewport":    "big",
		"platform":    true,
		"mystery":     "value",
	})

	assert.ElementsMatch(t, []string{"theme", "displayMode", "locale", "viewport", "platform", "mystery"}, dropped)
	assert.Equal(t, base.Theme, merged.Theme)
	assert.Equal(t, base.DisplayMode, merged.DisplayMode)
	assert.Equal(t, base.Locale, merged.Locale)
	assert.Equal(t, base.Viewport, merged.Viewport)
}

func TestMergeHostContextArrayReplacesWholesale(t *testing.T) {
	base := DefaultHostContext()

	merged, dropped := MergeHostContext(base, map[string]interface{}{
		"availableDisplayModes": []interface{}{"inline", "fullscreen"},
	})
	assert.Empty(t, dropped)
	assert.Equal(t, []DisplayMode{DisplayModeInline, DisplayModeFullscreen}, merged.AvailableDisplayModes)

	// Arrays with a single bad element are rejected wholesale.
	merged, dropped = MergeHostContext(base, map[string]interface{}{
		"availableDisplayModes": []interface{}{"inline", 7},
	})
	assert.Equal(t, []string{"availableDisplayModes"}, dropped)
	assert.Equal(t, base.AvailableDisplayModes, merged.AvailableDisplayModes)
}

func TestMergeHostContextOneBadFieldDoesNotPoisonTheRest(t *testing.T) {
	merged, dropped := MergeHostContext(DefaultHostContext(), map[string]interface{}{
		"theme":    "dark",
		"viewport": map[string]interface{}{"width": "wide"},
	})

	assert.Equal(t, []string{"viewport"}, dropped)
	assert.Equal(t, ThemeDark, merged.Theme)
}

func TestHostContextCloneIsDeep(t *testing.T) {
	original := DefaultHostContext()
	original.Device = &DeviceCapabilities{Touch: true}
	original.Styles = &HostStyles{Variables: map[string]string{"--accent": "blue"}}

	clone := original.Clone()
	clone.Device.Touch = false
	clone.Styles.Variables["--accent"] = "red"
	clone.AvailableDisplayModes[0] = DisplayModePiP

	assert.True(t, original.Device.Touch)
	assert.Equal(t, "blue", original.Styles.Variables["--accent"])
	assert.Equal(t, DisplayModeInline, original.AvailableDisplayModes[0])
}
