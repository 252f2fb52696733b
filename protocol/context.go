// Package protocol defines the structures and constants shared between the
// host adapters: the normalized host context, host capabilities, resource
// contents, log entries, and the message envelope used by the embedded-RPC
// host boundary.
package protocol

import (
	"github.com/mitchellh/mapstructure"
)

// Theme identifies the host color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DisplayMode identifies how the widget is presented by the host.
type DisplayMode string

const (
	DisplayModeInline     DisplayMode = "inline"
	DisplayModeFullscreen DisplayMode = "fullscreen"
	DisplayModePiP        DisplayMode = "pip"
)

// Platform identifies the class of device the host runs on.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

// Viewport describes the area the host has given the widget to render into.
type Viewport struct {
	Width     float64  `json:"width" mapstructure:"width"`
	Height    float64  `json:"height" mapstructure:"height"`
	MaxWidth  *float64 `json:"maxWidth,omitempty" mapstructure:"maxWidth"`
	MaxHeight *float64 `json:"maxHeight,omitempty" mapstructure:"maxHeight"`
}

// SafeAreaInsets describes the host-reported insets the widget should keep
// clear of (notches, rounded corners, host chrome).
type SafeAreaInsets struct {
	Top    float64 `json:"top" mapstructure:"top"`
	Bottom float64 `json:"bottom" mapstructure:"bottom"`
	Left   float64 `json:"left" mapstructure:"left"`
	Right  float64 `json:"right" mapstructure:"right"`
}

// DeviceCapabilities describes input affordances of the embedding device.
type DeviceCapabilities struct {
	Touch bool `json:"touch" mapstructure:"touch"`
	Hover bool `json:"hover" mapstructure:"hover"`
}

// HostStyles carries host-provided styling the widget may adopt.
type HostStyles struct {
	Variables map[string]string `json:"variables,omitempty" mapstructure:"variables"`
	FontCSS   string            `json:"fontCSS,omitempty" mapstructure:"fontCSS"`
}

// HostContext is the normalized snapshot of the embedding environment. Every
// adapter can produce a complete HostContext before any host communication
// succeeds; host-supplied data is overlaid onto the defaults piecewise.
type HostContext struct {
	Theme                 Theme               `json:"theme"`
	DisplayMode           DisplayMode         `json:"displayMode"`
	AvailableDisplayModes []DisplayMode       `json:"availableDisplayModes"`
	Viewport              Viewport            `json:"viewport"`
	Locale                string              `json:"locale"`
	TimeZone              string              `json:"timeZone,omitempty"`
	Platform              Platform            `json:"platform"`
	UserAgent             string              `json:"userAgent,omitempty"`
	Device                *DeviceCapabilities `json:"deviceCapabilities,omitempty"`
	SafeArea              *SafeAreaInsets     `json:"safeAreaInsets,omitempty"`
	Styles                *HostStyles         `json:"styles,omitempty"`
	View                  string              `json:"view,omitempty"`
}

// DefaultHostContext returns a fully-populated context suitable for use
// before any host communication has happened.
func DefaultHostContext() HostContext {
	return HostContext{
		Theme:                 ThemeLight,
		DisplayMode:           DisplayModeInline,
		AvailableDisplayModes: []DisplayMode{DisplayModeInline},
		Viewport:              Viewport{Width: 0, Height: 0},
		Locale:                "en",
		Platform:              PlatformWeb,
	}
}

// Clone returns a deep copy of the context so callers always observe a
// consistent snapshot regardless of later updates.
func (c HostContext) Clone() HostContext {
	out := c
	if c.AvailableDisplayModes != nil {
		out.AvailableDisplayModes = append([]DisplayMode(nil), c.AvailableDisplayModes...)
	}
	if c.Viewport.MaxWidth != nil {
		v := *c.Viewport.MaxWidth
		out.Viewport.MaxWidth = &v
	}
	if c.Viewport.MaxHeight != nil {
		v := *c.Viewport.MaxHeight
		out.Viewport.MaxHeight = &v
	}
	if c.Device != nil {
		d := *c.Device
		out.Device = &d
	}
	if c.SafeArea != nil {
		s := *c.SafeArea
		out.SafeArea = &s
	}
	if c.Styles != nil {
		s := *c.Styles
		if c.Styles.Variables != nil {
			s.Variables = make(map[string]string, len(c.Styles.Variables))
			for k, v := range c.Styles.Variables {
				s.Variables[k] = v
			}
		}
		out.Styles = &s
	}
	return out
}

func validTheme(s string) bool {
	return s == string(ThemeLight) || s == string(ThemeDark)
}

func validDisplayMode(s string) bool {
	switch DisplayMode(s) {
	case DisplayModeInline, DisplayModeFullscreen, DisplayModePiP:
		return true
	}
	return false
}

func validPlatform(s string) bool {
	switch Platform(s) {
	case PlatformWeb, PlatformDesktop, PlatformMobile:
		return true
	}
	return false
}

// decodeField decodes a single raw value into target using strict typing.
// One malformed field must never poison the rest of the payload, so each
// field gets its own decoder.
func decodeField(raw interface{}, target interface{}) bool {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: false,
	})
	if err != nil {
		return false
	}
	return dec.Decode(raw) == nil
}

// MergeHostContext overlays known, type-checked fields from a raw host
// payload onto a copy of base. Unrecognized or mistyped fields are dropped
// and reported back by name; they are never propagated. Array fields replace
// the previous value wholesale, and only when the incoming value is actually
// an array of valid strings.
func MergeHostContext(base HostContext, raw map[string]interface{}) (HostContext, []string) {
	out := base.Clone()
	var dropped []string

	for key, value := range raw {
		switch key {
		case "theme":
			if s, ok := value.(string); ok && validTheme(s) {
				out.Theme = Theme(s)
				continue
			}
		case "displayMode":
			if s, ok := value.(string); ok && validDisplayMode(s) {
				out.DisplayMode = DisplayMode(s)
				continue
			}
		case "availableDisplayModes":
			if modes, ok := toDisplayModes(value); ok {
				out.AvailableDisplayModes = modes
				continue
			}
		case "viewport":
			var vp Viewport
			if isMap(value) && decodeField(value, &vp) {
				out.Viewport = vp
				continue
			}
		case "locale":
			if s, ok := value.(string); ok && s != "" {
				out.Locale = s
				continue
			}
		case "timeZone":
			if s, ok := value.(string); ok {
				out.TimeZone = s
				continue
			}
		case "platform":
			if s, ok := value.(string); ok && validPlatform(s) {
				out.Platform = Platform(s)
				continue
			}
		case "userAgent":
			if s, ok := value.(string); ok {
				out.UserAgent = s
				continue
			}
		case "deviceCapabilities":
			var d DeviceCapabilities
			if isMap(value) && decodeField(value, &d) {
				out.Device = &d
				continue
			}
		case "safeAreaInsets":
			var s SafeAreaInsets
			if isMap(value) && decodeField(value, &s) {
				out.SafeArea = &s
				continue
			}
		case "styles":
			var s HostStyles
			if isMap(value) && decodeField(value, &s) {
				out.Styles = &s
				continue
			}
		case "view":
			if s, ok := value.(string); ok {
				out.View = s
				continue
			}
		}
		dropped = append(dropped, key)
	}

	return out, dropped
}

func isMap(v interface{}) bool {
	_, ok := v.(map[string]interface{})
	return ok
}

func toDisplayModes(value interface{}) ([]DisplayMode, bool) {
	items, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	modes := make([]DisplayMode, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !validDisplayMode(s) {
			return nil, false
		}
		modes = append(modes, DisplayMode(s))
	}
	return modes, true
}
