package protocol

// HostCapabilities is the feature bit-set advertised by a host at connect
// time. It is read-only after connection; absence of a capability means the
// corresponding client operation must no-op or reject, never silently
// succeed with wrong semantics.
type HostCapabilities struct {
	// Logging reports whether the host accepts protocol-level log messages.
	Logging bool `json:"logging"`
	// OpenLinks reports whether the host can open external links.
	OpenLinks bool `json:"openLinks"`
	// Theming reports whether the host drives light/dark theme switching.
	Theming bool `json:"theming"`
	// DisplayModes lists the display modes the host can grant.
	DisplayModes []DisplayMode `json:"displayModes"`
	// StatePersistence reports whether widget state survives across renders.
	StatePersistence bool `json:"statePersistence"`
	// ServerTools reports whether server-declared tools can be called
	// through the host.
	ServerTools bool `json:"serverTools"`
	// ServerResources reports whether resource reads can be proxied
	// through the host.
	ServerResources bool `json:"serverResources"`
	// SizeNotifications reports whether the host accepts widget size
	// reports.
	SizeNotifications bool `json:"sizeNotifications"`
	// PartialToolInput reports whether the host streams partial tool input.
	PartialToolInput bool `json:"partialToolInput"`
	// WidgetTools reports whether the host can call tools the widget
	// exposes (bidirectional tool support).
	WidgetTools bool `json:"widgetTools"`
	// FileUpload reports whether the host supports file upload/download.
	FileUpload bool `json:"fileUpload"`
	// SafeArea reports whether the host reports safe-area insets.
	SafeArea bool `json:"safeArea"`
	// Views reports whether the host identifies multi-screen views.
	Views bool `json:"views"`
}

func allDisplayModes() []DisplayMode {
	return []DisplayMode{DisplayModeInline, DisplayModeFullscreen, DisplayModePiP}
}

// AllCapabilities returns the union of every capability, including
// host-specific ones. The mock adapter advertises this set so widget code
// can be exercised against all features in tests.
func AllCapabilities() HostCapabilities {
	return HostCapabilities{
		Logging:           true,
		OpenLinks:         true,
		Theming:           true,
		DisplayModes:      allDisplayModes(),
		StatePersistence:  true,
		ServerTools:       true,
		ServerResources:   true,
		SizeNotifications: true,
		PartialToolInput:  true,
		WidgetTools:       true,
		FileUpload:        true,
		SafeArea:          true,
		Views:             true,
	}
}

// MCPHostCapabilities is the default profile for the embedded-RPC host,
// used when the handshake does not deliver an explicit capability payload.
func MCPHostCapabilities() HostCapabilities {
	return HostCapabilities{
		Logging:           true,
		OpenLinks:         true,
		Theming:           true,
		DisplayModes:      allDisplayModes(),
		ServerTools:       true,
		ServerResources:   true,
		SizeNotifications: true,
		PartialToolInput:  true,
		WidgetTools:       true,
	}
}

// OpenAIHostCapabilities is the fixed profile for the injected-global host.
// This host does not negotiate capabilities, so the set is hard-coded:
// protocol logging, partial input streaming, and bidirectional tools are
// unsupported there.
func OpenAIHostCapabilities() HostCapabilities {
	return HostCapabilities{
		OpenLinks:         true,
		Theming:           true,
		DisplayModes:      allDisplayModes(),
		ServerTools:       true,
		ServerResources:   true,
		SizeNotifications: true,
		FileUpload:        true,
		SafeArea:          true,
		Views:             true,
	}
}
