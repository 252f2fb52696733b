// Package appskit lets an embedded UI widget talk to one of several host
// applications through a single, protocol-agnostic client API.
//
// # Overview
//
// A widget runs inside an embedding host — an iframe-style boundary with a
// structured RPC object, or a sandbox that injects a global host object
// asynchronously. Each integration surface looks different; appskit detects
// which one is present, binds it behind a common adapter contract, and hands
// widget code one Client to work with.
//
// # Core Features
//
//   - Host detection over ambient environment signals
//   - Embedded-RPC adapter with a race-free connect handshake
//   - Injected-global adapter with bounded polling and refresh coalescing
//   - In-process mock adapter for local development and tests
//   - Normalized host context with defensive overlay merging
//   - Batched debug log transport with console fallback
//
// # Organization
//
//   - github.com/AndurilCode/mcp-apps-kit/client: adapters, detection, and
//     the unified client
//   - github.com/AndurilCode/mcp-apps-kit/protocol: shared context,
//     capability, content, and message types
//   - github.com/AndurilCode/mcp-apps-kit/logx: local console logging
//
// # Basic Usage
//
//	import "github.com/AndurilCode/mcp-apps-kit/client"
//
//	c, err := client.New(ctx, env,
//	  client.WithKnownTools("getWeather"),
//	  client.WithDebugLog(client.DebugLoggerOptions{Enabled: true}),
//	)
//	if err != nil {
//	  log.Fatalf("failed to connect: %v", err)
//	}
//
//	result, err := c.Call(ctx, "callGetWeather", map[string]interface{}{
//	  "city": "Lisbon",
//	})
package appskit

// Version is the current release of the kit.
const Version = "0.1.0"
