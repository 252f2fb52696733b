// Command widget-demo exercises the unified client end to end against the
// in-process mock host: detection over an empty environment, a tool call
// through the dynamic surface, state round-trip, and a debug log flush.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/AndurilCode/mcp-apps-kit/client"
	"github.com/AndurilCode/mcp-apps-kit/protocol"
)

func main() {
	ctx := context.Background()

	// An empty environment has no host signals; detection lands on mock.
	c, err := client.New(ctx, client.Environment{},
		client.WithKnownTools("getWeather"),
		client.WithDebugLog(client.DebugLoggerOptions{
			Enabled:   true,
			MinLevel:  protocol.LogLevelDebug,
			BatchSize: 3,
			Source:    "widget-demo",
		}),
	)
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	hostCtx := c.GetHostContext()
	fmt.Printf("connected to %s host: theme=%s displayMode=%s locale=%s\n",
		c.Adapter().Type(), hostCtx.Theme, hostCtx.DisplayMode, hostCtx.Locale)

	result, err := c.Call(ctx, "callGetWeather", map[string]interface{}{"city": "Lisbon"})
	if err != nil {
		log.Fatalf("tool call failed: %v", err)
	}
	fmt.Printf("tool result: %v\n", result)

	if err := c.SetState(ctx, map[string]interface{}{"visits": 1}); err != nil {
		log.Fatalf("set state failed: %v", err)
	}
	state, err := c.GetState(ctx)
	if err != nil {
		log.Fatalf("get state failed: %v", err)
	}
	fmt.Printf("state round-trip: %v\n", state)

	debug := c.DebugLogger()
	debug.Info("demo started", map[string]interface{}{"step": 1})
	debug.Info("tool called", map[string]interface{}{"step": 2})
	debug.Flush()

	fmt.Println("done")
}
