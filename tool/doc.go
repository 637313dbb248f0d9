// Package tool provides tool registration and execution for the cadence
// library.
//
// This package includes:
//   - Registry and Handler types for tool management
//   - Typed registration with automatic schema generation from struct tags
//   - Invoker, which normalizes every failure mode into a ToolResult
//
// # Basic Usage
//
// Define tool arguments as a struct with tags, then register with Func:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Unit     string `json:"unit" desc:"Temperature unit" enum:"celsius,fahrenheit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs, progress tool.Progress) (string, error) {
//	            return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	        }),
//	)
//
// # Execution
//
// The Invoker is what the agent runs tool calls through. It validates the
// call's arguments against the registered parameter schema before the handler
// runs, recovers panics, and reports cancellation, so its result is always a
// ToolResult the model can act on:
//
//	inv := tool.NewInvoker(registry)
//	result := inv.Execute(ctx, call, nil)
//	if result.IsError {
//	    fmt.Println(result.Detail.Kind, result.Text())
//	}
//
// Handlers receive a Progress callback for streaming intermediate output from
// long-running tools.
package tool
