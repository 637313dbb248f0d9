// Package cadence provides a provider-agnostic agent loop: it drives a
// streaming conversation with a model backend, executes the tool calls the
// model requests, feeds results back, and repeats until the model produces a
// final answer or a budget, abort, or error condition ends the run.
//
// The root package holds the canonical data model shared by all subpackages:
// messages with typed content blocks, tools and tool results, token usage
// with derived cost, and the closed set of supported providers.
//
// Subpackages:
//
//   - stream: the generic duplex event stream used between layers
//   - accum: the delta accumulator that turns provider increments into
//     canonical assistant messages
//   - model: the model registry with per-token pricing
//   - tool: tool registry and the validating invoker
//   - backend: per-provider model call adapters
//   - agent: the turn loop (Runner) and the Conversation state container
//   - mcp: remote toolsets served over the Model Context Protocol
//   - agui: bridge from agent events to the AG-UI protocol
package cadence
