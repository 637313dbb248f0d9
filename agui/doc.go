// Package agui bridges cadence runs to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an open, event-based protocol that
// standardizes how AI agents connect to user-facing applications. This
// package converts cadence agent events and messages into AG-UI events,
// enabling integration with AG-UI-compatible frontends.
//
// The package does not provide HTTP handlers or transports; pair the mapper
// with the AG-UI SDK's SSE writer or your own transport.
//
// # Usage
//
// Create a Mapper per run and feed it the run's events:
//
//	mapper := agui.NewMapper(threadID, runID)
//
//	run, _ := conv.Prompt(ctx, prompt)
//	for {
//	    ev, ok := run.Next()
//	    if !ok {
//	        break
//	    }
//	    for _, out := range mapper.MapEvent(ev) {
//	        writeEvent(out)
//	    }
//	}
//
// # Thread Safety
//
// The Mapper tracks streaming state and is not safe for concurrent use; give
// each run its own instance. The message and tool conversion functions are
// stateless and safe for concurrent use.
package agui
