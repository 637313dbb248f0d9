// Package agent drives the conversational turn loop for the cadence library.
//
// A Conversation repeatedly invokes a model backend, inspects the streamed
// response for requested tool calls, executes those tools, feeds the results
// back to the model, and repeats until the model produces a final answer or
// an abort, error, or budget condition terminates the run.
//
// # Basic Usage
//
// Create a registry, register tools, then create a conversation bound to a
// backend adapter:
//
//	type CalcArgs struct {
//	    Expression string `json:"expression" desc:"Arithmetic expression" required:"true"`
//	}
//
//	registry := tool.NewRegistry()
//	tool.MustRegisterFunc(registry, "calculator", "Evaluate arithmetic",
//	    func(ctx context.Context, args CalcArgs, progress tool.Progress) (string, error) {
//	        return evaluate(args.Expression)
//	    },
//	)
//
//	conv := agent.New(adapter,
//	    agent.WithModel(model.ClaudeSonnet4),
//	    agent.WithTools(registry),
//	)
//
//	run, err := conv.Prompt(ctx, "Calculate 2+2")
//	if err != nil {
//	    return err
//	}
//
// # Streaming Events
//
// The run handle is a duplex stream: iterate it for live events, and await
// Result for the terminal outcome. Result always resolves, even when the
// events are never consumed.
//
//	for {
//	    ev, ok := run.Next()
//	    if !ok {
//	        break
//	    }
//	    switch ev.Type {
//	    case agent.MessageUpdate:
//	        fmt.Print(ev.Message.Text())
//	    case agent.ToolExecutionStart:
//	        fmt.Printf("[tool: %s]\n", ev.ToolCall.Name)
//	    }
//	}
//	result := run.Result()
//
// # Single Run In Flight
//
// A conversation serializes its runs: Prompt and Continue return a
// ConcurrentRunError while another run is active. Abort cancels the active
// run cooperatively at the model-call and tool-call boundaries. Messages
// queued with Queue or QueueText are injected at turn boundaries of the
// running loop, per the configured QueueMode.
//
// # Budget
//
// WithBudget caps the cost and per-turn input-token count of each run. The
// budget gates continuation only: a run fails with BudgetExceededError when
// the limit is overrun while tool calls or queued messages are still
// pending, but a final answer that exceeds the limit is still delivered.
package agent
