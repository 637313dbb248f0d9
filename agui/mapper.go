package agui

import (
	"encoding/json"
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/agent"
)

// Mapper converts cadence agent events to AG-UI events. Because cadence
// message_update events carry full snapshots while AG-UI streams content
// increments, the mapper tracks the text already emitted per message and
// sends only the difference.
//
// Create one Mapper per run; it is not safe for concurrent use.
type Mapper struct {
	threadID string
	runID    string
	// emitted text length per message id
	sent map[string]int
}

// NewMapper creates a Mapper for a single run. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
		sent:     make(map[string]int),
	}
}

// ThreadID returns the thread id for this mapper.
func (m *Mapper) ThreadID() string { return m.threadID }

// RunID returns the run id for this mapper.
func (m *Mapper) RunID() string { return m.runID }

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts one cadence agent event into zero or more AG-UI events.
func (m *Mapper) MapEvent(e agent.Event) []events.Event {
	switch e.Type {
	case agent.AgentStart:
		return []events.Event{m.RunStarted()}

	case agent.AgentEnd:
		if e.State == agent.RunCompleted {
			return []events.Event{m.RunFinished()}
		}
		return []events.Event{m.RunError(e.Err)}

	case agent.TurnStart:
		return []events.Event{events.NewStepStartedEvent(stepName(e.Turn))}

	case agent.TurnEnd:
		return []events.Event{events.NewStepFinishedEvent(stepName(e.Turn))}

	case agent.MessageStart:
		if e.Message == nil {
			return nil
		}
		m.sent[e.Message.ID] = 0
		return []events.Event{events.NewTextMessageStartEvent(
			e.Message.ID,
			events.WithRole(fromRole(e.Message.Role)),
		)}

	case agent.MessageUpdate:
		if e.Message == nil {
			return nil
		}
		if delta := m.textDelta(*e.Message); delta != "" {
			return []events.Event{events.NewTextMessageContentEvent(e.Message.ID, delta)}
		}
		return nil

	case agent.MessageEnd:
		if e.Message == nil {
			return nil
		}
		out := make([]events.Event, 0, 2)
		if delta := m.textDelta(*e.Message); delta != "" {
			out = append(out, events.NewTextMessageContentEvent(e.Message.ID, delta))
		}
		delete(m.sent, e.Message.ID)
		return append(out, events.NewTextMessageEndEvent(e.Message.ID))

	case agent.ToolExecutionStart:
		if e.ToolCall == nil {
			return nil
		}
		out := []events.Event{events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)}
		if args, err := json.Marshal(e.ToolCall.Arguments); err == nil {
			out = append(out, events.NewToolCallArgsEvent(e.ToolCall.ID, string(args)))
		}
		return out

	case agent.ToolExecutionUpdate:
		// Progress updates have no AG-UI equivalent.
		return nil

	case agent.ToolExecutionEnd:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		return []events.Event{
			events.NewToolCallEndEvent(e.ToolCall.ID),
			events.NewToolCallResultEvent(
				events.GenerateMessageID(),
				e.ToolCall.ID,
				e.ToolResult.Text(),
			),
		}

	default:
		return nil
	}
}

// textDelta returns the portion of the message's text not yet emitted.
func (m *Mapper) textDelta(msg ai.Message) string {
	text := msg.Text()
	sent := m.sent[msg.ID]
	if len(text) <= sent {
		return ""
	}
	m.sent[msg.ID] = len(text)
	return text[sent:]
}

func stepName(turn int) string {
	return fmt.Sprintf("turn-%d", turn)
}
