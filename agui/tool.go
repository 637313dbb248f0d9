package agui

import (
	"encoding/json"

	ai "github.com/spetersoncode/cadence"
)

// Tool is a tool definition from the AG-UI protocol. Frontends send these to
// declare capabilities available to an agent.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToTool converts an AG-UI tool to a cadence Tool.
func (t Tool) ToTool() ai.Tool {
	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// ParseTools parses the untyped Tools field of an AG-UI RunAgentInput.
func ParseTools(raw []any) ([]Tool, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var tools []Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// ToTools converts AG-UI tools to cadence tools.
func ToTools(tools []Tool) []ai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]ai.Tool, len(tools))
	for i, t := range tools {
		result[i] = t.ToTool()
	}
	return result
}

// ToolNames extracts the names from a slice of tools.
func ToolNames(tools []Tool) []string {
	if len(tools) == 0 {
		return nil
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
