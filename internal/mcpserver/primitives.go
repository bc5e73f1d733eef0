package mcpserver

import (
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-mcpserver/internal/invoke"
)

// Tool is one entry of the tools collection: the wire descriptor plus
// the adapter that invokes it (spec.md §3 "Tool / Prompt descriptor").
type Tool struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema json.RawMessage  `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`

	Adapter *invoke.Adapted `json:"-"`
}

// Prompt is one entry of the prompts collection.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`

	Adapter *invoke.Adapted `json:"-"`
}

// argumentsFromSchema derives a prompt's argument list from its input
// schema's properties/required, so a registered prompt advertises the
// same binding names prompts/get expects without a second declaration.
func argumentsFromSchema(schema json.RawMessage) []PromptArgument {
	var parsed struct {
		Properties map[string]struct {
			Description string `json:"description,omitempty"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		return nil
	}
	required := make(map[string]bool, len(parsed.Required))
	for _, r := range parsed.Required {
		required[r] = true
	}
	names := make([]string, 0, len(parsed.Properties))
	for name := range parsed.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil
	}
	args := make([]PromptArgument, 0, len(names))
	for _, name := range names {
		args = append(args, PromptArgument{
			Name:        name,
			Description: parsed.Properties[name].Description,
			Required:    required[name],
		})
	}
	return args
}
