package mcpserver

import (
	"fmt"

	"github.com/modelcontextprotocol/go-mcpserver/internal/invoke"
)

// RegisterTool adapts fn via the invocation adapter and adds it to the
// tools collection under name, returning an error if fn's shape is
// invalid or name is already registered.
func (s *Server) RegisterTool(name, description string, fn any, invokeOpts invoke.Options, annotations *ToolAnnotations) error {
	adapted, err := invoke.Adapt(name, fn, invokeOpts)
	if err != nil {
		return err
	}
	tool := Tool{
		Name:        name,
		Description: description,
		InputSchema: adapted.InputSchema(),
		Annotations: annotations,
		Adapter:     adapted,
	}
	if !s.tools.TryAdd(name, tool) {
		return fmt.Errorf("mcpserver: duplicate tool name %q", name)
	}
	return nil
}

// RegisterPrompt adapts fn via the invocation adapter and adds it to
// the prompts collection under name.
func (s *Server) RegisterPrompt(name, description string, fn any, invokeOpts invoke.Options) error {
	adapted, err := invoke.Adapt(name, fn, invokeOpts)
	if err != nil {
		return err
	}
	prompt := Prompt{
		Name:        name,
		Description: description,
		Arguments:   argumentsFromSchema(adapted.InputSchema()),
		Adapter:     adapted,
	}
	if !s.prompts.TryAdd(name, prompt) {
		return fmt.Errorf("mcpserver: duplicate prompt name %q", name)
	}
	return nil
}
