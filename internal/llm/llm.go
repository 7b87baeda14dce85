package llm

import (
	"context"

	"meal-planner-dashboard/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Param describes one parameter of a tool exposed to the model.
type Param struct {
	Name        string
	Type        string // "string", "number", "boolean", "object", "array"
	Description string
	Required    bool
}

// ToolDef declares a tool the model may call during a conversation.
type ToolDef struct {
	Name        string
	Description string
	Params      []Param
}

// ToolExecutor runs a tool call requested by the model and returns a
// result object to feed back into the conversation.
type ToolExecutor func(name string, args map[string]any) (map[string]any, error)

// ToolAgent is an interface for a model session that can call tools.
// Run drives the conversation until the model stops requesting tools or
// the round limit is reached, and returns the final text.
type ToolAgent interface {
	Run(ctx context.Context, system, message string, tools []ToolDef, exec ToolExecutor) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
