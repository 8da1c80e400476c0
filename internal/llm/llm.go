// Package llm defines the message, tool, and completion types exchanged
// with a chat-completion service, and the Completer interface the
// conversation loop depends on.
package llm

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one entry in a chat transcript. Assistant messages may
// carry tool-call requests; tool messages carry the result of one call,
// tagged with the originating tool-call id.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a structured function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the requested function name and its JSON-encoded
// arguments exactly as produced by the model.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares one function the model is allowed to call.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable function's name and parameter schema.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema object describing a function's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single named parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Completer is the completion service contract: given a full message list
// and the declared tool schema, return the assistant's next message,
// optionally containing tool-call requests.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []Tool) (ChatMessage, error)
}
