package interfaces

import (
	"context"
	"encoding/json"
)

// TokenUsage reports provider token consumption for one call.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TextRequest is the free-text call shape.
type TextRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// ToolDefinition is a JSON-Schema-shaped tool the model must call. The
// schema is the output contract; adding a field is a breaking change.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolRequest is the tool-constrained call shape; the named tool call is
// mandatory, free text is not accepted.
type ToolRequest struct {
	System    string
	User      string
	Tool      ToolDefinition
	MaxTokens int
}

// LLMService - text and tool-constrained structured generation with
// retry/backoff handled inside the client
type LLMService interface {
	Generate(ctx context.Context, req TextRequest) (string, TokenUsage, error)
	GenerateStructured(ctx context.Context, req ToolRequest) (json.RawMessage, TokenUsage, error)
	TotalUsage() TokenUsage
	Close() error
}
