// Package model defines the contracts the orchestrator has with its external
// collaborators: the reasoner that proposes the next step of a turn and the
// embedding backend used by retrieval. Concrete backends live in
// subpackages; MockReasoner and MockEmbedder support tests.
package model

import (
	"context"

	"github.com/inverlab/finagent/core"
)

// ToolDefinition declaratively exposes an invocable capability to the
// reasoner. The description is the sole signal the reasoner uses to decide
// applicability, so it must be non-empty.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized reasoner input for one decide step.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage sample into u. A nil sample is a no-op.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Response is a (partial or final) chunk emitted by a reasoner. A final
// response either contains tool call parts (the reasoner wants a capability
// invoked) or only text (the final answer for the turn).
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a reasoner implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Reasoner proposes the next step of a conversation turn: given the working
// context and the available tool definitions it returns either a tool
// invocation request or a final answer. It is opaque to the orchestrator;
// any model or rule engine satisfying this contract works.
type Reasoner interface {
	Propose(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the reasoner implementation.
	Info() Info
}
