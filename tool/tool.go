// Package tool implements the capability subsystem: named tools the
// reasoner can choose from, a registry that dispatches to them with
// per-tool caching and timeout policy, and consistent error handling so a
// failing tool degrades one turn instead of aborting the orchestrator loop.
package tool

import (
	"context"
	"fmt"
)

// Tool is a named capability the orchestrator can invoke.
//
// Implementations should:
//   - Provide a unique snake_case name
//   - Provide a non-empty description; it is the sole signal the reasoner
//     uses to decide applicability
//   - Define a JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description tells the reasoner what the tool does and when to use it.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with arguments parsed from JSON and validated
	// against the schema.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Error codes used by ToolError.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeExecution     = "EXECUTION_ERROR"
	CodeTimeout       = "TIMEOUT"
	CodeUnknownTool   = "UNKNOWN_TOOL"
	CodeNotConfigured = "NOT_CONFIGURED"
)

// ToolError represents a failure during tool dispatch or execution. It never
// propagates past the registry boundary: Invoke renders it as the tool's
// output so the reasoner can decide the next step.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
