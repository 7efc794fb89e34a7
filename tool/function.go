package tool

import (
	"context"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// registry capability.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Invokes the wrapped function with already-parsed arguments
//   - Normalizes error handling so callers receive *ToolError with consistent
//     codes: EXECUTION_ERROR for plain errors, custom codes preserved when the
//     function returns *ToolError directly
//
// Concurrency:
//
//	A FunctionTool has no internal mutable state after construction and is
//	safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	echo := NewFunctionTool(
//	  "echo",
//	  "Echo the given text back to the caller",
//	  StringParameter("text", "Text to echo"),
//	  func(ctx context.Context, args map[string]any) (string, error) {
//	    return args["text"].(string), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (string, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the human-readable description shown to the reasoner.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON-Schema-like argument specification.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call invokes the wrapped function. Plain errors are wrapped as
// EXECUTION_ERROR; *ToolError values pass through unchanged.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (string, error) {
	output, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return "", toolErr
		}
		return "", NewToolError(t.name, err.Error(), CodeExecution)
	}
	return output, nil
}
