package core

import "strings"

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// ImagePart references an image attachment. Images travel with a turn for
// completeness but never participate in the reasoning loop context.
type ImagePart struct {
	URI      string
	MimeType string
}

func (ImagePart) isPart() {}

// ToolCall describes a tool invocation requested by the reasoner.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // serialized JSON payload
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	ToolCall ToolCall
}

func (ToolCallPart) isPart() {}

// ToolResult describes the outcome of a tool invocation. Error carries a
// tool-local failure message; the reasoner decides how to proceed with it.
type ToolResult struct {
	ID     string `json:"id,omitempty"` // matches the originating ToolCall ID
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	ToolResult ToolResult
}

func (ToolResultPart) isPart() {}

// Content holds a conversation role plus ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// NewTextContent builds a single text part content for the given role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts in order.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool call parts in their original order.
func (c Content) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range c.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}

// ToolResults returns the tool result parts in their original order.
func (c Content) ToolResults() []ToolResult {
	var results []ToolResult
	for _, p := range c.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr.ToolResult)
		}
	}
	return results
}
