package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "A Selic "},
		ToolCallPart{ToolCall: ToolCall{ID: "1", Name: "x"}},
		TextPart{Text: "está em 13.75%."},
	}}
	assert.Equal(t, "A Selic está em 13.75%.", c.Text())
}

func TestContentToolCallsAndResults(t *testing.T) {
	c := Content{Parts: []Part{
		ToolCallPart{ToolCall: ToolCall{ID: "1", Name: "search_web", Arguments: `{"query":"selic"}`}},
		ToolResultPart{ToolResult: ToolResult{ID: "1", Name: "search_web", Output: "resultado"}},
		TextPart{Text: "texto"},
	}}

	calls := c.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_web", calls[0].Name)

	results := c.ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "resultado", results[0].Output)
}

func TestNewTextContent(t *testing.T) {
	c := NewTextContent(RoleUser, "oi")
	assert.Equal(t, RoleUser, c.Role)
	assert.Equal(t, "oi", c.Text())
}

func TestTurnConstructors(t *testing.T) {
	u := NewUserTurn("pergunta")
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "pergunta", u.Content)

	a := NewAssistantTurn("resposta")
	assert.Equal(t, RoleAssistant, a.Role)
}

func TestNewIDUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.NotEmpty(t, NewID())
}
