package core

// Conversation roles recognized by the orchestrator.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Attachment references non-text material carried alongside a turn (an image
// or uploaded file). Attachments are persisted for completeness; only the
// text content of a turn participates in reasoning-loop context.
type Attachment struct {
	URI      string `json:"uri"`
	MimeType string `json:"mime_type,omitempty"`
}

// Turn is one role-tagged message in a conversation. Turns are immutable
// once appended to a session history.
type Turn struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewUserTurn creates a user-authored text turn.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// NewAssistantTurn creates an assistant-authored text turn.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
