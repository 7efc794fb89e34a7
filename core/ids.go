package core

import "github.com/google/uuid"

// NewID generates a unique identifier for sessions, runs and tool calls.
func NewID() string { return uuid.NewString() }
