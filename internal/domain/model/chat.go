package model

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the follow-up conversation about a diagnosis.
type ChatMessage struct {
	ID          int64
	DiagnosisID string
	Role        ChatRole
	Content     string
	CreatedAt   time.Time
}
