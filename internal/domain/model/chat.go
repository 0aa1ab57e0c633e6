package model

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage is one line of the chat transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
