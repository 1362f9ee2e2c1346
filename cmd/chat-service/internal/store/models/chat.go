package models

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a conversation transcript. Messages are append-only
// except for the leading system message, which may be rewritten in place.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatMetadata is the per-conversation record kept in chats_metadata.json.
// Timestamps are ISO-8601 UTC strings, so lexicographic order is time order.
type ChatMetadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
	LastUpdated string `json:"last_updated"`
}
