package models

import "time"

// MessageType distinguishes who produced a chat message.
type MessageType string

// Message type constants.
const (
	MessageTypeUser      MessageType = "user"
	MessageTypeModerator MessageType = "moderator"
	MessageTypeSystem    MessageType = "system"
)

// IsValid checks if the message type is valid
func (t MessageType) IsValid() bool {
	return t == MessageTypeUser || t == MessageTypeModerator || t == MessageTypeSystem
}

// ChatMessage is one turn in a discussion. Messages live in the rolling
// window of a session's conversation context; they are not archived
// beyond the session TTL.
type ChatMessage struct {
	MessageID string      `json:"message_id"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Nickname  string      `json:"nickname"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// Participant identifies one member of a discussion session.
type Participant struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}
