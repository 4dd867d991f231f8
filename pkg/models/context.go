package models

import "time"

// ParticipantState tracks per-user activity inside one session.
type ParticipantState struct {
	UserID         string    `json:"user_id"`
	Nickname       string    `json:"nickname"`
	MessageCount   int       `json:"message_count"`
	QuestionsAsked int       `json:"questions_asked"`
	LastSpokeAt    time.Time `json:"last_spoke_at"`
}

// BookChunk is one retrieved passage from the meeting's vector collection.
type BookChunk struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	DocumentID string  `json:"document_id"`
	PageNumber int     `json:"page_number"`
}

// ConversationContext is the assembled input for one moderator turn:
// recent messages, retrieved book passages, participant states, active
// topics, and an optional summary standing in for dropped messages.
// It is rebuilt for every turn and never stored.
type ConversationContext struct {
	RecentMessages    []ChatMessage               `json:"recent_messages"`
	BookContext       []BookChunk                 `json:"book_context"`
	ParticipantStates map[string]ParticipantState `json:"participant_states"`
	ActiveTopics      []string                    `json:"active_topics"`
	Summary           string                      `json:"summary,omitempty"`
	TokenCount        int                         `json:"token_count"`
}

// Clone returns a deep copy so optimization passes can mutate freely.
func (c *ConversationContext) Clone() *ConversationContext {
	out := &ConversationContext{
		RecentMessages: append([]ChatMessage(nil), c.RecentMessages...),
		BookContext:    append([]BookChunk(nil), c.BookContext...),
		ActiveTopics:   append([]string(nil), c.ActiveTopics...),
		Summary:        c.Summary,
		TokenCount:     c.TokenCount,
	}
	if c.ParticipantStates != nil {
		out.ParticipantStates = make(map[string]ParticipantState, len(c.ParticipantStates))
		for k, v := range c.ParticipantStates {
			out.ParticipantStates[k] = v
		}
	}
	return out
}
