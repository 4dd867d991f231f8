package models

import "time"

// DiscussionSession is the durable record of one running discussion.
// It is stored as JSON in the session store under
// discussion:session:<sessionID> with a TTL refreshed on every activity.
type DiscussionSession struct {
	SessionID      string        `json:"session_id"`
	MeetingID      string        `json:"meeting_id"`
	DocumentID     string        `json:"document_id"`
	StartedAt      time.Time     `json:"started_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	ChatbotActive  bool          `json:"chatbot_active"`
	Participants   []Participant `json:"participants"`
	MessageCount   int           `json:"message_count"`
}

// IsActive reports whether the session should produce moderator turns.
// A session is active iff it exists in the store and the chatbot flag is set.
func (s *DiscussionSession) IsActive() bool {
	return s != nil && s.ChatbotActive
}

// Touch advances the activity clock, keeping LastActivityAt monotonic.
func (s *DiscussionSession) Touch(now time.Time) {
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
}
