package discussion

import (
	"context"
	"sync"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// MemoryStore is an in-process SessionStore used in tests. It mirrors
// the Redis layout (record, rolling window, per-meeting index) without
// TTL enforcement.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.DiscussionSession
	messages map[string][]models.ChatMessage
	byMeet   map[string]map[string]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.DiscussionSession),
		messages: make(map[string][]models.ChatMessage),
		byMeet:   make(map[string]map[string]struct{}),
	}
}

// CreateSession implements SessionStore.
func (s *MemoryStore) CreateSession(_ context.Context, session *models.DiscussionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	if s.byMeet[session.MeetingID] == nil {
		s.byMeet[session.MeetingID] = make(map[string]struct{})
	}
	s.byMeet[session.MeetingID][session.SessionID] = struct{}{}
	return nil
}

// GetSession implements SessionStore.
func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*models.DiscussionSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := session
	return &copied, nil
}

// SaveSession implements SessionStore.
func (s *MemoryStore) SaveSession(_ context.Context, session *models.DiscussionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	return nil
}

// DeleteSession implements SessionStore.
func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	if members := s.byMeet[session.MeetingID]; members != nil {
		delete(members, sessionID)
	}
	return true, nil
}

// AppendMessage implements SessionStore.
func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, msg models.ChatMessage, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < 1 {
		keep = 1
	}
	window := append(s.messages[sessionID], msg)
	if len(window) > keep {
		window = window[len(window)-keep:]
	}
	s.messages[sessionID] = window
	return nil
}

// RecentMessages implements SessionStore.
func (s *MemoryStore) RecentMessages(_ context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := s.messages[sessionID]
	if n < 1 || len(window) == 0 {
		return nil, nil
	}
	if len(window) > n {
		window = window[len(window)-n:]
	}
	return append([]models.ChatMessage(nil), window...), nil
}

// ActiveSessions implements SessionStore.
func (s *MemoryStore) ActiveSessions(_ context.Context, meetingID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id := range s.byMeet[meetingID] {
		ids = append(ids, id)
	}
	return ids, nil
}
