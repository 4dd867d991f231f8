// Package discussion implements the session engine: Redis-backed
// session state, rolling message windows, conversation-context assembly
// under a token budget, topic analysis, and moderator turns.
package discussion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// Session-store key layout.
const (
	sessionKeyPrefix  = "discussion:session:"
	messagesKeyPrefix = "discussion:messages:"
	activeKeyPrefix   = "discussion:active_sessions:"
)

// ErrSessionNotFound is returned when a session ID has no record,
// either because it never existed or its TTL expired.
var ErrSessionNotFound = errors.New("discussion session not found")

// SessionStore persists discussion sessions and their rolling message
// windows. The store is the single source of truth for session state;
// callers re-read on every turn rather than caching.
type SessionStore interface {
	// CreateSession writes a new session record with TTL and indexes it
	// under its meeting.
	CreateSession(ctx context.Context, session *models.DiscussionSession) error

	// GetSession loads a session, or ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*models.DiscussionSession, error)

	// SaveSession overwrites a session record and refreshes its TTL.
	SaveSession(ctx context.Context, session *models.DiscussionSession) error

	// DeleteSession removes a session and its message window. Reports
	// whether a record existed; deleting an absent session is not an error.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// AppendMessage pushes a message onto the session's rolling window,
	// trimming it to keep entries, and refreshes the window TTL.
	AppendMessage(ctx context.Context, sessionID string, msg models.ChatMessage, keep int) error

	// RecentMessages returns up to n messages in chronological order.
	RecentMessages(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error)

	// ActiveSessions lists the session IDs currently indexed under a meeting.
	ActiveSessions(ctx context.Context, meetingID string) ([]string, error)
}

// RedisStore implements SessionStore on Redis. Records are JSON strings
// under discussion:session:<id>; message windows are lists under
// discussion:messages:<id>; the per-meeting index is a set under
// discussion:active_sessions:<meetingId>.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps an existing client. ttl bounds session lifetime
// and is refreshed on every activity.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// CreateSession implements SessionStore.
func (s *RedisStore) CreateSession(ctx context.Context, session *models.DiscussionSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.SessionID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.SessionID, payload, s.ttl)
	pipe.SAdd(ctx, activeKeyPrefix+session.MeetingID, session.SessionID)
	pipe.Expire(ctx, activeKeyPrefix+session.MeetingID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing session %s: %w", session.SessionID, err)
	}
	return nil
}

// GetSession implements SessionStore.
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (*models.DiscussionSession, error) {
	payload, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var session models.DiscussionSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &session, nil
}

// SaveSession implements SessionStore. The write refreshes the TTL so
// any activity extends the session's life.
func (s *RedisStore) SaveSession(ctx context.Context, session *models.DiscussionSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.SessionID, err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+session.SessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", session.SessionID, err)
	}
	return nil
}

// DeleteSession implements SessionStore.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID, messagesKeyPrefix+sessionID)
	pipe.SRem(ctx, activeKeyPrefix+session.MeetingID, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return true, nil
}

// AppendMessage implements SessionStore.
func (s *RedisStore) AppendMessage(ctx context.Context, sessionID string, msg models.ChatMessage, keep int) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message for session %s: %w", sessionID, err)
	}
	if keep < 1 {
		keep = 1
	}

	key := messagesKeyPrefix + sessionID
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(keep-1))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending message to session %s: %w", sessionID, err)
	}
	return nil
}

// RecentMessages implements SessionStore. The list is stored newest
// first; results are reversed into chronological order.
func (s *RedisStore) RecentMessages(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	if n < 1 {
		return nil, nil
	}
	raw, err := s.rdb.LRange(ctx, messagesKeyPrefix+sessionID, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading messages for session %s: %w", sessionID, err)
	}

	msgs := make([]models.ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			return nil, fmt.Errorf("decoding message for session %s: %w", sessionID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// ActiveSessions implements SessionStore.
func (s *RedisStore) ActiveSessions(ctx context.Context, meetingID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, activeKeyPrefix+meetingID).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions for meeting %s: %w", meetingID, err)
	}
	return ids, nil
}
