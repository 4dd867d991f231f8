package discussion

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStore_SessionRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.GetSession(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.CreateSession(ctx, testSession("S1", "M1")))
	got, err := s.GetSession(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "M1", got.MeetingID)
	assert.Equal(t, "D1", got.DocumentID)
	assert.True(t, got.ChatbotActive)

	got.MessageCount = 7
	require.NoError(t, s.SaveSession(ctx, got))
	again, err := s.GetSession(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, 7, again.MessageCount)
}

func TestRedisStore_DeleteRemovesAllKeys(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("S1", "M1")))
	require.NoError(t, s.AppendMessage(ctx, "S1", userMsg("u1", "안녕하세요"), 20))

	existed, err := s.DeleteSession(ctx, "S1")
	require.NoError(t, err)
	assert.True(t, existed)

	assert.False(t, mr.Exists(sessionKeyPrefix+"S1"))
	assert.False(t, mr.Exists(messagesKeyPrefix+"S1"))
	ids, err := s.ActiveSessions(ctx, "M1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Deleting an absent session is not an error.
	existed, err = s.DeleteSession(ctx, "S1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisStore_MessageWindowTrims(t *testing.T) {
	s, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		msg := userMsg("u1", "메시지")
		msg.MessageID = string(rune('a' + i))
		require.NoError(t, s.AppendMessage(ctx, "S1", msg, 5))
	}

	msgs, err := s.RecentMessages(ctx, "S1", 20)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	// Chronological: oldest surviving message first.
	assert.Equal(t, "f", msgs[0].MessageID)
	assert.Equal(t, "j", msgs[4].MessageID)
}

func TestRedisStore_TTLRefreshedOnActivity(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("S1", "M1")))
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+"S1"))
	assert.Equal(t, time.Hour, mr.TTL(activeKeyPrefix+"M1"))

	mr.FastForward(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKeyPrefix+"S1"))

	// Any save restarts the session clock.
	session, err := s.GetSession(ctx, "S1")
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, session))
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+"S1"))

	// The message window carries its own TTL, refreshed per append.
	require.NoError(t, s.AppendMessage(ctx, "S1", userMsg("u1", "첫 메시지"), 20))
	mr.FastForward(20 * time.Minute)
	assert.Equal(t, 40*time.Minute, mr.TTL(messagesKeyPrefix+"S1"))
	require.NoError(t, s.AppendMessage(ctx, "S1", userMsg("u1", "둘째 메시지"), 20))
	assert.Equal(t, time.Hour, mr.TTL(messagesKeyPrefix+"S1"))
}

func TestRedisStore_ExpiredSessionIsGone(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("S1", "M1")))
	mr.FastForward(2 * time.Hour)

	_, err := s.GetSession(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_ActiveSessionsPerMeeting(t *testing.T) {
	s, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("S1", "M1")))
	require.NoError(t, s.CreateSession(ctx, testSession("S2", "M1")))
	require.NoError(t, s.CreateSession(ctx, testSession("S3", "M2")))

	ids, err := s.ActiveSessions(ctx, "M1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"S1", "S2"}, ids)
}
