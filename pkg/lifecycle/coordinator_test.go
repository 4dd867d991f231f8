package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
)

type fakeSessions struct {
	ended  []string
	exists bool
	err    error
}

func (f *fakeSessions) EndDiscussion(_ context.Context, sessionID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.ended = append(f.ended, sessionID)
	return f.exists, nil
}

type fakeStreams struct {
	calls  int
	reason string
}

func (f *fakeStreams) DisconnectSession(_, reason string) int {
	f.calls++
	f.reason = reason
	return 2
}

type fakeVectors struct {
	mu       sync.Mutex
	dropped  []string
	failures int
}

func (f *fakeVectors) DropCollection(_ context.Context, meetingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("qdrant unavailable")
	}
	f.dropped = append(f.dropped, meetingID)
	return nil
}

func (f *fakeVectors) droppedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dropped...)
}

type fakeCleaner struct {
	count int
	err   error
}

func (f *fakeCleaner) CleanupMeeting(context.Context, string) (int, error) {
	return f.count, f.err
}

func fastConfig() *config.Settings {
	cfg := config.Defaults()
	cfg.CleanupEnabled = true
	cfg.CleanupDelaySeconds = 0
	cfg.CleanupRetryAttempts = 3
	cfg.CleanupRetryDelaySeconds = 0
	return cfg
}

func TestEndMeeting_DiscussionCascade(t *testing.T) {
	sessions := &fakeSessions{exists: true}
	streamsReg := &fakeStreams{}
	vectors := &fakeVectors{}
	c := NewCoordinator(fastConfig(), sessions, streamsReg, vectors, map[string]MeetingCleaner{
		"discussion": &fakeCleaner{count: 1},
		"quiz":       &fakeCleaner{count: 0},
	})

	result, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeDiscussion, map[string]string{"sessionId": "S1"})
	require.NoError(t, err)

	assert.True(t, result.SessionEnded)
	assert.Equal(t, []string{"S1"}, sessions.ended)
	assert.Equal(t, 2, result.StreamsClosed)
	assert.Equal(t, "meeting ended", streamsReg.reason)
	assert.True(t, result.VectorCleanupScheduled)

	require.Len(t, result.Cleanups, 2)
	assert.Equal(t, "discussion", result.Cleanups[0].Service)
	assert.Equal(t, 1, result.Cleanups[0].CleanedCount)
	assert.True(t, result.Cleanups[1].Success)

	c.Wait()
	assert.Equal(t, []string{"M1"}, vectors.droppedIDs())
}

func TestEndMeeting_UnsupportedType(t *testing.T) {
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, &fakeVectors{}, nil)

	_, err := c.EndMeeting(context.Background(), "M1", "karaoke", nil)
	assert.ErrorIs(t, err, ErrUnsupportedMeetingType)
}

func TestEndMeeting_DiscussionRequiresSessionID(t *testing.T) {
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, &fakeVectors{}, nil)

	_, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeDiscussion, nil)
	assert.ErrorIs(t, err, ErrMissingSessionID)
}

func TestEndMeeting_QuizSkipsSessionLeg(t *testing.T) {
	sessions := &fakeSessions{}
	c := NewCoordinator(fastConfig(), sessions, &fakeStreams{}, &fakeVectors{}, nil)

	result, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeQuiz, nil)
	require.NoError(t, err)
	assert.False(t, result.SessionEnded)
	assert.Empty(t, sessions.ended)
	assert.Zero(t, result.StreamsClosed)
	c.Wait()
}

func TestEndMeeting_SecondCallIdempotent(t *testing.T) {
	sessions := &fakeSessions{exists: true}
	c := NewCoordinator(fastConfig(), sessions, &fakeStreams{}, &fakeVectors{}, map[string]MeetingCleaner{
		"discussion": &fakeCleaner{count: 2},
	})

	first, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeDiscussion, map[string]string{"sessionId": "S1"})
	require.NoError(t, err)
	assert.True(t, first.SessionEnded)

	sessions.exists = false
	second, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeDiscussion, map[string]string{"sessionId": "S1"})
	require.NoError(t, err)
	assert.False(t, second.SessionEnded)
	c.Wait()
}

func TestEndMeeting_CleanerFailureDoesNotFailCall(t *testing.T) {
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, &fakeVectors{}, map[string]MeetingCleaner{
		"quiz": &fakeCleaner{err: errors.New("cache corrupted")},
	})

	result, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeQuiz, nil)
	require.NoError(t, err)
	require.Len(t, result.Cleanups, 1)
	assert.False(t, result.Cleanups[0].Success)
	assert.Contains(t, result.Cleanups[0].Error, "cache corrupted")
	c.Wait()
}

func TestScheduledDropRetriesUntilSuccess(t *testing.T) {
	vectors := &fakeVectors{failures: 2}
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, vectors, nil)

	_, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeQuiz, nil)
	require.NoError(t, err)

	c.Wait()
	assert.Equal(t, []string{"M1"}, vectors.droppedIDs())
}

func TestScheduledDropFailureDoesNotAffectCaller(t *testing.T) {
	vectors := &fakeVectors{failures: 10}
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, vectors, nil)

	result, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeQuiz, nil)
	require.NoError(t, err)
	assert.True(t, result.VectorCleanupScheduled)

	c.Wait()
	assert.Empty(t, vectors.droppedIDs())
}

func TestManualCleanup(t *testing.T) {
	vectors := &fakeVectors{}
	cfg := fastConfig()
	cfg.CleanupEnabled = false
	c := NewCoordinator(cfg, &fakeSessions{}, nil, vectors, nil)

	// Disabled without force: no-op.
	require.NoError(t, c.ManualCleanup(context.Background(), "M1", false))
	assert.Empty(t, vectors.droppedIDs())

	// Force overrides the disabled flag.
	require.NoError(t, c.ManualCleanup(context.Background(), "M1", true))
	assert.Equal(t, []string{"M1"}, vectors.droppedIDs())
}

func TestManualCleanup_ErrorSurfaces(t *testing.T) {
	vectors := &fakeVectors{failures: 5}
	c := NewCoordinator(fastConfig(), &fakeSessions{}, nil, vectors, nil)

	err := c.ManualCleanup(context.Background(), "M1", true)
	assert.Error(t, err)
}

func TestEndMeeting_CleanupDisabledSkipsSchedule(t *testing.T) {
	cfg := fastConfig()
	cfg.CleanupEnabled = false
	vectors := &fakeVectors{}
	c := NewCoordinator(cfg, &fakeSessions{}, nil, vectors, nil)

	result, err := c.EndMeeting(context.Background(), "M1", config.MeetingTypeQuiz, nil)
	require.NoError(t, err)
	assert.False(t, result.VectorCleanupScheduled)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, vectors.droppedIDs())
}
