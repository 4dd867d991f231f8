// Package lifecycle orchestrates end-of-meeting: ending the discussion
// session, severing its streams, fanning out per-service cleanup, and
// scheduling the delayed vector-collection drop.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
)

// Errors surfaced to the transport layer as invalid arguments.
var (
	ErrUnsupportedMeetingType = errors.New("unsupported meeting type")
	ErrMissingSessionID       = errors.New("ending a discussion meeting requires a sessionId")
)

// SessionEnder ends a discussion session. Satisfied by discussion.Engine.
type SessionEnder interface {
	EndDiscussion(ctx context.Context, sessionID string) (bool, error)
}

// StreamDisconnector severs open streams. Satisfied by streams.Registry.
type StreamDisconnector interface {
	DisconnectSession(sessionID, reason string) int
}

// CollectionDropper removes a meeting's vector collection. Satisfied by
// vector.Manager.
type CollectionDropper interface {
	DropCollection(ctx context.Context, meetingID string) error
}

// MeetingCleaner releases one service's in-memory state for a meeting
// and reports how many entries it removed.
type MeetingCleaner interface {
	CleanupMeeting(ctx context.Context, meetingID string) (int, error)
}

// CleanupReport is the per-service outcome of the cleanup fanout.
type CleanupReport struct {
	Service      string `json:"service"`
	Success      bool   `json:"success"`
	CleanedCount int    `json:"cleaned_count"`
	Error        string `json:"error,omitempty"`
}

// EndMeetingResult aggregates everything one EndMeeting call did.
type EndMeetingResult struct {
	MeetingID              string             `json:"meeting_id"`
	MeetingType            config.MeetingType `json:"meeting_type"`
	SessionEnded           bool               `json:"session_ended"`
	StreamsClosed          int                `json:"streams_closed"`
	Cleanups               []CleanupReport    `json:"cleanups"`
	VectorCleanupScheduled bool               `json:"vector_cleanup_scheduled"`
	VectorCleanupDelay     string             `json:"vector_cleanup_delay,omitempty"`
}

// Coordinator owns the end-of-meeting cascade. It is the only component
// that invokes DropCollection.
type Coordinator struct {
	sessions SessionEnder
	streams  StreamDisconnector
	vectors  CollectionDropper
	cleaners map[string]MeetingCleaner

	cleanupEnabled bool
	cleanupDelay   time.Duration
	retryAttempts  int
	retryDelay     time.Duration

	wg sync.WaitGroup
}

// NewCoordinator wires the coordinator. cleaners maps a service name to
// its cleanup hook; services without one are treated as no-op cleanups.
func NewCoordinator(cfg *config.Settings, sessions SessionEnder, streams StreamDisconnector, vectors CollectionDropper, cleaners map[string]MeetingCleaner) *Coordinator {
	return &Coordinator{
		sessions:       sessions,
		streams:        streams,
		vectors:        vectors,
		cleaners:       cleaners,
		cleanupEnabled: cfg.CleanupEnabled,
		cleanupDelay:   cfg.CleanupDelay(),
		retryAttempts:  cfg.CleanupRetryAttempts,
		retryDelay:     cfg.CleanupRetryDelay(),
	}
}

// EndMeeting runs the cascade. Idempotent: a second call finds the
// session gone and cleanup counters at zero, and still succeeds. Vector
// cleanup is scheduled fire-and-forget; its failure never affects the
// returned result.
func (c *Coordinator) EndMeeting(ctx context.Context, meetingID string, meetingType config.MeetingType, extras map[string]string) (*EndMeetingResult, error) {
	if !meetingType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMeetingType, meetingType)
	}

	result := &EndMeetingResult{
		MeetingID:   meetingID,
		MeetingType: meetingType,
	}

	if meetingType == config.MeetingTypeDiscussion {
		sessionID, ok := extras["sessionId"]
		if !ok || sessionID == "" {
			return nil, ErrMissingSessionID
		}
		ended, err := c.sessions.EndDiscussion(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("ending session %s: %w", sessionID, err)
		}
		result.SessionEnded = ended
		if c.streams != nil {
			result.StreamsClosed = c.streams.DisconnectSession(sessionID, "meeting ended")
		}
	}

	result.Cleanups = c.fanoutCleanup(ctx, meetingID)

	if c.cleanupEnabled && c.vectors != nil {
		c.scheduleVectorDrop(meetingID)
		result.VectorCleanupScheduled = true
		result.VectorCleanupDelay = c.cleanupDelay.String()
	}

	slog.Info("Meeting ended",
		"meeting_id", meetingID,
		"meeting_type", meetingType,
		"session_ended", result.SessionEnded,
		"streams_closed", result.StreamsClosed,
		"vector_cleanup_scheduled", result.VectorCleanupScheduled)
	return result, nil
}

// ManualCleanup drops the meeting's vector collection synchronously.
// force drops even when scheduled cleanup is disabled; without force
// and with cleanup disabled, nothing happens.
func (c *Coordinator) ManualCleanup(ctx context.Context, meetingID string, force bool) error {
	if !force && !c.cleanupEnabled {
		return nil
	}
	if c.vectors == nil {
		return nil
	}
	if err := c.vectors.DropCollection(ctx, meetingID); err != nil {
		return fmt.Errorf("manual cleanup of meeting %s: %w", meetingID, err)
	}
	slog.Info("Manual vector cleanup completed", "meeting_id", meetingID, "force", force)
	return nil
}

// Wait blocks until all scheduled vector drops have finished. Used on
// shutdown and in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// fanoutCleanup calls each registered cleaner, accumulating per-service
// reports. A failing cleaner is recorded, not propagated.
func (c *Coordinator) fanoutCleanup(ctx context.Context, meetingID string) []CleanupReport {
	names := make([]string, 0, len(c.cleaners))
	for name := range c.cleaners {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]CleanupReport, 0, len(names))
	for _, name := range names {
		cleaner := c.cleaners[name]
		if cleaner == nil {
			reports = append(reports, CleanupReport{Service: name, Success: true})
			continue
		}
		count, err := cleaner.CleanupMeeting(ctx, meetingID)
		report := CleanupReport{Service: name, Success: err == nil, CleanedCount: count}
		if err != nil {
			report.Error = err.Error()
			slog.Warn("Meeting cleanup failed for service",
				"service", name,
				"meeting_id", meetingID,
				"error", err)
		}
		reports = append(reports, report)
	}
	return reports
}

// scheduleVectorDrop waits out the grace delay (so late-arriving client
// queries do not 404), then drops the collection with bounded retries.
// Exhausted retries are logged as a janitor item for ManualCleanup.
func (c *Coordinator) scheduleVectorDrop(meetingID string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Detached from the request context: the caller has already
		// returned by the time this runs.
		ctx := context.Background()
		time.Sleep(c.cleanupDelay)

		attempts := c.retryAttempts
		if attempts < 1 {
			attempts = 1
		}
		var lastErr error
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				time.Sleep(c.retryDelay)
			}
			if lastErr = c.vectors.DropCollection(ctx, meetingID); lastErr == nil {
				slog.Info("Vector collection dropped", "meeting_id", meetingID)
				return
			}
			slog.Warn("Vector drop attempt failed",
				"meeting_id", meetingID,
				"attempt", attempt+1,
				"error", lastErr)
		}
		slog.Error("Vector cleanup exhausted retries, manual cleanup required",
			"meeting_id", meetingID,
			"attempts", attempts,
			"error", lastErr)
	}()
}
