// Package streams tracks open bidirectional streams per discussion
// session so the lifecycle coordinator can sever them when a meeting
// ends. Clients then observe a cancelled termination with a reason
// instead of a silent hang.
package streams

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a registered stream. Transitions are
// monotonic: a stream never returns to an earlier state. StatusError is
// terminal-equivalent to StatusDisconnected.
type Status string

// Stream status constants.
const (
	StatusActive        Status = "active"
	StatusDisconnecting Status = "disconnecting"
	StatusDisconnected  Status = "disconnected"
	StatusError         Status = "error"
)

var statusRank = map[Status]int{
	StatusActive:        0,
	StatusDisconnecting: 1,
	StatusDisconnected:  2,
	StatusError:         2,
}

// Transport is the underlying connection of a registered stream.
// Cancel closes it with a cancelled status carrying reason; it must be
// safe to call while the stream's read loop is running.
type Transport interface {
	Cancel(reason string) error
}

// Handle is a read-only snapshot of one registered stream.
type Handle struct {
	StreamID       string    `json:"stream_id"`
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	Status         Status    `json:"status"`
}

type stream struct {
	Handle
	transport Transport
}

// Registry is the process-wide stream registry.
type Registry struct {
	mu        sync.RWMutex
	streams   map[string]*stream
	bySession map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		streams:   make(map[string]*stream),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Register tracks a new stream for a session and returns its stream ID.
func (r *Registry) Register(sessionID string, transport Transport) string {
	now := time.Now()
	s := &stream{
		Handle: Handle{
			StreamID:       uuid.New().String(),
			SessionID:      sessionID,
			CreatedAt:      now,
			LastActivityAt: now,
			Status:         StatusActive,
		},
		transport: transport,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[s.StreamID] = s
	if r.bySession[sessionID] == nil {
		r.bySession[sessionID] = make(map[string]struct{})
	}
	r.bySession[sessionID][s.StreamID] = struct{}{}
	return s.StreamID
}

// Touch advances a stream's activity clock.
func (r *Registry) Touch(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.streams[streamID]; ok {
		now := time.Now()
		if now.After(s.LastActivityAt) {
			s.LastActivityAt = now
		}
	}
}

// Unregister drops a stream, marking it disconnected. Unknown IDs are
// ignored so transport teardown paths can call it unconditionally.
func (r *Registry) Unregister(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[streamID]
	if !ok {
		return
	}
	advance(s, StatusDisconnected)
	delete(r.streams, streamID)
	if members := r.bySession[s.SessionID]; members != nil {
		delete(members, streamID)
		if len(members) == 0 {
			delete(r.bySession, s.SessionID)
		}
	}
}

// DisconnectSession cancels every stream bound to a session, carrying
// reason to the client, and returns how many were cancelled.
func (r *Registry) DisconnectSession(sessionID, reason string) int {
	r.mu.Lock()
	var targets []*stream
	for streamID := range r.bySession[sessionID] {
		if s, ok := r.streams[streamID]; ok && statusRank[s.Status] < statusRank[StatusDisconnecting] {
			advance(s, StatusDisconnecting)
			targets = append(targets, s)
		}
	}
	r.mu.Unlock()

	for _, s := range targets {
		// Cancel outside the lock: transport close may block on I/O.
		err := s.transport.Cancel(reason)

		r.mu.Lock()
		if err != nil {
			slog.Warn("Stream cancel failed",
				"stream_id", s.StreamID,
				"session_id", sessionID,
				"error", err)
			advance(s, StatusError)
		} else {
			advance(s, StatusDisconnected)
		}
		r.mu.Unlock()
	}

	if len(targets) > 0 {
		slog.Info("Session streams disconnected",
			"session_id", sessionID,
			"streams", len(targets),
			"reason", reason)
	}
	return len(targets)
}

// DisconnectAll cancels every stream in the registry. Used on shutdown
// so clients see a reasoned close instead of a dropped TCP connection.
func (r *Registry) DisconnectAll(reason string) int {
	r.mu.RLock()
	sessions := make([]string, 0, len(r.bySession))
	for sessionID := range r.bySession {
		sessions = append(sessions, sessionID)
	}
	r.mu.RUnlock()

	total := 0
	for _, sessionID := range sessions {
		total += r.DisconnectSession(sessionID, reason)
	}
	return total
}

// ActiveFor returns snapshots of the streams registered for a session.
func (r *Registry) ActiveFor(sessionID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var handles []Handle
	for streamID := range r.bySession[sessionID] {
		if s, ok := r.streams[streamID]; ok {
			handles = append(handles, s.Handle)
		}
	}
	return handles
}

// Count returns the number of tracked streams across all sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

// advance moves a stream forward through the status order; backward
// transitions are ignored.
func advance(s *stream, to Status) {
	if statusRank[to] >= statusRank[s.Status] {
		s.Status = to
	}
}
