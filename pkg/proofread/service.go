// Package proofread corrects user text via the LLM gateway with
// structured-output parsing and a per-meeting history released on
// meeting end.
package proofread

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
)

const (
	proofreadMaxTokens   = 500
	proofreadTemperature = 0.2
)

// Result is the structured outcome of one proofreading call.
type Result struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message,omitempty"`
	CorrectedText string           `json:"corrected_text,omitempty"`
	Corrections   []llm.Correction `json:"corrections"`
	Confidence    float64          `json:"confidence,omitempty"`
	RawReply      string           `json:"raw_reply,omitempty"`
}

type record struct {
	UserID      string
	ProcessedAt time.Time
}

// Service proofreads text and tracks per-meeting history.
type Service struct {
	gateway *llm.Gateway

	mu      sync.RWMutex
	history map[string][]record
}

// NewService creates a proofreading service.
func NewService(gateway *llm.Gateway) *Service {
	return &Service{
		gateway: gateway,
		history: make(map[string][]record),
	}
}

// Proofread corrects text, optionally steered by a context hint (e.g.
// the passage the user is writing about). Failures are structured, not
// errors.
func (s *Service) Proofread(ctx context.Context, meetingID, userID, text, contextHint string) *Result {
	if strings.TrimSpace(text) == "" {
		return &Result{Success: false, Message: "nothing to proofread"}
	}

	var prompt strings.Builder
	if strings.TrimSpace(contextHint) != "" {
		prompt.WriteString("참고 문맥: " + contextHint + "\n\n")
	}
	prompt.WriteString("다음 글을 교정해 주세요:\n" + text)

	reply, err := s.gateway.Complete(ctx, llm.Request{
		System: "당신은 한국어 교정 전문가입니다. 반드시 JSON으로만 답하세요: " +
			`{"corrected_text":"...","corrections":[{"original":"...","corrected":"...","reason":"..."}],"confidence":0.0}`,
		Prompt:      prompt.String(),
		MaxTokens:   proofreadMaxTokens,
		Temperature: proofreadTemperature,
	}, "")
	if err != nil {
		return &Result{Success: false, Message: fmt.Sprintf("proofreading failed: %v", err)}
	}

	payload, err := llm.ParseProofread(reply)
	if err != nil {
		slog.Warn("Proofread reply parse failed", "meeting_id", meetingID, "error", err)
		return &Result{
			Success:  false,
			Message:  "proofreading reply was not parseable",
			RawReply: reply,
		}
	}

	s.mu.Lock()
	s.history[meetingID] = append(s.history[meetingID], record{UserID: userID, ProcessedAt: time.Now()})
	s.mu.Unlock()

	return &Result{
		Success:       true,
		CorrectedText: payload.CorrectedText,
		Corrections:   payload.Corrections,
		Confidence:    payload.Confidence,
	}
}

// HistoryCount reports how many proofreading runs a meeting holds.
func (s *Service) HistoryCount(meetingID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[meetingID])
}

// CleanupMeeting releases the meeting's proofreading history.
// Implements the lifecycle cleanup hook.
func (s *Service) CleanupMeeting(_ context.Context, meetingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history[meetingID])
	delete(s.history, meetingID)
	return n, nil
}
