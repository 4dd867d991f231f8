// Package quiz generates multiple-choice questions from a meeting's
// document via the LLM gateway, with structured-output parsing and a
// per-meeting cache released on meeting end.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/tokens"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

const (
	defaultQuestionCount = 3
	generateMaxTokens    = 1000
	generateTemperature  = 0.3
)

// Retriever fetches document passages. Satisfied by vector.Manager.
type Retriever interface {
	Query(ctx context.Context, meetingID, queryText string, k int, documentID string) ([]vector.Hit, error)
}

// Result is the structured outcome of one generation call. Parse
// failures carry the raw model reply for diagnosis instead of erroring.
type Result struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Questions []llm.QuizQuestion `json:"questions"`
	RawReply  string             `json:"raw_reply,omitempty"`
}

type cached struct {
	Questions   []llm.QuizQuestion
	GeneratedAt time.Time
}

// Service generates and caches quizzes per meeting.
type Service struct {
	gateway   *llm.Gateway
	retriever Retriever
	counter   *tokens.Counter
	budget    int
	maxChunks int

	mu    sync.RWMutex
	cache map[string][]cached
}

// NewService creates a quiz service. budget caps the estimated prompt
// tokens; maxChunks bounds retrieval.
func NewService(gateway *llm.Gateway, retriever Retriever, budget, maxChunks int) *Service {
	return &Service{
		gateway:   gateway,
		retriever: retriever,
		counter:   tokens.NewCounter(),
		budget:    budget,
		maxChunks: maxChunks,
		cache:     make(map[string][]cached),
	}
}

// Generate produces questionCount multiple-choice questions about topic
// from the meeting's document. Never returns an error to the caller
// shape; failures are structured.
func (s *Service) Generate(ctx context.Context, meetingID, documentID, topic string, questionCount int) *Result {
	if questionCount < 1 {
		questionCount = defaultQuestionCount
	}

	query := topic
	if strings.TrimSpace(query) == "" {
		query = "핵심 내용"
	}
	hits, err := s.retriever.Query(ctx, meetingID, query, s.maxChunks, documentID)
	if err != nil {
		slog.Warn("Quiz retrieval failed, generating without passages",
			"meeting_id", meetingID, "error", err)
	}

	prompt := s.buildPrompt(hits, topic, questionCount)
	reply, err := s.gateway.Complete(ctx, llm.Request{
		System: "당신은 독서 퀴즈 출제자입니다. 반드시 JSON으로만 답하세요: " +
			`{"questions":[{"question":"...","options":["...","...","...","..."],"correct_answer":0,"explanation":"..."}]}`,
		Prompt:      prompt,
		MaxTokens:   generateMaxTokens,
		Temperature: generateTemperature,
	}, "")
	if err != nil {
		return &Result{Success: false, Message: fmt.Sprintf("quiz generation failed: %v", err)}
	}

	payload, err := llm.ParseQuiz(reply)
	if err != nil {
		if !errors.Is(err, llm.ErrNoJSON) {
			slog.Warn("Quiz reply parse failed", "meeting_id", meetingID, "error", err)
		}
		return &Result{
			Success:  false,
			Message:  "quiz reply was not parseable",
			RawReply: reply,
		}
	}

	questions := payload.Questions
	if len(questions) > questionCount {
		questions = questions[:questionCount]
	}

	s.mu.Lock()
	s.cache[meetingID] = append(s.cache[meetingID], cached{Questions: questions, GeneratedAt: time.Now()})
	s.mu.Unlock()

	return &Result{Success: true, Questions: questions}
}

// CachedCount reports how many generated quizzes a meeting holds.
func (s *Service) CachedCount(meetingID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache[meetingID])
}

// CleanupMeeting releases the meeting's cached quizzes. Implements the
// lifecycle cleanup hook.
func (s *Service) CleanupMeeting(_ context.Context, meetingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache[meetingID])
	delete(s.cache, meetingID)
	return n, nil
}

// buildPrompt assembles passages under the quiz token budget, highest
// similarity first.
func (s *Service) buildPrompt(hits []vector.Hit, topic string, questionCount int) string {
	budget := tokens.QuizBudget(s.budget)

	var b strings.Builder
	if len(hits) > 0 {
		b.WriteString("다음 발췌를 바탕으로 출제하세요:\n")
		used := 0
		for _, hit := range hits {
			cost := s.counter.Count(hit.Text)
			if used+cost > budget.BookChunks {
				break
			}
			fmt.Fprintf(&b, "- (p.%d) %s\n", hit.PageNumber, hit.Text)
			used += cost
		}
		b.WriteString("\n")
	}
	if strings.TrimSpace(topic) != "" {
		b.WriteString("주제: " + topic + "\n")
	}
	fmt.Fprintf(&b, "4지선다 문제 %d개를 만들어 주세요. 정답 번호는 0부터 시작합니다.", questionCount)
	return b.String()
}
