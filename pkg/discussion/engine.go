package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
	"github.com/openSongce/bookglebookgle-sub001/pkg/tokens"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

// Moderator turn limits: the prompt asks for at most 100 characters and
// the completion is hard-capped at 200 tokens.
const (
	moderatorMaxTokens   = 200
	moderatorTemperature = 0.7

	// moderatorCadence forces a turn every Nth message even without a
	// question or topic change, so the moderator stays present.
	moderatorCadence = 5
)

// ErrSessionExists is returned when StartDiscussion finds a session
// with the same ID but different meeting or document bindings.
var ErrSessionExists = errors.New("discussion session already exists with different parameters")

// BookRetriever fetches relevant passages from the meeting's vector
// collection. Satisfied by vector.Manager.
type BookRetriever interface {
	Query(ctx context.Context, meetingID, queryText string, k int, documentID string) ([]vector.Hit, error)
}

// TurnResult is what one posted message produces.
type TurnResult struct {
	AIResponse         string   `json:"ai_response,omitempty"`
	SuggestedTopics    []string `json:"suggested_topics"`
	RequiresModeration bool     `json:"requires_moderation"`
	TopicChanged       bool     `json:"topic_changed"`
	TopicConfidence    float64  `json:"topic_confidence,omitempty"`
}

// Engine drives discussion sessions: start/end lifecycle, message
// intake, context assembly under the token budget, and moderator turns.
type Engine struct {
	store     SessionStore
	retriever BookRetriever
	gateway   *llm.Gateway
	counter   *tokens.Counter
	analyzer  *TopicAnalyzer
	builder   *ContextBuilder

	windowSize    int
	maxBookChunks int
	tokenBudget   int
}

// NewEngine wires the engine from settings and collaborators.
func NewEngine(cfg *config.Settings, store SessionStore, retriever BookRetriever, gateway *llm.Gateway) *Engine {
	counter := tokens.NewCounter()
	summarizer := NewSummarizer(gateway, counter)
	return &Engine{
		store:         store,
		retriever:     retriever,
		gateway:       gateway,
		counter:       counter,
		analyzer:      NewTopicAnalyzer(cfg.ComparisonWindow),
		builder:       NewContextBuilder(counter, summarizer, cfg.SummaryStrategy, cfg.PreserveRecent),
		windowSize:    cfg.ContextWindowSize,
		maxBookChunks: cfg.MaxBookChunks,
		tokenBudget:   cfg.TokenBudget,
	}
}

// StartDiscussion creates a session record with TTL. Restarting an
// existing session with identical parameters succeeds; a conflicting
// restart is rejected.
func (e *Engine) StartDiscussion(ctx context.Context, meetingID, sessionID, documentID string, participants []models.Participant) error {
	existing, err := e.store.GetSession(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	if existing != nil {
		if existing.MeetingID == meetingID && existing.DocumentID == documentID {
			return nil
		}
		return fmt.Errorf("%w: session %s", ErrSessionExists, sessionID)
	}

	now := time.Now()
	session := &models.DiscussionSession{
		SessionID:      sessionID,
		MeetingID:      meetingID,
		DocumentID:     documentID,
		StartedAt:      now,
		LastActivityAt: now,
		ChatbotActive:  true,
		Participants:   participants,
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		return err
	}
	slog.Info("Discussion session started",
		"session_id", sessionID,
		"meeting_id", meetingID,
		"participants", len(participants))
	return nil
}

// PostMessage records one user message and produces a moderator turn
// when warranted. A missing or inactive session yields an empty result,
// not an error.
func (e *Engine) PostMessage(ctx context.Context, sessionID, userID, nickname, content string) (*TurnResult, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return &TurnResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return &TurnResult{}, nil
	}

	msg := models.ChatMessage{
		MessageID: uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Nickname:  nickname,
		Content:   content,
		Timestamp: time.Now(),
		Type:      models.MessageTypeUser,
	}
	if err := e.store.AppendMessage(ctx, sessionID, msg, e.windowSize); err != nil {
		return nil, err
	}

	recent, err := e.store.RecentMessages(ctx, sessionID, e.windowSize)
	if err != nil {
		return nil, err
	}

	change := e.analyzer.DetectChange(recent)
	result := &TurnResult{
		SuggestedTopics: change.CurrentTopics,
		TopicChanged:    change.Changed,
		TopicConfidence: change.Confidence,
	}

	session.MessageCount++
	session.Touch(msg.Timestamp)
	defer func() {
		if err := e.store.SaveSession(ctx, session); err != nil {
			slog.Warn("Failed to refresh session", "session_id", sessionID, "error", err)
		}
	}()

	if !e.shouldRespond(content, change, session.MessageCount) {
		return result, nil
	}

	convCtx := e.assembleContext(ctx, session, recent, change.CurrentTopics, content)
	reply, err := e.moderatorTurn(ctx, convCtx, content)
	if err != nil {
		slog.Warn("Moderator turn failed",
			"session_id", sessionID,
			"error", err)
		return result, nil
	}
	result.AIResponse = reply
	return result, nil
}

// EndDiscussion removes the session. Idempotent: ending an absent
// session reports existed=false and no error.
func (e *Engine) EndDiscussion(ctx context.Context, sessionID string) (bool, error) {
	existed, err := e.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if existed {
		slog.Info("Discussion session ended", "session_id", sessionID)
	}
	return existed, nil
}

// CleanupMeetingDiscussions removes every session indexed under a
// meeting and returns how many were deleted.
func (e *Engine) CleanupMeetingDiscussions(ctx context.Context, meetingID string) (int, error) {
	ids, err := e.store.ActiveSessions(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	cleaned := 0
	for _, id := range ids {
		existed, err := e.store.DeleteSession(ctx, id)
		if err != nil {
			return cleaned, err
		}
		if existed {
			cleaned++
		}
	}
	return cleaned, nil
}

// shouldRespond decides whether this message earns a moderator turn:
// questions always do, topic shifts do, and the cadence keeps the
// moderator present in long quiet stretches.
func (e *Engine) shouldRespond(content string, change TopicChange, messageCount int) bool {
	if strings.ContainsAny(content, "?？") {
		return true
	}
	if change.Changed {
		return true
	}
	return messageCount%moderatorCadence == 0
}

// assembleContext gathers the inputs for one moderator turn and
// optimizes them into the token budget.
func (e *Engine) assembleContext(ctx context.Context, session *models.DiscussionSession, recent []models.ChatMessage, topics []string, query string) *models.ConversationContext {
	convCtx := &models.ConversationContext{
		RecentMessages:    recent,
		ActiveTopics:      topics,
		ParticipantStates: participantStates(recent),
	}

	hits, err := e.retriever.Query(ctx, session.MeetingID, query, e.maxBookChunks, "")
	if err != nil {
		slog.Warn("Book retrieval failed, continuing without chunks",
			"session_id", session.SessionID,
			"meeting_id", session.MeetingID,
			"error", err)
	}
	for _, hit := range hits {
		convCtx.BookContext = append(convCtx.BookContext, models.BookChunk{
			Text:       hit.Text,
			Similarity: hit.Similarity,
			DocumentID: hit.DocumentID,
			PageNumber: hit.PageNumber,
		})
	}

	return e.builder.Optimize(ctx, convCtx, tokens.DiscussionBudget(e.tokenBudget))
}

// participantStates derives per-user activity from the message window.
func participantStates(messages []models.ChatMessage) map[string]models.ParticipantState {
	states := make(map[string]models.ParticipantState)
	for _, msg := range messages {
		if msg.Type != models.MessageTypeUser {
			continue
		}
		state := states[msg.UserID]
		state.UserID = msg.UserID
		state.Nickname = msg.Nickname
		state.MessageCount++
		if strings.ContainsAny(msg.Content, "?？") {
			state.QuestionsAsked++
		}
		if msg.Timestamp.After(state.LastSpokeAt) {
			state.LastSpokeAt = msg.Timestamp
		}
		states[msg.UserID] = state
	}
	return states
}

// moderatorTurn renders the prompt and calls the LLM.
func (e *Engine) moderatorTurn(ctx context.Context, convCtx *models.ConversationContext, latest string) (string, error) {
	var prompt strings.Builder

	if len(convCtx.BookContext) > 0 {
		prompt.WriteString("책에서 관련된 부분:\n")
		for _, chunk := range convCtx.BookContext {
			fmt.Fprintf(&prompt, "- (p.%d) %s\n", chunk.PageNumber, chunk.Text)
		}
		prompt.WriteString("\n")
	}
	if convCtx.Summary != "" {
		prompt.WriteString("이전 대화 요약: " + convCtx.Summary + "\n\n")
	}
	if len(convCtx.RecentMessages) > 0 {
		prompt.WriteString("최근 대화:\n")
		for _, msg := range convCtx.RecentMessages {
			fmt.Fprintf(&prompt, "%s: %s\n", msg.Nickname, msg.Content)
		}
		prompt.WriteString("\n")
	}
	if quiet := quietParticipants(convCtx.ParticipantStates); len(quiet) > 0 {
		prompt.WriteString("아직 발언이 적은 참가자: " + strings.Join(quiet, ", ") + "\n\n")
	}
	prompt.WriteString("마지막 메시지: " + latest + "\n")
	prompt.WriteString("토론 진행자로서 100자 이내로 답하세요.")

	reply, err := e.gateway.Complete(ctx, llm.Request{
		System: "당신은 독서 모임의 토론 진행자입니다. 책 내용에 근거해 대화를 이끌고, " +
			"조용한 참가자의 참여를 유도하며, 제공된 발췌를 인용하세요. 답변은 100자 이내로 간결하게.",
		Prompt:      prompt.String(),
		MaxTokens:   moderatorMaxTokens,
		Temperature: moderatorTemperature,
	}, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// quietParticipants lists members with the fewest messages so the
// moderator can invite them in.
func quietParticipants(states map[string]models.ParticipantState) []string {
	if len(states) < 2 {
		return nil
	}
	min := -1
	for _, s := range states {
		if min == -1 || s.MessageCount < min {
			min = s.MessageCount
		}
	}
	var quiet []string
	for _, s := range states {
		if s.MessageCount == min {
			quiet = append(quiet, s.Nickname)
		}
	}
	if len(quiet) == len(states) {
		return nil
	}
	return quiet
}
