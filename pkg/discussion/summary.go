package discussion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
	"github.com/openSongce/bookglebookgle-sub001/pkg/tokens"
)

// summaryMaxTokens caps the LLM call for abstractive summaries.
const summaryMaxTokens = 150

// Summarizer condenses a dropped message prefix into a short summary.
// Summarize never fails: every strategy degrades to the template path
// when the LLM is unavailable.
type Summarizer struct {
	gateway *llm.Gateway
	counter *tokens.Counter
}

// NewSummarizer creates a summarizer over the gateway.
func NewSummarizer(gateway *llm.Gateway, counter *tokens.Counter) *Summarizer {
	return &Summarizer{gateway: gateway, counter: counter}
}

// Summarize condenses messages to at most maxTokens estimated tokens
// using the requested strategy.
func (s *Summarizer) Summarize(ctx context.Context, strategy config.SummaryStrategy, messages []models.ChatMessage, topics []string, maxTokens int) string {
	if len(messages) == 0 {
		return ""
	}
	switch strategy {
	case config.SummaryStrategyExtractive:
		return s.extractive(messages, topics, maxTokens)
	case config.SummaryStrategyAbstractive:
		if text, err := s.abstractive(ctx, messages); err == nil {
			return text
		} else {
			slog.Warn("Abstractive summary failed, using template", "error", err)
		}
		return s.template(messages, topics)
	case config.SummaryStrategyTemplate:
		return s.template(messages, topics)
	default: // hybrid
		base := s.template(messages, topics)
		if text, err := s.abstractive(ctx, messages); err == nil {
			return base + " " + text
		} else {
			slog.Warn("Hybrid summary LLM leg failed, using template only", "error", err)
		}
		return base
	}
}

// template fills a slot summary from the conversation's shape alone.
func (s *Summarizer) template(messages []models.ChatMessage, topics []string) string {
	speakers := make(map[string]struct{})
	for _, msg := range messages {
		if msg.Type == models.MessageTypeUser {
			speakers[msg.UserID] = struct{}{}
		}
	}
	minutes := 0
	if len(messages) > 1 {
		minutes = int(messages[len(messages)-1].Timestamp.Sub(messages[0].Timestamp) / time.Minute)
	}

	out := fmt.Sprintf("참가자 %d명이 %d분 동안 메시지 %d개를 나눴습니다.",
		len(speakers), minutes, len(messages))
	if len(topics) > 0 {
		out += " 주요 주제: " + strings.Join(topics, ", ") + "."
	}
	return out
}

// abstractive asks the LLM for a free-form summary of the transcript.
func (s *Summarizer) abstractive(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var transcript strings.Builder
	for _, msg := range messages {
		transcript.WriteString(msg.Nickname)
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteString("\n")
	}

	text, err := s.gateway.Complete(ctx, llm.Request{
		System:    "당신은 독서 모임 대화를 요약하는 도우미입니다. 핵심 논점만 2~3문장으로 요약하세요.",
		Prompt:    "다음 대화를 요약해 주세요:\n\n" + transcript.String(),
		MaxTokens: summaryMaxTokens,
	}, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractive scores each message and keeps the best ones, in original
// order, under the token cap. Scoring favors substantial sentences,
// questions, topic mentions, and the conversation's opening and close.
func (s *Summarizer) extractive(messages []models.ChatMessage, topics []string, maxTokens int) string {
	type scored struct {
		index int
		score float64
	}

	scores := make([]scored, 0, len(messages))
	for i, msg := range messages {
		score := float64(len([]rune(msg.Content)))
		if score > 100 {
			score = 100
		}
		if strings.ContainsAny(msg.Content, "?？") {
			score += 30
		}
		lower := strings.ToLower(msg.Content)
		for _, topic := range topics {
			if strings.Contains(lower, strings.ToLower(topic)) {
				score += 20
			}
		}
		if i == 0 || i == len(messages)-1 {
			score += 15
		}
		scores = append(scores, scored{index: i, score: score})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	picked := make(map[int]struct{})
	used := 0
	for _, sc := range scores {
		cost := s.counter.Count(messages[sc.index].Content)
		if used+cost > maxTokens {
			continue
		}
		picked[sc.index] = struct{}{}
		used += cost
	}
	if len(picked) == 0 && len(messages) > 0 {
		picked[len(messages)-1] = struct{}{}
	}

	var parts []string
	for i, msg := range messages {
		if _, ok := picked[i]; ok {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, " ")
}
