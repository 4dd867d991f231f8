package discussion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
	"github.com/openSongce/bookglebookgle-sub001/pkg/tokens"
)

func newTestBuilder() *ContextBuilder {
	counter := tokens.NewCounter()
	return NewContextBuilder(counter, newTestSummarizer(true), config.SummaryStrategyTemplate, 2)
}

func chunkOf(text string, similarity float64) models.BookChunk {
	return models.BookChunk{Text: text, Similarity: similarity, DocumentID: "doc", PageNumber: 1}
}

func TestOptimize_WithinBudgetUnchanged(t *testing.T) {
	b := newTestBuilder()
	in := &models.ConversationContext{
		RecentMessages: []models.ChatMessage{userMsg("u1", "짧은 메시지")},
		BookContext:    []models.BookChunk{chunkOf("짧은 발췌", 0.9)},
	}

	out := b.Optimize(context.Background(), in, tokens.DiscussionBudget(4000))
	assert.Equal(t, in.RecentMessages, out.RecentMessages)
	assert.Equal(t, in.BookContext, out.BookContext)
	assert.Empty(t, out.Summary)
	assert.LessOrEqual(t, out.TokenCount, 4000)
}

func TestOptimize_DropsLowestRankedChunksFirst(t *testing.T) {
	b := newTestBuilder()
	long := strings.Repeat("발췌 내용이 깁니다 ", 40)
	in := &models.ConversationContext{
		RecentMessages: []models.ChatMessage{userMsg("u1", "메시지")},
		BookContext: []models.BookChunk{
			chunkOf(long, 0.9),
			chunkOf(long, 0.7),
			chunkOf(long, 0.5),
		},
	}

	out := b.Optimize(context.Background(), in, tokens.DiscussionBudget(200))
	require.NotEmpty(t, out.BookContext)
	assert.Equal(t, 0.9, out.BookContext[0].Similarity)
	assert.LessOrEqual(t, out.TokenCount, 200)
}

func TestOptimize_KeepsAtLeastOneChunkAndSummarizesDroppedPrefix(t *testing.T) {
	b := newTestBuilder()

	in := &models.ConversationContext{
		BookContext: []models.BookChunk{chunkOf(strings.Repeat("발췌 ", 50), 0.9)},
	}
	for i := 0; i < 200; i++ {
		in.RecentMessages = append(in.RecentMessages, userMsg("u1", strings.Repeat("아주 긴 토론 메시지입니다 ", 20)))
	}

	budget := tokens.DiscussionBudget(2000)
	out := b.Optimize(context.Background(), in, budget)

	assert.Len(t, out.BookContext, 1)
	assert.GreaterOrEqual(t, len(out.RecentMessages), 1)
	assert.NotEmpty(t, out.Summary, "dropped prefix must be summarized")
	assert.LessOrEqual(t, out.TokenCount, budget.Total)
}

func TestOptimize_PreservesRecentMessages(t *testing.T) {
	b := newTestBuilder()
	in := &models.ConversationContext{}
	for i := 0; i < 30; i++ {
		in.RecentMessages = append(in.RecentMessages, userMsg("u1", strings.Repeat(fmt.Sprintf("메시지 %d 내용 ", i), 30)))
	}
	last := in.RecentMessages[29]

	out := b.Optimize(context.Background(), in, tokens.DiscussionBudget(600))
	require.GreaterOrEqual(t, len(out.RecentMessages), 1)
	assert.Equal(t, last.Content, out.RecentMessages[len(out.RecentMessages)-1].Content)
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	b := newTestBuilder()
	in := &models.ConversationContext{
		RecentMessages: []models.ChatMessage{userMsg("u1", strings.Repeat("메시지 ", 100))},
		BookContext:    []models.BookChunk{chunkOf(strings.Repeat("발췌 ", 100), 0.9), chunkOf("b", 0.5)},
	}

	_ = b.Optimize(context.Background(), in, tokens.DiscussionBudget(50))
	assert.Len(t, in.BookContext, 2)
	assert.Len(t, in.RecentMessages, 1)
	assert.Empty(t, in.Summary)
}

func TestCount_GrowsWithContent(t *testing.T) {
	b := newTestBuilder()
	small := &models.ConversationContext{
		RecentMessages: []models.ChatMessage{userMsg("u1", "짧음")},
	}
	large := &models.ConversationContext{
		RecentMessages: []models.ChatMessage{userMsg("u1", strings.Repeat("내용 ", 200))},
	}
	assert.Greater(t, b.Count(large), b.Count(small))
}
