package discussion

import (
	"context"
	"strings"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
	"github.com/openSongce/bookglebookgle-sub001/pkg/tokens"
)

// Fixed token charges for context parts the counter cannot see from
// text alone: prompt scaffolding, and the serialized form of one
// participant state.
const (
	metadataTokens    = 20
	participantTokens = 8
)

// ContextBuilder computes token counts for assembled contexts and
// shrinks them to fit a budget.
type ContextBuilder struct {
	counter        *tokens.Counter
	summarizer     *Summarizer
	strategy       config.SummaryStrategy
	preserveRecent int
}

// NewContextBuilder creates a builder. preserveRecent messages survive
// every optimization pass short of the aggressive last resort.
func NewContextBuilder(counter *tokens.Counter, summarizer *Summarizer, strategy config.SummaryStrategy, preserveRecent int) *ContextBuilder {
	if preserveRecent < 1 {
		preserveRecent = 2
	}
	return &ContextBuilder{
		counter:        counter,
		summarizer:     summarizer,
		strategy:       strategy,
		preserveRecent: preserveRecent,
	}
}

// Count estimates the token footprint of a context.
func (b *ContextBuilder) Count(c *models.ConversationContext) int {
	n := metadataTokens
	for _, msg := range c.RecentMessages {
		n += b.counter.CountAll(msg.Nickname, msg.Content)
	}
	for _, chunk := range c.BookContext {
		n += b.counter.Count(chunk.Text)
	}
	n += b.counter.Count(c.Summary)
	n += b.counter.Count(strings.Join(c.ActiveTopics, ", "))
	n += len(c.ParticipantStates) * participantTokens
	return n
}

// Optimize shrinks a context until it fits the budget, applying
// strategies in escalating order: drop low-ranked book chunks (keeping
// at least one), drop oldest messages (keeping the newest
// preserveRecent) while summarizing the dropped prefix, then as a last
// resort cut down to one chunk and one message. The input is not
// mutated; the returned context has TokenCount set.
func (b *ContextBuilder) Optimize(ctx context.Context, c *models.ConversationContext, budget tokens.Budget) *models.ConversationContext {
	out := c.Clone()
	out.TokenCount = b.Count(out)
	if out.TokenCount <= budget.Total {
		return out
	}

	for len(out.BookContext) > 1 && out.TokenCount > budget.Total {
		// BookContext arrives sorted by similarity descending, so the
		// tail is the lowest-ranked chunk.
		out.BookContext = out.BookContext[:len(out.BookContext)-1]
		out.TokenCount = b.Count(out)
	}
	if out.TokenCount <= budget.Total {
		return out
	}

	var dropped []models.ChatMessage
	for len(out.RecentMessages) > b.preserveRecent && out.TokenCount > budget.Total {
		dropped = append(dropped, out.RecentMessages[0])
		out.RecentMessages = out.RecentMessages[1:]
		out.TokenCount = b.Count(out)
	}
	if len(dropped) > 0 {
		out.Summary = b.summarizer.Summarize(ctx, b.strategy, dropped, out.ActiveTopics, budget.Summary)
		out.TokenCount = b.Count(out)
	}
	if out.TokenCount <= budget.Total {
		return out
	}

	// Aggressive last resort.
	if len(out.BookContext) > 1 {
		out.BookContext = out.BookContext[:1]
	}
	if len(out.RecentMessages) > 1 {
		out.RecentMessages = out.RecentMessages[len(out.RecentMessages)-1:]
	}
	out.TokenCount = b.Count(out)
	return out
}
