package discussion

import (
	"sort"
	"strings"
	"unicode"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// changeThreshold is the Jaccard similarity below which the discussion
// is considered to have moved to a new topic.
const changeThreshold = 0.3

// maxActiveTopics bounds the suggested-topics list returned per turn.
const maxActiveTopics = 3

// stopwords excluded from topic extraction. The app's audience is
// Korean-first, so the list mixes Korean particles/fillers with common
// English function words.
var stopwords = map[string]struct{}{
	// Korean
	"이": {}, "그": {}, "저": {}, "것": {}, "수": {}, "등": {}, "들": {},
	"및": {}, "에서": {}, "으로": {}, "까지": {}, "부터": {}, "하다": {},
	"있다": {}, "없다": {}, "되다": {}, "이다": {}, "아니다": {}, "같다": {},
	"그리고": {}, "그런데": {}, "하지만": {}, "그래서": {}, "근데": {},
	"정말": {}, "진짜": {}, "너무": {}, "저는": {}, "제가": {}, "저도": {},
	"우리": {}, "같아요": {}, "있어요": {}, "했어요": {}, "합니다": {},
	"생각": {}, "생각해요": {}, "그냥": {}, "좀": {}, "더": {}, "잘": {},
	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "about": {}, "what": {},
	"think": {}, "really": {}, "just": {}, "very": {}, "not": {}, "do": {},
}

// TopicChange is the outcome of topic-change detection for one turn.
type TopicChange struct {
	Changed       bool     `json:"changed"`
	Confidence    float64  `json:"confidence"`
	CurrentTopics []string `json:"current_topics"`
}

// TopicAnalyzer extracts dominant keywords from message windows and
// detects shifts between consecutive windows.
type TopicAnalyzer struct {
	comparisonWindow int
}

// NewTopicAnalyzer creates an analyzer comparing windows of the given size.
func NewTopicAnalyzer(comparisonWindow int) *TopicAnalyzer {
	if comparisonWindow < 1 {
		comparisonWindow = 3
	}
	return &TopicAnalyzer{comparisonWindow: comparisonWindow}
}

// ExtractTopics ranks content tokens by frequency after stripping
// stopwords and single-character tokens, returning the top keywords.
func (a *TopicAnalyzer) ExtractTopics(messages []models.ChatMessage) []string {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, msg := range messages {
		for _, token := range tokenize(msg.Content) {
			if _, seen := counts[token]; !seen {
				order[token] = next
				next++
			}
			counts[token]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return order[tokens[i]] < order[tokens[j]]
	})

	if len(tokens) > maxActiveTopics {
		tokens = tokens[:maxActiveTopics]
	}
	return tokens
}

// DetectChange compares the token set of the latest comparison window
// against the preceding window. A change is signalled when Jaccard
// similarity drops below the threshold; confidence is 1 - similarity.
// Fewer than two full windows never signals a change.
func (a *TopicAnalyzer) DetectChange(messages []models.ChatMessage) TopicChange {
	w := a.comparisonWindow
	result := TopicChange{
		CurrentTopics: a.ExtractTopics(tailMessages(messages, w)),
	}
	if len(messages) < 2*w {
		return result
	}

	latest := tokenSet(messages[len(messages)-w:])
	previous := tokenSet(messages[len(messages)-2*w : len(messages)-w])
	if len(latest) == 0 || len(previous) == 0 {
		return result
	}

	similarity := jaccard(latest, previous)
	result.Changed = similarity < changeThreshold
	result.Confidence = 1 - similarity
	return result
}

func tailMessages(messages []models.ChatMessage, n int) []models.ChatMessage {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

func tokenSet(messages []models.ChatMessage) map[string]struct{} {
	set := make(map[string]struct{})
	for _, msg := range messages {
		for _, token := range tokenize(msg.Content) {
			set[token] = struct{}{}
		}
	}
	return set
}

func tokenize(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		token := strings.ToLower(f)
		if len([]rune(token)) < 2 {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		out = append(out, token)
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}
