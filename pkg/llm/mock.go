package llm

import (
	"context"
	"strings"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
)

// MockProvider returns deterministic canned responses keyed by prompt
// substrings. Used in test mode and when mock_responses is enabled.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name implements Provider.
func (p *MockProvider) Name() config.LLMProviderType {
	return config.LLMProviderTypeMock
}

const mockQuizReply = `{"questions": [
  {"question": "이 책의 주요 주제는 무엇인가요?",
   "options": ["사랑", "전쟁", "성장", "복수"],
   "correct_answer": 2,
   "explanation": "본문 전반에서 주인공의 성장이 중심 서사로 다뤄집니다."},
  {"question": "주인공이 처음 등장하는 장소는 어디인가요?",
   "options": ["학교", "기차역", "도서관", "바닷가"],
   "correct_answer": 1,
   "explanation": "1장에서 주인공은 기차역에서 처음 등장합니다."}
]}`

const mockProofreadReply = `{"corrected_text": "교정된 문장입니다.",
 "corrections": [{"original": "교정돼은", "corrected": "교정된", "reason": "맞춤법 오류"}],
 "confidence": 0.92}`

// Complete implements Provider. Matching is ordered: the first keyed
// substring found in either prompt or system text picks the reply.
func (p *MockProvider) Complete(_ context.Context, req Request) (string, error) {
	haystack := strings.ToLower(req.System + "\n" + req.Prompt)

	switch {
	case strings.Contains(haystack, "multiple-choice") || strings.Contains(haystack, "quiz") || strings.Contains(haystack, "퀴즈"):
		return mockQuizReply, nil
	case strings.Contains(haystack, "proofread") || strings.Contains(haystack, "교정"):
		return mockProofreadReply, nil
	case strings.Contains(haystack, "summarize") || strings.Contains(haystack, "요약"):
		return "참가자들이 책의 주제와 인물에 대해 활발히 토론했습니다.", nil
	default:
		return "좋은 의견이에요. 책의 해당 구절을 함께 살펴볼까요?", nil
	}
}
