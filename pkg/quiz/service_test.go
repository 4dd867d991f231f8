package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

type fakeRetriever struct {
	hits []vector.Hit
	err  error
}

func (r *fakeRetriever) Query(context.Context, string, string, int, string) ([]vector.Hit, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.hits, nil
}

func newTestService(retriever Retriever) *Service {
	gateway := llm.NewGateway(config.LLMProviderTypeMock, true)
	return NewService(gateway, retriever, 4000, 3)
}

func TestGenerate_ParsesMockQuiz(t *testing.T) {
	s := newTestService(&fakeRetriever{hits: []vector.Hit{
		{Text: "주인공은 기차역에서 처음 등장한다.", Similarity: 0.9, PageNumber: 3},
	}})

	result := s.Generate(context.Background(), "M1", "D1", "주인공", 2)
	require.True(t, result.Success)
	require.Len(t, result.Questions, 2)
	for _, q := range result.Questions {
		assert.Len(t, q.Options, 4)
		assert.GreaterOrEqual(t, q.CorrectAnswer, 0)
		assert.LessOrEqual(t, q.CorrectAnswer, 3)
	}
	assert.Equal(t, 1, s.CachedCount("M1"))
}

func TestGenerate_TruncatesToRequestedCount(t *testing.T) {
	s := newTestService(&fakeRetriever{})

	result := s.Generate(context.Background(), "M1", "D1", "", 1)
	require.True(t, result.Success)
	assert.Len(t, result.Questions, 1)
}

func TestGenerate_RetrievalFailureStillGenerates(t *testing.T) {
	s := newTestService(&fakeRetriever{err: errors.New("collection gone")})

	result := s.Generate(context.Background(), "M1", "D1", "주제", 2)
	assert.True(t, result.Success)
}

func TestGenerate_NoProviderIsStructuredFailure(t *testing.T) {
	gateway := llm.NewGateway(config.LLMProviderTypeOpenAI, false)
	s := NewService(gateway, &fakeRetriever{}, 4000, 3)

	result := s.Generate(context.Background(), "M1", "D1", "주제", 2)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Zero(t, s.CachedCount("M1"))
}

func TestCleanupMeeting(t *testing.T) {
	s := newTestService(&fakeRetriever{})
	_ = s.Generate(context.Background(), "M1", "D1", "", 2)
	_ = s.Generate(context.Background(), "M1", "D1", "", 2)
	_ = s.Generate(context.Background(), "M2", "D2", "", 2)

	n, err := s.CleanupMeeting(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, s.CachedCount("M1"))
	assert.Equal(t, 1, s.CachedCount("M2"))

	n, err = s.CleanupMeeting(context.Background(), "M1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
