package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingClient(p Provider) *stubProviderClient {
	return &stubProviderClient{
		provider: p,
		results:  []*ProviderResult{nil},
		errs:     []error{errors.New("provider unreachable")},
	}
}

func newTestSelector(t *testing.T, mode Mode, client ProviderClient) *Selector {
	t.Helper()
	selector, err := NewSelector(Config{
		Mode:           mode,
		RequestTimeout: time.Second,
		RetryBackoff:   time.Millisecond,
	}, client, testLogger())
	require.NoError(t, err)
	return selector
}

func TestNewSelector_Validation(t *testing.T) {
	t.Run("mock needs no client", func(t *testing.T) {
		_, err := NewSelector(Config{Mode: ModeMock}, nil, testLogger())
		require.NoError(t, err)
	})

	t.Run("ai without client", func(t *testing.T) {
		_, err := NewSelector(Config{Mode: ModeAI}, nil, testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewSelector(Config{Mode: Mode("hybrid")}, nil, testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownMode)
	})
}

func TestSelector_Routing(t *testing.T) {
	mock := newTestSelector(t, ModeMock, nil)
	ai := newTestSelector(t, ModeAI, failingClient(ProviderOpenAI))

	tests := []struct {
		name     string
		selector *Selector
		qt       QuestionType
		want     any
	}{
		{"mc always exact in mock", mock, MultipleChoice, mock.exact},
		{"tf always exact in mock", mock, TrueFalse, mock.exact},
		{"mc always exact in ai", ai, MultipleChoice, ai.exact},
		{"tf always exact in ai", ai, TrueFalse, ai.exact},
		{"short answer mock", mock, ShortAnswer, mock.similarity},
		{"essay mock", mock, Essay, mock.similarity},
		{"short answer ai", ai, ShortAnswer, ai.llm},
		{"essay ai", ai, Essay, ai.llm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := tt.selector.Route(tt.qt)
			require.NoError(t, err)
			assert.Same(t, tt.want, scorer)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := mock.Route(QuestionType("matching"))
		require.Error(t, err)
		assert.True(t, IsSpecError(err))
	})
}

func TestSelector_FallbackMatchesSimilarityScorer(t *testing.T) {
	spec := essayTestSpec(t)
	answer := &AnswerSubmission{RawText: "Coal and steam engines changed manufacturing."}

	selector := newTestSelector(t, ModeAI, failingClient(ProviderOpenAI))
	got, err := selector.GradeAnswer(context.Background(), spec, answer)
	require.NoError(t, err)

	want, err := NewSimilarityScorer().Score(context.Background(), spec, answer)
	require.NoError(t, err)

	assert.Equal(t, want.Score, got.Score, "fallback score equals the similarity scorer's")
	assert.Equal(t, ProviderMock, got.Feedback.Provider)
	assert.True(t, got.Feedback.Fallback)
}

func TestSelector_FallbackAfterFullRetryBudget(t *testing.T) {
	client := &stubProviderClient{
		provider: ProviderOpenAI,
		results:  []*ProviderResult{nil, nil},
		errs:     []error{errors.New("timeout"), errors.New("timeout")},
	}
	selector := newTestSelector(t, ModeAI, client)

	spec := essayTestSpec(t)
	_, err := selector.GradeAnswer(context.Background(), spec, &AnswerSubmission{RawText: "Coal."})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls, "fallback only after the retry budget is exhausted")
}

func TestSelector_SpecErrorsAreNotRecovered(t *testing.T) {
	selector := newTestSelector(t, ModeMock, nil)
	spec := &ScoreSpec{Type: ShortAnswer, MaxPoints: 10}

	_, err := selector.GradeAnswer(context.Background(), spec, &AnswerSubmission{RawText: "x"})
	require.Error(t, err)
	assert.True(t, IsSpecError(err))
}

func TestSelector_ShortAnswerUpgradePathUsesProviderTag(t *testing.T) {
	client := &stubProviderClient{
		provider: ProviderGemini,
		results:  []*ProviderResult{{Score: 9, Feedback: "Nearly complete."}},
		errs:     []error{nil},
	}
	selector := newTestSelector(t, ModeGemini, client)

	spec := shortAnswerSpec(t, "Paris", []string{"Paris"}, true, 10)
	result, err := selector.GradeAnswer(context.Background(), spec, &AnswerSubmission{RawText: "paris"})
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Score)
	assert.Equal(t, ProviderGemini, result.Feedback.Provider)
	assert.False(t, result.Feedback.Fallback)
}
