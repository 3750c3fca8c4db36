package grading

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcSpec(t *testing.T, answer string, choices []string, points float64) *ScoreSpec {
	t.Helper()
	expected, _ := json.Marshal(map[string]string{"answer": answer})
	options, _ := json.Marshal(map[string][]string{"choices": choices})
	spec, err := ParseScoreSpec(MultipleChoice, "Which option?", expected, options, points)
	require.NoError(t, err)
	return spec
}

func tfSpec(t *testing.T, answer string, points float64) *ScoreSpec {
	t.Helper()
	expected, _ := json.Marshal(map[string]string{"answer": answer})
	spec, err := ParseScoreSpec(TrueFalse, "True or false?", expected, nil, points)
	require.NoError(t, err)
	return spec
}

func TestExactMatchScorer_MultipleChoice(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := mcSpec(t, "B", []string{"A", "B", "C", "D"}, 5)

	tests := []struct {
		name      string
		submitted string
		wantScore float64
	}{
		{"exact letter", "B", 5},
		{"lowercase", "b", 5},
		{"surrounding whitespace", "  B  ", 5},
		{"wrong letter", "A", 0},
		{"empty", "", 0},
		{"not a choice", "E", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: tt.submitted})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, 5.0, result.MaxScore)
			assert.Equal(t, ProviderMock, result.Feedback.Provider)
		})
	}
}

func TestExactMatchScorer_MultipleChoice_StructuredAnswer(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := mcSpec(t, "C", []string{"A", "B", "C"}, 2)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{
		RawData: json.RawMessage(`{"selected": "c"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Score)
}

func TestExactMatchScorer_TrueFalse_Normalization(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := tfSpec(t, "true", 3)

	for _, submitted := range []string{"true", "True", "TRUE", "t", "yes", "y", "1"} {
		t.Run(submitted, func(t *testing.T) {
			result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: submitted})
			require.NoError(t, err)
			assert.Equal(t, 3.0, result.Score, "expected %q to grade as true", submitted)
		})
	}

	for _, submitted := range []string{"false", "f", "no", "n", "0"} {
		t.Run(submitted, func(t *testing.T) {
			result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: submitted})
			require.NoError(t, err)
			assert.Equal(t, 0.0, result.Score)
		})
	}
}

func TestExactMatchScorer_TrueFalse_FailsClosed(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := tfSpec(t, "false", 3)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "maybe"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	require.NotNil(t, result.Feedback.Confidence)
	assert.Equal(t, 0.0, *result.Feedback.Confidence)
}

func TestExactMatchScorer_MissingSpecPayload(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := &ScoreSpec{Type: MultipleChoice, MaxPoints: 5}

	_, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "A"})
	require.Error(t, err)
	assert.True(t, IsSpecError(err))
}

func TestExactMatchScorer_RejectsFreeTextTypes(t *testing.T) {
	scorer := NewExactMatchScorer()
	spec := &ScoreSpec{Type: Essay, MaxPoints: 10, Essay: &EssaySpec{Answer: "model answer"}}

	_, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "text"})
	require.Error(t, err)
	assert.True(t, IsSpecError(err))
}
