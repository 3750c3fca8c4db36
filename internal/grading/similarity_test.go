package grading

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortAnswerSpec(t *testing.T, answer string, keywords []string, acceptVariations bool, points float64) *ScoreSpec {
	t.Helper()
	expected, _ := json.Marshal(ShortAnswerSpec{
		Answer:           answer,
		Keywords:         keywords,
		AcceptVariations: acceptVariations,
	})
	spec, err := ParseScoreSpec(ShortAnswer, "What is the capital of France?", expected, nil, points)
	require.NoError(t, err)
	return spec
}

func essaySpec(t *testing.T, answer string, minWords, maxWords int, concepts []string, points float64) *ScoreSpec {
	t.Helper()
	expected, _ := json.Marshal(EssaySpec{
		Answer:      answer,
		MinWords:    minWords,
		MaxWords:    maxWords,
		KeyConcepts: concepts,
	})
	spec, err := ParseScoreSpec(Essay, "Discuss.", expected, nil, points)
	require.NoError(t, err)
	return spec
}

func TestSimilarityScorer_ExactKeywordHit(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := shortAnswerSpec(t, "Paris", []string{"Paris", "paris"}, true, 10)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "paris"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.Score)
	assert.Equal(t, 10.0, result.MaxScore)
	assert.Contains(t, result.Feedback.MatchedKeywords, "Paris")
	assert.Equal(t, ProviderMock, result.Feedback.Provider)
}

func TestSimilarityScorer_PartialSimilarity(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := shortAnswerSpec(t, "Paris", []string{"Paris", "paris"}, true, 10)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "The capital of France"})
	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0, "related but keyword-free answers earn partial credit")
	assert.Less(t, result.Score, 10.0)
	assert.Empty(t, result.Feedback.MatchedKeywords)
}

func TestSimilarityScorer_Deterministic(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := essaySpec(t, "Photosynthesis converts light energy into chemical energy stored in glucose.",
		20, 200, []string{"photosynthesis", "light", "glucose"}, 15)
	answer := &AnswerSubmission{RawText: "Plants use photosynthesis to turn light into stored glucose energy."}

	first, err := scorer.Score(context.Background(), spec, answer)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := scorer.Score(context.Background(), spec, answer)
		require.NoError(t, err)
		assert.Equal(t, first.Score, again.Score, "repeated grading must be bit-identical")
		assert.Equal(t, first.Feedback.MatchedKeywords, again.Feedback.MatchedKeywords)
	}
}

func TestSimilarityScorer_EmptyAnswer(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := shortAnswerSpec(t, "Paris", nil, false, 10)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: "   "})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, "no answer provided", result.Feedback.Summary)
}

func TestSimilarityScorer_KeywordOverlapWinsOverCosine(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := shortAnswerSpec(t, "The mitochondrion is the powerhouse of the cell",
		[]string{"mitochondrion", "powerhouse"}, true, 8)

	// Both keywords present but phrased differently from the expected text.
	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{
		RawText: "mitochondrion: powerhouse",
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Score)
	assert.Len(t, result.Feedback.MatchedKeywords, 2)
}

func TestSimilarityScorer_IdenticalTextFullScore(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := shortAnswerSpec(t, "Water boils at one hundred degrees Celsius", nil, false, 4)

	result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{
		RawText: "Water boils at one hundred degrees Celsius.",
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.Score)
}

func TestSimilarityScorer_ScoreWithinBounds(t *testing.T) {
	scorer := NewSimilarityScorer()
	spec := essaySpec(t, "A thorough treatment of supply and demand in market economies.",
		50, 500, []string{"supply", "demand"}, 25)

	answers := []string{
		"supply",
		"Markets balance supply and demand through prices.",
		"completely unrelated text about gardening and weather patterns",
	}
	for _, text := range answers {
		result, err := scorer.Score(context.Background(), spec, &AnswerSubmission{RawText: text})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 25.0)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "capital", "of", "france", "is", "paris"},
		tokenize("The capital of France is... Paris!"))
	assert.Empty(t, tokenize("   "))
}

func TestEditSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, editSimilarity("paris", "paris"))
	assert.Equal(t, 0.0, editSimilarity("", "paris"))
	sim := editSimilarity("paris", "pariss")
	assert.Greater(t, sim, 0.8)
	assert.Less(t, sim, 1.0)
}
