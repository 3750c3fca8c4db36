package grading

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// SimilarityScorer grades free-text answers by vector-space cosine
// similarity against the expected answer. It is fully deterministic:
// identical inputs always yield bit-identical scores, which makes it
// safe to double as the offline fallback when an LLM provider is down.
type SimilarityScorer struct{}

func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

func (s *SimilarityScorer) Score(_ context.Context, spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	var expected string
	var keywords []string
	useKeywordScore := false

	switch spec.Type {
	case ShortAnswer:
		if spec.ShortAnswer == nil {
			return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing expected answer"}
		}
		expected = spec.ShortAnswer.Answer
		keywords = spec.ShortAnswer.Keywords
		useKeywordScore = spec.ShortAnswer.AcceptVariations && len(keywords) > 0
	case Essay:
		if spec.Essay == nil {
			return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing model answer"}
		}
		expected = spec.Essay.Answer
		keywords = spec.Essay.KeyConcepts
	default:
		return nil, &SpecError{Type: spec.Type, Field: "question_type", Reason: "similarity scorer only handles free-text questions"}
	}

	submitted := answer.Text()
	if strings.TrimSpace(submitted) == "" {
		return &GradeResult{
			Score:    0,
			MaxScore: spec.MaxPoints,
			Feedback: FeedbackPayload{
				Summary:    "no answer provided",
				Confidence: floatPtr(1),
				Provider:   ProviderMock,
			},
		}, nil
	}

	expectedTokens := tokenize(expected)
	submittedTokens := tokenize(submitted)

	similarity := tfidfCosine(expectedTokens, submittedTokens)
	if similarity == 0 {
		// Disjoint vocabularies still deserve partial credit for near
		// spellings of the expected answer.
		similarity = editSimilarity(cleanText(expected), cleanText(submitted))
	}

	matched := matchedKeywords(keywords, submittedTokens)
	if useKeywordScore && len(keywords) > 0 {
		keywordRatio := float64(len(matched)) / float64(distinctKeywordCount(keywords))
		similarity = math.Max(similarity, keywordRatio)
	}

	score := roundScore(similarity * spec.MaxPoints)
	score, _ = clampScore(score, spec.MaxPoints)
	correctness := similarity * 100

	rationale := fmt.Sprintf("text similarity %.2f against the expected answer", similarity)
	if spec.Type == Essay {
		rationale += fmt.Sprintf("; %d words submitted", len(strings.Fields(submitted)))
		if spec.Essay.MinWords > 0 && len(strings.Fields(submitted)) < spec.Essay.MinWords {
			rationale += fmt.Sprintf(" (below the expected minimum of %d)", spec.Essay.MinWords)
		}
	}

	return &GradeResult{
		Score:    score,
		MaxScore: spec.MaxPoints,
		Feedback: FeedbackPayload{
			Summary:         feedbackMessage(correctness),
			Rationale:       stringPtr(rationale),
			MatchedKeywords: matched,
			Confidence:      floatPtr(1),
			Provider:        ProviderMock,
		},
	}, nil
}

func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '\t', r == '\n', r == '\r':
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenize(s string) []string {
	return strings.Fields(cleanText(s))
}

// tfidfCosine computes cosine similarity of the two token lists under
// TF-IDF weighting over the two-document corpus {expected, submitted}.
// Vocabulary iteration is sorted so the floating-point accumulation
// order, and therefore the result, is reproducible.
func tfidfCosine(expected, submitted []string) float64 {
	if len(expected) == 0 || len(submitted) == 0 {
		return 0
	}

	tfA := termFrequencies(expected)
	tfB := termFrequencies(submitted)

	vocab := make([]string, 0, len(tfA)+len(tfB))
	seen := make(map[string]struct{}, len(tfA)+len(tfB))
	for t := range tfA {
		seen[t] = struct{}{}
		vocab = append(vocab, t)
	}
	for t := range tfB {
		if _, ok := seen[t]; !ok {
			vocab = append(vocab, t)
		}
	}
	sort.Strings(vocab)

	var dot, normA, normB float64
	for _, t := range vocab {
		df := 0.0
		if tfA[t] > 0 {
			df++
		}
		if tfB[t] > 0 {
			df++
		}
		idf := math.Log(2/df) + 1

		wa := tfA[t] * idf
		wb := tfB[t] * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for t := range tf {
		tf[t] /= float64(len(tokens))
	}
	return tf
}

// editSimilarity is a normalized Levenshtein similarity in [0,1].
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(prev[len(rb)])/float64(longest)
}

// matchedKeywords returns the distinct normalized keywords present in
// the submitted token set, in first-listed order.
func matchedKeywords(keywords []string, submittedTokens []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(submittedTokens))
	for _, t := range submittedTokens {
		present[t] = struct{}{}
	}
	submittedText := " " + strings.Join(submittedTokens, " ") + " "

	var matched []string
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		norm := cleanText(kw)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		hit := false
		if strings.ContainsRune(norm, ' ') {
			hit = strings.Contains(submittedText, " "+norm+" ")
		} else {
			_, hit = present[norm]
		}
		if hit {
			matched = append(matched, kw)
		}
	}
	return matched
}

func distinctKeywordCount(keywords []string) int {
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		norm := cleanText(kw)
		if norm == "" {
			continue
		}
		seen[norm] = struct{}{}
	}
	if len(seen) == 0 {
		return 1
	}
	return len(seen)
}
