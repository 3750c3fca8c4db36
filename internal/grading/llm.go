package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRetryBackoff   = 2 * time.Second
)

// PromptPayload is the provider-agnostic grading request. Bindings shape
// it into their specific external call; the engine never sees endpoints,
// auth or rate limits.
type PromptPayload struct {
	QuestionType   QuestionType
	QuestionText   string
	ExpectedAnswer string
	KeyConcepts    []string
	MinWords       int
	MaxWords       int
	MaxPoints      float64
	StudentAnswer  string
}

// ProviderResult is the parsed response of one provider call.
type ProviderResult struct {
	Score            float64  `json:"score"`
	Feedback         string   `json:"feedback"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	DetailedAnalysis string   `json:"detailed_analysis"`
	Confidence       *float64 `json:"confidence"`
}

// ProviderClient is one bound external grading provider.
type ProviderClient interface {
	Provider() Provider
	RequestGrading(ctx context.Context, payload *PromptPayload) (*ProviderResult, error)
}

// BuildGradingPrompt renders the grading instructions both bindings send.
func BuildGradingPrompt(p *PromptPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grade the following %s answer.\n\n", strings.ReplaceAll(string(p.QuestionType), "_", " "))
	fmt.Fprintf(&b, "Question: %s\n", p.QuestionText)
	fmt.Fprintf(&b, "Expected answer / rubric: %s\n", p.ExpectedAnswer)
	if len(p.KeyConcepts) > 0 {
		fmt.Fprintf(&b, "Key concepts to look for: %s\n", strings.Join(p.KeyConcepts, ", "))
	}
	if p.MinWords > 0 || p.MaxWords > 0 {
		fmt.Fprintf(&b, "Expected length: between %d and %d words\n", p.MinWords, p.MaxWords)
	}
	fmt.Fprintf(&b, "Maximum points: %g\n\n", p.MaxPoints)
	fmt.Fprintf(&b, "Student answer: %s\n\n", p.StudentAnswer)
	fmt.Fprintf(&b, "Respond with a JSON object only, no surrounding text, with the fields: "+
		`"score" (number between 0 and %g), "feedback" (short summary for the student), `+
		`"strengths" (list of strings), "improvements" (list of strings), `+
		`"detailed_analysis" (string), "confidence" (number between 0 and 1).`, p.MaxPoints)
	return b.String()
}

// DecodeProviderResult parses a provider's raw text response. Markdown
// code fences are stripped first since some models wrap JSON in them.
func DecodeProviderResult(raw string) (*ProviderResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var res ProviderResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return nil, fmt.Errorf("decode grading response: %w", err)
	}
	return &res, nil
}

// LLMScorer grades free-text answers through a bound provider. Each call
// runs under its own timeout and is retried once with backoff; a call
// that still fails is reported as transient so the selector can fall
// back to the deterministic scorer.
type LLMScorer struct {
	client  ProviderClient
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

func NewLLMScorer(client ProviderClient, timeout, backoff time.Duration, logger *slog.Logger) *LLMScorer {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &LLMScorer{
		client:  client,
		timeout: timeout,
		backoff: backoff,
		logger:  logger,
	}
}

func (s *LLMScorer) Provider() Provider {
	return s.client.Provider()
}

func (s *LLMScorer) Score(ctx context.Context, spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	payload, err := buildPayload(spec, answer)
	if err != nil {
		return nil, err
	}

	var res *ProviderResult
	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.backoff):
			case <-ctx.Done():
				return nil, &ProviderError{Provider: s.client.Provider(), Op: "request_grading", Err: ctx.Err(), Transient: true}
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err = s.client.RequestGrading(callCtx, payload)
		cancel()
		if err == nil {
			break
		}
		s.logger.Warn("grading provider call failed",
			"provider", s.client.Provider(),
			"question_id", answer.QuestionID,
			"attempt", attempt+1,
			"error", err)
	}
	if err != nil {
		return nil, &ProviderError{Provider: s.client.Provider(), Op: "request_grading", Err: err, Transient: true}
	}

	score, clamped := clampScore(res.Score, spec.MaxPoints)
	score = roundScore(score)

	confidence := res.Confidence
	if confidence == nil {
		confidence = floatPtr(0.9)
	}
	feedback := FeedbackPayload{
		Summary:      res.Feedback,
		Strengths:    res.Strengths,
		Improvements: res.Improvements,
		Confidence:   confidence,
		Provider:     s.client.Provider(),
	}
	if res.DetailedAnalysis != "" {
		feedback.Rationale = stringPtr(res.DetailedAnalysis)
	}
	if clamped {
		// An out-of-range score is a provider bug, not a grading failure:
		// clamp, lower confidence and keep going.
		lowered := *confidence / 2
		feedback.Confidence = &lowered
		note := fmt.Sprintf("provider returned %g for a %g point question; score clamped", res.Score, spec.MaxPoints)
		if feedback.Rationale != nil {
			note = *feedback.Rationale + "; " + note
		}
		feedback.Rationale = stringPtr(note)
		s.logger.Warn("grading provider returned out-of-range score",
			"provider", s.client.Provider(),
			"question_id", answer.QuestionID,
			"score", res.Score,
			"max_points", spec.MaxPoints)
	}

	return &GradeResult{
		Score:    score,
		MaxScore: spec.MaxPoints,
		Feedback: feedback,
	}, nil
}

func buildPayload(spec *ScoreSpec, answer *AnswerSubmission) (*PromptPayload, error) {
	payload := &PromptPayload{
		QuestionType:  spec.Type,
		QuestionText:  spec.QuestionText,
		MaxPoints:     spec.MaxPoints,
		StudentAnswer: answer.Text(),
	}

	switch spec.Type {
	case ShortAnswer:
		if spec.ShortAnswer == nil {
			return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing expected answer"}
		}
		payload.ExpectedAnswer = spec.ShortAnswer.Answer
		payload.KeyConcepts = spec.ShortAnswer.Keywords
	case Essay:
		if spec.Essay == nil {
			return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing model answer"}
		}
		payload.ExpectedAnswer = spec.Essay.Answer
		payload.KeyConcepts = spec.Essay.KeyConcepts
		payload.MinWords = spec.Essay.MinWords
		payload.MaxWords = spec.Essay.MaxWords
	default:
		return nil, &SpecError{Type: spec.Type, Field: "question_type", Reason: "LLM grading only handles free-text questions"}
	}

	return payload, nil
}
