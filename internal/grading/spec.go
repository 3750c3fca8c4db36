package grading

import (
	"encoding/json"
	"fmt"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, Essay:
		return true
	}
	return false
}

// Mode selects how free-text questions are graded. Choice questions are
// always graded by exact match regardless of mode.
type Mode string

const (
	ModeMock   Mode = "mock"
	ModeAI     Mode = "ai"
	ModeGemini Mode = "gemini"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeMock, ModeAI, ModeGemini:
		return true
	}
	return false
}

// Per-type expected-answer payloads. These mirror the stored JSON shapes
// exactly; changing a field name breaks every exam already authored.

type MultipleChoiceSpec struct {
	Answer string `json:"answer"`
}

type ChoiceOptions struct {
	Choices []string `json:"choices"`
}

type TrueFalseSpec struct {
	Answer string `json:"answer"`
}

type ShortAnswerSpec struct {
	Answer           string   `json:"answer"`
	Keywords         []string `json:"keywords"`
	AcceptVariations bool     `json:"accept_variations"`
}

type EssaySpec struct {
	Answer      string   `json:"answer"`
	MaxWords    int      `json:"max_words"`
	MinWords    int      `json:"min_words"`
	KeyConcepts []string `json:"key_concepts"`
}

// ScoreSpec is the parsed, per-type view of a question's grading data.
// Exactly one of the payload pointers matching Type is non-nil. Scorers
// consume it read-only; it is never mutated after parsing.
type ScoreSpec struct {
	Type         QuestionType
	QuestionText string
	MaxPoints    float64

	MultipleChoice *MultipleChoiceSpec
	Choices        []string
	TrueFalse      *TrueFalseSpec
	ShortAnswer    *ShortAnswerSpec
	Essay          *EssaySpec
}

// ParseScoreSpec decodes a question's stored expected_answer (and, for
// multiple choice, options) JSON into the closed per-type shape. Unknown
// types and missing required fields are rejected here so scorers never
// see a half-formed spec.
func ParseScoreSpec(qt QuestionType, questionText string, expectedAnswer, options []byte, maxPoints float64) (*ScoreSpec, error) {
	if maxPoints < 0 {
		return nil, &SpecError{Type: qt, Field: "max_points", Reason: "must not be negative"}
	}

	spec := &ScoreSpec{
		Type:         qt,
		QuestionText: questionText,
		MaxPoints:    maxPoints,
	}

	switch qt {
	case MultipleChoice:
		var mc MultipleChoiceSpec
		if err := json.Unmarshal(expectedAnswer, &mc); err != nil {
			return nil, &SpecError{Type: qt, Field: "expected_answer", Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if strings.TrimSpace(mc.Answer) == "" {
			return nil, &SpecError{Type: qt, Field: "answer", Reason: "missing expected answer"}
		}
		var opts ChoiceOptions
		if len(options) > 0 {
			if err := json.Unmarshal(options, &opts); err != nil {
				return nil, &SpecError{Type: qt, Field: "options", Reason: fmt.Sprintf("invalid JSON: %v", err)}
			}
		}
		if len(opts.Choices) == 0 {
			return nil, &SpecError{Type: qt, Field: "options", Reason: "multiple choice question has no choices"}
		}
		spec.MultipleChoice = &mc
		spec.Choices = opts.Choices

	case TrueFalse:
		var tf TrueFalseSpec
		if err := json.Unmarshal(expectedAnswer, &tf); err != nil {
			return nil, &SpecError{Type: qt, Field: "expected_answer", Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if _, ok := normalizeBool(tf.Answer); !ok {
			return nil, &SpecError{Type: qt, Field: "answer", Reason: `expected answer must normalize to "true" or "false"`}
		}
		spec.TrueFalse = &tf

	case ShortAnswer:
		var sa ShortAnswerSpec
		if err := json.Unmarshal(expectedAnswer, &sa); err != nil {
			return nil, &SpecError{Type: qt, Field: "expected_answer", Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if strings.TrimSpace(sa.Answer) == "" && len(sa.Keywords) == 0 {
			return nil, &SpecError{Type: qt, Field: "answer", Reason: "missing expected answer and keywords"}
		}
		spec.ShortAnswer = &sa

	case Essay:
		var es EssaySpec
		if err := json.Unmarshal(expectedAnswer, &es); err != nil {
			return nil, &SpecError{Type: qt, Field: "expected_answer", Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if strings.TrimSpace(es.Answer) == "" {
			return nil, &SpecError{Type: qt, Field: "answer", Reason: "missing model answer"}
		}
		if es.MinWords < 0 || es.MaxWords < 0 || (es.MaxWords > 0 && es.MinWords > es.MaxWords) {
			return nil, &SpecError{Type: qt, Field: "min_words", Reason: "inconsistent word bounds"}
		}
		spec.Essay = &es

	default:
		return nil, &SpecError{Type: qt, Field: "question_type", Reason: "unknown question type"}
	}

	return spec, nil
}

// AnswerSubmission is what a student provided for one question. RawData
// carries structured answers such as {"selected": "B"}; scorers interpret
// whichever of the two fields the question type requires.
type AnswerSubmission struct {
	QuestionID uint
	RawText    string
	RawData    json.RawMessage
}

// Text returns the student's answer as free text: the raw text when
// present, otherwise the stringified "selected" value of the structured
// payload.
func (a *AnswerSubmission) Text() string {
	if strings.TrimSpace(a.RawText) != "" {
		return a.RawText
	}
	if len(a.RawData) == 0 {
		return ""
	}
	var data map[string]any
	if err := json.Unmarshal(a.RawData, &data); err != nil {
		return ""
	}
	switch v := data["selected"].(type) {
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	}
	return ""
}
