package provider

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient binds the grading adapter to the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", grading.ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Provider() grading.Provider {
	return grading.ProviderGemini
}

func (c *GeminiClient) RequestGrading(ctx context.Context, payload *grading.PromptPayload) (*grading.ProviderResult, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(gradingSystemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(grading.BuildGradingPrompt(payload)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			// Gemini tends to wrap JSON in markdown fences; the decoder
			// strips them.
			return grading.DecodeProviderResult(string(text))
		}
	}
	return nil, fmt.Errorf("gemini returned no text part")
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// FromConfig builds the provider client a grading mode needs. Mock mode
// needs none; the LLM modes fail here when their key is absent.
func FromConfig(ctx context.Context, mode grading.Mode, openAIKey, openAIBaseURL, openAIModel, geminiKey, geminiModel string) (grading.ProviderClient, error) {
	switch mode {
	case grading.ModeMock:
		return nil, nil
	case grading.ModeAI:
		return NewOpenAIClient(openAIKey, openAIBaseURL, openAIModel)
	case grading.ModeGemini:
		return NewGeminiClient(ctx, geminiKey, geminiModel)
	default:
		return nil, fmt.Errorf("%w: %q", grading.ErrUnknownMode, mode)
	}
}
