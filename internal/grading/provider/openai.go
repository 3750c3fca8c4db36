package provider

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

const gradingSystemPrompt = "You are an experienced exam grader. Grade student answers " +
	"fairly against the provided rubric and respond only with the requested JSON object."

// OpenAIClient binds the grading adapter to the OpenAI chat completions
// API. It owns request shaping and response parsing only; retries,
// timeouts and fallback live in the engine.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", grading.ErrMissingAPIKey)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}, nil
}

func (c *OpenAIClient) Provider() grading.Provider {
	return grading.ProviderOpenAI
}

func (c *OpenAIClient) RequestGrading(ctx context.Context, payload *grading.PromptPayload) (*grading.ProviderResult, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: gradingSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: grading.BuildGradingPrompt(payload)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return grading.DecodeProviderResult(resp.Choices[0].Message.Content)
}
