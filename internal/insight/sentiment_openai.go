package insight

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAnalyzer classifies mood with a hosted model. It is opt-in via
// configuration; the aggregator falls back to neutral on any failure, so a
// network error never degrades the context bundle.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer creates an analyzer over the OpenAI chat API.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Classify asks the model for a one-word polarity label.
func (a *OpenAIAnalyzer) Classify(ctx context.Context, texts []string) (Mood, error) {
	if len(texts) == 0 {
		return MoodNeutral, nil
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 3,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Classify the overall mood of the user's notes. " +
					"Reply with exactly one word: positive, negative, or neutral.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: strings.Join(texts, "\n---\n"),
			},
		},
	})
	if err != nil {
		return MoodNeutral, fmt.Errorf("sentiment request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return MoodNeutral, fmt.Errorf("sentiment request returned no choices")
	}

	switch strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content)) {
	case "positive":
		return MoodPositive, nil
	case "negative":
		return MoodNegative, nil
	default:
		return MoodNeutral, nil
	}
}
