package identify

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient is a single-shot wrapper around go-openai's chat
// completion call, trimmed from the teacher's pkg/ai/openai chat client
// down to the one call Extract needs.
type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds an llmClient backed by an OpenAI-compatible
// chat completions endpoint.
func NewOpenAIClient(apiKey, modelName, baseURL string) *openAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &openAIClient{client: openai.NewClientWithConfig(cfg), model: modelName}
}

func (o *openAIClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 2000,
	})
	if err != nil {
		return "", fmt.Errorf("identify: openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("identify: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
