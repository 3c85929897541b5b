package identify

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient is a single-shot wrapper around genai's GenerativeModel,
// trimmed from the teacher's pkg/ai/gemini chat client down to the one
// call Extract needs.
type geminiClient struct {
	model *genai.GenerativeModel
}

// NewGeminiClient builds an llmClient backed by Google's Gemini API.
func NewGeminiClient(apiKey, modelName string) (*geminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identify: gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &geminiClient{model: client.GenerativeModel(modelName)}, nil
}

func (g *geminiClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("identify: gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("identify: gemini returned no content")
	}
	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}
