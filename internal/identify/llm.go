package identify

import "context"

// llmClient is the one call identify's extraction prompt needs: a
// single text completion, no chat history, no images. The teacher's
// pkg/ai.AiInterface carried all three because its callers used chat
// sessions; identify never does, so the interface is trimmed to match.
type llmClient interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
}
