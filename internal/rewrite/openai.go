package rewrite

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/deusflow/cryptonews/internal/retry"
)

// OpenAIRewriter calls the chat completions API in JSON-object response mode.
type OpenAIRewriter struct {
	client    *openai.Client
	model     string
	maxTokens int
	language  string
	retry     retry.Policy
}

func NewOpenAIRewriter(apiKey, model string, maxTokens int, language string, policy retry.Policy) *OpenAIRewriter {
	return &OpenAIRewriter{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		language:  language,
		retry:     policy,
	}
}

func (r *OpenAIRewriter) Rewrite(ctx context.Context, title, content string, coinNames []string) (*Result, error) {
	preview := title
	if len(preview) > 50 {
		preview = preview[:50]
	}
	slog.Info("rewriting article with OpenAI", "title", preview)

	system, user := buildPrompt(title, content, coinNames, r.language)

	return doWithRetry(ctx, r.retry, func() (*Result, error) {
		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens:   r.maxTokens,
			Temperature: 0.7,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai request failed: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from OpenAI")
		}

		// Token usage is logged for cost accounting, not enforced.
		slog.Info("article rewritten", "tokens_used", resp.Usage.TotalTokens)

		return parseResult(resp.Choices[0].Message.Content)
	})
}
