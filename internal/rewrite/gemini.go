package rewrite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/cryptonews/internal/retry"
)

const geminiModel = "gemini-1.5-flash"

// GeminiRewriter is the fallback backend, using JSON response MIME type for
// structured output.
type GeminiRewriter struct {
	client   *genai.Client
	language string
	retry    retry.Policy
}

func NewGeminiRewriter(ctx context.Context, apiKey, language string, policy retry.Policy) (*GeminiRewriter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiRewriter{
		client:   client,
		language: language,
		retry:    policy,
	}, nil
}

func (r *GeminiRewriter) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *GeminiRewriter) Rewrite(ctx context.Context, title, content string, coinNames []string) (*Result, error) {
	preview := title
	if len(preview) > 50 {
		preview = preview[:50]
	}
	slog.Info("rewriting article with Gemini", "title", preview)

	model := r.client.GenerativeModel(geminiModel)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.7)

	system, user := buildPrompt(title, content, coinNames, r.language)
	prompt := system + "\n\n" + user

	return doWithRetry(ctx, r.retry, func() (*Result, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, fmt.Errorf("gemini request failed: %w", err)
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("no response from Gemini")
		}

		if resp.UsageMetadata != nil {
			slog.Info("article rewritten", "tokens_used", resp.UsageMetadata.TotalTokenCount)
		}

		raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
		return parseResult(raw)
	})
}
