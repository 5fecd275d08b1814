// Package rewrite turns scraped English articles into rewritten articles in
// the target language via an external generative service. OpenAI is the
// primary backend; Gemini serves as the fallback when OpenAI is unavailable.
package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/cryptonews/internal/errs"
	"github.com/deusflow/cryptonews/internal/retry"
)

// maxContentChars bounds the excerpt sent to the model.
const maxContentChars = 4000

// Result is the structured payload the rewrite service returns.
type Result struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// Rewriter rewrites one article. Implementations return an error after their
// retry policy is exhausted; callers treat that as "skip this article".
type Rewriter interface {
	Rewrite(ctx context.Context, title, content string, coinNames []string) (*Result, error)
}

// Chain tries each backend in order and returns the first success.
type Chain struct {
	backends []Rewriter
}

func NewChain(backends ...Rewriter) *Chain {
	return &Chain{backends: backends}
}

func (c *Chain) Rewrite(ctx context.Context, title, content string, coinNames []string) (*Result, error) {
	var lastErr error
	for _, backend := range c.backends {
		result, err := backend.Rewrite(ctx, title, content, coinNames)
		if err == nil {
			return result, nil
		}
		lastErr = err
		slog.Warn("rewrite backend failed, trying next", "error", err)
	}
	if lastErr == nil {
		lastErr = &errs.ConfigError{Key: "OPENAI_API_KEY or GEMINI_API_KEY"}
	}
	return nil, lastErr
}

// buildPrompt produces the system and user prompts for the rewrite request.
func buildPrompt(title, content string, coinNames []string, language string) (string, string) {
	coinsStr := "cryptocurrencies"
	if len(coinNames) > 0 {
		coinsStr = strings.Join(coinNames, ", ")
	}

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	system := fmt.Sprintf(`You are a professional crypto journalist writing in %[1]s.
Your task is to completely rewrite English crypto news articles and publish them in %[1]s.

Important:
- Keep all facts, figures and key information
- Rewrite the article entirely in your own words
- Use a professional, informative style
- Write 500-800 words
- Create an engaging %[1]s title`, language)

	user := fmt.Sprintf(`Rewrite the following crypto news article in %s.

Relevant cryptocurrencies: %s

Original title: %s

Original content:
%s

Produce:
1. An engaging title
2. A short summary (2-3 sentences)
3. The full rewritten article (500-800 words)

Format your answer as JSON:
{
  "title": "...",
  "summary": "...",
  "content": "..."
}`, language, coinsStr, title, content)

	return system, user
}

// parseResult validates the raw JSON payload. Missing title or content is a
// ValidationError; a missing summary is synthesised from the first two
// sentences of the content.
func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		preview := raw
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, &errs.ValidationError{Reason: fmt.Sprintf("rewrite response is not valid JSON: %s", preview)}
	}

	if result.Title == "" || result.Content == "" {
		return nil, &errs.ValidationError{Reason: "rewrite response missing title or content"}
	}

	if result.Summary == "" {
		result.Summary = firstSentences(result.Content, 2)
	}

	return &result, nil
}

// firstSentences returns the first n sentences of text, period-terminated.
func firstSentences(text string, n int) string {
	sentences := strings.Split(text, ".")
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	out := strings.TrimSpace(strings.Join(sentences, "."))
	out = strings.TrimSuffix(out, ".")
	if out == "" {
		return out
	}
	return out + "."
}

// doWithRetry wraps one backend call in the shared retry policy.
func doWithRetry(ctx context.Context, policy retry.Policy, op func() (*Result, error)) (*Result, error) {
	var result *Result
	err := retry.Do(ctx, policy, func() error {
		r, err := op()
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
