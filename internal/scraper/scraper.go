// Package scraper pulls full article text from publisher pages, trying a
// readability pass first and falling back to known content-container
// selectors.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/deusflow/cryptonews/internal/errs"
)

// minContentChars is the threshold below which an extraction is treated as a
// failure.
const minContentChars = 200

// Selector priority list for the fallback pass, most specific first.
var contentSelectors = []string{
	"article",
	".article-content",
	".post-content",
	".entry-content",
	"main",
	".content",
}

// Extracted is the full article content pulled from a page.
type Extracted struct {
	Title   string
	Content string
	URL     string
}

type Scraper struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// IsScrapable does a cheap HEAD check before spending a full GET on a dead
// or paywalled URL.
func (s *Scraper) IsScrapable(ctx context.Context, pageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Debug("url not accessible", "url", pageURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Extract fetches the page and extracts its main text. Readability runs
// first; when it fails or yields too little text the selector fallback takes
// over. Anything under the minimum length is an ExtractionError.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (*Extracted, error) {
	slog.Info("scraping article", "url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.ExtractionError{URL: pageURL, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}

	return s.ExtractFromHTML(body, pageURL)
}

// ExtractFromHTML runs both extraction strategies over already-fetched HTML.
func (s *Scraper) ExtractFromHTML(body []byte, pageURL string) (*Extracted, error) {
	if result := extractReadable(body, pageURL); result != nil {
		slog.Info("extracted content", "url", pageURL, "chars", len(result.Content), "strategy", "readability")
		return result, nil
	}

	result, err := extractBySelectors(body, pageURL)
	if err != nil {
		return nil, err
	}

	slog.Info("extracted content", "url", pageURL, "chars", len(result.Content), "strategy", "selectors")
	return result, nil
}

func extractReadable(body []byte, pageURL string) *Extracted {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		slog.Debug("readability failed", "url", pageURL, "error", err)
		return nil
	}

	content := strings.TrimSpace(article.TextContent)
	if len(content) < minContentChars {
		slog.Debug("readability content too short", "url", pageURL, "chars", len(content))
		return nil
	}

	return &Extracted{
		Title:   strings.TrimSpace(article.Title),
		Content: content,
		URL:     pageURL,
	}
}

// extractBySelectors scans the selector priority list and accepts the first
// container whose paragraphs add up to enough text.
func extractBySelectors(body []byte, pageURL string) (*Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}

	var content string
	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find("p").Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		candidate := strings.Join(paragraphs, "\n\n")
		if len(candidate) >= minContentChars {
			content = candidate
			break
		}
	}

	if len(content) < minContentChars {
		return nil, &errs.ExtractionError{URL: pageURL, Err: fmt.Errorf("could not extract enough text (%d chars)", len(content))}
	}

	return &Extracted{
		Title:   extractTitle(doc),
		Content: content,
		URL:     pageURL,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "title"} {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}
