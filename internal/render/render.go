// Package render turns enriched articles into front-matter markdown
// documents for the static site generator, and prunes documents past the
// retention window.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/cryptonews/internal/match"
)

// slugMaxLen bounds the slug part of generated filenames.
const slugMaxLen = 80

// FrontMatter field order is fixed; yaml.v3 marshals struct fields in
// declaration order.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	PublishDate string   `yaml:"publishDate"`
	Source      string   `yaml:"source"`
	SourceURL   string   `yaml:"sourceUrl"`
	Coins       []string `yaml:"coins"`
	CoinNames   []string `yaml:"coinNames"`
	Image       string   `yaml:"image"`
	Description string   `yaml:"description"`
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugRepeats  = regexp.MustCompile(`-+`)
	datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// Slugify sanitizes a title for use in filenames: lowercase, alphanumerics
// and hyphens only, single hyphens between words, hard cut at maxLength.
func Slugify(text string, maxLength int) string {
	text = strings.ToLower(text)
	text = slugStrip.ReplaceAllString(text, "")
	text = slugSpaces.ReplaceAllString(text, "-")
	text = slugRepeats.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")

	if len(text) > maxLength {
		text = strings.TrimRight(text[:maxLength], "-")
	}

	return text
}

// parsePublishedAt accepts the formats the news API and feeds emit, falling
// back to now for anything unparseable.
func parsePublishedAt(value string, now time.Time) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return now.UTC()
}

// Filename derives the deterministic document name: the publish date and the
// slugified title. This is the sole idempotency key for rendering.
func Filename(article match.Article, now time.Time) string {
	date := parsePublishedAt(article.PublishedAt, now).Format("2006-01-02")
	slug := Slugify(article.Title, slugMaxLen)
	if slug == "" {
		slug = "untitled"
	}
	return fmt.Sprintf("%s-%s.md", date, slug)
}

// Document renders the full markdown document: front matter, description,
// body, source attribution and the coin tag line.
func Document(article match.Article, now time.Time) (string, error) {
	published := parsePublishedAt(article.PublishedAt, now).Format(time.RFC3339)

	symbols := make([]string, len(article.Coins))
	names := make([]string, len(article.Coins))
	for i, coin := range article.Coins {
		symbols[i] = coin.Symbol
		names[i] = coin.Name
	}

	fm := FrontMatter{
		Title:       article.Title,
		Date:        published,
		PublishDate: published,
		Source:      article.Source.Name,
		SourceURL:   article.URL,
		Coins:       symbols,
		CoinNames:   names,
		Image:       article.Image,
		Description: article.Description,
	}

	yamlBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}

	var parts []string
	parts = append(parts, "---")
	parts = append(parts, strings.TrimSpace(string(yamlBytes)))
	parts = append(parts, "---")
	parts = append(parts, "")

	if article.Description != "" {
		parts = append(parts, article.Description)
		parts = append(parts, "")
	}

	if article.Content != "" && article.Content != article.Description {
		parts = append(parts, article.Content)
		parts = append(parts, "")
	}

	if article.URL != "" {
		source := article.Source.Name
		if source == "" {
			source = "source"
		}
		parts = append(parts, fmt.Sprintf("[Read full article on %s](%s)", source, article.URL))
		parts = append(parts, "")
	}

	if len(article.Coins) > 0 {
		tags := make([]string, len(article.Coins))
		for i, coin := range article.Coins {
			tags[i] = fmt.Sprintf("**%s** (%s)", coin.Name, strings.ToUpper(coin.Symbol))
		}
		parts = append(parts, "**Related Coins:** "+strings.Join(tags, ", "))
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n"), nil
}

// Writer owns the content directory.
type Writer struct {
	dir string
	now func() time.Time
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write renders one article. When the target filename already exists the
// call is a no-op, never an overwrite.
func (w *Writer) Write(article match.Article) (string, bool, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create content dir: %w", err)
	}

	filename := Filename(article, w.now())
	path := filepath.Join(w.dir, filename)

	if _, err := os.Stat(path); err == nil {
		slog.Debug("skipping existing article", "filename", filename)
		return filename, false, nil
	}

	doc, err := Document(article, w.now())
	if err != nil {
		return filename, false, err
	}

	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return filename, false, fmt.Errorf("failed to write %s: %w", filename, err)
	}

	slog.Debug("wrote article", "filename", filename)
	return filename, true, nil
}

// Cleanup deletes documents whose filename date is older than the retention
// window. Files without a parseable date prefix are skipped, never deleted.
func (w *Writer) Cleanup(daysToKeep int) (int, error) {
	slog.Info("cleaning up old articles", "days_to_keep", daysToKeep)

	entries, err := filepath.Glob(filepath.Join(w.dir, "*.md"))
	if err != nil {
		return 0, err
	}

	cutoff := w.now().UTC().AddDate(0, 0, -daysToKeep)
	removed := 0

	for _, path := range entries {
		name := filepath.Base(path)
		prefix := datePrefixRe.FindString(name)
		if prefix == "" {
			slog.Warn("skipping file with invalid date prefix", "filename", name)
			continue
		}

		fileDate, err := time.Parse("2006-01-02", prefix)
		if err != nil {
			slog.Warn("skipping file with invalid date prefix", "filename", name)
			continue
		}

		if fileDate.Before(cutoff) {
			if err := os.Remove(path); err != nil {
				slog.Warn("failed to remove old article", "filename", name, "error", err)
				continue
			}
			removed++
			slog.Debug("removed old article", "filename", name)
		}
	}

	slog.Info("cleanup complete", "removed", removed)
	return removed, nil
}
