package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com/html"
	userAgent      = "lawbot/1.0"
)

var (
	snippetRe = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)
)

// Fetcher retrieves short web search snippets used as context for AI
// answers. Search is best effort: every failure yields an empty result.
type Fetcher struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewFetcher creates a fetcher against the DuckDuckGo HTML endpoint
func NewFetcher(logger *zap.Logger) *Fetcher {
	return newFetcher(defaultBaseURL, logger)
}

func newFetcher(baseURL string, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Snippets returns up to max search result bodies joined by newlines,
// or "" when the search fails or finds nothing.
func (f *Fetcher) Snippets(ctx context.Context, query string, max int) string {
	reqURL := fmt.Sprintf("%s/?q=%s", f.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		f.logger.Warn("Failed to build search request", zap.Error(err))
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Web search failed", zap.Error(err), zap.String("query", query))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Web search returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
		)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("Failed to read search response", zap.Error(err))
		return ""
	}

	matches := snippetRe.FindAllStringSubmatch(string(body), max)
	var snippets []string
	for _, m := range matches {
		s := htmlTagRe.ReplaceAllString(m[1], "")
		s = html.UnescapeString(strings.TrimSpace(s))
		if s != "" {
			snippets = append(snippets, s)
		}
	}
	return strings.Join(snippets, "\n")
}
