package storage

import (
	"context"
	"strings"
	"unicode/utf8"

	"lawbot/internal/models"
)

// Storage defines the interface for law article storage operations.
// All read operations tolerate zero rows: listings return empty slices
// and single-row lookups return nil rather than an error.
type Storage interface {
	// ListSections returns the distinct section names of a law code, ordered.
	ListSections(ctx context.Context, lawCode string) ([]string, error)

	// ListArticles returns (id, title) pairs for a section, ordered by id.
	ListArticles(ctx context.Context, lawCode, section string) ([]models.ArticleRef, error)

	// GetArticle returns the full article or nil when the id is unknown.
	GetArticle(ctx context.Context, id uint32) (*models.LawArticle, error)

	// FindByKeyword returns the first article whose title or content
	// case-insensitively contains one of the search terms derived from
	// text (see SearchTerms), or nil when nothing matches.
	FindByKeyword(ctx context.Context, text string) (*models.LawArticle, error)

	// SaveArticle inserts an article. Used by the offline importer only;
	// the serving path never writes.
	SaveArticle(ctx context.Context, article models.LawArticle) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// maxTermRunes bounds the leading search term so a pasted paragraph
// still has a chance to hit an article title.
const maxTermRunes = 20

// SearchTerms derives the case-insensitive substring search terms for
// FindByKeyword: the trimmed query truncated to 20 runes, followed by
// every whitespace-separated token longer than one rune. An empty or
// all-short-token query yields no terms.
func SearchTerms(text string) []string {
	trimmed := strings.TrimSpace(text)

	var tokens []string
	for _, token := range strings.Fields(trimmed) {
		if utf8.RuneCountInString(token) > 1 {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	lead := trimmed
	if utf8.RuneCountInString(lead) > maxTermRunes {
		lead = string([]rune(lead)[:maxTermRunes])
	}

	terms := []string{lead}
	for _, token := range tokens {
		if token != lead {
			terms = append(terms, token)
		}
	}
	return terms
}
