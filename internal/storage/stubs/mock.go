package stubs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lawbot/internal/models"
	"lawbot/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface. It
// backs tests, the USE_MOCK_DB development mode, and the fallback used
// when ClickHouse is unreachable at startup (in which case it simply
// stays empty and every lookup reports not-found).
type MockDB struct {
	mu       sync.RWMutex
	articles []models.LawArticle
}

// NewMockDB creates a new empty mock database
func NewMockDB() *MockDB {
	return &MockDB{}
}

// Initialize is a no-op; tests and the importer seed via SaveArticle
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// ListSections returns the distinct section names of a law code
func (m *MockDB) ListSections(ctx context.Context, lawCode string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var sections []string
	for _, a := range m.articles {
		if a.LawCode != lawCode || seen[a.Section] {
			continue
		}
		seen[a.Section] = true
		sections = append(sections, a.Section)
	}
	sort.Strings(sections)
	return sections, nil
}

// ListArticles returns the (id, title) pairs of a section ordered by id
func (m *MockDB) ListArticles(ctx context.Context, lawCode, section string) ([]models.ArticleRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var refs []models.ArticleRef
	for _, a := range m.articles {
		if a.LawCode == lawCode && a.Section == section {
			refs = append(refs, models.ArticleRef{ID: a.ID, Title: a.Title})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ID < refs[j].ID
	})
	return refs, nil
}

// GetArticle returns the full article or nil when the id is unknown
func (m *MockDB) GetArticle(ctx context.Context, id uint32) (*models.LawArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.articles {
		if a.ID == id {
			article := a
			return &article, nil
		}
	}
	return nil, nil
}

// FindByKeyword returns the first article containing one of the search
// terms in its title or content, or nil when nothing matches
func (m *MockDB) FindByKeyword(ctx context.Context, text string) (*models.LawArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, term := range storage.SearchTerms(text) {
		lower := strings.ToLower(term)
		for _, a := range m.articles {
			if strings.Contains(strings.ToLower(a.Title), lower) ||
				strings.Contains(strings.ToLower(a.Content), lower) {
				article := a
				return &article, nil
			}
		}
	}
	return nil, nil
}

// SaveArticle inserts an article
func (m *MockDB) SaveArticle(ctx context.Context, article models.LawArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.articles = append(m.articles, article)
	return nil
}

// Close is a no-op for the in-memory database
func (m *MockDB) Close() error {
	return nil
}
