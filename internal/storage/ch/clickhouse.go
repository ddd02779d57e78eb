package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"lawbot/internal/models"
	"lawbot/internal/storage"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection.
// The native driver keeps a bounded connection pool; queries borrow
// and release connections internally.
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	// Tables are managed via migrations (see migrations/ directory)
	// This method is kept for interface compatibility
	return nil
}

// ListSections returns the distinct section names of a law code
func (db *ClickHouseDB) ListSections(ctx context.Context, lawCode string) ([]string, error) {
	rows, err := db.conn.Query(ctx,
		`SELECT DISTINCT section FROM law_articles WHERE law_code = ? ORDER BY section`, lawCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var section string
		if err := rows.Scan(&section); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// ListArticles returns the (id, title) pairs of a section ordered by id
func (db *ClickHouseDB) ListArticles(ctx context.Context, lawCode, section string) ([]models.ArticleRef, error) {
	rows, err := db.conn.Query(ctx,
		`SELECT id, article_title FROM law_articles WHERE law_code = ? AND section = ? ORDER BY id`,
		lawCode, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.ArticleRef
	for rows.Next() {
		var ref models.ArticleRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("failed to scan article ref: %w", err)
		}
		articles = append(articles, ref)
	}
	return articles, nil
}

// GetArticle returns the full article or nil when the id is unknown
func (db *ClickHouseDB) GetArticle(ctx context.Context, id uint32) (*models.LawArticle, error) {
	rows, err := db.conn.Query(ctx,
		`SELECT id, law_code, section, article_title, content FROM law_articles WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	var article models.LawArticle
	if err := rows.Scan(&article.ID, &article.LawCode, &article.Section, &article.Title, &article.Content); err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return &article, nil
}

// FindByKeyword returns the first article matching one of the search
// terms derived from text, or nil when nothing matches
func (db *ClickHouseDB) FindByKeyword(ctx context.Context, text string) (*models.LawArticle, error) {
	for _, term := range storage.SearchTerms(text) {
		article, err := db.findByTerm(ctx, term)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return article, nil
		}
	}
	return nil, nil
}

func (db *ClickHouseDB) findByTerm(ctx context.Context, term string) (*models.LawArticle, error) {
	rows, err := db.conn.Query(ctx,
		`SELECT id, law_code, section, article_title, content FROM law_articles
		 WHERE positionCaseInsensitiveUTF8(article_title, ?) > 0
		    OR positionCaseInsensitiveUTF8(content, ?) > 0
		 ORDER BY id LIMIT 1`,
		term, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	var article models.LawArticle
	if err := rows.Scan(&article.ID, &article.LawCode, &article.Section, &article.Title, &article.Content); err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return &article, nil
}

// SaveArticle inserts an article. Only the offline importer writes.
func (db *ClickHouseDB) SaveArticle(ctx context.Context, article models.LawArticle) error {
	err := db.conn.Exec(ctx,
		`INSERT INTO law_articles (id, law_code, section, article_title, content) VALUES (?, ?, ?, ?, ?)`,
		article.ID, article.LawCode, article.Section, article.Title, article.Content)
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
