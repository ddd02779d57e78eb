package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"lawbot/internal/models"
)

// Sentinel lines of the raw statute text format. A line starting with
// LAW_CODE: or SECTION: switches the current grouping; a line starting
// with the Khmer article marker and containing a colon opens a new
// article; everything else is article content.
const (
	lawCodePrefix = "LAW_CODE:"
	sectionPrefix = "SECTION:"
	articleMarker = "មាត្រា"

	defaultLawCode = "general"
	defaultSection = "ទូទៅ"
)

// Parse reads the sentinel-line statute format and returns the articles
// in file order with sequential ids starting at 1. A pending article is
// flushed on every boundary, including a LAW_CODE switch, so content
// never leaks into the following grouping.
func Parse(r io.Reader) ([]models.LawArticle, error) {
	var (
		articles []models.LawArticle
		code     = defaultLawCode
		section  = defaultSection
		title    string
		content  []string
	)

	flush := func() {
		if title == "" || len(content) == 0 {
			title = ""
			content = nil
			return
		}
		articles = append(articles, models.LawArticle{
			ID:      uint32(len(articles) + 1),
			LawCode: code,
			Section: section,
			Title:   title,
			Content: strings.Join(content, "\n"),
		})
		title = ""
		content = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, lawCodePrefix):
			flush()
			code = strings.TrimSpace(strings.TrimPrefix(line, lawCodePrefix))
		case strings.HasPrefix(line, sectionPrefix):
			flush()
			section = strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))
		case strings.HasPrefix(line, articleMarker) && strings.Contains(line, ":"):
			flush()
			title = line
		default:
			content = append(content, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	flush()

	return articles, nil
}
