package models

// LawArticle is a single titled unit of statute text, the leaf of the
// law_code -> section -> article hierarchy.
type LawArticle struct {
	ID      uint32
	LawCode string
	Section string
	Title   string
	Content string
}

// ArticleRef is a lightweight (id, title) pair used for article listings.
type ArticleRef struct {
	ID    uint32
	Title string
}
