package models

import "time"

// SourceInfo contains static information about a content source.
type SourceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Version  string `json:"version"`
	Language string `json:"language"`
}

// BookResult represents a single book found by a source.
type BookResult struct {
	Title    string `json:"title"`
	CoverURL string `json:"cover_url"`
	Key      string `json:"key"` // Unique ID for the book on the source site
}

// ChapterResult represents a single chapter for a book from a source.
type ChapterResult struct {
	Key         string    `json:"key"` // Unique ID for the chapter on the source site
	Name        string    `json:"name"`
	Number      float64   `json:"number"`
	PublishedAt time.Time `json:"published_at"`
}

// Source defines the contract that every website connector must implement.
type Source interface {
	GetInfo() SourceInfo
	Search(query string) ([]BookResult, error)
	GetChapters(bookKey string) ([]ChapterResult, error)
	GetChapterContent(chapterKey string) (string, error)
}

// Catalog is the installed representation of a source within the runtime,
// carrying its enabled/pinned flags and store order.
type Catalog struct {
	ID         int64     `json:"id"`
	SourceID   string    `json:"source_id"`
	Name       string    `json:"name"`
	Site       string    `json:"site,omitempty"`
	Language   string    `json:"language"`
	Enabled    bool      `json:"enabled"`
	Pinned     bool      `json:"pinned"`
	StoreOrder int       `json:"store_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
