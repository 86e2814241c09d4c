// This file defines the core data structures (models) for our application.
// These structs represent the books, chapters, and reading state in our library.

package models

import "time"

// Book represents a single novel tracked by the library.
type Book struct {
	ID        int64      `json:"id"`
	SourceID  string     `json:"source_id"` // ID of the catalog this book was added from
	Key       string     `json:"key"`       // Identifier of the book on the source site
	Title     string     `json:"title"`
	Author    string     `json:"author,omitempty"`
	CoverURL  string     `json:"cover_url,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	Chapters  []*Chapter `json:"chapters,omitempty"` // omitempty hides it when not loaded
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Chapter represents a single chapter of a book.
type Chapter struct {
	ID           int64     `json:"id"`
	BookID       int64     `json:"book_id"`
	Key          string    `json:"key"` // URL or identifier of the chapter on the source site
	Name         string    `json:"name"`
	Content      string    `json:"content,omitempty"`
	Read         bool      `json:"read"`
	Bookmark     bool      `json:"bookmark"`
	LastPageRead int       `json:"last_page_read"`
	Number       float64   `json:"number"`
	SourceOrder  int       `json:"source_order"`
	DateFetch    time.Time `json:"date_fetch"`
	DateUpload   time.Time `json:"date_upload"`
}

// History records when and how far a chapter was read.
type History struct {
	ID           int64     `json:"id"`
	ChapterID    int64     `json:"chapter_id"`
	ReadAt       time.Time `json:"read_at"`
	ReadDuration int64     `json:"read_duration"` // seconds
	Progress     float64   `json:"progress"`
}

// ChapterHealth is the persisted verdict on whether a chapter's content
// is usable, with repair-attempt bookkeeping.
type ChapterHealth struct {
	ChapterID           int64      `json:"chapter_id"`
	IsBroken            bool       `json:"is_broken"`
	BreakReason         string     `json:"break_reason,omitempty"`
	CheckedAt           time.Time  `json:"checked_at"`
	RepairAttemptedAt   *time.Time `json:"repair_attempted_at,omitempty"`
	RepairSuccessful    bool       `json:"repair_successful"`
	ReplacementSourceID string     `json:"replacement_source_id,omitempty"`
}

// SourceComparison is a cached verdict on whether a better (more complete)
// alternate source exists for a book.
type SourceComparison struct {
	BookID            int64      `json:"book_id"`
	CurrentSourceID   string     `json:"current_source_id"`
	BetterSourceID    string     `json:"better_source_id,omitempty"`
	ChapterDifference int        `json:"chapter_difference"`
	CachedAt          time.Time  `json:"cached_at"`
	DismissedUntil    *time.Time `json:"dismissed_until,omitempty"`
}

// MigrationResult summarizes a chapter-set migration for a book.
type MigrationResult struct {
	TotalChapters      int `json:"total_chapters"`
	PreservedChapters  int `json:"preserved_chapters"`
	NewChapters        int `json:"new_chapters"`
	PreservedHistories int `json:"preserved_histories"`
}
