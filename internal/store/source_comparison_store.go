package store

import (
	"database/sql"

	"github.com/quillreads/quill-go/internal/models"
)

// GetSourceComparison returns the cached comparison for a book, or nil
// if none has been computed yet.
func (s *Store) GetSourceComparison(bookID int64) (*models.SourceComparison, error) {
	var c models.SourceComparison
	var dismissed sql.NullTime
	err := s.db.QueryRow(`
		SELECT book_id, current_source_id, better_source_id, chapter_difference,
		       cached_at, dismissed_until
		FROM source_comparisons
		WHERE book_id = ?
	`, bookID).Scan(
		&c.BookID, &c.CurrentSourceID, &c.BetterSourceID, &c.ChapterDifference,
		&c.CachedAt, &dismissed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dismissed.Valid {
		c.DismissedUntil = &dismissed.Time
	}
	return &c, nil
}

// UpsertSourceComparison caches a comparison result keyed by book,
// overwriting any prior record.
func (s *Store) UpsertSourceComparison(c *models.SourceComparison) error {
	var dismissed sql.NullTime
	if c.DismissedUntil != nil {
		dismissed = sql.NullTime{Time: *c.DismissedUntil, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO source_comparisons (book_id, current_source_id, better_source_id,
		                                chapter_difference, cached_at, dismissed_until)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			current_source_id = excluded.current_source_id,
			better_source_id = excluded.better_source_id,
			chapter_difference = excluded.chapter_difference,
			cached_at = excluded.cached_at,
			dismissed_until = excluded.dismissed_until
	`, c.BookID, c.CurrentSourceID, c.BetterSourceID, c.ChapterDifference,
		c.CachedAt, dismissed)
	return err
}

// DismissSourceComparison sets the snooze window on an existing cached
// comparison. During the window the comparison result is suppressed.
func (s *Store) DismissSourceComparison(bookID int64, until sql.NullTime) error {
	_, err := s.db.Exec(`
		UPDATE source_comparisons SET dismissed_until = ? WHERE book_id = ?
	`, until, bookID)
	return err
}
