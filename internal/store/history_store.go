package store

import (
	"database/sql"

	"github.com/quillreads/quill-go/internal/models"
)

// CreateHistory inserts a reading-history row for a chapter.
func (s *Store) CreateHistory(h *models.History) (*models.History, error) {
	res, err := s.db.Exec(`
		INSERT INTO history (chapter_id, read_at, read_duration, progress)
		VALUES (?, ?, ?, ?)
	`, h.ChapterID, h.ReadAt, h.ReadDuration, h.Progress)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	h.ID = id
	return h, nil
}

// GetHistoryByChapter returns the history rows attached to a chapter.
func (s *Store) GetHistoryByChapter(chapterID int64) ([]*models.History, error) {
	rows, err := s.db.Query(`
		SELECT id, chapter_id, read_at, read_duration, progress
		FROM history
		WHERE chapter_id = ?
		ORDER BY read_at DESC
	`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistories(rows)
}

// GetHistoryByBook returns all history rows for a book's chapters.
func (s *Store) GetHistoryByBook(bookID int64) ([]*models.History, error) {
	rows, err := s.db.Query(`
		SELECT h.id, h.chapter_id, h.read_at, h.read_duration, h.progress
		FROM history h
		JOIN chapters c ON h.chapter_id = c.id
		WHERE c.book_id = ?
		ORDER BY h.read_at DESC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistories(rows)
}

// InsertHistoryTx inserts a history row inside the given transaction.
func (s *Store) InsertHistoryTx(tx *sql.Tx, h *models.History) error {
	_, err := tx.Exec(`
		INSERT INTO history (chapter_id, read_at, read_duration, progress)
		VALUES (?, ?, ?, ?)
	`, h.ChapterID, h.ReadAt, h.ReadDuration, h.Progress)
	return err
}

func scanHistories(rows *sql.Rows) ([]*models.History, error) {
	var histories []*models.History
	for rows.Next() {
		var h models.History
		if err := rows.Scan(&h.ID, &h.ChapterID, &h.ReadAt, &h.ReadDuration, &h.Progress); err != nil {
			return nil, err
		}
		histories = append(histories, &h)
	}
	return histories, rows.Err()
}
