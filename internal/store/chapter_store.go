package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/quillreads/quill-go/internal/models"
)

var ErrChapterNotFound = errors.New("chapter not found")

// CreateChapter inserts a new chapter record into the database.
func (s *Store) CreateChapter(bookID int64, key, name string, number float64, sourceOrder int) (*models.Chapter, error) {
	query := `
		INSERT INTO chapters (book_id, key, name, number, source_order, date_fetch, date_upload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	res, err := s.db.Exec(query, bookID, key, name, number, sourceOrder, now, now)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetChapterByID(id)
}

// GetChapterByID fetches a single chapter by its ID.
func (s *Store) GetChapterByID(id int64) (*models.Chapter, error) {
	var ch models.Chapter
	query := `
		SELECT id, book_id, key, name, content, read, bookmark, last_page_read,
		       number, source_order, date_fetch, date_upload
		FROM chapters
		WHERE id = ?
	`
	err := s.db.QueryRow(query, id).Scan(
		&ch.ID, &ch.BookID, &ch.Key, &ch.Name, &ch.Content, &ch.Read, &ch.Bookmark,
		&ch.LastPageRead, &ch.Number, &ch.SourceOrder, &ch.DateFetch, &ch.DateUpload,
	)
	if err == sql.ErrNoRows {
		return nil, ErrChapterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChaptersByBook returns all chapters of a book in source order.
func (s *Store) GetChaptersByBook(bookID int64) ([]*models.Chapter, error) {
	rows, err := s.db.Query(`
		SELECT id, book_id, key, name, content, read, bookmark, last_page_read,
		       number, source_order, date_fetch, date_upload
		FROM chapters
		WHERE book_id = ?
		ORDER BY source_order ASC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*models.Chapter
	for rows.Next() {
		var ch models.Chapter
		err := rows.Scan(
			&ch.ID, &ch.BookID, &ch.Key, &ch.Name, &ch.Content, &ch.Read, &ch.Bookmark,
			&ch.LastPageRead, &ch.Number, &ch.SourceOrder, &ch.DateFetch, &ch.DateUpload,
		)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, &ch)
	}
	return chapters, rows.Err()
}

// CountChaptersByBook returns the number of chapters stored for a book.
func (s *Store) CountChaptersByBook(bookID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chapters WHERE book_id = ?`, bookID).Scan(&count)
	return count, err
}

// UpdateChapterContent replaces a chapter's content wholesale while
// preserving its identity. Used by the repair flow.
func (s *Store) UpdateChapterContent(chapterID int64, content string) error {
	res, err := s.db.Exec(`
		UPDATE chapters SET content = ?, date_fetch = ? WHERE id = ?
	`, content, time.Now(), chapterID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

// UpdateChapterProgress updates the reading state for a chapter.
func (s *Store) UpdateChapterProgress(chapterID int64, read bool, bookmark bool, lastPageRead int) error {
	res, err := s.db.Exec(`
		UPDATE chapters SET read = ?, bookmark = ?, last_page_read = ? WHERE id = ?
	`, read, bookmark, lastPageRead, chapterID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

// DeleteChaptersByBook removes all chapters of a book inside the given
// transaction. History rows cascade via the foreign key.
func (s *Store) DeleteChaptersByBook(tx *sql.Tx, bookID int64) error {
	_, err := tx.Exec(`DELETE FROM chapters WHERE book_id = ?`, bookID)
	return err
}

// InsertChapterTx inserts a chapter inside the given transaction and
// returns the newly assigned ID.
func (s *Store) InsertChapterTx(tx *sql.Tx, ch *models.Chapter) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO chapters (book_id, key, name, content, read, bookmark, last_page_read,
		                      number, source_order, date_fetch, date_upload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ch.BookID, ch.Key, ch.Name, ch.Content, ch.Read, ch.Bookmark, ch.LastPageRead,
		ch.Number, ch.SourceOrder, ch.DateFetch, ch.DateUpload)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BeginTx starts a database transaction for multi-statement operations.
func (s *Store) BeginTx() (*sql.Tx, error) {
	return s.db.Begin()
}
