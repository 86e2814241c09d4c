package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/quillreads/quill-go/internal/models"
)

var ErrBookNotFound = errors.New("book not found")

// CreateBook inserts a new book record into the database.
func (s *Store) CreateBook(sourceID, key, title, author, coverURL string) (*models.Book, error) {
	query := `
		INSERT INTO books (source_id, key, title, author, cover_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	res, err := s.db.Exec(query, sourceID, key, title, author, coverURL, now, now)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetBookByID(id)
}

// GetBookByID fetches a single book by its ID.
func (s *Store) GetBookByID(id int64) (*models.Book, error) {
	var book models.Book
	query := `
		SELECT id, source_id, key, title, author, cover_url, thumbnail, created_at, updated_at
		FROM books
		WHERE id = ?
	`
	err := s.db.QueryRow(query, id).Scan(
		&book.ID, &book.SourceID, &book.Key, &book.Title, &book.Author,
		&book.CoverURL, &book.Thumbnail, &book.CreatedAt, &book.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books ordered by title.
func (s *Store) ListBooks() ([]*models.Book, error) {
	rows, err := s.db.Query(`
		SELECT id, source_id, key, title, author, cover_url, thumbnail, created_at, updated_at
		FROM books
		ORDER BY title COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		var book models.Book
		err := rows.Scan(
			&book.ID, &book.SourceID, &book.Key, &book.Title, &book.Author,
			&book.CoverURL, &book.Thumbnail, &book.CreatedAt, &book.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	return books, rows.Err()
}

// UpdateBookSource points a book at a different catalog and key. Used
// after a successful migration.
func (s *Store) UpdateBookSource(bookID int64, sourceID, key string) error {
	_, err := s.db.Exec(`
		UPDATE books SET source_id = ?, key = ?, updated_at = ? WHERE id = ?
	`, sourceID, key, time.Now(), bookID)
	return err
}

// UpdateBookThumbnail stores the generated cover thumbnail for a book.
func (s *Store) UpdateBookThumbnail(bookID int64, thumbnail string) error {
	res, err := s.db.Exec(`
		UPDATE books SET thumbnail = ?, updated_at = ? WHERE id = ?
	`, thumbnail, time.Now(), bookID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteBook removes a book. Chapters and history cascade via foreign keys.
func (s *Store) DeleteBook(bookID int64) error {
	_, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, bookID)
	return err
}
