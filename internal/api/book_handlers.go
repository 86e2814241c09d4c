package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillreads/quill-go/internal/covers"
	"github.com/quillreads/quill-go/internal/store"
)

// handleListBooks lists every book in the library.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.store.ListBooks()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list books: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, books)
}

// handleGetBook returns one book with its chapters.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			RespondWithError(w, http.StatusNotFound, "Book not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch book: %v", err))
		return
	}

	chapters, err := s.store.GetChaptersByBook(bookID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch chapters: %v", err))
		return
	}
	book.Chapters = chapters

	RespondWithJSON(w, http.StatusOK, book)
}

// handleRefreshThumbnail regenerates a book's cover thumbnail from its
// cover URL.
func (s *Server) handleRefreshThumbnail(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			RespondWithError(w, http.StatusNotFound, "Book not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch book: %v", err))
		return
	}

	if err := covers.RefreshBookThumbnail(s.store, book.ID, book.CoverURL); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh thumbnail: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
