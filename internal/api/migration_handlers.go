package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quillreads/quill-go/internal/store"
)

// handleGetComparison returns the better-source verdict for a book.
// 204 means no alternate source beats the current one right now.
func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	comparison, err := s.comparator.CompareForBook(bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			RespondWithError(w, http.StatusNotFound, "Book not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Comparison failed: %v", err))
		return
	}
	if comparison == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	RespondWithJSON(w, http.StatusOK, comparison)
}

// handleDismissComparison snoozes a book's comparison suggestion.
func (s *Server) handleDismissComparison(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	if err := s.comparator.Dismiss(bookID, time.Duration(req.Days)*24*time.Hour); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to dismiss comparison: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// handleMigrateBook moves a book to another source, carrying reading
// state over to the new chapter set.
func (s *Server) handleMigrateBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	var req struct {
		TargetSourceID string `json:"target_source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetSourceID == "" {
		RespondWithError(w, http.StatusBadRequest, "Target source ID is required")
		return
	}

	result, err := s.migration.MigrateToSource(bookID, req.TargetSourceID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			RespondWithError(w, http.StatusNotFound, "Book not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Migration failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}
