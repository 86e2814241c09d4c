package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillreads/quill-go/internal/store"
)

// handleCheckChapter runs the content health check on one chapter.
func (s *Server) handleCheckChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, err := strconv.ParseInt(chi.URLParam(r, "chapterID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid chapter ID")
		return
	}

	health, err := s.repairSvc.CheckChapter(chapterID)
	if err != nil {
		if errors.Is(err, store.ErrChapterNotFound) {
			RespondWithError(w, http.StatusNotFound, "Chapter not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Health check failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, health)
}

// handleRepairChapter attempts to replace one chapter's broken content.
func (s *Server) handleRepairChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, err := strconv.ParseInt(chi.URLParam(r, "chapterID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid chapter ID")
		return
	}

	outcome, err := s.repairSvc.RepairChapter(chapterID)
	if err != nil {
		if errors.Is(err, store.ErrChapterNotFound) {
			RespondWithError(w, http.StatusNotFound, "Chapter not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Repair failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

// handleRepairAll runs the repair flow over every chapter flagged broken.
func (s *Server) handleRepairAll(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.repairSvc.RepairAllBroken()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Repair run failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"outcomes": outcomes})
}
