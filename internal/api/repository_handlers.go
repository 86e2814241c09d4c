package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListRepositories lists all plugin repositories.
func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repositories, err := s.store.GetAllRepositories()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list repositories: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, repositories)
}

// handleCreateRepository registers a new plugin repository.
func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		RespondWithError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if req.Name == "" {
		req.Name = req.URL
	}

	repo, err := s.store.CreateRepository(req.URL, req.Name)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create repository: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusCreated, repo)
}

// handleToggleRepository enables or disables a repository.
func (s *Server) handleToggleRepository(w http.ResponseWriter, r *http.Request) {
	repoID, err := strconv.ParseInt(chi.URLParam(r, "repositoryID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid repository ID")
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.store.SetRepositoryEnabled(repoID, req.Enabled); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update repository: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// handleDeleteRepository removes a repository.
func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	repoID, err := strconv.ParseInt(chi.URLParam(r, "repositoryID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid repository ID")
		return
	}

	if err := s.store.DeleteRepository(repoID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete repository: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
