package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// handleExportBackup writes a backup archive and returns its path.
func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	archivePath, err := s.backupSvc.Export(r.Context())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Backup failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"path": archivePath})
}

// handleImportBackup restores plugins from a backup archive on disk.
func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		RespondWithError(w, http.StatusBadRequest, "Archive path is required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		RespondWithError(w, http.StatusNotFound, "Archive not found")
		return
	}

	if err := s.backupSvc.Import(r.Context(), req.Path); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Restore failed: %v", err))
		return
	}

	// Plugin files may have changed on disk; pick them up.
	if _, err := s.loader.LoadInstalled(); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Restore succeeded but reload failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
