package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quillreads/quill-go/internal/plugins"
)

// handleListUpdates returns the pending updates from the last check.
func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	updates, lastCheck := s.manager.AvailableUpdates()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"updates":    updates,
		"last_check": lastCheck,
	})
}

// handleCheckUpdates runs an update check against every enabled repository.
func (s *Server) handleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := s.manager.CheckForUpdates(r.Context(), false)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Update check failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"updates": updates})
}

// handleInstallUpdate installs the pending update for one plugin.
func (s *Server) handleInstallUpdate(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "pluginID")
	if pluginID == "" {
		RespondWithError(w, http.StatusBadRequest, "Plugin ID is required")
		return
	}

	installed, err := s.manager.InstallUpdate(r.Context(), pluginID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Install failed: %v", err))
		return
	}
	if !installed {
		RespondWithError(w, http.StatusNotFound, "No pending update for plugin")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "installed"})
}

// handleInstallAllUpdates installs every pending update and reports the
// per-plugin outcome.
func (s *Server) handleInstallAllUpdates(w http.ResponseWriter, r *http.Request) {
	results := s.manager.InstallAllUpdates(r.Context())

	outcome := make(map[string]string, len(results))
	for pluginID, err := range results {
		if err != nil {
			outcome[pluginID] = err.Error()
		} else {
			outcome[pluginID] = "installed"
		}
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": outcome})
}

// handleRollbackUpdate restores a plugin's backup file.
func (s *Server) handleRollbackUpdate(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "pluginID")
	if pluginID == "" {
		RespondWithError(w, http.StatusBadRequest, "Plugin ID is required")
		return
	}

	if err := s.manager.RollbackUpdate(pluginID); err != nil {
		if errors.Is(err, plugins.ErrNoBackup) {
			RespondWithError(w, http.StatusNotFound, "No backup exists for plugin")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Rollback failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "rolled-back"})
}

// handleSetAutoUpdate enables or disables the periodic update check.
func (s *Server) handleSetAutoUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled       bool `json:"enabled"`
		IntervalHours int  `json:"interval_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Enabled {
		if req.IntervalHours <= 0 {
			req.IntervalHours = s.app.Config().Plugins.UpdateIntervalHours
		}
		if err := s.manager.EnableAutoUpdate(time.Duration(req.IntervalHours) * time.Hour); err != nil {
			RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to enable auto-update: %v", err))
			return
		}
	} else {
		if err := s.manager.DisableAutoUpdate(); err != nil {
			RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to disable auto-update: %v", err))
			return
		}
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"auto_update": req.Enabled})
}
