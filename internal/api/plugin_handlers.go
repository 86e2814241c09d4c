package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// handleListPlugins lists every loaded plugin plus files that failed to
// load, so a broken script is visible instead of silently missing.
func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"plugins": s.loader.ListInstalled(),
		"failed":  s.loader.FailedPlugins(),
	})
}

// handleReloadPlugin re-reads a plugin's file from disk.
func (s *Server) handleReloadPlugin(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "pluginID")
	if pluginID == "" {
		RespondWithError(w, http.StatusBadRequest, "Plugin ID is required")
		return
	}

	if err := s.loader.ReloadPlugin(pluginID); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to reload plugin: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// handleUninstallPlugin unloads a plugin, removes its file, and clears
// its catalog and install tracking.
func (s *Server) handleUninstallPlugin(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "pluginID")
	if pluginID == "" {
		RespondWithError(w, http.StatusBadRequest, "Plugin ID is required")
		return
	}

	pluginPath, ok := s.loader.PluginFile(pluginID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Plugin not found")
		return
	}

	if err := s.loader.UnloadPlugin(pluginID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to unload plugin: %v", err))
		return
	}
	if err := os.Remove(pluginPath); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove plugin file: %v", err))
		return
	}
	if err := s.store.DeleteCatalog(pluginID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove catalog: %v", err))
		return
	}
	if err := s.store.DeleteInstalledPlugin(pluginID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove install record: %v", err))
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "uninstalled"})
}
