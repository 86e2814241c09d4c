// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quillreads/quill-go/internal/backup"
	"github.com/quillreads/quill-go/internal/core"
	"github.com/quillreads/quill-go/internal/migration"
	"github.com/quillreads/quill-go/internal/plugins"
	"github.com/quillreads/quill-go/internal/repair"
	"github.com/quillreads/quill-go/internal/store"
	"github.com/quillreads/quill-go/internal/websocket"
)

// Server holds the dependencies for our API.
type Server struct {
	app        *core.App
	store      *store.Store
	loader     *plugins.Loader
	manager    *plugins.UpdateManager
	repairSvc  *repair.Service
	migration  *migration.Service
	comparator *migration.Comparator
	backupSvc  *backup.Service
	hub        *websocket.Hub
}

// NewServer creates a new Server instance wiring the subsystem services
// over the shared store.
func NewServer(app *core.App, loader *plugins.Loader, manager *plugins.UpdateManager, hub *websocket.Hub) *Server {
	st := store.New(app.DB())
	cfg := app.Config()
	return &Server{
		app:        app,
		store:      st,
		loader:     loader,
		manager:    manager,
		repairSvc:  repair.NewService(st),
		migration:  migration.NewService(st),
		comparator: migration.NewComparator(st),
		backupSvc:  backup.NewService(cfg.Database.Path, cfg.Plugins.Path, cfg.Backup.Path),
		hub:        hub,
	}
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/health", s.handleHealth)

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(s.hub, w, req)
	})

	r.Route("/api", func(r chi.Router) {
		// Plugin routes
		r.Get("/plugins", s.handleListPlugins)
		r.Post("/plugins/{pluginID}/reload", s.handleReloadPlugin)
		r.Delete("/plugins/{pluginID}", s.handleUninstallPlugin)

		// Repository routes
		r.Get("/repositories", s.handleListRepositories)
		r.Post("/repositories", s.handleCreateRepository)
		r.Post("/repositories/{repositoryID}/toggle", s.handleToggleRepository)
		r.Delete("/repositories/{repositoryID}", s.handleDeleteRepository)

		// Update routes
		r.Get("/updates", s.handleListUpdates)
		r.Post("/updates/check", s.handleCheckUpdates)
		r.Post("/updates/install/{pluginID}", s.handleInstallUpdate)
		r.Post("/updates/install-all", s.handleInstallAllUpdates)
		r.Post("/updates/rollback/{pluginID}", s.handleRollbackUpdate)
		r.Post("/updates/auto", s.handleSetAutoUpdate)

		// Book routes
		r.Get("/books", s.handleListBooks)
		r.Get("/books/{bookID}", s.handleGetBook)
		r.Post("/books/{bookID}/thumbnail", s.handleRefreshThumbnail)

		// Repair routes
		r.Post("/chapters/{chapterID}/check", s.handleCheckChapter)
		r.Post("/chapters/{chapterID}/repair", s.handleRepairChapter)
		r.Post("/repair/all", s.handleRepairAll)

		// Comparison and migration routes
		r.Get("/books/{bookID}/comparison", s.handleGetComparison)
		r.Post("/books/{bookID}/comparison/dismiss", s.handleDismissComparison)
		r.Post("/books/{bookID}/migrate", s.handleMigrateBook)

		// Backup routes
		r.Post("/backup/export", s.handleExportBackup)
		r.Post("/backup/import", s.handleImportBackup)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"plugins": len(s.loader.ListInstalled()),
	})
}
