package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillreads/quill-go/internal/api"
	"github.com/quillreads/quill-go/internal/core"
	"github.com/quillreads/quill-go/internal/jobs"
	"github.com/quillreads/quill-go/internal/plugins"
	"github.com/quillreads/quill-go/internal/store"
	"github.com/quillreads/quill-go/internal/websocket"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	st := store.New(app.DB())
	cfg := app.Config()

	// Load installed plugins and track their versions so update checks
	// have something to compare against.
	loader := plugins.NewLoader(st, cfg.Plugins.Path)
	installed, err := loader.LoadInstalled()
	if err != nil {
		log.Fatalf("Could not load plugins: %v", err)
	}
	for id, info := range installed {
		if err := st.CreateOrUpdateInstalledPlugin(id, sql.NullInt64{}, info.Version); err != nil {
			log.Printf("Warning: failed to track installed plugin %s: %v", id, err)
		}
	}

	// Websocket hub for pushing update notifications to clients.
	hub := websocket.NewHub()
	go hub.Run()

	scheduler := jobs.NewScheduler()
	defer scheduler.Stop()

	checker := plugins.NewUpdateChecker(st, loader)
	manager := plugins.NewUpdateManager(checker, scheduler, websocket.NewNotifier(hub))

	if cfg.Plugins.AutoUpdate {
		interval := time.Duration(cfg.Plugins.UpdateIntervalHours) * time.Hour
		if err := manager.EnableAutoUpdate(interval); err != nil {
			log.Printf("Warning: could not enable auto-update: %v", err)
		}
	}

	// Watch the plugin directory so edited scripts reload live.
	if cfg.Plugins.WatchDir {
		watcher, err := plugins.NewWatcher(loader)
		if err != nil {
			log.Printf("Warning: could not watch plugin directory: %v", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Setup the API server
	server := api.NewServer(app, loader, manager, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
