package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quillreads/quill-go/internal/api"
	"github.com/quillreads/quill-go/internal/config"
	"github.com/quillreads/quill-go/internal/core"
	"github.com/quillreads/quill-go/internal/plugins"
	"github.com/quillreads/quill-go/internal/store"
	"github.com/quillreads/quill-go/internal/testutil"
	"github.com/quillreads/quill-go/internal/websocket"
)

func setupTestServer(t *testing.T) (*api.Server, *core.App) {
	t.Helper()
	database := testutil.SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Database.Path = ":memory:"
	cfg.Plugins.Path = t.TempDir()
	cfg.Backup.Path = t.TempDir()
	app := core.NewWith(cfg, database)

	st := store.New(database)
	loader := plugins.NewLoader(st, cfg.Plugins.Path)
	manager := plugins.NewUpdateManager(plugins.NewUpdateChecker(st, loader), nil, nil)

	hub := websocket.NewHub()
	go hub.Run()

	return api.NewServer(app, loader, manager, hub), app
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestRepositoryCRUD(t *testing.T) {
	server, _ := setupTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	// Create
	payload := bytes.NewBufferString(`{"url": "https://repo.example/manifest.json", "name": "Example Repo"}`)
	resp, err := http.Post(ts.URL+"/api/repositories", "application/json", payload)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created struct {
		ID      int64  `json:"ID"`
		URL     string `json:"URL"`
		Enabled bool   `json:"Enabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.URL != "https://repo.example/manifest.json" || !created.Enabled {
		t.Errorf("unexpected repository: %+v", created)
	}

	// List
	resp, err = http.Get(ts.URL + "/api/repositories")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listed []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 repository, got %d", len(listed))
	}

	// Disable
	toggle := bytes.NewBufferString(`{"enabled": false}`)
	resp, err = http.Post(fmt.Sprintf("%s/api/repositories/%d/toggle", ts.URL, created.ID), "application/json", toggle)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}

	// Delete
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/repositories/%d", ts.URL, created.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
}

func TestGetMissingBook(t *testing.T) {
	server, _ := setupTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/books/999")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
