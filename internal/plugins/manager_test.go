package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quillreads/quill-go/internal/models"
)

type fakeScheduler struct {
	mu    sync.Mutex
	jobs  map[string]func()
	calls []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]func())}
}

func (f *fakeScheduler) Every(interval time.Duration, name string, task func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[name] = task
	f.calls = append(f.calls, "every:"+name)
	return nil
}

func (f *fakeScheduler) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, name)
	f.calls = append(f.calls, "remove:"+name)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	available [][]models.PluginUpdate
	installed []string
}

func (f *fakeNotifier) NotifyUpdatesAvailable(updates []models.PluginUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = append(f.available, updates)
}

func (f *fakeNotifier) NotifyUpdateInstalled(pluginID, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed = append(f.installed, pluginID+"@"+version)
}

func TestManagerCheckAndInstall(t *testing.T) {
	st, _, checker, _ := setupUpdateTest(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"plugins": [{"id": "demo", "name": "Demo Source", "version": "1.3.0", "url": "http://%s/demo.js"}]}`, r.Host)
	})
	mux.HandleFunc("/demo.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, updatedScript)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	if _, err := st.CreateRepository(server.URL+"/manifest.json", "test repo"); err != nil {
		t.Fatal(err)
	}

	notifier := &fakeNotifier{}
	manager := NewUpdateManager(checker, newFakeScheduler(), notifier)

	updates, err := manager.CheckForUpdates(context.Background(), true)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if len(notifier.available) != 1 {
		t.Errorf("expected availability notification")
	}

	pending, lastCheck := manager.AvailableUpdates()
	if len(pending) != 1 || lastCheck.IsZero() {
		t.Fatalf("manager should own the pending list, got %d / %v", len(pending), lastCheck)
	}

	installed, err := manager.InstallUpdate(context.Background(), "demo")
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if !installed {
		t.Fatal("expected pending update to be installed")
	}

	// Installed update leaves the pending list.
	pending, _ = manager.AvailableUpdates()
	if len(pending) != 0 {
		t.Errorf("expected empty pending list, got %d", len(pending))
	}
	if len(notifier.installed) != 1 || notifier.installed[0] != "demo@1.3.0" {
		t.Errorf("unexpected install notifications: %v", notifier.installed)
	}
	// The availability notification is refreshed after the install; with
	// nothing left pending, clients get an empty list to clear it.
	if len(notifier.available) != 2 {
		t.Fatalf("expected refreshed availability notification, got %d", len(notifier.available))
	}
	if len(notifier.available[1]) != 0 {
		t.Errorf("expected cleared update list, got %v", notifier.available[1])
	}

	record, err := st.GetInstalledPlugin("demo")
	if err != nil {
		t.Fatal(err)
	}
	if record.InstalledVersion != "1.3.0" {
		t.Errorf("installed version = %q, want 1.3.0", record.InstalledVersion)
	}
}

func TestManagerInstallUpdateNotPending(t *testing.T) {
	_, _, checker, _ := setupUpdateTest(t)
	manager := NewUpdateManager(checker, nil, nil)

	installed, err := manager.InstallUpdate(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if installed {
		t.Error("expected no install without a pending update")
	}
}

func TestManagerAutoUpdateToggle(t *testing.T) {
	_, _, checker, _ := setupUpdateTest(t)
	scheduler := newFakeScheduler()
	manager := NewUpdateManager(checker, scheduler, nil)

	if manager.AutoUpdateEnabled() {
		t.Fatal("auto-update should start disabled")
	}
	if err := manager.EnableAutoUpdate(time.Hour); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !manager.AutoUpdateEnabled() {
		t.Fatal("auto-update should be enabled")
	}
	if _, ok := scheduler.jobs[autoUpdateJob]; !ok {
		t.Fatal("expected job to be scheduled")
	}

	if err := manager.DisableAutoUpdate(); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if manager.AutoUpdateEnabled() {
		t.Fatal("auto-update should be disabled")
	}
	if _, ok := scheduler.jobs[autoUpdateJob]; ok {
		t.Fatal("expected job to be removed")
	}
}
