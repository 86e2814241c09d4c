package plugins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
	"github.com/quillreads/quill-go/internal/testutil"
)

const updatedScript = `
	const info = { id: "demo", name: "Demo Source", site: "https://demo.example", version: "1.3.0", lang: "en" };
	exports.search = function(query) { return []; };
	exports.getChapters = function(bookKey) { return []; };
	exports.getChapterContent = function(chapterKey) { return "updated text"; };
`

func setupUpdateTest(t *testing.T) (*store.Store, *Loader, *UpdateChecker, string) {
	t.Helper()
	st := store.New(testutil.SetupTestDB(t))
	dir := t.TempDir()
	writePlugin(t, dir, "demo.js", loadableScript)

	loader := NewLoader(st, dir)
	t.Cleanup(func() { source.Unregister("demo") })
	if _, err := loader.LoadInstalled(); err != nil {
		t.Fatalf("LoadInstalled failed: %v", err)
	}
	if err := st.CreateOrUpdateInstalledPlugin("demo", sql.NullInt64{}, "1.2.9"); err != nil {
		t.Fatalf("failed to track installed plugin: %v", err)
	}

	return st, loader, NewUpdateChecker(st, loader), dir
}

func TestCheckForUpdates(t *testing.T) {
	st, _, checker, _ := setupUpdateTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"plugins": [
			{"id": "demo", "name": "Demo Source", "version": "1.3.0", "url": "https://example.com/demo.js", "changelog": "fixes"},
			{"id": "other", "name": "Not Installed", "version": "9.9.9", "url": "https://example.com/other.js"},
			{"id": "garbage", "name": "Bad Version", "version": "one.two", "url": "https://example.com/garbage.js"}
		]}`)
	}))
	defer server.Close()

	if _, err := st.CreateRepository(server.URL, "test repo"); err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	updates, err := checker.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d: %+v", len(updates), updates)
	}
	u := updates[0]
	if u.PluginID != "demo" || u.CurrentVersion != "1.2.9" || u.NewVersion != "1.3.0" {
		t.Errorf("unexpected update: %+v", u)
	}
}

func TestCheckForUpdatesBadRepositorySkipped(t *testing.T) {
	st, _, checker, _ := setupUpdateTest(t)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"plugins": [{"id": "demo", "name": "Demo", "version": "2.0.0", "url": "https://example.com/demo.js"}]}`)
	}))
	defer good.Close()

	if _, err := st.CreateRepository(bad.URL, "bad repo"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateRepository(good.URL, "good repo"); err != nil {
		t.Fatal(err)
	}

	updates, err := checker.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("the working repository should still be checked, got %d updates", len(updates))
	}
}

func TestDownloadUpdateRejectsInvalidScript(t *testing.T) {
	_, _, checker, _ := setupUpdateTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<!DOCTYPE html><html>404 page</html>")
	}))
	defer server.Close()

	_, err := checker.DownloadUpdate(context.Background(), models.PluginUpdate{
		PluginID: "demo", DownloadURL: server.URL,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInstallUpdateSuccess(t *testing.T) {
	st, loader, checker, _ := setupUpdateTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, updatedScript)
	}))
	defer server.Close()

	update := models.PluginUpdate{
		PluginID: "demo", CurrentVersion: "1.2.9", NewVersion: "1.3.0", DownloadURL: server.URL,
	}
	staged, err := checker.DownloadUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if err := checker.InstallUpdate(update, staged); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	// Version tracking updated.
	installed, err := st.GetInstalledPlugin("demo")
	if err != nil {
		t.Fatalf("failed to read installed plugin: %v", err)
	}
	if installed.InstalledVersion != "1.3.0" {
		t.Errorf("installed version = %q, want 1.3.0", installed.InstalledVersion)
	}

	// New code is live and the backup is gone.
	info, _ := loader.Metadata("demo")
	if info.Version != "1.3.0" {
		t.Errorf("runtime version = %q, want 1.3.0", info.Version)
	}
	livePath, _ := loader.PluginFile("demo")
	if _, err := os.Stat(livePath + ".backup"); !os.IsNotExist(err) {
		t.Error("backup file should be removed after a successful install")
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Error("staged file should be removed after install")
	}
}

func TestInstallUpdateRestoresOnFailure(t *testing.T) {
	_, loader, checker, dir := setupUpdateTest(t)

	// Stage a file that passes download-time validation but cannot load
	// because it misses required exports.
	staged := writePlugin(t, t.TempDir(), "staged.js", `const broken = true;`)

	update := models.PluginUpdate{PluginID: "demo", NewVersion: "1.3.0"}
	if err := checker.InstallUpdate(update, staged); err == nil {
		t.Fatal("expected install of unloadable plugin to fail")
	}

	// The old plugin survives the failed install.
	data, err := os.ReadFile(dir + "/demo.js")
	if err != nil {
		t.Fatalf("live file missing: %v", err)
	}
	if string(data) != loadableScript {
		t.Error("live file should be restored to the previous version")
	}
	info, _ := loader.Metadata("demo")
	if info.Version != "1.0.0" {
		t.Errorf("runtime version = %q, want original 1.0.0", info.Version)
	}
	if _, err := os.Stat(dir + "/demo.js.backup"); !os.IsNotExist(err) {
		t.Error("backup file should be cleaned up after a failed install")
	}
}

func TestInstallUpdateRestoresOnOverwriteFailure(t *testing.T) {
	_, loader, checker, dir := setupUpdateTest(t)

	// A staged file that vanishes before the swap makes the overwrite
	// itself fail. The live file must come out of the failed install
	// with its previous content, restored from the backup.
	staged := writePlugin(t, t.TempDir(), "staged.js", updatedScript)
	if err := os.Remove(staged); err != nil {
		t.Fatal(err)
	}

	update := models.PluginUpdate{PluginID: "demo", NewVersion: "1.3.0"}
	if err := checker.InstallUpdate(update, staged); err == nil {
		t.Fatal("expected install to fail when the staged file is unreadable")
	}

	data, err := os.ReadFile(dir + "/demo.js")
	if err != nil {
		t.Fatalf("live file missing: %v", err)
	}
	if string(data) != loadableScript {
		t.Error("live file should keep its previous content")
	}
	info, _ := loader.Metadata("demo")
	if info.Version != "1.0.0" {
		t.Errorf("runtime version = %q, want original 1.0.0", info.Version)
	}
	if _, err := os.Stat(dir + "/demo.js.backup"); !os.IsNotExist(err) {
		t.Error("backup file should be consumed by the restore")
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	_, _, checker, _ := setupUpdateTest(t)
	if err := checker.RollbackUpdate("demo"); !errors.Is(err, ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}
}
