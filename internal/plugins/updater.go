package plugins

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/store"
)

const manifestTimeout = 30 * time.Second

// UpdateChecker queries plugin repositories for newer plugin versions
// and performs downloads and installs.
type UpdateChecker struct {
	st     *store.Store
	loader *Loader
	client *http.Client

	// One mutex per plugin so concurrent installs of different plugins
	// don't serialize, but two installs of the same plugin do.
	installMu sync.Mutex
	installs  map[string]*sync.Mutex
}

// NewUpdateChecker creates an update checker over the given loader and
// store.
func NewUpdateChecker(st *store.Store, loader *Loader) *UpdateChecker {
	return &UpdateChecker{
		st:       st,
		loader:   loader,
		client:   &http.Client{Timeout: manifestTimeout},
		installs: make(map[string]*sync.Mutex),
	}
}

func (u *UpdateChecker) pluginLock(pluginID string) *sync.Mutex {
	u.installMu.Lock()
	defer u.installMu.Unlock()
	mu, ok := u.installs[pluginID]
	if !ok {
		mu = &sync.Mutex{}
		u.installs[pluginID] = mu
	}
	return mu
}

// CheckForUpdates fetches every enabled repository manifest and returns
// the plugins that have a newer version than the installed one. A
// repository that fails to respond is logged and skipped; one broken
// repository never hides updates from the others.
func (u *UpdateChecker) CheckForUpdates(ctx context.Context) ([]models.PluginUpdate, error) {
	repos, err := u.st.GetEnabledRepositories()
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	var updates []models.PluginUpdate
	for _, repo := range repos {
		manifest, err := u.fetchManifest(ctx, repo.URL)
		if err != nil {
			log.Printf("Failed to check repository %s (%s): %v", repo.Name, repo.URL, err)
			continue
		}

		for _, remote := range manifest.Plugins {
			if remote.ID == "" || remote.URL == "" {
				continue
			}
			if remote.Version != "" && !IsValidVersion(remote.Version) {
				log.Printf("Repository %s lists plugin %s with malformed version %q, skipping", repo.Name, remote.ID, remote.Version)
				continue
			}

			installed, err := u.st.GetInstalledPlugin(remote.ID)
			if err == sql.ErrNoRows {
				continue // not installed, nothing to update
			}
			if err != nil {
				return nil, fmt.Errorf("failed to look up installed plugin %s: %w", remote.ID, err)
			}

			if IsNewerVersion(installed.InstalledVersion, remote.Version) {
				updates = append(updates, models.PluginUpdate{
					PluginID:       remote.ID,
					Name:           remote.Name,
					CurrentVersion: installed.InstalledVersion,
					NewVersion:     remote.Version,
					DownloadURL:    remote.URL,
					Changelog:      remote.Changelog,
					Checksum:       remote.Checksum,
				})
			}
		}
	}

	return updates, nil
}

// fetchManifest downloads and parses a repository manifest.
func (u *UpdateChecker) fetchManifest(ctx context.Context, url string) (*models.RepositoryManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("repository returned status %d", resp.StatusCode)
	}

	var manifest models.RepositoryManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// DownloadUpdate fetches the new plugin code, validates it, verifies
// its checksum when the manifest provides one, and stages it next to
// the plugins directory. The live file is untouched until
// InstallUpdate.
func (u *UpdateChecker) DownloadUpdate(ctx context.Context, update models.PluginUpdate) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, update.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download plugin %s: %w", update.PluginID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of plugin %s returned status %d", update.PluginID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read plugin %s: %w", update.PluginID, err)
	}

	if err := ValidateScript(string(body)); err != nil {
		return "", fmt.Errorf("downloaded plugin %s is invalid: %w", update.PluginID, err)
	}

	if update.Checksum != "" {
		sum := blake2b.Sum256(body)
		if hex.EncodeToString(sum[:]) != update.Checksum {
			return "", fmt.Errorf("checksum mismatch for plugin %s", update.PluginID)
		}
	}

	stagedPath := filepath.Join(os.TempDir(), fmt.Sprintf("plugin_%s_%d.js", update.PluginID, time.Now().Unix()))
	if err := os.WriteFile(stagedPath, body, 0644); err != nil {
		return "", fmt.Errorf("failed to stage plugin %s: %w", update.PluginID, err)
	}
	return stagedPath, nil
}

// InstallUpdate swaps the staged file into place. The live file is
// copied to a .backup sibling first; if the reload of the new code
// fails, the backup is restored and the old runtime kept. The staged
// file is removed in all cases.
func (u *UpdateChecker) InstallUpdate(update models.PluginUpdate, stagedPath string) error {
	mu := u.pluginLock(update.PluginID)
	mu.Lock()
	defer mu.Unlock()
	defer os.Remove(stagedPath)

	livePath, ok := u.loader.PluginFile(update.PluginID)
	if !ok {
		livePath = filepath.Join(u.loader.PluginDir(), update.PluginID+".js")
	}
	backupPath := livePath + ".backup"

	hadLive := false
	if _, err := os.Stat(livePath); err == nil {
		hadLive = true
		if err := copyFile(livePath, backupPath); err != nil {
			return fmt.Errorf("failed to back up plugin %s: %w", update.PluginID, err)
		}
	}

	if err := copyFile(stagedPath, livePath); err != nil {
		// The overwrite truncates before writing, so a failure here may
		// have corrupted the live file. Put the backup copy back before
		// discarding it; if even the restore fails, keep the backup.
		if hadLive {
			if restoreErr := copyFile(backupPath, livePath); restoreErr != nil {
				log.Printf("Failed to restore backup for plugin %s: %v", update.PluginID, restoreErr)
			} else {
				os.Remove(backupPath)
			}
		}
		return fmt.Errorf("failed to install plugin %s: %w", update.PluginID, err)
	}

	if err := u.loader.ReloadPlugin(update.PluginID); err != nil {
		if hadLive {
			if restoreErr := copyFile(backupPath, livePath); restoreErr != nil {
				log.Printf("Failed to restore backup for plugin %s: %v", update.PluginID, restoreErr)
			} else if reloadErr := u.loader.ReloadPlugin(update.PluginID); reloadErr != nil {
				log.Printf("Failed to reload restored plugin %s: %v", update.PluginID, reloadErr)
			}
			os.Remove(backupPath)
		}
		return fmt.Errorf("new version of plugin %s failed to load: %w", update.PluginID, err)
	}

	if hadLive {
		os.Remove(backupPath)
	}

	installed, err := u.st.GetInstalledPlugin(update.PluginID)
	repoID := sql.NullInt64{}
	if err == nil {
		repoID = installed.RepositoryID
	}
	if err := u.st.CreateOrUpdateInstalledPlugin(update.PluginID, repoID, update.NewVersion); err != nil {
		return fmt.Errorf("failed to record installed version of plugin %s: %w", update.PluginID, err)
	}

	log.Printf("Installed plugin %s %s -> %s", update.PluginID, update.CurrentVersion, update.NewVersion)
	return nil
}

// RollbackUpdate restores a plugin's .backup file if one survived a
// failed install. Returns ErrNoBackup when there is nothing to restore.
func (u *UpdateChecker) RollbackUpdate(pluginID string) error {
	mu := u.pluginLock(pluginID)
	mu.Lock()
	defer mu.Unlock()

	livePath, ok := u.loader.PluginFile(pluginID)
	if !ok {
		livePath = filepath.Join(u.loader.PluginDir(), pluginID+".js")
	}
	backupPath := livePath + ".backup"

	if _, err := os.Stat(backupPath); err != nil {
		return ErrNoBackup
	}

	if err := copyFile(backupPath, livePath); err != nil {
		return fmt.Errorf("failed to restore plugin %s: %w", pluginID, err)
	}
	os.Remove(backupPath)

	if err := u.loader.ReloadPlugin(pluginID); err != nil {
		return fmt.Errorf("restored plugin %s failed to load: %w", pluginID, err)
	}
	log.Printf("Rolled back plugin %s", pluginID)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
