package plugins

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quillreads/quill-go/internal/models"
)

// Scheduler runs a function on a fixed interval. Implemented by
// jobs.Scheduler in production; tests substitute a manual trigger.
type Scheduler interface {
	Every(interval time.Duration, name string, task func()) error
	Remove(name string) error
}

// Notifier broadcasts update events to connected clients. Implemented
// by the websocket hub; a nil Notifier disables notifications.
type Notifier interface {
	NotifyUpdatesAvailable(updates []models.PluginUpdate)
	NotifyUpdateInstalled(pluginID, version string)
}

const autoUpdateJob = "plugin-auto-update"

// UpdateManager coordinates periodic update checks and installs. The
// list of pending updates is owned here, guarded by a mutex, and
// replaced wholesale on every check.
type UpdateManager struct {
	checker   *UpdateChecker
	scheduler Scheduler
	notifier  Notifier

	mu               sync.Mutex
	availableUpdates []models.PluginUpdate
	lastCheckTime    time.Time
	autoUpdate       bool
}

// NewUpdateManager creates an update manager. scheduler and notifier
// may be nil when periodic checks or notifications aren't wanted.
func NewUpdateManager(checker *UpdateChecker, scheduler Scheduler, notifier Notifier) *UpdateManager {
	return &UpdateManager{
		checker:   checker,
		scheduler: scheduler,
		notifier:  notifier,
	}
}

// EnableAutoUpdate schedules a periodic update check. Calling it again
// with a new interval replaces the existing schedule.
func (m *UpdateManager) EnableAutoUpdate(interval time.Duration) error {
	if m.scheduler == nil {
		return fmt.Errorf("no scheduler configured")
	}

	m.mu.Lock()
	if m.autoUpdate {
		m.mu.Unlock()
		if err := m.scheduler.Remove(autoUpdateJob); err != nil {
			return err
		}
		m.mu.Lock()
	}
	m.autoUpdate = true
	m.mu.Unlock()

	return m.scheduler.Every(interval, autoUpdateJob, func() {
		if _, err := m.CheckForUpdates(context.Background(), true); err != nil {
			log.Printf("Scheduled update check failed: %v", err)
		}
	})
}

// DisableAutoUpdate removes the periodic update check.
func (m *UpdateManager) DisableAutoUpdate() error {
	m.mu.Lock()
	wasEnabled := m.autoUpdate
	m.autoUpdate = false
	m.mu.Unlock()

	if !wasEnabled || m.scheduler == nil {
		return nil
	}
	return m.scheduler.Remove(autoUpdateJob)
}

// AutoUpdateEnabled reports whether periodic checks are scheduled.
func (m *UpdateManager) AutoUpdateEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoUpdate
}

// CheckForUpdates runs an update check and replaces the pending update
// list. When showNotification is set and updates exist, connected
// clients are notified.
func (m *UpdateManager) CheckForUpdates(ctx context.Context, showNotification bool) ([]models.PluginUpdate, error) {
	updates, err := m.checker.CheckForUpdates(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.availableUpdates = updates
	m.lastCheckTime = time.Now()
	m.mu.Unlock()

	if showNotification && len(updates) > 0 && m.notifier != nil {
		m.notifier.NotifyUpdatesAvailable(updates)
	}

	log.Printf("Update check complete: %d update(s) available", len(updates))
	return updates, nil
}

// AvailableUpdates returns a copy of the pending update list and when
// it was computed.
func (m *UpdateManager) AvailableUpdates() ([]models.PluginUpdate, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updates := make([]models.PluginUpdate, len(m.availableUpdates))
	copy(updates, m.availableUpdates)
	return updates, m.lastCheckTime
}

// InstallUpdate downloads and installs the pending update for one
// plugin. Returns false when no update is pending for it.
func (m *UpdateManager) InstallUpdate(ctx context.Context, pluginID string) (bool, error) {
	m.mu.Lock()
	var update *models.PluginUpdate
	for i := range m.availableUpdates {
		if m.availableUpdates[i].PluginID == pluginID {
			u := m.availableUpdates[i]
			update = &u
			break
		}
	}
	m.mu.Unlock()

	if update == nil {
		return false, nil
	}

	stagedPath, err := m.checker.DownloadUpdate(ctx, *update)
	if err != nil {
		return false, err
	}
	if err := m.checker.InstallUpdate(*update, stagedPath); err != nil {
		return false, err
	}

	remaining := m.removePending(pluginID)
	if m.notifier != nil {
		m.notifier.NotifyUpdateInstalled(pluginID, update.NewVersion)
		// Refresh the availability notification so clients see the list
		// shrink; an empty list clears it.
		m.notifier.NotifyUpdatesAvailable(remaining)
	}
	return true, nil
}

// InstallAllUpdates installs every pending update and returns a
// per-plugin result. One plugin's failure doesn't stop the rest.
func (m *UpdateManager) InstallAllUpdates(ctx context.Context) map[string]error {
	m.mu.Lock()
	pending := make([]models.PluginUpdate, len(m.availableUpdates))
	copy(pending, m.availableUpdates)
	m.mu.Unlock()

	results := make(map[string]error, len(pending))
	for _, update := range pending {
		stagedPath, err := m.checker.DownloadUpdate(ctx, update)
		if err != nil {
			results[update.PluginID] = err
			continue
		}
		if err := m.checker.InstallUpdate(update, stagedPath); err != nil {
			results[update.PluginID] = err
			continue
		}
		results[update.PluginID] = nil
		remaining := m.removePending(update.PluginID)
		if m.notifier != nil {
			m.notifier.NotifyUpdateInstalled(update.PluginID, update.NewVersion)
			m.notifier.NotifyUpdatesAvailable(remaining)
		}
	}
	return results
}

// RollbackUpdate restores a plugin's backup, if one exists.
func (m *UpdateManager) RollbackUpdate(pluginID string) error {
	return m.checker.RollbackUpdate(pluginID)
}

// removePending drops a plugin from the pending list and returns a copy
// of what remains.
func (m *UpdateManager) removePending(pluginID string) []models.PluginUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.availableUpdates[:0]
	for _, u := range m.availableUpdates {
		if u.PluginID != pluginID {
			kept = append(kept, u)
		}
	}
	m.availableUpdates = kept
	remaining := make([]models.PluginUpdate, len(kept))
	copy(remaining, kept)
	return remaining
}
