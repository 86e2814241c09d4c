package plugins

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
)

// loadedPlugin pairs a plugin's extracted metadata with its runtime and
// the file it was loaded from.
type loadedPlugin struct {
	info    models.SourceInfo
	path    string
	runtime *PluginRuntime
}

// Loader resolves installed plugins from the plugins directory,
// validates their code, and registers runtime-usable source handles.
type Loader struct {
	pluginDir     string
	st            *store.Store
	mu            sync.RWMutex
	loaded        map[string]*loadedPlugin
	failedPlugins map[string]string // plugin path -> error message
}

// NewLoader creates a plugin loader. The store may be nil in tests that
// don't exercise catalog tracking.
func NewLoader(st *store.Store, pluginDir string) *Loader {
	return &Loader{
		pluginDir:     pluginDir,
		st:            st,
		loaded:        make(map[string]*loadedPlugin),
		failedPlugins: make(map[string]string),
	}
}

// LoadInstalled scans the plugins directory and loads every .js file
// that passes validation. Malformed plugins are logged and skipped,
// never fatal to the rest of the directory.
func (l *Loader) LoadInstalled() (map[string]models.SourceInfo, error) {
	if err := os.MkdirAll(l.pluginDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plugins directory: %w", err)
	}

	entries, err := os.ReadDir(l.pluginDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	installed := make(map[string]models.SourceInfo)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".js") {
			continue
		}
		// Skip hidden files and staged backups
		if entry.Name()[0] == '.' {
			continue
		}

		pluginPath := filepath.Join(l.pluginDir, entry.Name())
		info, err := l.loadFile(pluginPath)
		if err != nil {
			log.Printf("Failed to load plugin %s: %v", entry.Name(), err)
			l.mu.Lock()
			l.failedPlugins[pluginPath] = err.Error()
			l.mu.Unlock()
			continue
		}
		installed[info.ID] = info
	}

	log.Printf("Loaded %d plugin(s) from %s", len(installed), l.pluginDir)
	return installed, nil
}

// loadFile validates, extracts metadata from, and creates a runtime for
// a single plugin file, then registers it as a catalog source.
func (l *Loader) loadFile(pluginPath string) (models.SourceInfo, error) {
	data, err := os.ReadFile(pluginPath)
	if err != nil {
		return models.SourceInfo{}, fmt.Errorf("failed to read plugin file: %w", err)
	}
	code := string(data)

	if err := ValidateScript(code); err != nil {
		return models.SourceInfo{}, err
	}

	info := ExtractMetadata(code)
	if info.ID == "" {
		// Fall back to the file name as a stable identifier.
		info.ID = strings.TrimSuffix(filepath.Base(pluginPath), ".js")
	}
	if info.Name == "" {
		info.Name = info.ID
	}

	runtime, err := NewPluginRuntime(info, code)
	if err != nil {
		return models.SourceInfo{}, err
	}

	l.mu.Lock()
	l.loaded[info.ID] = &loadedPlugin{info: info, path: pluginPath, runtime: runtime}
	delete(l.failedPlugins, pluginPath)
	l.mu.Unlock()

	source.Register(NewSourceAdapter(runtime))

	if l.st != nil {
		if _, err := l.st.UpsertCatalog(info.ID, info.Name, info.Site, info.Language); err != nil {
			log.Printf("Warning: failed to track catalog for plugin %s: %v", info.ID, err)
		}
	}

	return info, nil
}

// PluginFile returns the path of the live file backing a loaded plugin.
func (l *Loader) PluginFile(pluginID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.loaded[pluginID]; ok {
		return p.path, true
	}
	return "", false
}

// Metadata returns the extracted metadata for a loaded plugin.
func (l *Loader) Metadata(pluginID string) (models.SourceInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.loaded[pluginID]; ok {
		return p.info, true
	}
	return models.SourceInfo{}, false
}

// ListInstalled returns metadata for every loaded plugin.
func (l *Loader) ListInstalled() []models.SourceInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	infos := make([]models.SourceInfo, 0, len(l.loaded))
	for _, p := range l.loaded {
		infos = append(infos, p.info)
	}
	return infos
}

// ReloadPlugin re-reads a plugin's file and replaces its runtime.
// Malformed code fails into the error log; the previous runtime stays
// registered so a bad reload never takes a working source down.
func (l *Loader) ReloadPlugin(pluginID string) error {
	l.mu.RLock()
	p, ok := l.loaded[pluginID]
	l.mu.RUnlock()

	pluginPath := ""
	if ok {
		pluginPath = p.path
	} else {
		// Plugin was never loaded; try the conventional file name.
		pluginPath = filepath.Join(l.pluginDir, pluginID+".js")
		if _, err := os.Stat(pluginPath); err != nil {
			return fmt.Errorf("plugin %s not found", pluginID)
		}
	}

	if _, err := l.loadFile(pluginPath); err != nil {
		log.Printf("Failed to reload plugin %s: %v", pluginID, err)
		return err
	}
	log.Printf("Reloaded plugin: %s", pluginID)
	return nil
}

// UnloadPlugin removes a plugin's runtime and source registration.
// The file on disk is untouched.
func (l *Loader) UnloadPlugin(pluginID string) error {
	l.mu.Lock()
	_, ok := l.loaded[pluginID]
	if ok {
		delete(l.loaded, pluginID)
	}
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("plugin %s is not loaded", pluginID)
	}
	source.Unregister(pluginID)
	return nil
}

// FailedPlugins returns the plugin paths that failed to load, with the
// error messages recorded for them.
func (l *Loader) FailedPlugins() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	failed := make(map[string]string, len(l.failedPlugins))
	for path, msg := range l.failedPlugins {
		failed[path] = msg
	}
	return failed
}

// PluginDir returns the directory plugins are installed in.
func (l *Loader) PluginDir() string {
	return l.pluginDir
}
