package plugins

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 2 * time.Second

// Watcher reloads plugins when their files change on disk, so editing
// a script takes effect without a restart. Events are debounced per
// file because editors fire several writes per save.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over the loader's plugin directory.
func NewWatcher(loader *Loader) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(loader.PluginDir()); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &Watcher{
		loader:  loader,
		watcher: fsWatcher,
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Start processes filesystem events until Stop is called.
func (w *Watcher) Start() {
	go w.run()
	log.Printf("Watching plugin directory: %s", w.loader.PluginDir())
}

// Stop closes the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Plugin watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".backup") || name[0] == '.' {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	pluginID := strings.TrimSuffix(name, ".js")

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[pluginID]; ok {
		timer.Stop()
	}
	w.timers[pluginID] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, pluginID)
		w.mu.Unlock()

		if err := w.loader.ReloadPlugin(pluginID); err != nil {
			log.Printf("Failed to reload changed plugin %s: %v", pluginID, err)
		}
	})
}
