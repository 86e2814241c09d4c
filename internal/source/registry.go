package source

import (
	"sync"

	"github.com/quillreads/quill-go/internal/models"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]models.Source)
)

// Register adds a source to the registry, replacing any previous source
// with the same ID. Plugins are reloaded at runtime, so unlike a static
// provider set, re-registration is normal here.
func Register(s models.Source) {
	info := s.GetInfo()
	mu.Lock()
	defer mu.Unlock()
	registry[info.ID] = s
}

// Unregister removes a source by its ID.
func Unregister(id string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, id)
}

// Get returns a source by its ID.
func Get(id string) (models.Source, bool) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[id]
	return s, ok
}

// All returns information for all registered sources.
func All() []models.SourceInfo {
	mu.RLock()
	defer mu.RUnlock()
	var infos []models.SourceInfo
	for _, s := range registry {
		infos = append(infos, s.GetInfo())
	}
	return infos
}
