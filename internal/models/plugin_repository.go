package models

// RepositoryPlugin represents a plugin listed in a repository manifest.
// Parsing is lenient: unknown fields are ignored.
type RepositoryPlugin struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	URL       string `json:"url"`
	Changelog string `json:"changelog,omitempty"`
	Checksum  string `json:"checksum,omitempty"` // optional blake2b-256 hex digest of the script
}

// RepositoryManifest represents the repository manifest JSON structure.
type RepositoryManifest struct {
	Plugins []RepositoryPlugin `json:"plugins"`
}

// PluginUpdate describes a newer plugin version found during an update
// check. It is ephemeral: computed per check cycle, never persisted.
type PluginUpdate struct {
	PluginID       string `json:"plugin_id"`
	Name           string `json:"name"`
	CurrentVersion string `json:"current_version"`
	NewVersion     string `json:"new_version"`
	DownloadURL    string `json:"download_url"`
	Changelog      string `json:"changelog,omitempty"`
	Checksum       string `json:"checksum,omitempty"`
}
