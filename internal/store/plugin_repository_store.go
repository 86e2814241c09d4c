package store

import (
	"database/sql"
	"time"
)

// PluginRepository represents a plugin repository in the database.
type PluginRepository struct {
	ID        int64
	URL       string
	Name      string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InstalledPlugin represents an installed plugin tracking entry.
type InstalledPlugin struct {
	ID               int64
	PluginID         string
	RepositoryID     sql.NullInt64
	InstalledVersion string
	InstalledAt      time.Time
	UpdatedAt        time.Time
}

// GetAllRepositories returns all plugin repositories.
func (s *Store) GetAllRepositories() ([]*PluginRepository, error) {
	return s.queryRepositories(`
		SELECT id, url, name, enabled, created_at, updated_at
		FROM plugin_repositories
		ORDER BY created_at ASC
	`)
}

// GetEnabledRepositories returns only the repositories that are checked
// during an update cycle.
func (s *Store) GetEnabledRepositories() ([]*PluginRepository, error) {
	return s.queryRepositories(`
		SELECT id, url, name, enabled, created_at, updated_at
		FROM plugin_repositories
		WHERE enabled = 1
		ORDER BY created_at ASC
	`)
}

func (s *Store) queryRepositories(query string) ([]*PluginRepository, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repositories []*PluginRepository
	for rows.Next() {
		var repo PluginRepository
		err := rows.Scan(
			&repo.ID,
			&repo.URL,
			&repo.Name,
			&repo.Enabled,
			&repo.CreatedAt,
			&repo.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		repositories = append(repositories, &repo)
	}

	return repositories, rows.Err()
}

// GetRepositoryByID returns a repository by ID.
func (s *Store) GetRepositoryByID(id int64) (*PluginRepository, error) {
	var repo PluginRepository
	err := s.db.QueryRow(`
		SELECT id, url, name, enabled, created_at, updated_at
		FROM plugin_repositories
		WHERE id = ?
	`, id).Scan(
		&repo.ID,
		&repo.URL,
		&repo.Name,
		&repo.Enabled,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// CreateRepository creates a new plugin repository.
func (s *Store) CreateRepository(url, name string) (*PluginRepository, error) {
	result, err := s.db.Exec(`
		INSERT INTO plugin_repositories (url, name, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, url, name)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetRepositoryByID(id)
}

// SetRepositoryEnabled toggles whether a repository is consulted during
// update checks.
func (s *Store) SetRepositoryEnabled(id int64, enabled bool) error {
	_, err := s.db.Exec(`
		UPDATE plugin_repositories
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, enabled, id)
	return err
}

// DeleteRepository deletes a repository.
func (s *Store) DeleteRepository(id int64) error {
	_, err := s.db.Exec(`DELETE FROM plugin_repositories WHERE id = ?`, id)
	return err
}

// GetInstalledPlugin returns an installed plugin entry by plugin ID.
func (s *Store) GetInstalledPlugin(pluginID string) (*InstalledPlugin, error) {
	var installed InstalledPlugin
	err := s.db.QueryRow(`
		SELECT id, plugin_id, repository_id, installed_version, installed_at, updated_at
		FROM installed_plugins
		WHERE plugin_id = ?
	`, pluginID).Scan(
		&installed.ID,
		&installed.PluginID,
		&installed.RepositoryID,
		&installed.InstalledVersion,
		&installed.InstalledAt,
		&installed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &installed, nil
}

// CreateOrUpdateInstalledPlugin creates or updates an installed plugin entry.
func (s *Store) CreateOrUpdateInstalledPlugin(pluginID string, repositoryID sql.NullInt64, version string) error {
	// Check if plugin already exists
	existing, err := s.GetInstalledPlugin(pluginID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if existing != nil {
		// Update existing entry
		_, err = s.db.Exec(`
			UPDATE installed_plugins
			SET repository_id = ?, installed_version = ?, updated_at = CURRENT_TIMESTAMP
			WHERE plugin_id = ?
		`, repositoryID, version, pluginID)
		return err
	}

	// Insert new entry
	_, err = s.db.Exec(`
		INSERT INTO installed_plugins (plugin_id, repository_id, installed_version, installed_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, pluginID, repositoryID, version)
	return err
}

// DeleteInstalledPlugin deletes an installed plugin entry.
func (s *Store) DeleteInstalledPlugin(pluginID string) error {
	_, err := s.db.Exec(`DELETE FROM installed_plugins WHERE plugin_id = ?`, pluginID)
	return err
}

// GetAllInstalledPlugins returns all installed plugin entries.
func (s *Store) GetAllInstalledPlugins() ([]*InstalledPlugin, error) {
	rows, err := s.db.Query(`
		SELECT id, plugin_id, repository_id, installed_version, installed_at, updated_at
		FROM installed_plugins
		ORDER BY installed_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installed []*InstalledPlugin
	for rows.Next() {
		var inst InstalledPlugin
		err := rows.Scan(
			&inst.ID,
			&inst.PluginID,
			&inst.RepositoryID,
			&inst.InstalledVersion,
			&inst.InstalledAt,
			&inst.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		installed = append(installed, &inst)
	}

	return installed, rows.Err()
}
