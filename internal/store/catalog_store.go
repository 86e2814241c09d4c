package store

import (
	"database/sql"
	"errors"

	"github.com/quillreads/quill-go/internal/models"
)

var ErrCatalogNotFound = errors.New("catalog not found")

// UpsertCatalog registers or refreshes the installed representation of a
// source. Store order is assigned on first insert and preserved after.
func (s *Store) UpsertCatalog(sourceID, name, site, language string) (*models.Catalog, error) {
	existing, err := s.GetCatalogBySourceID(sourceID)
	if err != nil && err != ErrCatalogNotFound {
		return nil, err
	}

	if existing != nil {
		_, err = s.db.Exec(`
			UPDATE catalogs SET name = ?, site = ?, language = ?, updated_at = CURRENT_TIMESTAMP
			WHERE source_id = ?
		`, name, site, language, sourceID)
		if err != nil {
			return nil, err
		}
		return s.GetCatalogBySourceID(sourceID)
	}

	var maxOrder sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(store_order) FROM catalogs`).Scan(&maxOrder); err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`
		INSERT INTO catalogs (source_id, name, site, language, store_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, sourceID, name, site, language, maxOrder.Int64+1)
	if err != nil {
		return nil, err
	}
	return s.GetCatalogBySourceID(sourceID)
}

// GetCatalogBySourceID returns a catalog by its source ID.
func (s *Store) GetCatalogBySourceID(sourceID string) (*models.Catalog, error) {
	var c models.Catalog
	err := s.db.QueryRow(`
		SELECT id, source_id, name, site, language, enabled, pinned, store_order, created_at, updated_at
		FROM catalogs
		WHERE source_id = ?
	`, sourceID).Scan(
		&c.ID, &c.SourceID, &c.Name, &c.Site, &c.Language,
		&c.Enabled, &c.Pinned, &c.StoreOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCatalogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCatalogs returns all enabled catalogs in store order.
func (s *Store) ListCatalogs() ([]*models.Catalog, error) {
	return s.listCatalogs(`
		SELECT id, source_id, name, site, language, enabled, pinned, store_order, created_at, updated_at
		FROM catalogs
		WHERE enabled = 1
		ORDER BY store_order ASC
	`)
}

// ListPinnedCatalogs returns the user-curated pinned subset in store order.
func (s *Store) ListPinnedCatalogs() ([]*models.Catalog, error) {
	return s.listCatalogs(`
		SELECT id, source_id, name, site, language, enabled, pinned, store_order, created_at, updated_at
		FROM catalogs
		WHERE enabled = 1 AND pinned = 1
		ORDER BY store_order ASC
	`)
}

func (s *Store) listCatalogs(query string) ([]*models.Catalog, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalogs []*models.Catalog
	for rows.Next() {
		var c models.Catalog
		err := rows.Scan(
			&c.ID, &c.SourceID, &c.Name, &c.Site, &c.Language,
			&c.Enabled, &c.Pinned, &c.StoreOrder, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, &c)
	}
	return catalogs, rows.Err()
}

// SetCatalogPinned toggles a catalog's pinned flag.
func (s *Store) SetCatalogPinned(sourceID string, pinned bool) error {
	res, err := s.db.Exec(`
		UPDATE catalogs SET pinned = ?, updated_at = CURRENT_TIMESTAMP WHERE source_id = ?
	`, pinned, sourceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCatalogNotFound
	}
	return nil
}

// SetCatalogEnabled toggles a catalog's enabled flag.
func (s *Store) SetCatalogEnabled(sourceID string, enabled bool) error {
	res, err := s.db.Exec(`
		UPDATE catalogs SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE source_id = ?
	`, enabled, sourceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCatalogNotFound
	}
	return nil
}

// DeleteCatalog removes a catalog by source ID. Called on uninstall.
func (s *Store) DeleteCatalog(sourceID string) error {
	_, err := s.db.Exec(`DELETE FROM catalogs WHERE source_id = ?`, sourceID)
	return err
}
