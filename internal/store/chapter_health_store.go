package store

import (
	"database/sql"

	"github.com/quillreads/quill-go/internal/models"
)

// GetChapterHealth returns the health record for a chapter, or nil if
// the chapter has never been checked.
func (s *Store) GetChapterHealth(chapterID int64) (*models.ChapterHealth, error) {
	var h models.ChapterHealth
	var repairAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT chapter_id, is_broken, break_reason, checked_at, repair_attempted_at,
		       repair_successful, replacement_source_id
		FROM chapter_health
		WHERE chapter_id = ?
	`, chapterID).Scan(
		&h.ChapterID, &h.IsBroken, &h.BreakReason, &h.CheckedAt, &repairAt,
		&h.RepairSuccessful, &h.ReplacementSourceID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if repairAt.Valid {
		h.RepairAttemptedAt = &repairAt.Time
	}
	return &h, nil
}

// UpsertChapterHealth records the latest health verdict for a chapter,
// one row per chapter.
func (s *Store) UpsertChapterHealth(h *models.ChapterHealth) error {
	var repairAt sql.NullTime
	if h.RepairAttemptedAt != nil {
		repairAt = sql.NullTime{Time: *h.RepairAttemptedAt, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO chapter_health (chapter_id, is_broken, break_reason, checked_at,
		                            repair_attempted_at, repair_successful, replacement_source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chapter_id) DO UPDATE SET
			is_broken = excluded.is_broken,
			break_reason = excluded.break_reason,
			checked_at = excluded.checked_at,
			repair_attempted_at = excluded.repair_attempted_at,
			repair_successful = excluded.repair_successful,
			replacement_source_id = excluded.replacement_source_id
	`, h.ChapterID, h.IsBroken, h.BreakReason, h.CheckedAt, repairAt,
		h.RepairSuccessful, h.ReplacementSourceID)
	return err
}

// ListBrokenChapters returns the IDs of chapters currently flagged broken.
func (s *Store) ListBrokenChapters() ([]int64, error) {
	rows, err := s.db.Query(`SELECT chapter_id FROM chapter_health WHERE is_broken = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
