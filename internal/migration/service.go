package migration

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/quillreads/quill-go/internal/matching"
	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
)

// Service moves a book to a different source while preserving reading
// state across the chapter-set swap.
type Service struct {
	st *store.Store
}

// NewService creates a migration service.
func NewService(st *store.Store) *Service {
	return &Service{st: st}
}

// MigrateToSource migrates a book to another installed catalog: the
// book is searched for on the target source, its chapter list fetched,
// and the stored chapters replaced by the target's while carrying over
// reading state. On success the book points at the new source.
func (s *Service) MigrateToSource(bookID int64, targetSourceID string) (*models.MigrationResult, error) {
	book, err := s.st.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}
	if book.SourceID == targetSourceID {
		return nil, fmt.Errorf("book %d is already on source %s", bookID, targetSourceID)
	}

	src, ok := source.Get(targetSourceID)
	if !ok {
		return nil, fmt.Errorf("source %s is not installed", targetSourceID)
	}

	results, err := src.Search(book.Title)
	if err != nil {
		return nil, fmt.Errorf("search on %s failed: %w", targetSourceID, err)
	}
	var match *models.BookResult
	for i := range results {
		if matching.TitlesMatch(book.Title, results[i].Title) {
			match = &results[i]
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("book %q not found on source %s", book.Title, targetSourceID)
	}

	newChapters, err := src.GetChapters(match.Key)
	if err != nil {
		return nil, fmt.Errorf("chapter list on %s failed: %w", targetSourceID, err)
	}

	result, err := s.Migrate(bookID, newChapters)
	if err != nil {
		return nil, err
	}

	if err := s.st.UpdateBookSource(bookID, targetSourceID, match.Key); err != nil {
		return nil, fmt.Errorf("failed to repoint book %d: %w", bookID, err)
	}

	log.Printf("Migrated book %d (%q) from %s to %s: %d/%d chapters preserved",
		bookID, book.Title, book.SourceID, targetSourceID,
		result.PreservedChapters, result.TotalChapters)
	return result, nil
}

// Migrate replaces a book's chapters with the incoming set, preserving
// read state, bookmarks, page position, and fetched content for
// chapters that match by name, and re-linking reading history to the
// freshly inserted rows. The whole swap happens in one transaction.
func (s *Service) Migrate(bookID int64, newChapters []models.ChapterResult) (*models.MigrationResult, error) {
	existing, err := s.st.GetChaptersByBook(bookID)
	if err != nil {
		return nil, err
	}

	// Histories must be captured before the delete cascades them away.
	histories, err := s.st.GetHistoryByBook(bookID)
	if err != nil {
		return nil, err
	}
	historiesByChapter := make(map[int64][]*models.History)
	for _, h := range histories {
		historiesByChapter[h.ChapterID] = append(historiesByChapter[h.ChapterID], h)
	}

	result := &models.MigrationResult{TotalChapters: len(newChapters)}
	now := time.Now()

	// Build the merged chapter set, carrying state over from matching
	// existing chapters. oldIDs remembers which existing chapter each
	// merged row descends from, for history re-linking after insert.
	merged := make([]*models.Chapter, 0, len(newChapters))
	oldIDs := make([]int64, 0, len(newChapters))
	matched := make(map[int64]bool, len(existing))
	for i, nc := range newChapters {
		ch := &models.Chapter{
			BookID:      bookID,
			Key:         nc.Key,
			Name:        nc.Name,
			Number:      nc.Number,
			SourceOrder: i,
			DateFetch:   now,
			DateUpload:  nc.PublishedAt,
		}
		if ch.DateUpload.IsZero() {
			ch.DateUpload = now
		}

		oldID := int64(0)
		if old := findExisting(existing, matched, nc); old != nil {
			ch.Read = old.Read
			ch.Bookmark = old.Bookmark
			ch.LastPageRead = old.LastPageRead
			ch.Content = old.Content
			ch.DateFetch = old.DateFetch
			oldID = old.ID
			matched[old.ID] = true
			result.PreservedChapters++
		} else {
			result.NewChapters++
		}
		merged = append(merged, ch)
		oldIDs = append(oldIDs, oldID)
	}

	tx, err := s.st.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.st.DeleteChaptersByBook(tx, bookID); err != nil {
		return nil, fmt.Errorf("failed to clear old chapters: %w", err)
	}

	for i, ch := range merged {
		newID, err := s.st.InsertChapterTx(tx, ch)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chapter %q: %w", ch.Name, err)
		}
		if oldIDs[i] == 0 {
			continue
		}
		for _, h := range historiesByChapter[oldIDs[i]] {
			relinked := &models.History{
				ChapterID:    newID,
				ReadAt:       h.ReadAt,
				ReadDuration: h.ReadDuration,
				Progress:     h.Progress,
			}
			if err := s.st.InsertHistoryTx(tx, relinked); err != nil {
				return nil, fmt.Errorf("failed to re-link history: %w", err)
			}
			result.PreservedHistories++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// findExisting matches an incoming chapter against the not-yet-matched
// existing chapters: exact normalized name, then chapter number, then
// fuzzy containment of one normalized name in the other.
func findExisting(existing []*models.Chapter, matched map[int64]bool, nc models.ChapterResult) *models.Chapter {
	name := matching.NormalizeName(nc.Name)
	if name != "" {
		for _, old := range existing {
			if !matched[old.ID] && matching.NormalizeName(old.Name) == name {
				return old
			}
		}
	}
	if nc.Number > 0 {
		for _, old := range existing {
			if !matched[old.ID] && old.Number > 0 && old.Number == nc.Number {
				return old
			}
		}
	}
	if name != "" {
		for _, old := range existing {
			if matched[old.ID] {
				continue
			}
			oldName := matching.NormalizeName(old.Name)
			if oldName == "" {
				continue
			}
			if strings.Contains(oldName, name) || strings.Contains(name, oldName) {
				return old
			}
		}
	}
	return nil
}
