package repair

import (
	"fmt"
	"log"
	"time"

	"github.com/quillreads/quill-go/internal/matching"
	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
)

// Outcome is the result of a repair attempt.
type Outcome string

const (
	OutcomeRepaired    Outcome = "repaired"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeCoolingDown Outcome = "cooling-down"
	OutcomeHealthy     Outcome = "healthy"
)

// repairCooldown limits how often a broken chapter is retried, so a
// permanently dead chapter doesn't hammer every installed source.
const repairCooldown = 24 * time.Hour

// Service checks chapter content and attempts repairs, first from the
// book's own source and then from alternate installed catalogs.
type Service struct {
	st *store.Store
}

// NewService creates a repair service.
func NewService(st *store.Store) *Service {
	return &Service{st: st}
}

// CheckChapter runs the content health check on a chapter and records
// the verdict. The repair bookkeeping from previous attempts is kept.
func (s *Service) CheckChapter(chapterID int64) (*models.ChapterHealth, error) {
	ch, err := s.st.GetChapterByID(chapterID)
	if err != nil {
		return nil, err
	}

	prev, err := s.st.GetChapterHealth(chapterID)
	if err != nil {
		return nil, err
	}

	healthy, reason := CheckContent(ch.Content)
	health := &models.ChapterHealth{
		ChapterID:   chapterID,
		IsBroken:    !healthy,
		BreakReason: reason,
		CheckedAt:   time.Now(),
	}
	if prev != nil {
		health.RepairAttemptedAt = prev.RepairAttemptedAt
		health.RepairSuccessful = prev.RepairSuccessful
		health.ReplacementSourceID = prev.ReplacementSourceID
	}
	if healthy {
		health.BreakReason = ""
	}

	if err := s.st.UpsertChapterHealth(health); err != nil {
		return nil, err
	}
	return health, nil
}

// RepairChapter attempts to replace a broken chapter's content. The
// book's own source is tried first, then every other enabled catalog
// in store order. A chapter already attempted within the cooldown
// window is skipped.
func (s *Service) RepairChapter(chapterID int64) (Outcome, error) {
	ch, err := s.st.GetChapterByID(chapterID)
	if err != nil {
		return "", err
	}

	if healthy, _ := CheckContent(ch.Content); healthy {
		return OutcomeHealthy, nil
	}

	health, err := s.st.GetChapterHealth(chapterID)
	if err != nil {
		return "", err
	}
	if health != nil && health.RepairAttemptedAt != nil &&
		time.Since(*health.RepairAttemptedAt) < repairCooldown {
		return OutcomeCoolingDown, nil
	}

	book, err := s.st.GetBookByID(ch.BookID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	_, reason := CheckContent(ch.Content)

	// First try refetching from the chapter's own source; transient
	// site failures are the most common cause of bad content.
	if content, ok := s.refetchOriginal(book, ch); ok {
		return s.recordRepaired(ch.ID, content, book.SourceID, now)
	}

	// Then walk the alternate catalogs in store order.
	catalogs, err := s.st.ListCatalogs()
	if err != nil {
		return "", err
	}
	for _, cat := range catalogs {
		if cat.SourceID == book.SourceID {
			continue
		}
		content, ok := s.fetchFromAlternate(cat.SourceID, book, ch)
		if !ok {
			continue
		}
		return s.recordRepaired(ch.ID, content, cat.SourceID, now)
	}

	exhausted := &models.ChapterHealth{
		ChapterID:         ch.ID,
		IsBroken:          true,
		BreakReason:       reason,
		CheckedAt:         now,
		RepairAttemptedAt: &now,
		RepairSuccessful:  false,
	}
	if err := s.st.UpsertChapterHealth(exhausted); err != nil {
		return "", err
	}
	log.Printf("Repair exhausted for chapter %d (%s)", ch.ID, ch.Name)
	return OutcomeExhausted, nil
}

// RepairAllBroken runs the repair flow for every chapter flagged broken
// and returns the outcome per chapter ID.
func (s *Service) RepairAllBroken() (map[int64]Outcome, error) {
	ids, err := s.st.ListBrokenChapters()
	if err != nil {
		return nil, err
	}

	outcomes := make(map[int64]Outcome, len(ids))
	for _, id := range ids {
		outcome, err := s.RepairChapter(id)
		if err != nil {
			log.Printf("Repair of chapter %d failed: %v", id, err)
			continue
		}
		outcomes[id] = outcome
	}
	return outcomes, nil
}

func (s *Service) refetchOriginal(book *models.Book, ch *models.Chapter) (string, bool) {
	src, ok := source.Get(book.SourceID)
	if !ok {
		return "", false
	}
	content, err := src.GetChapterContent(ch.Key)
	if err != nil {
		log.Printf("Refetch of chapter %d from %s failed: %v", ch.ID, book.SourceID, err)
		return "", false
	}
	if healthy, _ := CheckContent(content); !healthy {
		return "", false
	}
	return content, true
}

// fetchFromAlternate looks up the same book and chapter on another
// source. Any error along the way is logged and treated as a non-match.
func (s *Service) fetchFromAlternate(sourceID string, book *models.Book, ch *models.Chapter) (string, bool) {
	src, ok := source.Get(sourceID)
	if !ok {
		return "", false
	}

	results, err := src.Search(book.Title)
	if err != nil {
		log.Printf("Search on %s for %q failed: %v", sourceID, book.Title, err)
		return "", false
	}

	var match *models.BookResult
	for i := range results {
		if matching.TitlesMatch(book.Title, results[i].Title) {
			match = &results[i]
			break
		}
	}
	if match == nil {
		return "", false
	}

	chapters, err := src.GetChapters(match.Key)
	if err != nil {
		log.Printf("Chapter list on %s for %q failed: %v", sourceID, match.Title, err)
		return "", false
	}

	idx := matching.MatchChapter(*ch, chapters)
	if idx < 0 {
		return "", false
	}

	content, err := src.GetChapterContent(chapters[idx].Key)
	if err != nil {
		log.Printf("Content fetch on %s for chapter %q failed: %v", sourceID, chapters[idx].Name, err)
		return "", false
	}
	if healthy, _ := CheckContent(content); !healthy {
		return "", false
	}
	return content, true
}

func (s *Service) recordRepaired(chapterID int64, content, replacementSourceID string, now time.Time) (Outcome, error) {
	if err := s.st.UpdateChapterContent(chapterID, content); err != nil {
		return "", fmt.Errorf("failed to store repaired content: %w", err)
	}
	health := &models.ChapterHealth{
		ChapterID:           chapterID,
		IsBroken:            false,
		CheckedAt:           now,
		RepairAttemptedAt:   &now,
		RepairSuccessful:    true,
		ReplacementSourceID: replacementSourceID,
	}
	if err := s.st.UpsertChapterHealth(health); err != nil {
		return "", err
	}
	log.Printf("Repaired chapter %d from source %s", chapterID, replacementSourceID)
	return OutcomeRepaired, nil
}
