package migration

import (
	"database/sql"
	"log"
	"time"

	"github.com/quillreads/quill-go/internal/matching"
	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
)

const (
	// comparisonTTL is how long a cached comparison stays fresh.
	comparisonTTL = 24 * time.Hour
	// minChapterAdvantage is how many more chapters an alternate source
	// must carry before it is worth suggesting a migration.
	minChapterAdvantage = 5
)

// Comparator finds alternate sources that carry more chapters of a
// book than its current source. Results are cached per book and can
// be snoozed by the reader.
type Comparator struct {
	st *store.Store
}

// NewComparator creates a source comparator.
func NewComparator(st *store.Store) *Comparator {
	return &Comparator{st: st}
}

// CompareForBook returns the better-source verdict for a book. A fresh,
// non-dismissed cached result is returned as-is; otherwise the pinned
// catalogs are scanned and the result cached. A nil result means no
// source beats the current one by enough chapters.
func (c *Comparator) CompareForBook(bookID int64) (*models.SourceComparison, error) {
	cached, err := c.st.GetSourceComparison(bookID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if cached.DismissedUntil != nil && time.Now().Before(*cached.DismissedUntil) {
			return nil, nil
		}
		if time.Since(cached.CachedAt) < comparisonTTL {
			if cached.BetterSourceID == "" {
				return nil, nil
			}
			return cached, nil
		}
	}
	return c.recompute(bookID)
}

// Dismiss snoozes a book's comparison for the given duration.
func (c *Comparator) Dismiss(bookID int64, duration time.Duration) error {
	until := sql.NullTime{Time: time.Now().Add(duration), Valid: true}
	return c.st.DismissSourceComparison(bookID, until)
}

func (c *Comparator) recompute(bookID int64) (*models.SourceComparison, error) {
	book, err := c.st.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}
	currentCount, err := c.st.CountChaptersByBook(bookID)
	if err != nil {
		return nil, err
	}

	// Only pinned catalogs are consulted; scanning every installed
	// source on each library view would hammer the sites.
	catalogs, err := c.st.ListPinnedCatalogs()
	if err != nil {
		return nil, err
	}

	best := ""
	bestDiff := 0
	for _, cat := range catalogs {
		if cat.SourceID == book.SourceID {
			continue
		}
		count, ok := c.countOnSource(cat.SourceID, book.Title)
		if !ok {
			continue
		}
		diff := count - currentCount
		if diff >= minChapterAdvantage && diff > bestDiff {
			best = cat.SourceID
			bestDiff = diff
		}
	}

	comparison := &models.SourceComparison{
		BookID:            bookID,
		CurrentSourceID:   book.SourceID,
		BetterSourceID:    best,
		ChapterDifference: bestDiff,
		CachedAt:          time.Now(),
	}
	if err := c.st.UpsertSourceComparison(comparison); err != nil {
		return nil, err
	}

	if best == "" {
		return nil, nil
	}
	return comparison, nil
}

// countOnSource finds the book on a source by title and returns its
// chapter count. Errors are logged and treated as a non-result.
func (c *Comparator) countOnSource(sourceID, title string) (int, bool) {
	src, ok := source.Get(sourceID)
	if !ok {
		return 0, false
	}

	results, err := src.Search(title)
	if err != nil {
		log.Printf("Comparison search on %s for %q failed: %v", sourceID, title, err)
		return 0, false
	}

	for _, r := range results {
		if !matching.TitlesMatch(title, r.Title) {
			continue
		}
		chapters, err := src.GetChapters(r.Key)
		if err != nil {
			log.Printf("Comparison chapter list on %s for %q failed: %v", sourceID, r.Title, err)
			return 0, false
		}
		return len(chapters), true
	}
	return 0, false
}
