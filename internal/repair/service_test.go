package repair

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quillreads/quill-go/internal/models"
	"github.com/quillreads/quill-go/internal/source"
	"github.com/quillreads/quill-go/internal/store"
	"github.com/quillreads/quill-go/internal/testutil"
)

var goodContent = strings.Repeat("A perfectly readable paragraph of chapter text. ", 20)

// fakeSource is a canned models.Source for repair tests.
type fakeSource struct {
	id        string
	books     []models.BookResult
	chapters  map[string][]models.ChapterResult
	content   map[string]string
	searchErr error
}

func (f *fakeSource) GetInfo() models.SourceInfo {
	return models.SourceInfo{ID: f.id, Name: f.id}
}

func (f *fakeSource) Search(query string) ([]models.BookResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.books, nil
}

func (f *fakeSource) GetChapters(bookKey string) ([]models.ChapterResult, error) {
	return f.chapters[bookKey], nil
}

func (f *fakeSource) GetChapterContent(chapterKey string) (string, error) {
	content, ok := f.content[chapterKey]
	if !ok {
		return "", errors.New("chapter not found")
	}
	return content, nil
}

func registerSource(t *testing.T, f *fakeSource) {
	t.Helper()
	source.Register(f)
	t.Cleanup(func() { source.Unregister(f.id) })
}

func setupBrokenChapter(t *testing.T, st *store.Store) *models.Chapter {
	t.Helper()
	book, err := st.CreateBook("origin", "/books/tale", "The Long Tale", "", "")
	if err != nil {
		t.Fatal(err)
	}
	ch, err := st.CreateChapter(book.ID, "/books/tale/5", "Chapter 5", 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	return ch
}

func TestCheckChapterRecordsVerdict(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	health, err := svc.CheckChapter(ch.ID)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !health.IsBroken || health.BreakReason != ReasonEmpty {
		t.Errorf("unexpected verdict: %+v", health)
	}

	if err := st.UpdateChapterContent(ch.ID, goodContent); err != nil {
		t.Fatal(err)
	}
	health, err = svc.CheckChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if health.IsBroken {
		t.Errorf("expected healthy verdict, got %+v", health)
	}
}

func TestRepairHealthyChapterIsNoop(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)
	if err := st.UpdateChapterContent(ch.ID, goodContent); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeHealthy {
		t.Errorf("outcome = %s, want %s", outcome, OutcomeHealthy)
	}
}

func TestRepairCooldown(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	recent := time.Now().Add(-1 * time.Hour)
	if err := st.UpsertChapterHealth(&models.ChapterHealth{
		ChapterID: ch.ID, IsBroken: true, BreakReason: ReasonEmpty,
		CheckedAt: recent, RepairAttemptedAt: &recent,
	}); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCoolingDown {
		t.Errorf("outcome = %s, want %s", outcome, OutcomeCoolingDown)
	}
}

func TestRepairCooldownExpired(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	old := time.Now().Add(-25 * time.Hour)
	if err := st.UpsertChapterHealth(&models.ChapterHealth{
		ChapterID: ch.ID, IsBroken: true, BreakReason: ReasonEmpty,
		CheckedAt: old, RepairAttemptedAt: &old,
	}); err != nil {
		t.Fatal(err)
	}

	registerSource(t, &fakeSource{
		id:      "origin",
		content: map[string]string{"/books/tale/5": goodContent},
	})

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeRepaired {
		t.Errorf("outcome = %s, want %s", outcome, OutcomeRepaired)
	}
}

func TestRepairFromOriginalSource(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	registerSource(t, &fakeSource{
		id:      "origin",
		content: map[string]string{"/books/tale/5": goodContent},
	})

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeRepaired {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeRepaired)
	}

	repaired, err := st.GetChapterByID(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if repaired.Content != goodContent {
		t.Error("content should be replaced")
	}
	health, err := st.GetChapterHealth(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if health.IsBroken || !health.RepairSuccessful {
		t.Errorf("unexpected health record: %+v", health)
	}
	// A refetch from the book's own source still records which source
	// the replacement content came from.
	if health.ReplacementSourceID != "origin" {
		t.Errorf("replacement source = %q, want origin", health.ReplacementSourceID)
	}
}

func TestRepairFromAlternateSource(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	// Original source keeps serving broken content.
	registerSource(t, &fakeSource{
		id:      "origin",
		content: map[string]string{"/books/tale/5": ""},
	})
	// Alternate catalog has the same book under a slightly different title.
	registerSource(t, &fakeSource{
		id:    "mirror",
		books: []models.BookResult{{Title: "The Long Tale (Mirror)", Key: "/t/tale"}},
		chapters: map[string][]models.ChapterResult{
			"/t/tale": {{Key: "/t/tale/ch5", Name: "Chapter 5", Number: 5}},
		},
		content: map[string]string{"/t/tale/ch5": goodContent},
	})
	if _, err := st.UpsertCatalog("origin", "Origin", "", "en"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertCatalog("mirror", "Mirror", "", "en"); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeRepaired {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeRepaired)
	}

	health, err := st.GetChapterHealth(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if health.ReplacementSourceID != "mirror" {
		t.Errorf("replacement source = %q, want mirror", health.ReplacementSourceID)
	}
}

func TestRepairExhausted(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	svc := NewService(st)
	ch := setupBrokenChapter(t, st)

	registerSource(t, &fakeSource{
		id:        "origin",
		searchErr: errors.New("down"),
		content:   map[string]string{},
	})
	registerSource(t, &fakeSource{
		id:        "mirror",
		searchErr: errors.New("also down"),
	})
	if _, err := st.UpsertCatalog("mirror", "Mirror", "", "en"); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.RepairChapter(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeExhausted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeExhausted)
	}

	health, err := st.GetChapterHealth(ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !health.IsBroken || health.RepairSuccessful || health.RepairAttemptedAt == nil {
		t.Errorf("unexpected health record: %+v", health)
	}
}
