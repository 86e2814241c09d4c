package covers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quillreads/quill-go/internal/store"
)

var client = &http.Client{Timeout: 30 * time.Second}

// RefreshBookThumbnail downloads a book's cover image, generates a
// thumbnail, and stores it on the book row.
func RefreshBookThumbnail(st *store.Store, bookID int64, coverURL string) error {
	if coverURL == "" {
		return fmt.Errorf("book %d has no cover URL", bookID)
	}

	resp, err := client.Get(coverURL)
	if err != nil {
		return fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read cover: %w", err)
	}

	thumbnail, err := GenerateThumbnail(data)
	if err != nil {
		return err
	}
	return st.UpdateBookThumbnail(bookID, thumbnail)
}
