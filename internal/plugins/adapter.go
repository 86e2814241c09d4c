package plugins

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/quillreads/quill-go/internal/models"
)

// SourceAdapter makes a plugin runtime usable as a models.Source.
type SourceAdapter struct {
	runtime *PluginRuntime
}

// NewSourceAdapter creates a source adapter for a plugin runtime.
func NewSourceAdapter(runtime *PluginRuntime) *SourceAdapter {
	return &SourceAdapter{runtime: runtime}
}

// GetInfo returns the source information extracted from the plugin code.
func (a *SourceAdapter) GetInfo() models.SourceInfo {
	return a.runtime.Info()
}

// Search asks the plugin to search its site for books matching the query.
func (a *SourceAdapter) Search(query string) ([]models.BookResult, error) {
	val, err := a.runtime.Call("search", query)
	if err != nil {
		return nil, err
	}

	items, err := exportSlice(val)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: search: %w", a.GetInfo().ID, err)
	}

	results := make([]models.BookResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		results = append(results, models.BookResult{
			Title:    stringField(obj, "title", "name"),
			CoverURL: stringField(obj, "coverUrl", "cover_url", "cover"),
			Key:      stringField(obj, "key", "url", "path"),
		})
	}
	return results, nil
}

// GetChapters asks the plugin for the chapter list of a book.
func (a *SourceAdapter) GetChapters(bookKey string) ([]models.ChapterResult, error) {
	val, err := a.runtime.Call("getChapters", bookKey)
	if err != nil {
		return nil, err
	}

	items, err := exportSlice(val)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: getChapters: %w", a.GetInfo().ID, err)
	}

	chapters := make([]models.ChapterResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ch := models.ChapterResult{
			Key:    stringField(obj, "key", "url", "path"),
			Name:   stringField(obj, "name", "title"),
			Number: numberField(obj, "number", "chapterNumber"),
		}
		if ts := numberField(obj, "publishedAt", "releaseTime"); ts > 0 {
			ch.PublishedAt = time.Unix(int64(ts), 0)
		}
		chapters = append(chapters, ch)
	}
	return chapters, nil
}

// GetChapterContent asks the plugin for a chapter's text content.
func (a *SourceAdapter) GetChapterContent(chapterKey string) (string, error) {
	val, err := a.runtime.Call("getChapterContent", chapterKey)
	if err != nil {
		return "", err
	}

	switch exported := val.Export().(type) {
	case string:
		return exported, nil
	case map[string]interface{}:
		return stringField(exported, "content", "text"), nil
	default:
		return "", fmt.Errorf("plugin %s: getChapterContent returned unexpected type", a.GetInfo().ID)
	}
}

func exportSlice(val goja.Value) ([]interface{}, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	items, ok := val.Export().([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array result")
	}
	return items, nil
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func numberField(obj map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0
}
