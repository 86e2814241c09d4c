package plugins

import (
	"errors"
	"testing"

	"github.com/quillreads/quill-go/internal/models"
)

const testScript = `
	exports.search = function(query) {
		return [{ title: "Alpha " + query, key: "/books/alpha", coverUrl: "https://example.com/a.png" }];
	};
	exports.getChapters = function(bookKey) {
		return [
			{ key: bookKey + "/1", name: "Chapter 1", number: 1 },
			{ key: bookKey + "/2", name: "Chapter 2", number: 2 }
		];
	};
	exports.getChapterContent = function(chapterKey) {
		if (chapterKey === "/boom") {
			throw new Error("site exploded");
		}
		return "The quick brown fox jumps over the lazy dog, at considerable length.";
	};
`

func testInfo() models.SourceInfo {
	return models.SourceInfo{ID: "testsource", Name: "Test Source", Version: "1.0.0", Language: "en"}
}

func TestNewPluginRuntimeMissingExport(t *testing.T) {
	_, err := NewPluginRuntime(testInfo(), `exports.search = function() {};`)
	if err == nil {
		t.Fatal("expected error for missing exports")
	}
}

func TestRuntimeCall(t *testing.T) {
	rt, err := NewPluginRuntime(testInfo(), testScript)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}

	val, err := rt.Call("search", "fox")
	if err != nil {
		t.Fatalf("search call failed: %v", err)
	}
	items, ok := val.Export().([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected one result, got %v", val.Export())
	}
}

func TestRuntimeCallError(t *testing.T) {
	rt, err := NewPluginRuntime(testInfo(), testScript)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}

	_, err = rt.Call("getChapterContent", "/boom")
	if err == nil {
		t.Fatal("expected error from throwing script")
	}
	var pErr *PluginError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PluginError, got %T", err)
	}
	if pErr.PluginID != "testsource" || pErr.Function != "getChapterContent" {
		t.Errorf("unexpected error details: %+v", pErr)
	}
}

func TestRuntimePromiseResult(t *testing.T) {
	script := testScript + `
		exports.search = function(query) {
			return Promise.resolve([{ title: "Async " + query, key: "/async" }]);
		};
	`
	rt, err := NewPluginRuntime(testInfo(), script)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}

	adapter := NewSourceAdapter(rt)
	results, err := adapter.Search("novel")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Async novel" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSourceAdapter(t *testing.T) {
	rt, err := NewPluginRuntime(testInfo(), testScript)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	adapter := NewSourceAdapter(rt)

	results, err := adapter.Search("fox")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Alpha fox" || results[0].Key != "/books/alpha" {
		t.Errorf("unexpected result: %+v", results[0])
	}

	chapters, err := adapter.GetChapters("/books/alpha")
	if err != nil {
		t.Fatalf("getChapters failed: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[1].Name != "Chapter 2" || chapters[1].Number != 2 {
		t.Errorf("unexpected chapter: %+v", chapters[1])
	}

	content, err := adapter.GetChapterContent("/books/alpha/1")
	if err != nil {
		t.Fatalf("getChapterContent failed: %v", err)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}
