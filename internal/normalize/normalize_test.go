// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestNormalizeDeduplicatesByURL(t *testing.T) {
	lists := [][]types.RawResult{
		{
			{Title: "Paper A", URL: "https://example.com/a"},
		},
		{
			{Title: "Paper A (mirror)", URL: "https://example.com/a"},
			{Title: "Paper B", URL: "https://example.com/b"},
		},
	}

	sources := Normalize(lists)
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	// First-seen wins: the title from the first connector is kept.
	if sources[0].Title != "Paper A" {
		t.Errorf("first source title = %q, want first-seen %q", sources[0].Title, "Paper A")
	}
	if sources[1].Title != "Paper B" {
		t.Errorf("second source title = %q", sources[1].Title)
	}
}

func TestNormalizeTitleOnlyIdentity(t *testing.T) {
	lists := [][]types.RawResult{
		{{Title: "No URL Here"}},
		{{Title: "No URL Here"}},
	}
	sources := Normalize(lists)
	if len(sources) != 1 {
		t.Fatalf("title-identical records not deduplicated: %d sources", len(sources))
	}
	if sources[0].SourceID != types.SourceID("No URL Here") {
		t.Errorf("identity not derived from title")
	}
}

func TestNormalizePlaceholderTitle(t *testing.T) {
	lists := [][]types.RawResult{
		{{Snippet: "only a snippet"}},
	}
	sources := Normalize(lists)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Title != "Source 1" {
		t.Errorf("placeholder title = %q, want %q", sources[0].Title, "Source 1")
	}
}

func TestNormalizeBlankTitleWithURL(t *testing.T) {
	lists := [][]types.RawResult{
		{{URL: "https://example.com/untitled"}},
	}
	sources := Normalize(lists)
	if sources[0].Title != "https://example.com/untitled" {
		t.Errorf("title = %q, want the URL", sources[0].Title)
	}
	if sources[0].SourceID != types.SourceID("https://example.com/untitled") {
		t.Errorf("identity must stay the URL, not the placeholder title")
	}
}

func TestNormalizePreservesInsertionOrder(t *testing.T) {
	lists := [][]types.RawResult{
		{{Title: "c"}, {Title: "a"}},
		{{Title: "b"}},
	}
	sources := Normalize(lists)
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if sources[i].Title != w {
			t.Fatalf("order at %d = %q, want %q", i, sources[i].Title, w)
		}
	}
}

func TestNormalizeConvertsCitesToIDs(t *testing.T) {
	lists := [][]types.RawResult{
		{{Title: "Citing", URL: "https://example.com/citing",
			Cites: []string{"https://example.com/cited", ""}}},
	}
	sources := Normalize(lists)
	if len(sources[0].Cites) != 1 {
		t.Fatalf("got %d cite IDs, want 1 (blank dropped)", len(sources[0].Cites))
	}
	if sources[0].Cites[0] != types.SourceID("https://example.com/cited") {
		t.Errorf("cite not converted to canonical ID: %q", sources[0].Cites[0])
	}
}

func TestNormalizeDefaultsTypeToWeb(t *testing.T) {
	lists := [][]types.RawResult{
		{{Title: "untyped"}, {Title: "typed", Type: types.SourceAcademic}},
	}
	sources := Normalize(lists)
	if sources[0].Type != types.SourceWeb {
		t.Errorf("default type = %q, want web", sources[0].Type)
	}
	if sources[1].Type != types.SourceAcademic {
		t.Errorf("explicit type lost: %q", sources[1].Type)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("nil input produced %d sources", len(got))
	}
	if got := Normalize([][]types.RawResult{nil, {}}); len(got) != 0 {
		t.Errorf("empty lists produced %d sources", len(got))
	}
}
