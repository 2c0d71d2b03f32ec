// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/deep-research/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func completedRun(query string, startedAt time.Time) *types.ResearchRun {
	run := &types.ResearchRun{
		Query:       query,
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(30 * time.Second),
		Config:      types.RunConfig{MaxDepth: 1, MaxIterations: 1},
		Synthesis:   "a synthesis for " + query,
		Graph:       types.CitationGraph{},
	}
	run.AddSource(types.Source{
		SourceID: types.SourceID("https://example.com/a"),
		URL:      "https://example.com/a", Title: "Paper A",
		CredibilityScore: 0.85, CredibilityCategory: "peer_reviewed",
		Type:  types.SourceAcademic,
		Cites: []string{types.SourceID("https://example.com/b")},
	})
	run.AddSource(types.Source{
		SourceID: types.SourceID("https://example.com/b"),
		URL:      "https://example.com/b", Title: "Paper B",
		CredibilityScore: 0.50, CredibilityCategory: "unknown",
		Type: types.SourceWeb,
	})
	run.Graph[run.Sources[0].SourceID] = run.Sources[0].Cites
	run.Findings = []types.Finding{
		{Claim: "Paper A", SourceIDs: []string{run.Sources[0].SourceID}, Confidence: types.ConfidenceMedium, AvgCredibility: 0.85},
	}
	return run
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	started := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	run := completedRun("solar cell efficiency", started)

	id, err := s.Save(run)
	if err != nil {
		t.Fatal(err)
	}
	if id != "solar-cell-efficiency-20260210-093000" {
		t.Errorf("id = %q", id)
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Query != run.Query {
		t.Errorf("query = %q", loaded.Query)
	}
	if loaded.TotalSources != 2 || len(loaded.Sources) != 2 {
		t.Errorf("sources = %d/%d", loaded.TotalSources, len(loaded.Sources))
	}
	if loaded.Sources[0].CredibilityScore != 0.85 {
		t.Errorf("score = %v", loaded.Sources[0].CredibilityScore)
	}
	if len(loaded.Graph) != 1 {
		t.Errorf("graph = %v", loaded.Graph)
	}
	if loaded.Synthesis != run.Synthesis {
		t.Errorf("synthesis = %q", loaded.Synthesis)
	}
	if !loaded.CompletedAt.Equal(run.CompletedAt) {
		t.Errorf("completed = %v", loaded.CompletedAt)
	}
}

func TestLoadBypassesCacheAfterReopen(t *testing.T) {
	dataDir := t.TempDir()
	s, err := Open(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	run := completedRun("graphene batteries", time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC))
	id, err := s.Save(run)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// A fresh store has a cold cache and must read the document tier.
	s2, err := Open(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	loaded, err := s2.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Query != "graphene batteries" {
		t.Errorf("query = %q", loaded.Query)
	}
}

func TestLoadCacheHitReturnsEqualRun(t *testing.T) {
	s := testStore(t)
	run := completedRun("cache check", time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC))
	id, err := s.Save(run)
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if first.Query != second.Query || first.TotalSources != second.TotalSources {
		t.Errorf("cached load differs: %+v vs %+v", first, second)
	}
	if first.Synthesis != second.Synthesis {
		t.Errorf("cached synthesis differs")
	}
}

func TestLoadedRunMutationDoesNotPoisonCache(t *testing.T) {
	s := testStore(t)
	run := completedRun("snapshot isolation", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	id, err := s.Save(run)
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	first.Synthesis = "tampered"
	first.Sources[0].Title = "tampered"
	first.Graph[first.Sources[0].SourceID] = []string{"bogus"}

	second, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if second.Synthesis != run.Synthesis {
		t.Errorf("synthesis = %q, caller mutation leaked into the cache", second.Synthesis)
	}
	if second.Sources[0].Title == "tampered" {
		t.Errorf("source mutation leaked into the cache")
	}
	if len(second.Graph[second.Sources[0].SourceID]) != 1 {
		t.Errorf("graph mutation leaked into the cache: %v", second.Graph)
	}
}

func TestLoadUnknownID(t *testing.T) {
	s := testStore(t)
	_, err := s.Load("no-such-run-20260101-000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchNewestFirstWithLimit(t *testing.T) {
	s := testStore(t)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		run := completedRun(fmt.Sprintf("topic number %d", i), base.Add(time.Duration(i)*time.Hour))
		if _, err := s.Save(run); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := s.Search("", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	for i, row := range rows {
		want := fmt.Sprintf("topic number %d", 9-i)
		if row.Query != want {
			t.Errorf("row %d query = %q, want %q (newest first)", i, row.Query, want)
		}
	}
}

func TestSearchOrdersSameSecondRuns(t *testing.T) {
	s := testStore(t)

	// Sub-second starts within the same second: the fractional part must
	// not break the newest-first ordering.
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.Save(completedRun("older run", base)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(completedRun("newer run", base.Add(500*time.Millisecond))); err != nil {
		t.Fatal(err)
	}

	rows, err := s.Search("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Query != "newer run" || rows[1].Query != "older run" {
		t.Errorf("order = [%q, %q], want newest first", rows[0].Query, rows[1].Query)
	}
}

func TestSearchFiltersBySubstring(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"fusion reactors", "fission reactors", "wind turbines"} {
		if _, err := s.Save(completedRun(q, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := s.Search("reactors", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if !strings.Contains(row.Query, "reactors") {
			t.Errorf("unexpected row %q", row.Query)
		}
	}
}

func TestSearchRowCarriesIndexFields(t *testing.T) {
	s := testStore(t)
	started := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	run := completedRun("index fields", started)
	id, err := s.Save(run)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.Search("index fields", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	row := rows[0]
	if row.ID != id || row.SourceCount != 2 || row.Depth != 1 {
		t.Errorf("row = %+v", row)
	}
	if !row.StartedAt.Equal(started) {
		t.Errorf("started = %v, want %v", row.StartedAt, started)
	}
	if row.SynthesisPreview != run.Synthesis {
		t.Errorf("preview = %q", row.SynthesisPreview)
	}
}

func TestSaveDuplicateIDRejected(t *testing.T) {
	s := testStore(t)
	started := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	if _, err := s.Save(completedRun("same query", started)); err != nil {
		t.Fatal(err)
	}
	// Identical query and second collide on the primary key; the first
	// save must survive untouched.
	if _, err := s.Save(completedRun("same query", started)); err == nil {
		t.Fatal("duplicate id accepted")
	}

	rows, err := s.Search("same query", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows after duplicate save, want 1", len(rows))
	}
}

func TestSaveFailureLeavesNoDocument(t *testing.T) {
	dataDir := t.TempDir()
	s, err := Open(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	started := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	if _, err := s.Save(completedRun("orphan check", started)); err != nil {
		t.Fatal(err)
	}
	// The second save fails at the index tier; its document must be
	// cleaned up so the tiers stay consistent.
	if _, err := s.Save(completedRun("orphan check", started)); err == nil {
		t.Fatal("duplicate id accepted")
	}

	entries, err := os.ReadDir(filepath.Join(dataDir, runsDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d run documents, want 1 (no orphans)", len(entries))
	}
}

func TestRunIDAndSlug(t *testing.T) {
	startedAt := time.Date(2026, 2, 10, 9, 30, 45, 0, time.UTC)
	cases := []struct {
		query string
		want  string
	}{
		{"Quantum Computing!", "quantum-computing-20260210-093045"},
		{"  lots   of   spaces  ", "lots-of-spaces-20260210-093045"},
		{"***", "run-20260210-093045"},
		{"", "run-20260210-093045"},
	}
	for _, c := range cases {
		if got := RunID(c.query, startedAt); got != c.want {
			t.Errorf("RunID(%q) = %q, want %q", c.query, got, c.want)
		}
	}

	long := strings.Repeat("abcde ", 20)
	id := RunID(long, startedAt)
	if len(id) > slugLen+len("-20260210-093045")+1 {
		t.Errorf("long query id not truncated: %q", id)
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("x", 800)
	if got := preview(long); len(got) != previewLen {
		t.Errorf("preview length = %d, want %d", len(got), previewLen)
	}
	if got := preview("short"); got != "short" {
		t.Errorf("preview(%q) = %q", "short", got)
	}

	multibyte := strings.Repeat("日", 300) // 900 bytes, 3 bytes per rune
	got := preview(multibyte)
	if len(got) > previewLen {
		t.Errorf("preview length = %d, want at most %d", len(got), previewLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("preview split a rune")
	}
}
