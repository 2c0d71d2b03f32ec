// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists completed research runs in two tiers: a SQLite
// index for fast listing and search, and one full-fidelity JSON document
// per run for lossless retrieval.
//
// Each worker opens its own Store; a Store (and its connection handle) is
// never shared across workers. A save is one logical transaction spanning
// the run row, its source rows, and its citation-edge rows, so the
// secondary indexes can never disagree with the primary row.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	runsDir = "runs"
	dbFile  = "research.db"

	previewLen = 500
	slugLen    = 40

	// timeLayout is fixed-width (nanoseconds zero-padded, always UTC), so
	// the lexicographic ORDER BY on started_at matches chronological order.
	// RFC3339Nano would trim trailing fractional zeros and misorder
	// same-second runs.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound reports a run id with no index row.
var ErrNotFound = errors.New("run not found")

// Store manages the research index database and run documents.
type Store struct {
	db      *sql.DB
	dataDir string
	cache   *gocache.Cache
}

// Open opens or creates the index database at dataDir/research.db and
// prepares the schema. Call once per worker; close with Close.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, runsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	s := &Store{
		db:      db,
		dataDir: cfg.DataDir,
		cache:   gocache.New(ttl, 2*ttl),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection. Best-effort: shutdown paths
// ignore the returned error.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			synthesis_preview TEXT,
			doc_path TEXT NOT NULL,
			source_count INTEGER NOT NULL,
			depth INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS run_sources (
			source_id TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			url TEXT,
			title TEXT,
			score REAL,
			category TEXT,
			type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_sources_run ON run_sources(run_id)`,
		`CREATE TABLE IF NOT EXISTS citation_edges (
			source_id TEXT NOT NULL,
			cited_id TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citation_edges_run ON citation_edges(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunID derives the identifier for a run from its query and start time.
// It is deterministic and readable, which is acceptable for interactive
// use; sub-second duplicate queries collide, and the runs primary key
// rejects the second save rather than overwriting the first.
func RunID(query string, startedAt time.Time) string {
	return slug(query) + "-" + startedAt.UTC().Format("20060102-150405")
}

// slug lowercases the query prefix and replaces runs of non-alphanumerics
// with single hyphens.
func slug(query string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(query) {
		if b.Len() >= slugLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		out = "run"
	}
	return out
}

// Save persists a completed run: the JSON document first, then one
// transaction covering the index row, per-source rows, and citation-edge
// rows. If the transaction fails the document is removed, leaving no
// orphaned tiers.
func (s *Store) Save(run *types.ResearchRun) (string, error) {
	id := RunID(run.Query, run.StartedAt)
	docPath := filepath.Join(s.dataDir, runsDir, id+".json")

	doc, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run document: %w", err)
	}
	if err := os.WriteFile(docPath, doc, 0o644); err != nil {
		return "", fmt.Errorf("writing run document: %w", err)
	}

	if err := s.indexRun(id, docPath, run); err != nil {
		os.Remove(docPath)
		return "", err
	}

	s.cache.Set(id, cloneRun(run), gocache.DefaultExpiration)
	return id, nil
}

func (s *Store) indexRun(id, docPath string, run *types.ResearchRun) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	completed := ""
	if !run.CompletedAt.IsZero() {
		completed = run.CompletedAt.UTC().Format(timeLayout)
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, query, started_at, completed_at, synthesis_preview, doc_path, source_count, depth)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Query, run.StartedAt.UTC().Format(timeLayout), completed,
		preview(run.Synthesis), docPath, run.TotalSources, run.Config.MaxDepth,
	)
	if err != nil {
		return fmt.Errorf("inserting run row: %w", err)
	}

	srcStmt, err := tx.Prepare(
		`INSERT INTO run_sources (source_id, run_id, url, title, score, category, type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing source insert: %w", err)
	}
	defer srcStmt.Close()

	for _, src := range run.Sources {
		_, err := srcStmt.Exec(src.SourceID, id, src.URL, src.Title,
			src.CredibilityScore, src.CredibilityCategory, string(src.Type))
		if err != nil {
			return fmt.Errorf("inserting source %s: %w", src.SourceID, err)
		}
	}

	edgeStmt, err := tx.Prepare(
		`INSERT INTO citation_edges (source_id, cited_id, run_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for sourceID, cited := range run.Graph {
		for _, citedID := range cited {
			if _, err := edgeStmt.Exec(sourceID, citedID, id); err != nil {
				return fmt.Errorf("inserting edge %s->%s: %w", sourceID, citedID, err)
			}
		}
	}

	return tx.Commit()
}

// Load retrieves the full run document for an id. Documents are cached
// with the configured TTL; callers get their own copy, so mutating a
// loaded run cannot poison the cache. Returns ErrNotFound for unknown ids.
func (s *Store) Load(id string) (*types.ResearchRun, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cloneRun(cached.(*types.ResearchRun)), nil
	}

	var docPath string
	err := s.db.QueryRow(`SELECT doc_path FROM runs WHERE id = ?`, id).Scan(&docPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("reading run document: %w", err)
	}
	var run types.ResearchRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing run document: %w", err)
	}

	s.cache.Set(id, &run, gocache.DefaultExpiration)
	return cloneRun(&run), nil
}

// cloneRun deep-copies a run's mutable structure (source, finding, and
// graph slices), so cache entries and caller snapshots never share state.
func cloneRun(run *types.ResearchRun) *types.ResearchRun {
	out := *run
	out.Sources = make([]types.Source, len(run.Sources))
	for i, src := range run.Sources {
		src.Authors = append([]string(nil), src.Authors...)
		src.Cites = append([]string(nil), src.Cites...)
		out.Sources[i] = src
	}
	out.Findings = make([]types.Finding, len(run.Findings))
	for i, f := range run.Findings {
		f.SourceIDs = append([]string(nil), f.SourceIDs...)
		out.Findings[i] = f
	}
	if run.Graph != nil {
		out.Graph = make(types.CitationGraph, len(run.Graph))
		for sourceID, cited := range run.Graph {
			out.Graph[sourceID] = append([]string(nil), cited...)
		}
	}
	return &out
}

// IndexRow is one entry from the fast index tier.
type IndexRow struct {
	ID               string
	Query            string
	StartedAt        time.Time
	CompletedAt      time.Time
	SynthesisPreview string
	DocPath          string
	SourceCount      int
	Depth            int
}

// Search returns index rows ordered newest first. An empty querySubstring
// matches every run; limit <= 0 defaults to 20.
func (s *Store) Search(querySubstring string, limit int) ([]IndexRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := `SELECT id, query, started_at, completed_at, synthesis_preview, doc_path, source_count, depth
	      FROM runs`
	args := []any{}
	if querySubstring != "" {
		q += ` WHERE query LIKE ?`
		args = append(args, "%"+querySubstring+"%")
	}
	q += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	defer rows.Close()

	var results []IndexRow
	for rows.Next() {
		var row IndexRow
		var started, completed string
		if err := rows.Scan(&row.ID, &row.Query, &started, &completed,
			&row.SynthesisPreview, &row.DocPath, &row.SourceCount, &row.Depth); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		row.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if completed != "" {
			row.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// preview cuts the synthesis to at most previewLen bytes without
// splitting a rune.
func preview(synthesis string) string {
	if len(synthesis) <= previewLen {
		return synthesis
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(synthesis[cut]) {
		cut--
	}
	return synthesis[:cut]
}
