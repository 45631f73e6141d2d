// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package localdocs retrieves relevant passages from a local corpus of
// documents (PDF, Markdown, plain text). Documents are chunked into
// overlapping windows and scored against a query by lexical overlap.
// Chunks are cached in a SQLite file inside the corpus directory, keyed
// by file modification time, so unchanged documents are not re-parsed on
// every run.
package localdocs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

const cacheFile = ".index.db"

// supportedExts maps recognized corpus file extensions.
var supportedExts = map[string]bool{
	".pdf": true,
	".md":  true,
	".txt": true,
}

// Index holds the chunked corpus for one directory snapshot. It is built
// fresh per invocation and carries no cross-run state beyond the on-disk
// chunk cache.
type Index struct {
	cfg    types.CorpusConfig
	logger *zap.Logger
	chunks []types.RetrievalChunk
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// BuildIndex enumerates supported documents in cfg.Dir and chunks their
// text. A missing directory yields an empty index. Unreadable or corrupt
// documents are skipped with a warning; they never fail the build.
func BuildIndex(ctx context.Context, cfg types.CorpusConfig, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 200
		if cfg.ChunkOverlap >= cfg.ChunkSize {
			cfg.ChunkOverlap = cfg.ChunkSize / 4
		}
	}

	ix := &Index{cfg: cfg, logger: logger}

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("reading corpus directory %s: %w", cfg.Dir, err)
	}

	cache := openCache(cfg.Dir, logger)
	if cache != nil {
		defer cache.Close()
	}

	// ReadDir returns entries sorted by name, which fixes document order
	// and makes search tie-breaking deterministic.
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if entry.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unreadable document", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		modTime := info.ModTime().UTC().Format("2006-01-02T15:04:05.999999999Z07:00")

		if cache != nil {
			if cached, ok := loadCachedChunks(ctx, cache, entry.Name(), modTime); ok {
				ix.chunks = append(ix.chunks, cached...)
				continue
			}
		}

		path := filepath.Join(cfg.Dir, entry.Name())
		chunks, err := extractChunks(path, entry.Name(), cfg.ChunkSize, cfg.ChunkOverlap, logger)
		if err != nil {
			logger.Warn("skipping document", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		if cache != nil {
			if err := storeCachedChunks(ctx, cache, entry.Name(), modTime, chunks); err != nil {
				logger.Warn("chunk cache write failed", zap.String("file", entry.Name()), zap.Error(err))
			}
		}
		ix.chunks = append(ix.chunks, chunks...)
	}

	return ix, nil
}

// Search scores every chunk against query and returns the top n by
// descending score. Zero-score chunks are excluded. Ties keep document
// order then chunk order, so identical inputs always produce an
// identical ranking. An empty index returns an empty list.
func (ix *Index) Search(query string, n int) []types.RetrievalChunk {
	if n <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	qTokens := queryTokens(query)
	if len(qTokens) == 0 {
		return nil
	}

	scored := make([]types.RetrievalChunk, 0, len(ix.chunks))
	for _, ch := range ix.chunks {
		score := scoreChunk(qTokens, ch.Text)
		if score <= 0 {
			continue
		}
		ch.Score = score
		scored = append(scored, ch)
	}

	// Stable sort preserves index order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n]
}

// openCache opens (or creates) the chunk cache database in dir. Any
// failure is logged and disables caching for this build; it never fails
// the index.
func openCache(dir string, logger *zap.Logger) *sql.DB {
	path := filepath.Join(dir, cacheFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		logger.Warn("chunk cache unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS files (
			name TEXT PRIMARY KEY,
			mod_time TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			file TEXT NOT NULL REFERENCES files(name),
			seq INTEGER NOT NULL,
			page INTEGER,
			start_off INTEGER,
			end_off INTEGER,
			text TEXT NOT NULL,
			PRIMARY KEY (file, seq)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			logger.Warn("chunk cache schema failed", zap.String("path", path), zap.Error(err))
			db.Close()
			return nil
		}
	}
	return db
}

// loadCachedChunks returns the cached chunks for name if the stored mod
// time matches, in chunk order.
func loadCachedChunks(ctx context.Context, db *sql.DB, name, modTime string) ([]types.RetrievalChunk, bool) {
	var stored string
	err := db.QueryRowContext(ctx, `SELECT mod_time FROM files WHERE name = ?`, name).Scan(&stored)
	if err != nil || stored != modTime {
		return nil, false
	}

	rows, err := db.QueryContext(ctx,
		`SELECT page, start_off, end_off, text FROM chunks WHERE file = ? ORDER BY seq`, name)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var chunks []types.RetrievalChunk
	for rows.Next() {
		ch := types.RetrievalChunk{Source: name}
		if err := rows.Scan(&ch.Page, &ch.Start, &ch.End, &ch.Text); err != nil {
			return nil, false
		}
		chunks = append(chunks, ch)
	}
	if rows.Err() != nil {
		return nil, false
	}
	return chunks, true
}

// storeCachedChunks replaces the cached chunks for name in one transaction.
func storeCachedChunks(ctx context.Context, db *sql.DB, name, modTime string, chunks []types.RetrievalChunk) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file = ?`, name); err != nil {
		return fmt.Errorf("deleting stale chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (name, mod_time) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET mod_time=excluded.mod_time`,
		name, modTime); err != nil {
		return fmt.Errorf("upserting file record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (file, seq, page, start_off, end_off, text) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		if _, err := stmt.ExecContext(ctx, name, i, ch.Page, ch.Start, ch.End, ch.Text); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}
