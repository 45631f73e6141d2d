// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory persists summaries of past agent runs and retrieves the
// most similar ones for a new query. Records live in a JSONL file, one
// self-contained JSON object per line, so a crash mid-write can corrupt at
// most the line being written and concurrent runs never damage each
// other's records.
package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// tokenize lowercases text and splits it into alphanumeric tokens of at
// least two characters.
func tokenize(text string) []string {
	var tokens []string
	for _, t := range wordPattern.FindAllString(text, -1) {
		if len(t) >= 2 {
			tokens = append(tokens, strings.ToLower(t))
		}
	}
	return tokens
}

// tokenSet returns the distinct tokens of text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(text) {
		set[t] = true
	}
	return set
}

// Store is the durable log of past runs. Retrieval is keyword-overlap
// based, which is cheap and needs no external service.
type Store struct {
	path     string
	maxItems int
	logger   *zap.Logger

	// mu serializes append-and-trim within this process. Cross-process
	// safety relies on O_APPEND writes being record-granular.
	mu sync.Mutex
}

// NewStore creates the store's parent directory and the backing file if
// they do not exist yet.
func NewStore(cfg types.MemoryConfig, logger *zap.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating memory directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening memory file: %w", err)
	}
	f.Close()

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: cfg.Path, maxItems: cfg.MaxItems, logger: logger}, nil
}

// Append adds one record to the log. The record is marshaled to a single
// line and written with one O_APPEND write, so concurrent writers cannot
// interleave partial entries. After a successful append the log is
// soft-trimmed to the configured maximum.
func (s *Store) Append(rec types.MemoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling memory record: %w", err)
	}
	line := append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening memory file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("appending memory record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing memory file: %w", err)
	}

	return s.trimLocked()
}

// LoadAll reads every record in the log in append order. Unparsable lines
// are skipped with a warning; they never fail the load.
func (s *Store) LoadAll() ([]types.MemoryRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening memory file: %w", err)
	}
	defer f.Close()

	var records []types.MemoryRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec types.MemoryRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.logger.Warn("skipping corrupt memory record",
				zap.String("path", s.path), zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("reading memory file: %w", err)
	}
	return records, nil
}

// indexText is the searchable surface of a record: the fields worth
// matching a new query against.
func indexText(r types.MemoryRecord) string {
	return strings.Join([]string{
		r.QueryOriginal, r.QueryCanonical, r.Material,
		string(r.TaskType), r.VerdictStatus,
	}, " ")
}

// TopK returns up to k records most similar to query. Similarity is the
// size of the intersection between the query's token set and the record's
// indexed token set; ties go to the more recent record. A query with no
// usable tokens falls back to the k most recent records. An empty store
// returns an empty slice, never an error.
func (s *Store) TopK(query string, k int) ([]types.MemoryRecord, error) {
	if k <= 0 {
		return nil, nil
	}
	records, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	qTokens := tokenSet(query)

	type scored struct {
		rec   types.MemoryRecord
		score int
		pos   int // append order, later = more recent
	}
	all := make([]scored, 0, len(records))
	for i, rec := range records {
		score := 0
		if len(qTokens) > 0 {
			for t := range tokenSet(indexText(rec)) {
				if qTokens[t] {
					score++
				}
			}
		}
		all = append(all, scored{rec: rec, score: score, pos: i})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].pos > all[j].pos
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]types.MemoryRecord, k)
	for i := 0; i < k; i++ {
		out[i] = all[i].rec
	}
	return out, nil
}

// FormatContext renders records into a compact context string for prompt
// injection, best match first. Whole record blocks are dropped from the
// tail once charCap would be exceeded; charCap <= 0 means unbounded.
func FormatContext(records []types.MemoryRecord, charCap int) string {
	if len(records) == 0 {
		return "(no prior memory)"
	}
	var blocks []string
	total := 0
	for _, r := range records {
		block := fmt.Sprintf(
			"PAST_RUN: run_id=%s; material=%s; task=%s; verdict=%s\n  original=%s\n  canonical=%s",
			r.RunID, r.Material, r.TaskType, r.VerdictStatus,
			r.QueryOriginal, r.QueryCanonical,
		)
		cost := len(block)
		if len(blocks) > 0 {
			cost += 2 // joining "\n\n"
		}
		if charCap > 0 && total+cost > charCap {
			break
		}
		blocks = append(blocks, block)
		total += cost
	}
	if len(blocks) == 0 {
		return "(no prior memory)"
	}
	return strings.Join(blocks, "\n\n")
}

// trimLocked rewrites the log to the newest maxItems records when the soft
// cap is exceeded. The rewrite goes through a temp file and rename so a
// crash mid-trim never leaves a truncated log. Caller holds s.mu.
func (s *Store) trimLocked() error {
	if s.maxItems <= 0 {
		return nil
	}
	records, err := s.LoadAll()
	if err != nil {
		return err
	}
	if len(records) <= s.maxItems {
		return nil
	}
	records = records[len(records)-s.maxItems:]

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memory-trim-*")
	if err != nil {
		return fmt.Errorf("creating trim temp file: %w", err)
	}
	tmpName := tmp.Name()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("marshaling record during trim: %w", err)
		}
		if _, err := tmp.Write(append(data, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing trim temp file: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing trim temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing memory file: %w", err)
	}
	return nil
}
