package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

func testStore(t *testing.T, maxItems int) *Store {
	t.Helper()
	cfg := types.MemoryConfig{
		Path:     filepath.Join(t.TempDir(), "memory.jsonl"),
		MaxItems: maxItems,
	}
	s, err := NewStore(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func record(runID, original, canonical string, ts time.Time) types.MemoryRecord {
	return types.MemoryRecord{
		Timestamp:      ts,
		RunID:          runID,
		QueryOriginal:  original,
		QueryCanonical: canonical,
		Material:       "UiO-66",
		TaskType:       types.TaskRelaxation,
		VerdictStatus:  string(types.VerdictPass),
	}
}

func TestTopKEmptyStore(t *testing.T) {
	s := testStore(t, 0)
	got, err := s.TopK("relax UiO-66", 5)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestTopKReturnsMinKN(t *testing.T) {
	s := testStore(t, 0)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := record(fmt.Sprintf("mlip-20260801-%04d", i),
			"relax UiO-66 with fmax 0.05", "Relax UiO-66", base.Add(time.Duration(i)*time.Minute))
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	tests := []struct {
		k    int
		want int
	}{
		{1, 1},
		{3, 3},
		{10, 3},
		{0, 0},
	}
	for _, tt := range tests {
		got, err := s.TopK("relax UiO-66", tt.k)
		if err != nil {
			t.Fatalf("TopK(k=%d): %v", tt.k, err)
		}
		if len(got) != tt.want {
			t.Errorf("TopK(k=%d) len = %d, want %d", tt.k, len(got), tt.want)
		}
	}
}

func TestTopKRanksByOverlap(t *testing.T) {
	s := testStore(t, 0)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	hi := record("run-hi", "relax UiO-66 with fmax 0.05 max 500 steps", "Relax UiO-66", ts)
	lo := record("run-lo", "adsorption energy of CO2 in MOF-5", "CO2 adsorption MOF-5", ts.Add(time.Minute))
	lo.Material = "MOF-5"
	lo.TaskType = types.TaskAdsorptionEnergy

	for _, rec := range []types.MemoryRecord{lo, hi} {
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.TopK("relax UiO-66 fmax", 1)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run-hi" {
		t.Errorf("TopK returned %+v, want run-hi first", got)
	}
}

func TestTopKTieBreaksMostRecentFirst(t *testing.T) {
	s := testStore(t, 0)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Identical index text: scores tie, the later append must win.
	older := record("run-older", "relax UiO-66", "Relax UiO-66", ts)
	newer := record("run-newer", "relax UiO-66", "Relax UiO-66", ts.Add(time.Hour))
	for _, rec := range []types.MemoryRecord{older, newer} {
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.TopK("relax UiO-66", 1)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run-newer" {
		t.Errorf("TopK returned %+v, want run-newer", got)
	}
}

func TestTopKEmptyQueryFallsBackToRecent(t *testing.T) {
	s := testStore(t, 0)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rec := record(fmt.Sprintf("run-%d", i), "relax UiO-66", "Relax UiO-66", ts.Add(time.Duration(i)*time.Minute))
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.TopK("", 2)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].RunID != "run-3" || got[1].RunID != "run-2" {
		t.Errorf("got %s, %s; want run-3, run-2", got[0].RunID, got[1].RunID)
	}
}

func TestLoadAllSkipsCorruptLines(t *testing.T) {
	s := testStore(t, 0)
	if err := s.Append(record("run-ok", "relax UiO-66", "Relax UiO-66", time.Now().UTC())); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Simulate a crash mid-write: a truncated JSON line between two valid ones.
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fmt.Fprintln(f, `{"run_id":"run-corrupt","query_orig`)
	f.Close()
	if err := s.Append(record("run-ok-2", "singlepoint MOF-5", "Singlepoint MOF-5", time.Now().UTC())); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (corrupt line skipped)", len(records))
	}
	if records[0].RunID != "run-ok" || records[1].RunID != "run-ok-2" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestAppendTrimsToMaxItems(t *testing.T) {
	s := testStore(t, 3)
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := record(fmt.Sprintf("run-%d", i), "relax UiO-66", "Relax UiO-66", ts.Add(time.Duration(i)*time.Minute))
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3 after trim", len(records))
	}
	if records[0].RunID != "run-2" {
		t.Errorf("oldest surviving record = %s, want run-2", records[0].RunID)
	}
}

func TestFormatContext(t *testing.T) {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []types.MemoryRecord{
		record("run-a", "relax UiO-66", "Relax UiO-66", ts),
		record("run-b", "singlepoint MOF-5", "Singlepoint MOF-5", ts),
	}

	got := FormatContext(records, 0)
	if !strings.Contains(got, "run-a") || !strings.Contains(got, "run-b") {
		t.Errorf("context missing records:\n%s", got)
	}
	if strings.Index(got, "run-a") > strings.Index(got, "run-b") {
		t.Errorf("ordering not preserved:\n%s", got)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil, 0); got != "(no prior memory)" {
		t.Errorf("FormatContext(nil) = %q", got)
	}
}

func TestFormatContextBounded(t *testing.T) {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var records []types.MemoryRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("run-%02d", i),
			strings.Repeat("relax UiO-66 with tight convergence ", 5), "Relax UiO-66", ts))
	}

	const charCap = 800
	got := FormatContext(records, charCap)
	if len(got) > charCap {
		t.Errorf("len = %d, want <= %d", len(got), charCap)
	}
	// Whole blocks only: the output must not end inside a block.
	if !strings.Contains(got, "run-00") {
		t.Errorf("best match dropped:\n%s", got)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Relax UiO-66", []string{"relax", "uio-66"}},
		{"a b c", nil},
		{"", nil},
		{"fmax 0.05", []string{"fmax", "05"}},
	}
	for _, tt := range tests {
		got := tokenize(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
