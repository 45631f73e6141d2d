package pipeline

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

func TestPolicyForDefaults(t *testing.T) {
	p := PolicyFor(types.AgentConfig{})
	if !p.NoveltyEnabled || !p.LiteratureEnabled {
		t.Errorf("normal mode disabled stages: %+v", p)
	}
	if p.MemoryK != 5 || p.LiteratureCharCap != 15000 || p.LocalCharCap != 8000 {
		t.Errorf("defaults = %+v", p)
	}
	if p.MemoryCharCap != 4000 {
		t.Errorf("MemoryCharCap = %d, want 4000", p.MemoryCharCap)
	}
}

func TestPolicyForFastMode(t *testing.T) {
	p := PolicyFor(types.AgentConfig{FastMode: true})
	if p.NoveltyEnabled || p.LiteratureEnabled {
		t.Errorf("fast mode left stages enabled: %+v", p)
	}
	if p.MemoryK != 1 || p.LiteratureCharCap != 5000 || p.LocalCharCap != 3000 {
		t.Errorf("fast policy = %+v", p)
	}
	if p.MemoryCharCap != 4000 {
		t.Errorf("MemoryCharCap = %d, want 4000 (memory cap has no fast variant)", p.MemoryCharCap)
	}
}

func TestPolicyForFastModeNeverRaisesCaps(t *testing.T) {
	cfg := types.AgentConfig{FastMode: true}
	cfg.Literature.CharCap = 2000
	cfg.Corpus.CharCap = 1000
	p := PolicyFor(cfg)
	if p.LiteratureCharCap != 2000 || p.LocalCharCap != 1000 {
		t.Errorf("fast mode raised configured caps: %+v", p)
	}
}

func TestNewRunIDFormat(t *testing.T) {
	id := NewRunID("mlip")
	re := regexp.MustCompile(`^mlip-\d{8}-[0-9a-f]{8}$`)
	if !re.MatchString(id) {
		t.Errorf("NewRunID = %q, want mlip-YYYYMMDD-xxxxxxxx", id)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID("mlip")
		if seen[id] {
			t.Fatalf("duplicate run id %q", id)
		}
		seen[id] = true
	}
}

func TestJoinBlocksUnbounded(t *testing.T) {
	got := joinBlocks([]string{"a", "b", "c"}, 0)
	if got != "a\n\nb\n\nc" {
		t.Errorf("joinBlocks = %q", got)
	}
}

func TestJoinBlocksDropsWholeTrailingBlocks(t *testing.T) {
	blocks := []string{strings.Repeat("x", 10), strings.Repeat("y", 10), strings.Repeat("z", 10)}
	// 10 + 2 + 10 = 22 fits; adding the third block (2 + 10) would need 34.
	got := joinBlocks(blocks, 25)
	want := blocks[0] + "\n\n" + blocks[1]
	if got != want {
		t.Errorf("joinBlocks = %q, want %q", got, want)
	}
	if strings.Contains(got, "z") {
		t.Error("third block should have been dropped whole")
	}
}

func TestJoinBlocksHardCutsOversizedFirstBlock(t *testing.T) {
	got := joinBlocks([]string{strings.Repeat("раз", 10)}, 7)
	if utf8.RuneCountInString(got) != 7 {
		t.Errorf("first-block cut = %d runes, want 7", utf8.RuneCountInString(got))
	}
}

func TestJoinBlocksEmpty(t *testing.T) {
	if got := joinBlocks(nil, 100); got != "" {
		t.Errorf("joinBlocks(nil) = %q", got)
	}
}

func TestChunkBlocksRendering(t *testing.T) {
	blocks := chunkBlocks([]types.RetrievalChunk{
		{Source: "paper.pdf", Page: 3, Text: "framework stability"},
		{Source: "notes.md", Text: "lattice constants"},
	})
	if blocks[0] != "[paper.pdf p.3] framework stability" {
		t.Errorf("blocks[0] = %q", blocks[0])
	}
	if blocks[1] != "[notes.md] lattice constants" {
		t.Errorf("blocks[1] = %q", blocks[1])
	}
}

func TestStatePanicsOnDoubleWrite(t *testing.T) {
	st := &State{RunID: "mlip-20260829-deadbeef"}
	st.setCanonical(types.CanonicalQuery{Canonical: "first"})
	defer func() {
		if recover() == nil {
			t.Error("second setCanonical did not panic")
		}
	}()
	st.setCanonical(types.CanonicalQuery{Canonical: "second"})
}
