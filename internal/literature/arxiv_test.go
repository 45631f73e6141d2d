package literature

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

const sampleArxivXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Machine Learning Potentials for Metal-Organic Frameworks</title>
    <summary>We train interatomic potentials for UiO-66 relaxation.</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2212.01234v1</id>
    <title>Adsorption in Porous Materials</title>
    <summary>A survey of adsorption simulation methods.</summary>
  </entry>
</feed>`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() { arxivAPIBase = old })

	cfg := types.LiteratureConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		MaxDocs:    6,
	}
	return NewClient(cfg, zap.NewNop())
}

func TestFetchParsesFeed(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleArxivXML)
	})

	docs, err := c.Fetch(context.Background(), "UiO-66 relaxation", 6)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	if docs[0].ID != "2301.07041" {
		t.Errorf("ID = %q, want 2301.07041 (version stripped)", docs[0].ID)
	}
	if docs[0].Title != "Machine Learning Potentials for Metal-Organic Frameworks" {
		t.Errorf("Title = %q", docs[0].Title)
	}
}

func TestFetchServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.Fetch(context.Background(), "UiO-66", 6); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestFetchEmptyTopic(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent for an empty topic")
	})

	if _, err := c.Fetch(context.Background(), "   ", 6); err == nil {
		t.Fatal("expected error on empty topic")
	}
}

func TestBuildQueryTruncatesLongTopics(t *testing.T) {
	topic := strings.Repeat("adsorption ", 50)
	q := buildQuery(topic)
	if len(q) > len("all:")+maxQueryRunes {
		t.Errorf("query length = %d, want <= %d", len(q), len("all:")+maxQueryRunes)
	}
	if !strings.HasPrefix(q, "all:adsorption") {
		t.Errorf("query = %q", q)
	}
}

func TestCompactBlocks(t *testing.T) {
	docs := []Doc{
		{Title: "Paper A", ID: "2301.07041", Summary: "First abstract."},
		{Title: "Paper B", ID: "2212.01234", Summary: "Second abstract."},
	}
	blocks := CompactBlocks(docs)
	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0], "TITLE: Paper A") || !strings.Contains(blocks[0], "ID: 2301.07041") {
		t.Errorf("block = %q", blocks[0])
	}
	if !strings.HasSuffix(blocks[1], "---") {
		t.Errorf("block missing separator: %q", blocks[1])
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://example.com/nothing", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.LiteratureConfig{}, nil)
	if c.http.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s default", c.http.Timeout)
	}
	if c.cfg.UserAgent != "mlip-agent/0.1" {
		t.Errorf("UserAgent = %q, want mlip-agent/0.1 default", c.cfg.UserAgent)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleArxivXML)
	})

	if _, err := c.Fetch(context.Background(), "UiO-66 relaxation", 6); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != "test/0.1" {
		t.Errorf("User-Agent = %q, want test/0.1", gotUA)
	}
}
