// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature fetches candidate prior work from the arXiv API and
// compacts it into prompt-ready text. The fetcher is best-effort: callers
// treat any failure as "no literature available" and continue.
package literature

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/internal/httputil"
	"github.com/pdiddy/mlip-agent/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// maxQueryRunes bounds the free-text query sent to arXiv. Long canonical
// queries produce huge URLs and trip rate limits.
const maxQueryRunes = 200

const (
	// defaultTimeout caps a single fetch. A hung connection must resolve
	// into the caller's empty-literature path, not stall the run.
	defaultTimeout = 30 * time.Second

	defaultUserAgent = "mlip-agent/0.1"
)

// Doc is one fetched document: the metadata and abstract the novelty
// gate reasons over.
type Doc struct {
	Title   string
	ID      string
	Summary string
}

// Client queries the arXiv API.
type Client struct {
	cfg    types.LiteratureConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds an arXiv client from cfg, defaulting the HTTP timeout
// and User-Agent when unset.
func NewClient(cfg types.LiteratureConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Fetch queries arXiv for topic and returns up to maxDocs documents.
// Rate-limited requests are retried with backoff; any remaining failure
// is returned as an error for the caller to absorb.
func (c *Client) Fetch(ctx context.Context, topic string, maxDocs int) ([]Doc, error) {
	q := buildQuery(topic)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if maxDocs <= 0 {
		maxDocs = 6
	}

	url := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, maxDocs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 3)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var docs []Doc
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		docs = append(docs, Doc{
			Title:   strings.TrimSpace(entry.Title),
			ID:      id,
			Summary: strings.TrimSpace(entry.Summary),
		})
	}
	return docs, nil
}

// CompactBlocks renders fetched documents as one self-contained text
// block per document, so downstream truncation can drop whole documents
// from the tail instead of cutting mid-abstract.
func CompactBlocks(docs []Doc) []string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("TITLE: %s\nID: %s\nSUMMARY:\n%s\n---", d.Title, d.ID, d.Summary))
	}
	return blocks
}

// buildQuery constructs the search_query parameter from a free-text topic,
// truncated to a safe length.
func buildQuery(topic string) string {
	runes := []rune(strings.TrimSpace(topic))
	if len(runes) > maxQueryRunes {
		runes = runes[:maxQueryRunes]
	}
	terms := strings.Fields(string(runes))
	if len(terms) == 0 {
		return ""
	}
	return "all:" + strings.Join(terms, "+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
