// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localdocs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// extractChunks reads one document and splits its text into overlapping
// windows. PDF pages are chunked independently so a chunk never spans a
// page boundary; plain-text formats are chunked as one body with page 0.
func extractChunks(path, name string, size, overlap int, logger *zap.Logger) ([]types.RetrievalChunk, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return pdfChunks(path, name, size, overlap, logger)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return chunkText(name, 0, string(data), size, overlap), nil
	}
}

// pdfChunks extracts text page by page. Pages that fail to parse are
// skipped with a warning rather than failing the whole document.
func pdfChunks(path, name string, size, overlap int, logger *zap.Logger) ([]types.RetrievalChunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	var chunks []types.RetrievalChunk
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable page",
				zap.String("file", name), zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		chunks = append(chunks, chunkText(name, pageNum, text, size, overlap)...)
	}
	return chunks, nil
}

// chunkText splits text into windows of size runes, each overlapping the
// previous by overlap runes. Blank windows are dropped.
func chunkText(source string, page int, text string, size, overlap int) []types.RetrievalChunk {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []types.RetrievalChunk
	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		body := strings.TrimSpace(string(runes[start:end]))
		if body != "" {
			chunks = append(chunks, types.RetrievalChunk{
				Source: source,
				Page:   page,
				Start:  start,
				End:    end,
				Text:   body,
			})
		}
		if end >= n {
			break
		}
		start = end - overlap
	}
	return chunks
}
