// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localdocs

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// Retriever builds an index of the configured corpus directory per call
// and searches it. Each call sees the directory's current snapshot;
// documents added or removed between runs need no notification.
type Retriever struct {
	cfg    types.CorpusConfig
	logger *zap.Logger
}

// NewRetriever returns a retriever over cfg.Dir.
func NewRetriever(cfg types.CorpusConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{cfg: cfg, logger: logger}
}

// Retrieve indexes the corpus and returns the topN chunks for query.
func (r *Retriever) Retrieve(ctx context.Context, query string, topN int) ([]types.RetrievalChunk, error) {
	ix, err := BuildIndex(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	return ix.Search(query, topN), nil
}
