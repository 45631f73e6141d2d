// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences a run through its reasoning stages:
// intent, canonicalize, retrieve, novelty, spec. The controller owns the
// run's state object, resolves the fast/normal policy once, and
// implements the novelty short-circuit: a reject verdict ends the run
// with a memory record and no spec.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/mlip-agent/internal/literature"
	"github.com/pdiddy/mlip-agent/internal/memory"
	"github.com/pdiddy/mlip-agent/internal/predict"
	"github.com/pdiddy/mlip-agent/pkg/types"
)

// runIDPrefix prefixes every run identifier.
const runIDPrefix = "mlip"

// LiteratureSource fetches documents for a topic. Implemented by
// literature.Client; failures are absorbed as "no literature".
type LiteratureSource interface {
	Fetch(ctx context.Context, topic string, maxDocs int) ([]literature.Doc, error)
}

// DocumentRetriever returns ranked passages from the local corpus.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, topN int) ([]types.RetrievalChunk, error)
}

// Controller runs the pipeline. One Controller may serve many runs; each
// run gets its own State, discarded when the run ends.
type Controller struct {
	cfg     types.AgentConfig
	policy  Policy
	backend predict.Backend
	memory  *memory.Store
	lit     LiteratureSource
	docs    DocumentRetriever
	sink    SpecSink
	logger  *zap.Logger
}

// New wires a Controller from its collaborators. cfg must be fully
// resolved; the controller never reads ambient configuration.
func New(cfg types.AgentConfig, backend predict.Backend, mem *memory.Store,
	lit LiteratureSource, docs DocumentRetriever, sink SpecSink, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:     cfg,
		policy:  PolicyFor(cfg),
		backend: backend,
		memory:  mem,
		lit:     lit,
		docs:    docs,
		sink:    sink,
		logger:  logger,
	}
}

// Policy returns the resolved run policy.
func (c *Controller) Policy() Policy { return c.policy }

// Run executes the full pipeline for rawQuery. It returns a Result for
// the two normal terminal states (spec written, rejected) and an error
// for fatal ones; a fatal error still appends a best-effort memory
// record so future runs see the attempt.
func (c *Controller) Run(ctx context.Context, rawQuery string) (*Result, error) {
	st := &State{
		RunID:         NewRunID(runIDPrefix),
		QueryOriginal: rawQuery,
	}
	c.logger.Info("run started",
		zap.String("run_id", st.RunID), zap.Bool("fast_mode", c.cfg.FastMode))

	// init: pull similar past runs into a bounded context string.
	recalled, err := c.memory.TopK(rawQuery, c.policy.MemoryK)
	if err != nil {
		return nil, fmt.Errorf("retrieving memory: %w", err)
	}
	st.MemoryContext = memory.FormatContext(recalled, c.policy.MemoryCharCap)

	intent, err := predict.Intent(ctx, c.backend, predict.IntentInput{
		Query:         st.QueryOriginal,
		MemoryContext: st.MemoryContext,
	})
	if err != nil {
		c.recordFailure(st, err)
		return nil, err
	}
	st.setIntent(intent)

	canonical, err := predict.Canonicalize(ctx, c.backend, predict.CanonicalizeInput{
		Query:         st.QueryOriginal,
		Intent:        *st.Intent,
		MemoryContext: st.MemoryContext,
	})
	if err != nil {
		c.recordFailure(st, err)
		return nil, err
	}
	st.setCanonical(canonical)

	c.retrieve(ctx, st)

	if c.policy.NoveltyEnabled {
		verdict, err := predict.Novelty(ctx, c.backend, predict.NoveltyInput{
			Canonical:     st.Canonical.Canonical,
			MemoryContext: st.MemoryContext,
			Literature:    st.LiteratureText,
			LocalContext:  st.LocalContext,
		})
		if err != nil {
			c.recordFailure(st, err)
			return nil, err
		}
		st.setNovelty(verdict)
	} else {
		st.setNovelty(types.NoveltyVerdict{
			Status:    types.VerdictPass,
			Rationale: "fast mode: novelty check skipped",
			TopRefs:   []types.PaperRef{},
		})
	}

	if st.Novelty.Status == types.VerdictReject {
		c.logger.Info("novelty gate rejected run",
			zap.String("run_id", st.RunID), zap.String("rationale", st.Novelty.Rationale))
		if err := c.memory.Append(c.memoryRecord(st, string(types.VerdictReject), st.Novelty.Rationale)); err != nil {
			return nil, fmt.Errorf("recording rejection: %w", err)
		}
		return &Result{
			RunID:     st.RunID,
			Status:    StatusRejected,
			Intent:    *st.Intent,
			Canonical: st.Canonical.Canonical,
			Verdict:   *st.Novelty,
		}, nil
	}

	// An uncertain verdict proceeds exactly like a pass.
	spec, err := predict.Spec(ctx, c.backend, predict.SpecInput{
		QueryOriginal:  st.QueryOriginal,
		QueryCanonical: st.Canonical.Canonical,
		MemoryContext:  st.MemoryContext,
		Novelty:        *st.Novelty,
		RunID:          st.RunID,
	})
	if err != nil {
		c.recordFailure(st, err)
		return nil, err
	}
	// The model is asked to echo the run id; do not trust it to.
	spec.RunID = st.RunID
	st.setSpec(spec)

	path, err := c.sink.Write(st.RunID, *st.Spec)
	if err != nil {
		c.recordFailure(st, err)
		return nil, fmt.Errorf("writing spec: %w", err)
	}

	if err := c.memory.Append(c.memoryRecord(st, string(st.Novelty.Status), st.Novelty.Rationale)); err != nil {
		// The spec is already durable; losing the memory record only
		// degrades future retrieval.
		c.logger.Warn("memory append failed", zap.String("run_id", st.RunID), zap.Error(err))
	}

	c.logger.Info("run finished",
		zap.String("run_id", st.RunID), zap.String("spec_path", path))
	return &Result{
		RunID:     st.RunID,
		Status:    StatusSpecWritten,
		Intent:    *st.Intent,
		Canonical: st.Canonical.Canonical,
		Verdict:   *st.Novelty,
		Spec:      st.Spec,
		SpecPath:  path,
	}, nil
}

// retrieve gathers literature and local context concurrently. Both
// sources are best-effort: any failure logs a warning and leaves the
// corresponding text empty. Results reach the state object only after
// both calls resolve.
func (c *Controller) retrieve(ctx context.Context, st *State) {
	topic := st.Canonical.Canonical

	var litText, localText string
	var chunks []types.RetrievalChunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if !c.policy.LiteratureEnabled {
			return nil
		}
		docs, err := c.lit.Fetch(gctx, topic, c.cfg.Literature.MaxDocs)
		if err != nil {
			c.logger.Warn("literature fetch failed, continuing without it",
				zap.String("run_id", st.RunID), zap.Error(err))
			return nil
		}
		litText = joinBlocks(literature.CompactBlocks(docs), c.policy.LiteratureCharCap)
		return nil
	})
	g.Go(func() error {
		topN := c.cfg.Corpus.TopChunks
		if topN <= 0 {
			topN = 5
		}
		res, err := c.docs.Retrieve(gctx, topic, topN)
		if err != nil {
			c.logger.Warn("local retrieval failed, continuing without it",
				zap.String("run_id", st.RunID), zap.Error(err))
			return nil
		}
		chunks = res
		localText = joinBlocks(chunkBlocks(res), c.policy.LocalCharCap)
		return nil
	})
	g.Wait() //nolint:errcheck // both branches absorb their own errors

	st.setRetrieved(litText, localText, chunks)
}

// memoryRecord builds the durable summary of this run from whatever
// state has been populated so far.
func (c *Controller) memoryRecord(st *State, status, rationale string) types.MemoryRecord {
	rec := types.MemoryRecord{
		Timestamp:        time.Now().UTC(),
		RunID:            st.RunID,
		QueryOriginal:    st.QueryOriginal,
		VerdictStatus:    status,
		VerdictRationale: rationale,
	}
	if st.Intent != nil {
		rec.Material = st.Intent.Material
		rec.TaskType = st.Intent.TaskHint
	}
	if st.Canonical != nil {
		rec.QueryCanonical = st.Canonical.Canonical
	}
	return rec
}

// recordFailure appends a best-effort memory record for a fatally
// aborted run. Append errors are only logged; the original failure is
// what propagates.
func (c *Controller) recordFailure(st *State, cause error) {
	rec := c.memoryRecord(st, "failed", cause.Error())
	if err := c.memory.Append(rec); err != nil {
		c.logger.Warn("failure record append failed",
			zap.String("run_id", st.RunID), zap.Error(err))
	}
}
