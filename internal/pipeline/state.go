// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/mlip-agent/pkg/types"
)

// Status is the terminal outcome of a run that finished without a fatal
// error. Rejection is a normal outcome, not a failure.
type Status string

const (
	StatusSpecWritten Status = "spec_written"
	StatusRejected    Status = "rejected"
)

// State is the single mutable object threaded through one run. Fields
// are populated strictly in stage order and written exactly once; the
// setters panic on a second write so an ordering bug fails immediately
// instead of silently clobbering earlier output.
type State struct {
	RunID         string
	QueryOriginal string
	MemoryContext string

	Intent         *types.QueryIntent
	Canonical      *types.CanonicalQuery
	LiteratureText string
	LocalContext   string
	LocalChunks    []types.RetrievalChunk
	Novelty        *types.NoveltyVerdict
	Spec           *types.ExperimentSpec

	retrieved bool
}

func (s *State) setIntent(v types.QueryIntent) {
	if s.Intent != nil {
		panic("pipeline: intent written twice")
	}
	s.Intent = &v
}

func (s *State) setCanonical(v types.CanonicalQuery) {
	if s.Canonical != nil {
		panic("pipeline: canonical query written twice")
	}
	s.Canonical = &v
}

func (s *State) setRetrieved(literatureText, localContext string, chunks []types.RetrievalChunk) {
	if s.retrieved {
		panic("pipeline: retrieval results written twice")
	}
	s.retrieved = true
	s.LiteratureText = literatureText
	s.LocalContext = localContext
	s.LocalChunks = chunks
}

func (s *State) setNovelty(v types.NoveltyVerdict) {
	if s.Novelty != nil {
		panic("pipeline: novelty verdict written twice")
	}
	s.Novelty = &v
}

func (s *State) setSpec(v types.ExperimentSpec) {
	if s.Spec != nil {
		panic("pipeline: spec written twice")
	}
	s.Spec = &v
}

// Result summarizes a finished run for the caller.
type Result struct {
	RunID     string
	Status    Status
	Intent    types.QueryIntent
	Canonical string
	Verdict   types.NoveltyVerdict

	// Spec and SpecPath are set only when Status is StatusSpecWritten.
	Spec     *types.ExperimentSpec
	SpecPath string
}
