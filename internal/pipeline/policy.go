// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/mlip-agent/pkg/types"

// Default context budgets. Fast mode tightens them so prompts stay small
// and API round-trips stay short.
const (
	defaultMemoryK           = 5
	defaultMemoryCharCap     = 4000
	defaultLiteratureCharCap = 15000
	defaultLocalCharCap      = 8000

	fastMemoryK           = 1
	fastLiteratureCharCap = 5000
	fastLocalCharCap      = 3000
)

// Policy resolves every mode-dependent knob once, up front. The state
// machine's transition graph is identical in both modes; only these
// values and the novelty node's implementation differ.
type Policy struct {
	// NoveltyEnabled selects a real novelty call versus a synthesized
	// pass verdict.
	NoveltyEnabled bool

	// LiteratureEnabled controls whether the remote literature fetch
	// is attempted at all.
	LiteratureEnabled bool

	// MemoryK is how many similar past runs feed the memory context.
	MemoryK int

	// MemoryCharCap bounds the formatted memory context string. Always
	// positive; an unbounded memory context would let one oversized past
	// query blow through the prompt budget of every later run.
	MemoryCharCap int

	// LiteratureCharCap and LocalCharCap bound the retrieved context
	// stored in run state.
	LiteratureCharCap int
	LocalCharCap      int
}

// PolicyFor derives the run policy from cfg, applying defaults and the
// fast-mode reductions.
func PolicyFor(cfg types.AgentConfig) Policy {
	p := Policy{
		NoveltyEnabled:    true,
		LiteratureEnabled: true,
		MemoryK:           cfg.Memory.RetrieveK,
		MemoryCharCap:     cfg.Memory.ContextCharCap,
		LiteratureCharCap: cfg.Literature.CharCap,
		LocalCharCap:      cfg.Corpus.CharCap,
	}
	if p.MemoryK <= 0 {
		p.MemoryK = defaultMemoryK
	}
	if p.MemoryCharCap <= 0 {
		p.MemoryCharCap = defaultMemoryCharCap
	}
	if p.LiteratureCharCap <= 0 {
		p.LiteratureCharCap = defaultLiteratureCharCap
	}
	if p.LocalCharCap <= 0 {
		p.LocalCharCap = defaultLocalCharCap
	}

	if cfg.FastMode {
		p.NoveltyEnabled = false
		p.LiteratureEnabled = false
		p.MemoryK = fastMemoryK
		if p.LiteratureCharCap > fastLiteratureCharCap {
			p.LiteratureCharCap = fastLiteratureCharCap
		}
		if p.LocalCharCap > fastLocalCharCap {
			p.LocalCharCap = fastLocalCharCap
		}
	}
	return p
}
