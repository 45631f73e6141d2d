// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mlip-agent pipeline:
// the structured records produced by each reasoning stage, the durable
// memory record, and the retrieval chunk unit used by local document search.
package types

import "time"

// TaskType categorizes the simulation task an experiment performs.
type TaskType string

const (
	TaskRelaxation       TaskType = "relaxation"
	TaskSinglepoint      TaskType = "singlepoint"
	TaskAdsorptionEnergy TaskType = "adsorption_energy"
	TaskDefectEnergy     TaskType = "defect_energy"
)

// Feasibility describes whether a query can be verified with an ML
// interatomic potential as stated.
type Feasibility string

const (
	Feasible           Feasibility = "feasible"
	NeedsClarification Feasibility = "needs_clarification"
	NotVerifiable      Feasibility = "not_mlip_verifiable"
)

// QueryIntent is the parsed form of the user's free-form query: what
// material they are asking about, what they want to learn, and whether
// the question is answerable by a simulation at all.
type QueryIntent struct {
	// Material is the framework or structure name if mentioned (e.g. "UiO-66").
	Material string `json:"material" yaml:"material"`

	// Goal is the core hypothesis or objective stated by the user.
	Goal string `json:"goal" yaml:"goal"`

	// TaskHint is the best guess of the verifiable task type, empty if unclear.
	TaskHint TaskType `json:"task_hint" yaml:"task_hint"`

	// RequiredInputs lists missing information needed to run the experiment
	// (e.g. a CIF path, an adsorbate species).
	RequiredInputs []string `json:"required_inputs" yaml:"required_inputs"`

	// AmbiguityFlags lists detected ambiguities (unclear structure source,
	// unclear conditions).
	AmbiguityFlags []string `json:"ambiguity_flags" yaml:"ambiguity_flags"`

	// Feasibility states whether the query is verifiable as-is.
	Feasibility Feasibility `json:"feasibility" yaml:"feasibility"`
}

// CanonicalQuery is a single normalized experimental question. It is the
// lookup key for both literature search and local document retrieval.
type CanonicalQuery struct {
	// Canonical is the rewritten, testable form of the query.
	Canonical string `json:"canonical" yaml:"canonical"`

	// ClarifyingQuestions are questions to surface to the user if the
	// original query was underspecified.
	ClarifyingQuestions []string `json:"clarifying_questions" yaml:"clarifying_questions"`
}

// PaperRef is reference metadata attached to a novelty verdict or a
// retrieval result. It has no lifecycle of its own.
type PaperRef struct {
	// Title is the referenced work's title.
	Title string `json:"title" yaml:"title"`

	// ID is the source identifier (arXiv ID, DOI, or file name).
	ID string `json:"id" yaml:"id"`

	// WhyRelevant is a one-line justification for citing this work.
	WhyRelevant string `json:"why_relevant" yaml:"why_relevant"`
}

// VerdictStatus is the outcome of the novelty gate.
type VerdictStatus string

const (
	VerdictPass      VerdictStatus = "pass"
	VerdictReject    VerdictStatus = "reject"
	VerdictUncertain VerdictStatus = "uncertain"
)

// NoveltyVerdict is the novelty gate's decision. A reject status halts
// the pipeline before spec generation; pass and uncertain both proceed.
type NoveltyVerdict struct {
	// Status is pass, reject, or uncertain.
	Status VerdictStatus `json:"status" yaml:"status"`

	// Rationale explains the decision.
	Rationale string `json:"rationale" yaml:"rationale"`

	// TopRefs lists up to a few supporting references.
	TopRefs []PaperRef `json:"top_refs" yaml:"top_refs"`
}

// ExperimentSpec is the terminal artifact of a successful run: a
// machine-executable description a downstream simulation runner consumes.
type ExperimentSpec struct {
	// RunID is the unique identifier of the run that produced this spec.
	RunID string `json:"run_id" yaml:"run_id"`

	// QueryOriginal is the user's raw query.
	QueryOriginal string `json:"query_original" yaml:"query_original"`

	// QueryCanonical is the normalized experimental question.
	QueryCanonical string `json:"query_canonical" yaml:"query_canonical"`

	// Structure identifies the input structure: id, format, path.
	Structure map[string]any `json:"structure" yaml:"structure"`

	// Calculator selects the simulation engine: engine, model, precision.
	Calculator map[string]any `json:"calculator" yaml:"calculator"`

	// Task holds the task type and its numeric parameters.
	Task map[string]any `json:"task" yaml:"task"`

	// Postprocess lists requested outputs and trajectory handling.
	Postprocess map[string]any `json:"postprocess" yaml:"postprocess"`

	// NoveltyCheck summarizes the verdict that admitted this spec.
	NoveltyCheck map[string]any `json:"novelty_check" yaml:"novelty_check"`

	// Notes carries short free-text caveats, such as placeholder paths.
	Notes string `json:"notes" yaml:"notes"`
}

// MemoryRecord is one durable, append-only entry in the similarity store.
// It is created once at run end (or at reject exit) and never mutated.
type MemoryRecord struct {
	// Timestamp is the UTC creation time of the record.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// RunID is the run that produced this record.
	RunID string `json:"run_id" yaml:"run_id"`

	// QueryOriginal is the raw query the run started from.
	QueryOriginal string `json:"query_original" yaml:"query_original"`

	// QueryCanonical is the normalized query, empty if the run failed
	// before canonicalization.
	QueryCanonical string `json:"query_canonical" yaml:"query_canonical"`

	// Material is the material identifier extracted by intent parsing.
	Material string `json:"material" yaml:"material"`

	// TaskType is the task category of the run.
	TaskType TaskType `json:"task_type" yaml:"task_type"`

	// VerdictStatus is the novelty outcome, or "failed" for aborted runs.
	VerdictStatus string `json:"verdict_status" yaml:"verdict_status"`

	// VerdictRationale is the novelty gate's explanation.
	VerdictRationale string `json:"verdict_rationale" yaml:"verdict_rationale"`
}

// RetrievalChunk is a scored window of text from a corpus document.
// Chunks are created per retrieval call and never persisted in results.
type RetrievalChunk struct {
	// Source is the file name the chunk was taken from.
	Source string `json:"source" yaml:"source"`

	// Page is the 1-based page number for paginated formats, 0 otherwise.
	Page int `json:"page" yaml:"page"`

	// Start and End delimit the chunk's rune offsets within the page or file.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Text is the raw chunk content.
	Text string `json:"text" yaml:"text"`

	// Score is the lexical relevance of the chunk to the query. Higher is
	// more relevant; the absolute scale is not meaningful.
	Score float64 `json:"score" yaml:"score"`
}
