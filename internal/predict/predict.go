// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package predict calls a structured-output language model and validates
// its responses. Each reasoning stage has a fixed input struct, a JSON
// schema its output must satisfy, and one typed call function; nothing
// here reads pipeline state directly.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// Stage names, used in prompts and error reporting.
const (
	StageIntent       = "intent"
	StageCanonicalize = "canonicalize"
	StageNovelty      = "novelty"
	StageSpec         = "spec"
)

// Backend abstracts the model API so tests can supply a mock. Complete
// sends one request and returns the raw JSON response body.
type Backend interface {
	Complete(ctx context.Context, stage, system, user string) ([]byte, error)
}

// TransportError wraps a backend failure: the model was unreachable or
// the provider returned an error. Fatal for every stage.
type TransportError struct {
	Stage string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports a model response that does not satisfy the
// stage's output schema. Fatal for every stage; no partial output is
// ever accepted.
type ValidationError struct {
	Stage  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid model output: %s", e.Stage, e.Detail)
}

// call runs one stage: backend request, schema validation, unmarshal.
func call[T any](ctx context.Context, b Backend, stage string, schema *gojsonschema.Schema, system, user string) (T, error) {
	var out T

	raw, err := b.Complete(ctx, stage, system, user)
	if err != nil {
		return out, &TransportError{Stage: stage, Err: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return out, &ValidationError{Stage: stage, Detail: fmt.Sprintf("unparsable response: %v", err)}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return out, &ValidationError{Stage: stage, Detail: strings.Join(problems, "; ")}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ValidationError{Stage: stage, Detail: fmt.Sprintf("decoding response: %v", err)}
	}
	return out, nil
}

// IntentInput is the declared input of the intent stage.
type IntentInput struct {
	Query         string
	MemoryContext string
}

// Intent parses the raw query into a QueryIntent.
func Intent(ctx context.Context, b Backend, in IntentInput) (types.QueryIntent, error) {
	return call[types.QueryIntent](ctx, b, StageIntent, intentSchema, intentSystem, intentUser(in))
}

// CanonicalizeInput is the declared input of the canonicalize stage.
type CanonicalizeInput struct {
	Query         string
	Intent        types.QueryIntent
	MemoryContext string
}

// Canonicalize rewrites the query into a single precise experimental question.
func Canonicalize(ctx context.Context, b Backend, in CanonicalizeInput) (types.CanonicalQuery, error) {
	return call[types.CanonicalQuery](ctx, b, StageCanonicalize, canonicalSchema, canonicalSystem, canonicalUser(in))
}

// NoveltyInput is the declared input of the novelty stage.
type NoveltyInput struct {
	Canonical     string
	MemoryContext string
	Literature    string
	LocalContext  string
}

// Novelty judges whether the proposed experiment is already established work.
func Novelty(ctx context.Context, b Backend, in NoveltyInput) (types.NoveltyVerdict, error) {
	return call[types.NoveltyVerdict](ctx, b, StageNovelty, noveltySchema, noveltySystem, noveltyUser(in))
}

// SpecInput is the declared input of the spec stage.
type SpecInput struct {
	QueryOriginal  string
	QueryCanonical string
	MemoryContext  string
	Novelty        types.NoveltyVerdict
	RunID          string
}

// Spec generates the machine-executable experiment specification.
func Spec(ctx context.Context, b Backend, in SpecInput) (types.ExperimentSpec, error) {
	return call[types.ExperimentSpec](ctx, b, StageSpec, specSchema, specSystem, specUser(in))
}
