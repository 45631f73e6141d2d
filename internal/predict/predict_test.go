package predict

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response []byte
	err      error
	stages   []string
}

func (m *mockBackend) Complete(_ context.Context, stage, _, _ string) ([]byte, error) {
	m.stages = append(m.stages, stage)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func TestIntentValidResponse(t *testing.T) {
	b := &mockBackend{response: []byte(`{
		"material": "UiO-66",
		"goal": "relax the framework",
		"task_hint": "relaxation",
		"required_inputs": [],
		"ambiguity_flags": [],
		"feasibility": "feasible"
	}`)}

	got, err := Intent(context.Background(), b, IntentInput{Query: "relax UiO-66"})
	if err != nil {
		t.Fatalf("Intent: %v", err)
	}
	if got.Material != "UiO-66" {
		t.Errorf("Material = %q, want UiO-66", got.Material)
	}
	if got.TaskHint != types.TaskRelaxation {
		t.Errorf("TaskHint = %q", got.TaskHint)
	}
	if len(b.stages) != 1 || b.stages[0] != StageIntent {
		t.Errorf("stages = %v", b.stages)
	}
}

func TestIntentMissingRequiredField(t *testing.T) {
	// No feasibility field.
	b := &mockBackend{response: []byte(`{"goal": "relax the framework"}`)}

	_, err := Intent(context.Background(), b, IntentInput{Query: "relax UiO-66"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Stage != StageIntent {
		t.Errorf("Stage = %q", verr.Stage)
	}
}

func TestIntentMalformedJSON(t *testing.T) {
	b := &mockBackend{response: []byte(`{"goal": "relax`)}

	_, err := Intent(context.Background(), b, IntentInput{Query: "relax UiO-66"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestTransportErrorWraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	b := &mockBackend{err: cause}

	_, err := Intent(context.Background(), b, IntentInput{Query: "relax UiO-66"})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError does not wrap the backend error")
	}
}

func TestNoveltyRejectsUnknownStatus(t *testing.T) {
	b := &mockBackend{response: []byte(`{"status": "maybe", "rationale": "unsure"}`)}

	_, err := Novelty(context.Background(), b, NoveltyInput{Canonical: "Relax UiO-66"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestNoveltyValidResponse(t *testing.T) {
	b := &mockBackend{response: []byte(`{
		"status": "reject",
		"rationale": "already established",
		"top_refs": [{"title": "Prior work", "id": "2301.07041", "why_relevant": "same experiment"}]
	}`)}

	got, err := Novelty(context.Background(), b, NoveltyInput{Canonical: "Relax UiO-66"})
	if err != nil {
		t.Fatalf("Novelty: %v", err)
	}
	if got.Status != types.VerdictReject {
		t.Errorf("Status = %q", got.Status)
	}
	if len(got.TopRefs) != 1 || got.TopRefs[0].ID != "2301.07041" {
		t.Errorf("TopRefs = %+v", got.TopRefs)
	}
}

func TestCanonicalizeValidResponse(t *testing.T) {
	b := &mockBackend{response: []byte(`{"canonical": "Relax UiO-66 with fmax 0.05 and max 500 steps."}`)}

	got, err := Canonicalize(context.Background(), b, CanonicalizeInput{Query: "relax UiO-66"})
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got.Canonical == "" {
		t.Error("empty canonical query")
	}
}

func TestSpecRequiresCoreSections(t *testing.T) {
	// Missing calculator and task.
	b := &mockBackend{response: []byte(`{
		"run_id": "mlip-20260829-abcd1234",
		"query_canonical": "Relax UiO-66",
		"structure": {"id": "UiO-66"},
		"postprocess": {}
	}`)}

	_, err := Spec(context.Background(), b, SpecInput{RunID: "mlip-20260829-abcd1234"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSpecValidResponse(t *testing.T) {
	b := &mockBackend{response: []byte(`{
		"run_id": "mlip-20260829-abcd1234",
		"query_original": "relax UiO-66",
		"query_canonical": "Relax UiO-66 with fmax 0.05.",
		"structure": {"id": "UiO-66", "format": "cif", "path": "structures/uio66.cif"},
		"calculator": {"engine": "sevennet", "model": "7net-0", "precision": "float32"},
		"task": {"type": "relaxation", "fmax": 0.05, "max_steps": 500},
		"postprocess": {"outputs": ["energy", "forces"], "save_trajectory": true},
		"novelty_check": {"status": "pass"},
		"notes": ""
	}`)}

	got, err := Spec(context.Background(), b, SpecInput{RunID: "mlip-20260829-abcd1234"})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if got.Task["type"] != "relaxation" {
		t.Errorf("task.type = %v", got.Task["type"])
	}
}
