// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package predict

import (
	"encoding/json"
	"fmt"
)

// System and user prompt templates for each stage. Every stage receives
// PAST_RUN memory so runs stay consistent over time, and every stage is
// instructed to answer with a single JSON object matching its schema.

const intentSystem = `You are an expert agent for metal-organic framework simulations.
Judge whether the user's query is verifiable with a machine-learned interatomic
potential. Verifiable tasks: geometry relaxation, single-point energy/forces/stress,
and well-defined comparative energies (adsorption or defect energies) when the
structure and species are specified. Vague synthesizability claims, real-world
isotherms without a protocol, or unspecified structures are not verifiable as-is.
You also receive PAST_RUN memory from previous executions; use it to stay
consistent and avoid repeated work. Respond with a single JSON object containing:
material, goal, task_hint, required_inputs, ambiguity_flags, feasibility.`

func intentUser(in IntentInput) string {
	return fmt.Sprintf(`User query:
%s

PAST_RUN memory (may be empty):
%s

Extract the material name if any, the core goal, the best task_hint
(relaxation, singlepoint, adsorption_energy, defect_energy, or empty),
required_inputs still missing, ambiguity_flags, and feasibility
(feasible, needs_clarification, not_mlip_verifiable).`, in.Query, in.MemoryContext)
}

const canonicalSystem = `You canonicalize simulation queries. You receive the user's
free-form query, a parsed intent object, and PAST_RUN memory. Rewrite the query
into one precise, unambiguous experimental question suitable for literature
search, local document retrieval, and experiment specification. Keep only
essential details: structure, task type, key numerical conditions. If the intent
is not verifiable as stated, produce the closest verifiable question. Respond
with a single JSON object containing: canonical, clarifying_questions.`

func canonicalUser(in CanonicalizeInput) string {
	intentJSON, _ := json.Marshal(in.Intent)
	return fmt.Sprintf(`Original query:
%s

Parsed intent (JSON):
%s

PAST_RUN memory (may be empty):
%s

Rewrite the original query into a single canonical experimental question that
names the structure, states the task, and keeps numerical parameters
(cutoffs, fmax, step counts) when present.`, in.Query, intentJSON, in.MemoryContext)
}

const noveltySystem = `You are a novelty gate for simulation hypotheses. Given a
canonical experimental question and retrieved literature, decide:
reject if the same claim or experiment is already established with high
confidence; pass if no strong prior art is found or the proposed test differs
materially; uncertain if the evidence is ambiguous. You also receive PAST_RUN
memory; if a near-identical past run was already judged, stay consistent with
it, but prefer the provided literature. Be conservative: only reject when the
work is clearly already done. Respond with a single JSON object containing:
status, rationale, top_refs (up to 3, using IDs from the literature).`

func noveltyUser(in NoveltyInput) string {
	return fmt.Sprintf(`Canonical experimental question:
%s

PAST_RUN memory:
%s

Retrieved literature (may be partial):
%s

Local document context (optional):
%s`, in.Canonical, in.MemoryContext, orPlaceholder(in.Literature, "(no results)"), orPlaceholder(in.LocalContext, "(none)"))
}

const specSystem = `You generate machine-executable experiment specifications for
an ML interatomic potential engine such as SevenNet. Respond with a single JSON
object containing: run_id, query_original, query_canonical, structure
(id/format/path), calculator (engine/model/precision), task (type plus
parameters), postprocess (outputs, save_trajectory), novelty_check (status,
top_refs), notes. If no structure path was given, use a placeholder path and
say so in notes. task.type is one of relaxation, singlepoint,
adsorption_energy, defect_energy. Sensible defaults: relaxation fmax 0.05,
max_steps 500 when unspecified.`

func specUser(in SpecInput) string {
	noveltyJSON, _ := json.Marshal(in.Novelty)
	return fmt.Sprintf(`Original query:
%s

Canonical query:
%s

PAST_RUN memory:
%s

Novelty verdict (JSON):
%s

run_id (echo this verbatim):
%s`, in.QueryOriginal, in.QueryCanonical, in.MemoryContext, noveltyJSON, in.RunID)
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
