// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package predict

import "github.com/xeipuuv/gojsonschema"

// Per-stage output schemas. A response that fails its schema is a fatal
// validation error; the pipeline never repairs or partially accepts model
// output.

var intentSchema = mustSchema(`{
	"type": "object",
	"required": ["goal", "feasibility"],
	"properties": {
		"material": {"type": "string"},
		"goal": {"type": "string", "minLength": 1},
		"task_hint": {"type": "string", "enum": ["", "relaxation", "singlepoint", "adsorption_energy", "defect_energy"]},
		"required_inputs": {"type": "array", "items": {"type": "string"}},
		"ambiguity_flags": {"type": "array", "items": {"type": "string"}},
		"feasibility": {"type": "string", "enum": ["feasible", "needs_clarification", "not_mlip_verifiable"]}
	}
}`)

var canonicalSchema = mustSchema(`{
	"type": "object",
	"required": ["canonical"],
	"properties": {
		"canonical": {"type": "string", "minLength": 1},
		"clarifying_questions": {"type": "array", "items": {"type": "string"}}
	}
}`)

var noveltySchema = mustSchema(`{
	"type": "object",
	"required": ["status", "rationale"],
	"properties": {
		"status": {"type": "string", "enum": ["pass", "reject", "uncertain"]},
		"rationale": {"type": "string", "minLength": 1},
		"top_refs": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "id"],
				"properties": {
					"title": {"type": "string"},
					"id": {"type": "string"},
					"why_relevant": {"type": "string"}
				}
			}
		}
	}
}`)

var specSchema = mustSchema(`{
	"type": "object",
	"required": ["run_id", "query_canonical", "structure", "calculator", "task", "postprocess"],
	"properties": {
		"run_id": {"type": "string", "minLength": 1},
		"query_original": {"type": "string"},
		"query_canonical": {"type": "string", "minLength": 1},
		"structure": {"type": "object"},
		"calculator": {"type": "object"},
		"task": {"type": "object"},
		"postprocess": {"type": "object"},
		"novelty_check": {"type": "object"},
		"notes": {"type": "string"}
	}
}`)

func mustSchema(doc string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic("invalid stage schema: " + err.Error())
	}
	return s
}
