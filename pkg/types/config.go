package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mlip-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LiteratureConfig holds settings for remote literature retrieval.
type LiteratureConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxDocs is the maximum number of documents to fetch per run (default 6).
	MaxDocs int `json:"max_docs" yaml:"max_docs"`

	// CharCap bounds the compacted literature text stored in run state
	// (default 15000, 5000 in fast mode).
	CharCap int `json:"char_cap" yaml:"char_cap"`
}

// MemoryConfig holds settings for the similarity store of past runs.
type MemoryConfig struct {
	// Path is the JSONL file holding one record per line.
	Path string `json:"path" yaml:"path"`

	// MaxItems is a soft cap on records kept on disk (default 50).
	MaxItems int `json:"max_items" yaml:"max_items"`

	// RetrieveK is how many similar past runs to inject into prompts
	// (default 5, 1 in fast mode).
	RetrieveK int `json:"retrieve_k" yaml:"retrieve_k"`

	// ContextCharCap bounds the formatted memory context string (default 4000).
	ContextCharCap int `json:"context_char_cap" yaml:"context_char_cap"`
}

// CorpusConfig holds settings for local document retrieval.
type CorpusConfig struct {
	// Dir is the directory of local documents (PDF, Markdown, plain text).
	// A missing directory yields an empty index, not an error.
	Dir string `json:"dir" yaml:"dir"`

	// ChunkSize is the chunk window length in runes (default 1500).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is how many runes consecutive chunks share (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// TopChunks is how many top-scoring chunks a search returns (default 5).
	TopChunks int `json:"top_chunks" yaml:"top_chunks"`

	// CharCap bounds the concatenated local context stored in run state
	// (default 8000, 3000 in fast mode).
	CharCap int `json:"char_cap" yaml:"char_cap"`
}

// AIConfig holds settings for the reasoning predictor backend.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature (default 0).
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// AgentConfig is the single configuration object the pipeline controller
// is constructed with. It is resolved once at process start; no component
// below the controller reads ambient state.
type AgentConfig struct {
	// FastMode trades thoroughness for latency: smaller context caps,
	// reduced memory retrieval, no literature fetch, and a synthesized
	// novelty verdict instead of a reasoning call.
	FastMode bool `json:"fast_mode" yaml:"fast_mode"`

	// OutputDir is where experiment specs are written, one JSON file per run.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	AI         AIConfig         `json:"ai" yaml:"ai"`
	Literature LiteratureConfig `json:"literature" yaml:"literature"`
	Memory     MemoryConfig     `json:"memory" yaml:"memory"`
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus"`
}
