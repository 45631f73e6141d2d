// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// SpecSink receives the terminal experiment spec, keyed by run id.
type SpecSink interface {
	Write(runID string, spec types.ExperimentSpec) (location string, err error)
}

// FileSink writes each spec as pretty-printed JSON to <dir>/<runID>.json.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink rooted at dir. The directory is created on
// first write.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Write persists the spec and returns its path.
func (s *FileSink) Write(runID string, spec types.ExperimentSpec) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling spec: %w", err)
	}
	path := filepath.Join(s.dir, runID+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing spec: %w", err)
	}
	return path, nil
}
