// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes every valid record in the log to w as a YAML document,
// oldest first. Corrupt lines are skipped the same way LoadAll skips them.
func (s *Store) ExportYAML(w io.Writer) error {
	records, err := s.LoadAll()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling memory records: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
