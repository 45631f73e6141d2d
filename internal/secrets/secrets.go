// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file holds one secret: the filename names the key and the trimmed
// contents are the value. The agent recognizes gemini-api-key; other
// files are loaded and reported but otherwise unused.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GeminiAPIKey is the filename holding the Gemini API key.
const GeminiAPIKey = "gemini-api-key"

// Keys holds the secrets loaded at startup.
type Keys struct {
	// Gemini is the Gemini API key, empty when no gemini-api-key file
	// exists.
	Gemini string

	// Names lists every secret file that was loaded, sorted, for
	// startup reporting. Values are never reported.
	Names []string
}

// Load reads the secret files in dir. A missing directory yields empty
// Keys, not an error. Dotfiles, subdirectories, and empty files are
// ignored; unreadable files warn on stderr and are skipped.
func Load(dir string) (Keys, error) {
	var keys Keys

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return keys, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		value := strings.TrimSpace(string(data))
		if value == "" {
			continue
		}

		keys.Names = append(keys.Names, name)
		if name == GeminiAPIKey {
			keys.Gemini = value
		}
	}

	sort.Strings(keys.Names)
	return keys, nil
}
