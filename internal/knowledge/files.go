// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/google/uuid"
)

// =============================================================================
// FILE IMPORT
// =============================================================================

// DocumentsFromFiles reads local files into Document records. Files whose
// content trims to empty are skipped; unreadable files fail the whole batch
// so the caller can report which path broke.
func (s *Store) DocumentsFromFiles(paths []string) ([]Document, error) {
	now := s.Now()

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		name := filepath.Base(path)
		docs = append(docs, Document{
			ID:        uuid.NewString(),
			Name:      name,
			Content:   string(content),
			CreatedAt: now,
			Language:  DetectLanguage(name, string(content)),
		})
	}
	return docs, nil
}

// DetectLanguage returns a lower-cased language tag for a file, matching by
// filename first and falling back to content analysis, then "text".
func DetectLanguage(filename string, content string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		return "text"
	}
	name := strings.ToLower(lexer.Config().Name)
	if name == "" || name == "fallback" || name == "plaintext" {
		return "text"
	}
	return name
}
