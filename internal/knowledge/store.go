// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/deepscan/deepscan-store/internal/kvstore"
)

// documentsKey holds the whole document collection as one JSON array,
// deliberately separate from every chat-store key.
const documentsKey = "deepscan:knowledge-docs"

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is one imported reference file.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	// Language is the detected source language tag ("go", "markdown", ...).
	Language string `json:"language,omitempty"`
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

// Store persists the knowledge document collection.
type Store struct {
	// Now returns the current time in epoch milliseconds. Tests override it.
	Now func() int64

	kv kvstore.KV
	mu sync.Mutex
}

// New creates a document store over the given substrate.
func New(kv kvstore.KV) *Store {
	return &Store{
		Now: func() int64 { return time.Now().UnixMilli() },
		kv:  kv,
	}
}

// LoadAll returns every stored document, sorted by descending CreatedAt.
// An absent or corrupt collection reads as empty; this method never fails.
func (s *Store) LoadAll() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads and decodes the collection. Caller must hold s.mu.
func (s *Store) load() []Document {
	raw, err := s.kv.Read(documentsKey)
	if err != nil || raw == nil {
		return []Document{}
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return []Document{}
	}
	sortDocuments(docs)
	return docs
}

// UpsertMany merges incoming documents into the collection. Incoming wins on
// id conflict; the merged result is sorted by descending CreatedAt and
// returned.
func (s *Store) UpsertMany(incoming []Document) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()

	byID := make(map[string]int, len(current))
	for i, doc := range current {
		byID[doc.ID] = i
	}

	merged := current
	for _, doc := range incoming {
		if doc.CreatedAt <= 0 {
			doc.CreatedAt = s.Now()
		}
		if i, ok := byID[doc.ID]; ok {
			merged[i] = doc
			continue
		}
		byID[doc.ID] = len(merged)
		merged = append(merged, doc)
	}
	sortDocuments(merged)

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Write(documentsKey, raw); err != nil {
		return nil, err
	}
	return merged, nil
}

// Remove deletes the document with the given id. Unknown ids are a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	kept := current[:0:0]
	for _, doc := range current {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	if len(kept) == len(current) {
		return nil
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return s.kv.Write(documentsKey, raw)
}

func sortDocuments(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt != docs[j].CreatedAt {
			return docs[i].CreatedAt > docs[j].CreatedAt
		}
		return docs[i].ID < docs[j].ID
	})
}
