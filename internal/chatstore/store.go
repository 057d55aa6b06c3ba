// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/deepscan/deepscan-store/internal/kvstore"
)

// =============================================================================
// CHAT RECORD STORE
// =============================================================================

// ShardAccess is the slice of the message-shard API the registry needs:
// cascade deletion (no orphan shard survives chat deletion) and full-text
// lookup for search.
type ShardAccess interface {
	// RemoveMessages deletes the message shard for a chat id.
	RemoveMessages(chatID int64) error

	// MessagesText returns the lower-cased concatenated text of a chat's
	// messages, or "" if the shard is absent.
	MessagesText(chatID int64) string
}

// Store is the chat metadata registry.
//
// All operations are safe to call from concurrent event handlers; a single
// mutex serializes the read-modify-write cycle against the kv substrate.
// Cross-process writers are not coordinated (last writer wins).
type Store struct {
	// Now returns the current time in epoch milliseconds. Tests override it.
	Now func() int64

	kv     kvstore.KV
	shards ShardAccess
	mu     sync.Mutex
}

// New creates a registry over the given substrate.
func New(kv kvstore.KV) *Store {
	return &Store{
		Now: func() int64 { return time.Now().UnixMilli() },
		kv:  kv,
	}
}

// AttachShards wires the message-shard store for cascade deletion and search.
// Without it, deletion skips the cascade and search only covers titles.
func (s *Store) AttachShards(shards ShardAccess) {
	s.shards = shards
}

// =============================================================================
// LOAD / PERSIST
// =============================================================================

// load reads and migrates the persisted state. Substrate failures and corrupt
// blobs degrade to the empty default; this method never fails.
// Caller must hold s.mu.
func (s *Store) load() StoreState {
	raw, err := s.kv.Read(storeKey)
	if err != nil {
		return defaultState()
	}

	if raw == nil {
		// One-time legacy migration: a v1 blob is upgraded, written under the
		// current key, and the old key removed. Idempotent: once migrated the
		// current key is present and this branch never runs again.
		legacy, err := s.kv.Read(legacyStoreKey)
		if err != nil || legacy == nil {
			return defaultState()
		}
		state, _ := normalizeState(legacy, s.Now())
		if s.persist(state) == nil {
			_ = s.kv.Remove(legacyStoreKey)
		}
		return state
	}

	state, changed := normalizeState(raw, s.Now())
	if changed {
		// Re-persist immediately so subsequent loads skip re-migration.
		_ = s.persist(state)
	}
	return state
}

// persist writes the state under the current key. Caller must hold s.mu.
func (s *Store) persist(state StoreState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Write(storeKey, raw)
}

// =============================================================================
// PUBLIC OPERATIONS
// =============================================================================

// NewChat carries the caller-supplied fields for CreateChat.
type NewChat struct {
	Title string
	Model string
}

// Patch carries the optional fields for UpdateChat. Nil means unchanged.
type Patch struct {
	Title  *string
	Pinned *bool
	Model  *string
	TagID  *string
}

// ListChats returns all records for scope: pinned first, then descending
// UpdatedAt, then descending ID. Returns an empty slice when the scope has no
// records or storage is unavailable.
func (s *Store) ListChats(scope string) []ChatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	return SortRecords(state.ChatsByScope[scope])
}

// CreateChat allocates a fresh id and inserts a record at the head of the
// scope's list. A title that trims to empty gets the default placeholder.
func (s *Store) CreateChat(scope string, params NewChat) (ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	now := s.Now()

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = DefaultTitle
	}

	record := ChatRecord{
		ID:        state.NextID,
		ScopeID:   scope,
		Title:     title,
		Model:     NormalizeModel(params.Model),
		Pinned:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	state.NextID++
	state.ChatsByScope[scope] = SortRecords(append([]ChatRecord{record}, state.ChatsByScope[scope]...))

	if err := s.persist(state); err != nil {
		return ChatRecord{}, err
	}
	return record, nil
}

// UpdateChat applies patch to the record with the given id. It returns nil
// when the record does not exist, and nil when the patched title trims to
// empty (an empty title is never written). Any accepted change bumps
// UpdatedAt.
func (s *Store) UpdateChat(scope string, id int64, patch Patch) (*ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	chats := state.ChatsByScope[scope]
	idx := indexOf(chats, id)
	if idx < 0 {
		return nil, nil
	}

	record := chats[idx]

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, nil
		}
		record.Title = title
	}
	if patch.Pinned != nil {
		record.Pinned = *patch.Pinned
	}
	if patch.Model != nil {
		record.Model = NormalizeModel(*patch.Model)
	}
	if patch.TagID != nil {
		record.TagID = NormalizeTagID(*patch.TagID)
	}
	record.UpdatedAt = s.Now()

	chats[idx] = record
	state.ChatsByScope[scope] = SortRecords(chats)

	if err := s.persist(state); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteChat removes the record with the given id and cascades to its message
// shard. Returns false when no such record exists in scope.
func (s *Store) DeleteChat(scope string, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.deleteChats(scope, []int64{id})
	return removed > 0, err
}

// DeleteChats removes every listed id present in scope and returns how many
// records were removed. Used by the bulk sidebar actions.
func (s *Store) DeleteChats(scope string, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteChats(scope, ids)
}

// deleteChats removes records and their shards. Caller must hold s.mu.
func (s *Store) deleteChats(scope string, ids []int64) (int, error) {
	state := s.load()
	chats := state.ChatsByScope[scope]

	doomed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	kept := chats[:0:0]
	var removedIDs []int64
	for _, record := range chats {
		if doomed[record.ID] {
			removedIDs = append(removedIDs, record.ID)
			continue
		}
		kept = append(kept, record)
	}
	if len(removedIDs) == 0 {
		return 0, nil
	}

	state.ChatsByScope[scope] = kept
	if err := s.persist(state); err != nil {
		return 0, err
	}

	// Cascade after the registry write: a crash in between leaves an orphan
	// shard key behind, never a registry entry pointing at deleted messages.
	if s.shards != nil {
		for _, id := range removedIDs {
			_ = s.shards.RemoveMessages(id)
		}
	}
	return len(removedIDs), nil
}

// SetPinned pins or unpins every listed id present in scope and returns how
// many records changed.
func (s *Store) SetPinned(scope string, ids []int64, pinned bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	chats := state.ChatsByScope[scope]

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	now := s.Now()
	updated := 0
	for i := range chats {
		if !wanted[chats[i].ID] {
			continue
		}
		chats[i].Pinned = pinned
		chats[i].UpdatedAt = now
		updated++
	}
	if updated == 0 {
		return 0, nil
	}

	state.ChatsByScope[scope] = SortRecords(chats)
	if err := s.persist(state); err != nil {
		return 0, err
	}
	return updated, nil
}

// SearchChats returns the scope's records whose title or message text
// contains the query, case-insensitively, in list order. An empty query
// matches everything.
func (s *Store) SearchChats(scope string, query string) []ChatRecord {
	records := s.ListChats(scope)

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	var results []ChatRecord
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.Title), query) {
			results = append(results, record)
			continue
		}
		if s.shards != nil && strings.Contains(s.shards.MessagesText(record.ID), query) {
			results = append(results, record)
		}
	}
	return results
}

// =============================================================================
// IMPORT SUPPORT
// =============================================================================

// AdoptChat inserts an externally sourced record under a fresh id, preserving
// its content and timestamps. The incoming id is ignored: imported ids are
// never reused, which keeps them from colliding with existing records.
func (s *Store) AdoptChat(scope string, rec ChatRecord) (ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	now := s.Now()

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = DefaultTitle
	}
	createdAt := rec.CreatedAt
	if createdAt <= 0 {
		createdAt = now
	}
	updatedAt := rec.UpdatedAt
	if updatedAt < createdAt {
		updatedAt = createdAt
	}

	adopted := ChatRecord{
		ID:        state.NextID,
		ScopeID:   scope,
		Title:     title,
		Model:     NormalizeModel(rec.Model),
		Pinned:    rec.Pinned,
		TagID:     NormalizeTagID(rec.TagID),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	state.NextID++
	state.ChatsByScope[scope] = SortRecords(append([]ChatRecord{adopted}, state.ChatsByScope[scope]...))

	if err := s.persist(state); err != nil {
		return ChatRecord{}, err
	}
	return adopted, nil
}

// ClearScope removes every record in scope (cascading shards) and returns how
// many were removed. Used by replace-mode import.
func (s *Store) ClearScope(scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	ids := make([]int64, 0, len(state.ChatsByScope[scope]))
	for _, record := range state.ChatsByScope[scope] {
		ids = append(ids, record.ID)
	}
	return s.deleteChats(scope, ids)
}

func indexOf(chats []ChatRecord, id int64) int {
	for i := range chats {
		if chats[i].ID == id {
			return i
		}
	}
	return -1
}
