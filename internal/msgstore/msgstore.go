// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package msgstore

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/deepscan/deepscan-store/internal/kvstore"
	"github.com/deepscan/deepscan-store/internal/util"
)

// =============================================================================
// MESSAGE SHARD STORE
// =============================================================================

// Store persists per-chat message shards in the kvstore substrate.
type Store struct {
	kv kvstore.KV
}

// New creates a shard store over the given substrate.
func New(kv kvstore.KV) *Store {
	return &Store{kv: kv}
}

// MessagesKey returns the storage key for a chat id's shard.
func MessagesKey(chatID int64) string {
	return sessionKey(util.Int64ToString(chatID))
}

// DraftKey returns the storage key for a draft token's shard.
func DraftKey(token string) string {
	return sessionKey(token)
}

func sessionKey(sessionID string) string {
	return "deepscan:chat:" + sessionID + ":messages"
}

// NewDraftToken returns a fresh token identifying a not-yet-persisted chat.
func NewDraftToken() string {
	return "draft-" + uuid.NewString()
}

// =============================================================================
// READ / WRITE / REMOVE
// =============================================================================

// ReadMessages returns the shard for a chat id. An absent or corrupt shard
// reads as empty; this method never fails.
func (s *Store) ReadMessages(chatID int64) []json.RawMessage {
	return s.readKey(MessagesKey(chatID))
}

// WriteMessages replaces the shard for a chat id.
func (s *Store) WriteMessages(chatID int64, messages []json.RawMessage) error {
	return s.writeKey(MessagesKey(chatID), messages)
}

// RemoveMessages deletes the shard for a chat id.
func (s *Store) RemoveMessages(chatID int64) error {
	return s.kv.Remove(MessagesKey(chatID))
}

// ReadDraft returns the shard stored under a draft token.
func (s *Store) ReadDraft(token string) []json.RawMessage {
	return s.readKey(DraftKey(token))
}

// WriteDraft replaces the shard stored under a draft token.
func (s *Store) WriteDraft(token string, messages []json.RawMessage) error {
	return s.writeKey(DraftKey(token), messages)
}

// PromoteDraft re-keys a draft shard to a persisted chat id: read the draft,
// write it under the id's key, then remove the draft key. The write happens
// before the delete so an interruption leaves at worst a duplicate shard,
// never a lost one.
func (s *Store) PromoteDraft(token string, chatID int64) error {
	messages := s.ReadDraft(token)
	if err := s.WriteMessages(chatID, messages); err != nil {
		return err
	}
	return s.kv.Remove(DraftKey(token))
}

func (s *Store) readKey(key string) []json.RawMessage {
	raw, err := s.kv.Read(key)
	if err != nil || raw == nil {
		return []json.RawMessage{}
	}
	var messages []json.RawMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		// Corrupt shard data must never crash the reader.
		return []json.RawMessage{}
	}
	return messages
}

func (s *Store) writeKey(key string, messages []json.RawMessage) error {
	if messages == nil {
		messages = []json.RawMessage{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return s.kv.Write(key, raw)
}

// =============================================================================
// TEXT EXTRACTION
// =============================================================================

// messageShape is the slice of the UI message structure the text helpers
// understand. Everything else passes through untouched.
type messageShape struct {
	Role  string `json:"role"`
	Parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"parts"`
}

// MessageText extracts the concatenated text parts of one message. Messages
// that do not match the expected shape yield "".
func MessageText(message json.RawMessage) string {
	var parsed messageShape
	if err := json.Unmarshal(message, &parsed); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range parsed.Parts {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FirstUserMessageText returns the text of the first user-role message, or
// "". Callers use it to derive default chat titles.
func FirstUserMessageText(messages []json.RawMessage) string {
	for _, message := range messages {
		var parsed messageShape
		if err := json.Unmarshal(message, &parsed); err != nil {
			continue
		}
		if parsed.Role == "user" {
			return MessageText(message)
		}
	}
	return ""
}

// MessagesText returns the lower-cased concatenation of every message's text
// in a chat's shard. Used for search; an absent shard yields "".
func (s *Store) MessagesText(chatID int64) string {
	messages := s.ReadMessages(chatID)
	if len(messages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(messages))
	for _, message := range messages {
		if text := MessageText(message); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
