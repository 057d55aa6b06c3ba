// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deepscan/deepscan-store/internal/chatstore"
	"github.com/deepscan/deepscan-store/internal/msgstore"
	"github.com/deepscan/deepscan-store/internal/util"
)

// =============================================================================
// PAYLOAD
// =============================================================================

// PayloadKind tags every deepscan chat export document.
const PayloadKind = "deepscan-chat-export"

// PayloadVersion is the current export format version.
const PayloadVersion = 1

// Payload is the portable snapshot of one scope.
type Payload struct {
	Kind       string                 `json:"kind"`
	Version    int                    `json:"version"`
	Scope      string                 `json:"scope"`
	ExportedAt int64                  `json:"exportedAt"`
	Chats      []chatstore.ChatRecord `json:"chats"`
	// MessagesByChatID maps the exporting store's chat ids (as strings, JSON
	// object keys) to message arrays. Sparse: chats with no messages are
	// omitted.
	MessagesByChatID map[string][]json.RawMessage `json:"messagesByChatId"`
}

// ErrInvalidFormat indicates a payload that fails structural validation.
// No partial import happens once it is raised.
var ErrInvalidFormat = errors.New("invalid chat export payload")

// Mode selects how ImportChats treats the destination scope.
type Mode string

const (
	// ModeMerge adds imported records to the existing ones.
	ModeMerge Mode = "merge"
	// ModeReplace wipes the destination scope before inserting.
	ModeReplace Mode = "replace"
)

// Result reports what an import did.
type Result struct {
	// Imported is the number of chats actually imported.
	Imported int
	// Total is the resulting record count for the scope.
	Total int
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine snapshots and restores chat data through the two stores.
type Engine struct {
	// Now returns the current time in epoch milliseconds. Tests override it.
	Now func() int64

	chats  *chatstore.Store
	shards *msgstore.Store
}

// NewEngine creates an export/import engine over the given stores.
func NewEngine(chats *chatstore.Store, shards *msgstore.Store) *Engine {
	return &Engine{
		Now:    func() int64 { return time.Now().UnixMilli() },
		chats:  chats,
		shards: shards,
	}
}

// ExportChats snapshots every record in scope plus each record's message
// shard, omitting empty shards.
func (e *Engine) ExportChats(scope string) *Payload {
	records := e.chats.ListChats(scope)

	payload := &Payload{
		Kind:             PayloadKind,
		Version:          PayloadVersion,
		Scope:            scope,
		ExportedAt:       e.Now(),
		Chats:            records,
		MessagesByChatID: map[string][]json.RawMessage{},
	}

	for _, record := range records {
		messages := e.shards.ReadMessages(record.ID)
		if len(messages) == 0 {
			continue
		}
		payload.MessagesByChatID[util.Int64ToString(record.ID)] = messages
	}
	return payload
}

// ImportChats restores a payload into scope. Every incoming chat gets a fresh
// id from the destination registry; shards are re-keyed through the old-id to
// new-id map. Shard entries whose old id maps to no imported chat (payload
// corruption) are silently dropped.
func (e *Engine) ImportChats(scope string, payload *Payload, mode Mode) (Result, error) {
	if err := validate(payload); err != nil {
		return Result{}, err
	}
	if mode != ModeMerge && mode != ModeReplace {
		return Result{}, fmt.Errorf("%w: unknown import mode %q", ErrInvalidFormat, mode)
	}

	if mode == ModeReplace {
		if _, err := e.chats.ClearScope(scope); err != nil {
			return Result{}, err
		}
	}

	idMap := make(map[string]int64, len(payload.Chats))
	imported := 0
	for _, incoming := range payload.Chats {
		adopted, err := e.chats.AdoptChat(scope, incoming)
		if err != nil {
			return Result{}, err
		}
		idMap[util.Int64ToString(incoming.ID)] = adopted.ID
		imported++
	}

	for oldID, messages := range payload.MessagesByChatID {
		newID, ok := idMap[oldID]
		if !ok {
			continue
		}
		if len(messages) == 0 {
			continue
		}
		if err := e.shards.WriteMessages(newID, messages); err != nil {
			return Result{Imported: imported}, err
		}
	}

	return Result{
		Imported: imported,
		Total:    len(e.chats.ListChats(scope)),
	}, nil
}

// validate checks the payload's structural shape before any mutation.
func validate(payload *Payload) error {
	if payload == nil {
		return fmt.Errorf("%w: empty payload", ErrInvalidFormat)
	}
	if payload.Kind != PayloadKind {
		return fmt.Errorf("%w: kind %q, want %q", ErrInvalidFormat, payload.Kind, PayloadKind)
	}
	if payload.Chats == nil {
		return fmt.Errorf("%w: missing chats array", ErrInvalidFormat)
	}
	return nil
}

// =============================================================================
// PAYLOAD FILES
// =============================================================================

// WriteFile serializes a payload to disk atomically.
func WriteFile(path string, payload *Payload) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, raw, 0644)
}

// ParsePayload decodes a payload document and runs structural validation.
func ParsePayload(raw []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := validate(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
