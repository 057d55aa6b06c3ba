// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import (
	"encoding/json"
	"testing"
)

const testNow = int64(1700000000000)

func TestNormalizeState_AbsentBlob(t *testing.T) {
	state, changed := normalizeState(nil, testNow)

	if changed {
		t.Error("absent blob should not request a re-persist")
	}
	if state.NextID != 1 {
		t.Errorf("NextID = %d, want 1", state.NextID)
	}
	if len(state.ChatsByScope) != 0 {
		t.Errorf("ChatsByScope has %d scopes, want 0", len(state.ChatsByScope))
	}
}

func TestNormalizeState_UnparseableBlob(t *testing.T) {
	state, changed := normalizeState([]byte("{not json"), testNow)

	if !changed {
		t.Error("corrupt blob should be replaced by a clean default")
	}
	if state.NextID != 1 || state.Version != StoreVersion {
		t.Errorf("got NextID=%d Version=%d, want clean default", state.NextID, state.Version)
	}
}

func TestNormalizeState_CurrentBlobUnchanged(t *testing.T) {
	original := StoreState{
		Version: StoreVersion,
		NextID:  3,
		ChatsByScope: map[string][]ChatRecord{
			"guest": {
				{ID: 2, ScopeID: "guest", Title: "b", Model: ModelDeepSeekR1, CreatedAt: 20, UpdatedAt: 25},
				{ID: 1, ScopeID: "guest", Title: "a", Model: ModelDeepSeekV3, CreatedAt: 10, UpdatedAt: 15},
			},
		},
	}
	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	state, changed := normalizeState(raw, testNow)
	if changed {
		t.Error("a clean current-version blob should not request a re-persist")
	}
	if state.NextID != 3 {
		t.Errorf("NextID = %d, want 3", state.NextID)
	}
	if len(state.ChatsByScope["guest"]) != 2 {
		t.Fatalf("guest has %d records, want 2", len(state.ChatsByScope["guest"]))
	}
}

func TestNormalizeState_LegacyFieldNames(t *testing.T) {
	// v1 schema: nextChatId counter, userId on each record, no tags.
	legacy := `{
		"version": 1,
		"nextChatId": 5,
		"chatsByScope": {
			"guest": [
				{"id": 4, "userId": "guest", "title": "old chat", "model": "deepseek-v3",
				 "pinned": false, "createdAt": 100, "updatedAt": 200}
			]
		}
	}`

	state, changed := normalizeState([]byte(legacy), testNow)

	if !changed {
		t.Error("legacy blob must be flagged for re-persist")
	}
	if state.NextID != 5 {
		t.Errorf("NextID = %d, want 5 (carried from nextChatId)", state.NextID)
	}
	records := state.ChatsByScope["guest"]
	if len(records) != 1 {
		t.Fatalf("guest has %d records, want 1", len(records))
	}
	if records[0].ScopeID != "guest" {
		t.Errorf("ScopeID = %q, want guest", records[0].ScopeID)
	}
	if records[0].TagID != "" {
		t.Errorf("TagID = %q, want empty", records[0].TagID)
	}
}

func TestNormalizeState_CounterSelfHeal(t *testing.T) {
	// Stored counter lags behind the max id; it must be recomputed so the
	// next allocation cannot collide.
	blob := `{
		"version": 2,
		"nextId": 2,
		"chatsByScope": {
			"guest": [
				{"id": 9, "scopeId": "guest", "title": "t", "model": "deepseek-v3",
				 "pinned": false, "createdAt": 1, "updatedAt": 1}
			]
		}
	}`

	state, changed := normalizeState([]byte(blob), testNow)

	if !changed {
		t.Error("healed counter must be flagged for re-persist")
	}
	if state.NextID != 10 {
		t.Errorf("NextID = %d, want 10", state.NextID)
	}
}

func TestNormalizeRecord_Backfills(t *testing.T) {
	state, changed := normalizeState([]byte(`{
		"version": 2,
		"nextId": 7,
		"chatsByScope": {
			"u1": [
				{"model": "gpt-4", "tagId": "bogus", "updatedAt": 50}
			]
		}
	}`), testNow)

	if !changed {
		t.Error("backfilled record must be flagged for re-persist")
	}
	records := state.ChatsByScope["u1"]
	if len(records) != 1 {
		t.Fatalf("u1 has %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != 1 {
		t.Errorf("ID = %d, want positional fallback 1", rec.ID)
	}
	if rec.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", rec.Title, DefaultTitle)
	}
	if rec.Model != DefaultModel {
		t.Errorf("Model = %q, want %q (unknown coerced)", rec.Model, DefaultModel)
	}
	if rec.TagID != "" {
		t.Errorf("TagID = %q, want empty (unknown dropped)", rec.TagID)
	}
	if rec.CreatedAt != testNow {
		t.Errorf("CreatedAt = %d, want now backfill", rec.CreatedAt)
	}
	if rec.UpdatedAt < rec.CreatedAt {
		t.Errorf("UpdatedAt %d < CreatedAt %d", rec.UpdatedAt, rec.CreatedAt)
	}
}

func TestNormalizeState_ResortsScopes(t *testing.T) {
	blob := `{
		"version": 2,
		"nextId": 4,
		"chatsByScope": {
			"guest": [
				{"id": 1, "scopeId": "guest", "title": "old", "model": "deepseek-v3",
				 "pinned": false, "createdAt": 1, "updatedAt": 1},
				{"id": 2, "scopeId": "guest", "title": "pinned", "model": "deepseek-v3",
				 "pinned": true, "createdAt": 2, "updatedAt": 2},
				{"id": 3, "scopeId": "guest", "title": "new", "model": "deepseek-v3",
				 "pinned": false, "createdAt": 3, "updatedAt": 3}
			]
		}
	}`

	state, changed := normalizeState([]byte(blob), testNow)

	if !changed {
		t.Error("re-sorted scope must be flagged for re-persist")
	}
	got := state.ChatsByScope["guest"]
	wantOrder := []int64{2, 3, 1}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("position %d: ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestNormalizeState_Idempotent(t *testing.T) {
	legacy := `{
		"version": 1,
		"nextChatId": 2,
		"chatsByScope": {
			"guest": [
				{"id": 3, "userId": "guest", "title": "t", "model": "gpt-4", "updatedAt": 5}
			]
		}
	}`

	first, changed := normalizeState([]byte(legacy), testNow)
	if !changed {
		t.Fatal("first pass must report a change")
	}

	raw, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	second, changed := normalizeState(raw, testNow+1000)
	if changed {
		t.Error("second pass must be a no-op")
	}
	if second.NextID != first.NextID {
		t.Errorf("NextID drifted: %d -> %d", first.NextID, second.NextID)
	}
	if len(second.ChatsByScope["guest"]) != len(first.ChatsByScope["guest"]) {
		t.Error("record count drifted")
	}
}

func TestSortRecords(t *testing.T) {
	records := []ChatRecord{
		{ID: 1, UpdatedAt: 100},
		{ID: 2, UpdatedAt: 300},
		{ID: 3, UpdatedAt: 200, Pinned: true},
		{ID: 4, UpdatedAt: 300},
		{ID: 5, UpdatedAt: 50, Pinned: true},
	}

	sorted := SortRecords(records)

	wantOrder := []int64{3, 5, 4, 2, 1}
	for i, id := range wantOrder {
		if sorted[i].ID != id {
			t.Errorf("position %d: ID = %d, want %d", i, sorted[i].ID, id)
		}
	}

	// Input slice stays untouched.
	if records[0].ID != 1 {
		t.Error("SortRecords mutated its input")
	}
}

func TestNormalizeModel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{ModelDeepSeekV3, ModelDeepSeekV3},
		{ModelDeepSeekR1, ModelDeepSeekR1},
		{"", DefaultModel},
		{"gpt-4", DefaultModel},
	}
	for _, tc := range cases {
		if got := NormalizeModel(tc.in); got != tc.want {
			t.Errorf("NormalizeModel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScopeForUser(t *testing.T) {
	if got := ScopeForUser(""); got != GuestScope {
		t.Errorf("ScopeForUser(\"\") = %q, want %q", got, GuestScope)
	}
	if got := ScopeForUser("u42"); got != "u42" {
		t.Errorf("ScopeForUser(u42) = %q", got)
	}
}

func TestNormalizeTagID(t *testing.T) {
	if got := NormalizeTagID("work"); got != "work" {
		t.Errorf("NormalizeTagID(work) = %q", got)
	}
	if got := NormalizeTagID("bogus"); got != "" {
		t.Errorf("NormalizeTagID(bogus) = %q, want empty", got)
	}
	if got := NormalizeTagID(""); got != "" {
		t.Errorf("NormalizeTagID(\"\") = %q, want empty", got)
	}
}
