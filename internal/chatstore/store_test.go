// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepscan/deepscan-store/internal/kvstore"
)

// fakeClock hands out strictly increasing millisecond timestamps.
type fakeClock struct{ now int64 }

func (c *fakeClock) Next() int64 {
	c.now++
	return c.now
}

func newTestStore() (*Store, *kvstore.Memory, *fakeClock) {
	mem := kvstore.NewMemory()
	clock := &fakeClock{now: 1000}
	store := New(mem)
	store.Now = clock.Next
	return store, mem, clock
}

// fakeShards records cascade deletions and serves canned search text.
type fakeShards struct {
	removed []int64
	text    map[int64]string
}

func (f *fakeShards) RemoveMessages(chatID int64) error {
	f.removed = append(f.removed, chatID)
	return nil
}

func (f *fakeShards) MessagesText(chatID int64) string {
	return f.text[chatID]
}

func TestCreateChat_AllocatesSequentialIDs(t *testing.T) {
	store, _, _ := newTestStore()

	first, err := store.CreateChat(GuestScope, NewChat{Title: "first"})
	require.NoError(t, err)
	second, err := store.CreateChat(GuestScope, NewChat{Title: "second"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, GuestScope, first.ScopeID)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
}

func TestCreateChat_EmptyTitleGetsPlaceholder(t *testing.T) {
	store, _, _ := newTestStore()

	record, err := store.CreateChat(GuestScope, NewChat{Title: "   "})
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, record.Title)
}

func TestCreateChat_UnknownModelCoerced(t *testing.T) {
	store, _, _ := newTestStore()

	record, err := store.CreateChat(GuestScope, NewChat{Title: "t", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, record.Model)
}

func TestListChats_OrderAndScopeIsolation(t *testing.T) {
	store, _, _ := newTestStore()

	a, _ := store.CreateChat(GuestScope, NewChat{Title: "a"})
	b, _ := store.CreateChat(GuestScope, NewChat{Title: "b"})
	other, _ := store.CreateChat("u1", NewChat{Title: "other scope"})

	// Newest first before any pinning.
	guest := store.ListChats(GuestScope)
	require.Len(t, guest, 2)
	assert.Equal(t, b.ID, guest[0].ID)
	assert.Equal(t, a.ID, guest[1].ID)

	// Pinning floats an older chat to the top.
	_, err := store.SetPinned(GuestScope, []int64{a.ID}, true)
	require.NoError(t, err)
	guest = store.ListChats(GuestScope)
	assert.Equal(t, a.ID, guest[0].ID)

	// The other scope sees only its own record.
	u1 := store.ListChats("u1")
	require.Len(t, u1, 1)
	assert.Equal(t, other.ID, u1[0].ID)

	// Ids never collide across scopes.
	assert.NotEqual(t, a.ID, other.ID)
	assert.NotEqual(t, b.ID, other.ID)
}

func TestUpdateChat(t *testing.T) {
	store, _, _ := newTestStore()
	record, _ := store.CreateChat(GuestScope, NewChat{Title: "original"})

	title := "renamed"
	updated, err := store.UpdateChat(GuestScope, record.ID, Patch{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "renamed", updated.Title)
	assert.Greater(t, updated.UpdatedAt, record.UpdatedAt)

	// Unknown id reads as not-found, not as an error.
	missing, err := store.UpdateChat(GuestScope, 999, Patch{Title: &title})
	require.NoError(t, err)
	assert.Nil(t, missing)

	// A title that trims to empty is rejected without mutating anything.
	empty := "   "
	rejected, err := store.UpdateChat(GuestScope, record.ID, Patch{Title: &empty})
	require.NoError(t, err)
	assert.Nil(t, rejected)
	assert.Equal(t, "renamed", store.ListChats(GuestScope)[0].Title)
}

func TestUpdateChat_TagNormalization(t *testing.T) {
	store, _, _ := newTestStore()
	record, _ := store.CreateChat(GuestScope, NewChat{Title: "t"})

	tag := "work"
	updated, err := store.UpdateChat(GuestScope, record.ID, Patch{TagID: &tag})
	require.NoError(t, err)
	assert.Equal(t, "work", updated.TagID)

	bogus := "bogus"
	updated, err = store.UpdateChat(GuestScope, record.ID, Patch{TagID: &bogus})
	require.NoError(t, err)
	assert.Equal(t, "", updated.TagID)
}

func TestDeleteChat_CascadesToShards(t *testing.T) {
	store, _, _ := newTestStore()
	shards := &fakeShards{}
	store.AttachShards(shards)

	record, _ := store.CreateChat(GuestScope, NewChat{Title: "doomed"})
	keep, _ := store.CreateChat(GuestScope, NewChat{Title: "kept"})

	ok, err := store.DeleteChat(GuestScope, record.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{record.ID}, shards.removed)

	remaining := store.ListChats(GuestScope)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)

	// Deleting again reads as not-found.
	ok, err = store.DeleteChat(GuestScope, record.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteChats_Bulk(t *testing.T) {
	store, _, _ := newTestStore()
	shards := &fakeShards{}
	store.AttachShards(shards)

	a, _ := store.CreateChat(GuestScope, NewChat{Title: "a"})
	b, _ := store.CreateChat(GuestScope, NewChat{Title: "b"})
	c, _ := store.CreateChat(GuestScope, NewChat{Title: "c"})

	removed, err := store.DeleteChats(GuestScope, []int64{a.ID, c.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Len(t, shards.removed, 2)

	remaining := store.ListChats(GuestScope)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
}

func TestDeletedIDIsNeverReused(t *testing.T) {
	store, _, _ := newTestStore()

	a, _ := store.CreateChat(GuestScope, NewChat{Title: "a"})
	_, err := store.DeleteChat(GuestScope, a.ID)
	require.NoError(t, err)

	b, _ := store.CreateChat(GuestScope, NewChat{Title: "b"})
	assert.Greater(t, b.ID, a.ID)
}

func TestSearchChats(t *testing.T) {
	store, _, _ := newTestStore()
	shards := &fakeShards{text: map[int64]string{}}
	store.AttachShards(shards)

	alpha, _ := store.CreateChat(GuestScope, NewChat{Title: "Alpha planning"})
	beta, _ := store.CreateChat(GuestScope, NewChat{Title: "Beta notes"})
	shards.text[beta.ID] = "we discussed the alpha rollout here"

	// Title match is case-insensitive.
	results := store.SearchChats(GuestScope, "ALPHA")
	require.Len(t, results, 2)

	// Message-content match pulls in a chat whose title does not match.
	results = store.SearchChats(GuestScope, "rollout")
	require.Len(t, results, 1)
	assert.Equal(t, beta.ID, results[0].ID)

	// Empty query returns everything in list order.
	results = store.SearchChats(GuestScope, "  ")
	require.Len(t, results, 2)
	assert.Equal(t, beta.ID, results[0].ID)
	assert.Equal(t, alpha.ID, results[1].ID)

	// No match.
	assert.Empty(t, store.SearchChats(GuestScope, "zzz"))
}

func TestAdoptChat(t *testing.T) {
	store, _, _ := newTestStore()
	existing, _ := store.CreateChat(GuestScope, NewChat{Title: "existing"})

	adopted, err := store.AdoptChat(GuestScope, ChatRecord{
		ID:        existing.ID, // colliding incoming id must be ignored
		Title:     "imported",
		Model:     ModelDeepSeekR1,
		Pinned:    true,
		TagID:     "study",
		CreatedAt: 100,
		UpdatedAt: 50, // older than createdAt, must be lifted
	})
	require.NoError(t, err)

	assert.NotEqual(t, existing.ID, adopted.ID)
	assert.Equal(t, "imported", adopted.Title)
	assert.Equal(t, ModelDeepSeekR1, adopted.Model)
	assert.True(t, adopted.Pinned)
	assert.Equal(t, "study", adopted.TagID)
	assert.Equal(t, int64(100), adopted.CreatedAt)
	assert.Equal(t, int64(100), adopted.UpdatedAt)

	require.Len(t, store.ListChats(GuestScope), 2)
}

func TestClearScope(t *testing.T) {
	store, _, _ := newTestStore()
	shards := &fakeShards{}
	store.AttachShards(shards)

	store.CreateChat(GuestScope, NewChat{Title: "a"})
	store.CreateChat(GuestScope, NewChat{Title: "b"})
	other, _ := store.CreateChat("u1", NewChat{Title: "survivor"})

	removed, err := store.ClearScope(GuestScope)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Len(t, shards.removed, 2)
	assert.Empty(t, store.ListChats(GuestScope))

	u1 := store.ListChats("u1")
	require.Len(t, u1, 1)
	assert.Equal(t, other.ID, u1[0].ID)
}

func TestStore_LegacyKeyMigration(t *testing.T) {
	mem := kvstore.NewMemory()

	legacy := `{
		"version": 1,
		"nextChatId": 3,
		"chatsByScope": {
			"guest": [
				{"id": 2, "userId": "guest", "title": "from v1", "model": "deepseek-v3",
				 "pinned": false, "createdAt": 100, "updatedAt": 100}
			]
		}
	}`
	require.NoError(t, mem.Write(legacyStoreKey, []byte(legacy)))

	store := New(mem)
	store.Now = func() int64 { return 5000 }

	records := store.ListChats(GuestScope)
	require.Len(t, records, 1)
	assert.Equal(t, "from v1", records[0].Title)

	// The blob now lives under the current key; the legacy key is gone.
	current, err := mem.Read(storeKey)
	require.NoError(t, err)
	require.NotNil(t, current)
	old, err := mem.Read(legacyStoreKey)
	require.NoError(t, err)
	assert.Nil(t, old)

	var state StoreState
	require.NoError(t, json.Unmarshal(current, &state))
	assert.Equal(t, StoreVersion, state.Version)
	assert.Equal(t, int64(3), state.NextID)

	// Next allocation continues from the migrated counter.
	created, err := store.CreateChat(GuestScope, NewChat{Title: "post-migration"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
}

func TestStore_CorruptBlobDegradesToEmpty(t *testing.T) {
	mem := kvstore.NewMemory()
	require.NoError(t, mem.Write(storeKey, []byte("{broken")))

	store := New(mem)
	store.Now = func() int64 { return 5000 }

	assert.Empty(t, store.ListChats(GuestScope))

	created, err := store.CreateChat(GuestScope, NewChat{Title: "fresh"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	store, mem, _ := newTestStore()
	mem.FailWrites = true

	_, err := store.CreateChat(GuestScope, NewChat{Title: "t"})
	assert.ErrorIs(t, err, kvstore.ErrStorageUnavailable)
}

// The full lifecycle a fresh browser profile goes through: create two chats,
// pin the first, rename the second, delete it, and confirm what remains.
func TestStore_GuestLifecycle(t *testing.T) {
	store, _, _ := newTestStore()
	shards := &fakeShards{}
	store.AttachShards(shards)

	first, err := store.CreateChat(GuestScope, NewChat{Title: "How do goroutines work?"})
	require.NoError(t, err)
	second, err := store.CreateChat(GuestScope, NewChat{Title: ""})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, DefaultTitle, second.Title)

	_, err = store.SetPinned(GuestScope, []int64{first.ID}, true)
	require.NoError(t, err)

	title := "Channel patterns"
	renamed, err := store.UpdateChat(GuestScope, second.ID, Patch{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, renamed)

	list := store.ListChats(GuestScope)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "pinned chat leads despite older UpdatedAt")

	ok, err := store.DeleteChat(GuestScope, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{second.ID}, shards.removed)

	list = store.ListChats(GuestScope)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}
