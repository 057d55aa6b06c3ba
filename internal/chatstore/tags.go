// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

// =============================================================================
// CHAT TAGS
// =============================================================================

// Tag is a predefined category a chat record can be labeled with.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// tags is the fixed tag catalog. The set is closed: unknown ids are dropped
// during normalization so dirty data never reaches storage.
var tags = []Tag{
	{ID: "work", Label: "Work"},
	{ID: "study", Label: "Study"},
	{ID: "code", Label: "Code"},
	{ID: "product", Label: "Product"},
	{ID: "meeting", Label: "Meeting"},
	{ID: "personal", Label: "Personal"},
}

var tagIDs = func() map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag.ID] = true
	}
	return set
}()

// Tags returns the fixed tag catalog.
func Tags() []Tag {
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

// NormalizeTagID maps any value outside the catalog to "" (untagged).
func NormalizeTagID(tagID string) string {
	if tagIDs[tagID] {
		return tagID
	}
	return ""
}

// TagByID returns the tag with the given id, or nil for unknown or empty ids.
func TagByID(tagID string) *Tag {
	for i := range tags {
		if tags[i].ID == tagID {
			return &tags[i]
		}
	}
	return nil
}
