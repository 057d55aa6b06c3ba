// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deepscan/deepscan-store/internal/chatstore"
	"github.com/deepscan/deepscan-store/internal/msgstore"
)

// =============================================================================
// MARKDOWN CONVERTER
// =============================================================================

// RenderMarkdown converts one chat and its messages to a human-readable
// Markdown document for sharing outside the app.
func RenderMarkdown(record chatstore.ChatRecord, messages []json.RawMessage) []byte {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", record.Title))

	sb.WriteString("## Session Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Model**: %s\n", record.Model))
	if tag := chatstore.TagByID(record.TagID); tag != nil {
		sb.WriteString(fmt.Sprintf("- **Tag**: %s\n", tag.Label))
	}
	sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatMillis(record.CreatedAt)))
	sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatMillis(record.UpdatedAt)))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(messages)))
	sb.WriteString("\n---\n\n")

	sb.WriteString("## Conversation\n\n")
	for _, message := range messages {
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(message)))
		text := msgstore.MessageText(message)
		if text == "" {
			text = "*(no text content)*"
		}
		sb.WriteString(text)
		sb.WriteString("\n\n---\n\n")
	}

	return []byte(sb.String())
}

func roleLabel(message json.RawMessage) string {
	var parsed struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(message, &parsed); err != nil {
		return "Unknown"
	}
	switch parsed.Role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "system":
		return "System"
	default:
		if parsed.Role == "" {
			return "Unknown"
		}
		return strings.ToUpper(parsed.Role[:1]) + parsed.Role[1:]
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format(time.RFC3339)
}
