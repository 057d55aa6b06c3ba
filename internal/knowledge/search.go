// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"sort"
	"strings"

	"github.com/orsinium-labs/stopwords"
)

// =============================================================================
// KEYWORD SEARCH
// =============================================================================

// SearchResult is one scored document match.
type SearchResult struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Score         float64  `json:"score"`
	Snippet       string   `json:"snippet"`
	MatchedTokens []string `json:"matchedTokens"`
}

// snippetLength bounds the context window returned around the first match.
const snippetLength = 180

var englishStopwords = stopwords.MustGet("en")

// Search scores documents against a keyword query and returns matches sorted
// by descending score, capped at limit. Stopword-only and empty queries
// return no results.
func Search(docs []Document, query string, limit int) []SearchResult {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	var results []SearchResult
	for _, doc := range docs {
		contentLower := strings.ToLower(doc.Content)

		score := 0.0
		var matched []string
		firstIndex := -1
		for _, token := range tokens {
			index := strings.Index(contentLower, token)
			if index < 0 {
				continue
			}
			// Longer tokens are stronger signals, capped so one huge token
			// cannot dominate the score.
			weight := float64(len(token)) / 10
			if weight > 1.5 {
				weight = 1.5
			}
			score += 1 + weight
			matched = append(matched, token)
			if firstIndex < 0 || index < firstIndex {
				firstIndex = index
			}
		}
		if score <= 0 {
			continue
		}

		results = append(results, SearchResult{
			ID:            doc.ID,
			Name:          doc.Name,
			Score:         score,
			Snippet:       buildSnippet(doc.Content, firstIndex),
			MatchedTokens: matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// queryTokens normalizes and tokenizes a query, dropping English stopwords
// unless that would drop everything.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(fields) == 0 {
		return nil
	}

	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if englishStopwords.Contains(field) {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		// All-stopword queries ("what is the") still deserve a literal match
		// attempt rather than an empty result set.
		return fields
	}
	return kept
}

// buildSnippet returns a window of content around the first match index.
func buildSnippet(content string, index int) string {
	if index < 0 {
		if len(content) <= snippetLength {
			return content
		}
		return content[:snippetLength]
	}
	start := index - snippetLength/3
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}
