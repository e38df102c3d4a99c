package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/wikidex/internal/store"
)

// Search limits.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// FormatSearchResults renders results as markdown.
func FormatSearchResults(query string, results []*store.SearchResult) string {
	valid := filterValidResults(results)
	if len(valid) == 0 {
		return fmt.Sprintf("No pages found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Pages matching \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d page", len(valid))
	if len(valid) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range valid {
		fmt.Fprintf(&sb, "%d. **%s** (id %d, score: %.2f)\n", i+1, r.Title, r.ID, r.Score)
	}
	return sb.String()
}

func filterValidResults(results []*store.SearchResult) []*store.SearchResult {
	valid := make([]*store.SearchResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			valid = append(valid, r)
		}
	}
	return valid
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

// toPageOutput converts a hit to the tool output shape.
func toPageOutput(r *store.SearchResult) PageOutput {
	return PageOutput{ID: uint64(r.ID), Title: r.Title, Score: r.Score}
}

func (o *SearchOutput) hits() []*store.SearchResult {
	hits := make([]*store.SearchResult, 0, len(o.Results))
	for _, r := range o.Results {
		hits = append(hits, &store.SearchResult{ID: store.DocumentID(r.ID), Title: r.Title, Score: r.Score})
	}
	return hits
}
