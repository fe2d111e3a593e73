package prompt

import (
	"fmt"
	"strings"

	"notionrag/internal/domain"
)

// NoResultsMessage is returned verbatim when there is nothing to format.
const NoResultsMessage = "No relevant information was found in the indexed pages."

// Format renders ranked results into a single context block for prompt
// injection: a numbered list of source title, raw chunk content, and the
// score as a percentage to one decimal place.
func Format(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	var b strings.Builder
	for i, r := range results {
		title := r.Chunk.Metadata.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. %s (relevance: %.1f%%)\n%s\n\n", i+1, title, r.Score*100, r.Chunk.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
