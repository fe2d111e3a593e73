package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"notionrag/internal/domain"
)

func TestFormatEmptyResults(t *testing.T) {
	assert.Equal(t, NoResultsMessage, Format(nil))
	assert.Equal(t, NoResultsMessage, Format([]domain.SearchResult{}))
}

func TestFormatNumberedList(t *testing.T) {
	results := []domain.SearchResult{
		{
			Chunk: domain.Chunk{Content: "첫 번째 내용", Metadata: domain.ChunkMetadata{Title: "회의록"}},
			Score: 0.834,
		},
		{
			Chunk: domain.Chunk{Content: "second content", Metadata: domain.ChunkMetadata{Title: "Spec"}},
			Score: 0.5,
		},
	}
	want := "1. 회의록 (relevance: 83.4%)\n첫 번째 내용\n\n" +
		"2. Spec (relevance: 50.0%)\nsecond content"
	assert.Equal(t, want, Format(results))
}

func TestFormatUntitledFallback(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Content: "body"}, Score: 1},
	}
	assert.Equal(t, "1. Untitled (relevance: 100.0%)\nbody", Format(results))
}
