package domain

import "time"

// ChunkMetadata carries the provenance of a chunk back to its source page.
// Properties holds scalar values copied from the page, primarily
// date-bearing fields used by temporal re-ranking.
type ChunkMetadata struct {
	Title        string            `json:"title"`
	SourceID     string            `json:"source_id"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	ChunkIndex   int               `json:"chunk_index"`
	TotalChunks  int               `json:"total_chunks"`
}

// Chunk is a bounded slice of a page's text, the unit of embedding and
// retrieval. Embedding is nil until an embedding run attaches a vector;
// chunks without one are skipped by search.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float64     `json:"embedding,omitempty"`
}

// SearchResult is a matching chunk with its adjusted relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IndexStatus summarizes the state of an index store. Ready is true iff
// both counts are non-zero.
type IndexStatus struct {
	ChunkCount     int
	EmbeddingCount int
	Ready          bool
}
