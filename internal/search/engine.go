package search

import (
	"math"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"notionrag/internal/domain"
	"notionrag/internal/embedding"
	"notionrag/internal/index"
)

// DefaultTopK is the result count when the caller passes none.
const DefaultTopK = 5

// queryCacheSize bounds the LRU cache of query embeddings. Repeated queries
// skip the embedding call entirely.
const queryCacheSize = 256

// Engine scores every indexed chunk against a query by cosine similarity,
// then adjusts scores by the query's temporal intent. Search is read-only
// against the store and may run concurrently with itself.
type Engine struct {
	embedder embedding.Embedder
	store    *index.Store
	cache    *lru.Cache[string, []float64]
	now      func() time.Time
}

// NewEngine creates a search engine over the given store.
func NewEngine(embedder embedding.Embedder, store *index.Store) *Engine {
	cache, _ := lru.New[string, []float64](queryCacheSize)
	return &Engine{embedder: embedder, store: store, cache: cache, now: time.Now}
}

// Search returns at most topK results ordered by adjusted score descending.
// Chunks without an embedding contribute no result.
func (e *Engine) Search(query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryVec, err := e.queryVector(query)
	if err != nil {
		return nil, err
	}

	intent := ClassifyIntent(query)
	now := e.now()

	chunks := e.store.Chunks()
	results := make([]domain.SearchResult, 0, len(chunks))
	for _, ch := range chunks {
		if len(ch.Embedding) == 0 {
			continue
		}
		similarity := Cosine(queryVec, ch.Embedding)
		score, keep := adjustScore(similarity, intent, ch, now)
		if !keep {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: ch, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (e *Engine) queryVector(query string) ([]float64, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := e.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

// Cosine returns the cosine similarity of two vectors: their dot product
// divided by the product of their norms. Vectors of different lengths score
// 0; this should not occur with a consistent embedding model.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
