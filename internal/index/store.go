package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"notionrag/internal/domain"
)

// Store holds the chunk sequence and an id→vector map for the current
// session. The map and each chunk's Embedding field are two views of one
// fact; SetEmbedding is the single mutation point keeping them in sync.
// Search reads through the RWMutex and may run concurrently; rebuilds are
// serialized by the service layer.
type Store struct {
	mu      sync.RWMutex
	path    string
	logger  *slog.Logger
	chunks  []domain.Chunk
	byID    map[string]int
	vectors map[string][]float64
}

// NewStore creates an empty store persisting snapshots at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    path,
		logger:  logger,
		byID:    make(map[string]int),
		vectors: make(map[string][]float64),
	}
}

// SetChunks replaces the indexed chunks wholesale. Vectors already attached
// to the incoming chunks are registered in the map view.
func (s *Store) SetChunks(chunks []domain.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(chunks)
}

func (s *Store) replace(chunks []domain.Chunk) {
	s.chunks = make([]domain.Chunk, len(chunks))
	copy(s.chunks, chunks)
	s.byID = make(map[string]int, len(chunks))
	s.vectors = make(map[string][]float64, len(chunks))
	for i, ch := range s.chunks {
		s.byID[ch.ID] = i
		if len(ch.Embedding) > 0 {
			s.vectors[ch.ID] = ch.Embedding
		}
	}
}

// SetEmbedding attaches a vector to the chunk with the given id, updating
// both the chunk field and the map view. It reports whether the id exists.
func (s *Store) SetEmbedding(id string, vector []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.chunks[i].Embedding = vector
	s.vectors[id] = vector
	return true
}

// Chunks returns a copy of the indexed chunk sequence.
func (s *Store) Chunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Vector returns the embedding for a chunk id, if any.
func (s *Store) Vector(id string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[id]
	return v, ok
}

// Status reports chunk and embedding counts; the store is ready when both
// are non-zero.
func (s *Store) Status() domain.IndexStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IndexStatus{
		ChunkCount:     len(s.chunks),
		EmbeddingCount: len(s.vectors),
		Ready:          len(s.chunks) > 0 && len(s.vectors) > 0,
	}
}

// embeddingPair serializes one id→vector entry as a two-element JSON array,
// since map key order is not guaranteed across writes.
type embeddingPair struct {
	ID     string
	Vector []float64
}

func (p embeddingPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.ID, p.Vector})
}

func (p *embeddingPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("embedding pair has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Vector)
}

type snapshot struct {
	Chunks      []domain.Chunk  `json:"chunks"`
	Embeddings  []embeddingPair `json:"embeddings"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Save writes the full store state to the snapshot path. A write failure is
// returned for the caller to log; the in-memory state stays authoritative.
func (s *Store) Save() error {
	s.mu.RLock()
	snap := snapshot{
		Chunks:      make([]domain.Chunk, len(s.chunks)),
		Embeddings:  make([]embeddingPair, 0, len(s.vectors)),
		LastUpdated: time.Now(),
	}
	copy(snap.Chunks, s.chunks)
	for id, vec := range s.vectors {
		snap.Embeddings = append(snap.Embeddings, embeddingPair{ID: id, Vector: vec})
	}
	s.mu.RUnlock()
	sort.Slice(snap.Embeddings, func(i, j int) bool { return snap.Embeddings[i].ID < snap.Embeddings[j].ID })

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Load replaces the in-memory state from the snapshot path. It returns
// whether a usable snapshot existed; a missing or corrupt file is treated
// as no snapshot, never as an error.
func (s *Store) Load() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("snapshot unreadable", "path", s.path, "error", err)
		}
		return false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("snapshot corrupt, ignoring", "path", s.path, "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(snap.Chunks)
	for _, p := range snap.Embeddings {
		if i, ok := s.byID[p.ID]; ok {
			s.chunks[i].Embedding = p.Vector
			s.vectors[p.ID] = p.Vector
		}
	}
	return true
}
