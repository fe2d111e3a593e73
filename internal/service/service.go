package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"notionrag/internal/chunker"
	"notionrag/internal/domain"
	"notionrag/internal/embedding"
	"notionrag/internal/extractor"
	"notionrag/internal/index"
	"notionrag/internal/prompt"
	"notionrag/internal/search"
)

// Service is the retrieval core's facade. A single mutex serializes the
// whole check-existing / rebuild / embed / persist sequence so concurrent
// triggers cannot duplicate embedding spend; searches read concurrently
// through the store's own lock.
type Service struct {
	mu       sync.Mutex
	chunker  *chunker.WindowChunker
	embedder embedding.Embedder
	store    *index.Store
	engine   *search.Engine
	logger   *slog.Logger
}

// New assembles the service from its components.
func New(ch *chunker.WindowChunker, emb embedding.Embedder, store *index.Store, engine *search.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{chunker: ch, embedder: emb, store: store, engine: engine, logger: logger}
}

// Process extracts and chunks the pages, replacing the store's contents
// wholesale, and returns the produced chunks.
func (s *Service) Process(pages []domain.Page) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.process(pages)
}

func (s *Service) process(pages []domain.Page) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for _, page := range pages {
		text := extractor.Extract(page)
		title := page.Title()
		if title == "" {
			title = "Untitled"
		}
		all = append(all, s.chunker.Chunk(text, title, page)...)
	}
	if len(all) == 0 {
		return nil, errors.New("no pages produced any chunks")
	}
	s.store.SetChunks(all)
	s.logger.Info("pages processed", "pages", len(pages), "chunks", len(all))
	return all, nil
}

// Embed attaches vectors to every chunk that lacks one, in one batched run.
// A batch failure aborts the run with nothing committed; re-invoke to retry.
func (s *Service) Embed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embed()
}

func (s *Service) embed() error {
	chunks := s.store.Chunks()
	var pending []domain.Chunk
	for _, ch := range chunks {
		if len(ch.Embedding) == 0 {
			pending = append(pending, ch)
		}
	}
	if len(pending) == 0 {
		s.logger.Info("all chunks already embedded", "chunks", len(chunks))
		return nil
	}

	texts := make([]string, len(pending))
	for i, ch := range pending {
		texts[i] = ch.Content
	}
	vectors, err := s.embedder.EmbedBatch(texts)
	if err != nil {
		return fmt.Errorf("embedding run: %w", err)
	}
	for i, ch := range pending {
		s.store.SetEmbedding(ch.ID, vectors[i])
	}
	s.logger.Info("embeddings attached", "count", len(pending))
	return nil
}

// Rebuild runs the full process → embed → save sequence under one lock.
func (s *Service) Rebuild(pages []domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.process(pages); err != nil {
		return err
	}
	if err := s.embed(); err != nil {
		return err
	}
	s.save()
	return nil
}

// Search returns the topK chunks most relevant to the query.
func (s *Service) Search(query string, topK int) ([]domain.SearchResult, error) {
	return s.engine.Search(query, topK)
}

// Format renders results into a context string for prompt injection.
func (s *Service) Format(results []domain.SearchResult) string {
	return prompt.Format(results)
}

// Save persists the index snapshot. Write failures are logged and
// swallowed: the in-memory state remains the source of truth.
func (s *Service) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save()
}

func (s *Service) save() {
	if err := s.store.Save(); err != nil {
		s.logger.Warn("snapshot save failed, keeping in-memory index", "error", err)
	}
}

// Load replaces the index from a prior snapshot, reporting whether one existed.
func (s *Service) Load() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// Status reports the current index state.
func (s *Service) Status() domain.IndexStatus {
	return s.store.Status()
}
