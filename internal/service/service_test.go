package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notionrag/internal/chunker"
	"notionrag/internal/domain"
	"notionrag/internal/index"
	"notionrag/internal/search"
)

// stubEmbedder produces deterministic vectors from text length.
type stubEmbedder struct {
	err        error
	batchCalls int
}

func (s *stubEmbedder) Embed(text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float64{1, float64(len(text) % 7)}, nil
}

func (s *stubEmbedder) EmbedBatch(texts []string) ([][]float64, error) {
	s.batchCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i], _ = s.Embed(texts[i])
	}
	return out, nil
}

func titleProp(text string) domain.Property {
	return domain.Property{Type: "title", Title: []domain.RichText{{PlainText: text}}}
}

func testPages() []domain.Page {
	return []domain.Page{
		{
			ID:         "p1",
			Properties: map[string]domain.Property{"Name": titleProp("짧은 문서")},
			Content:    "short body",
		},
		{
			ID:         "p2",
			Properties: map[string]domain.Property{"Name": titleProp("긴 문서")},
			Content:    strings.Repeat("x", 1500),
		},
	}
}

func newTestService(t *testing.T, emb *stubEmbedder) (*Service, *index.Store) {
	t.Helper()
	store := index.NewStore(filepath.Join(t.TempDir(), "snap.json"), nil)
	engine := search.NewEngine(emb, store)
	ch := chunker.NewWindowChunker(1000, 200)
	return New(ch, emb, store, engine, nil), store
}

func TestProcessChunksAllPages(t *testing.T) {
	svc, store := newTestService(t, &stubEmbedder{})

	chunks, err := svc.Process(testPages())
	require.NoError(t, err)
	assert.Len(t, chunks, 3) // 1 + 2
	assert.Equal(t, 3, store.Status().ChunkCount)
	assert.Equal(t, "짧은 문서", chunks[0].Metadata.Title)
}

func TestProcessNoChunksIsError(t *testing.T) {
	svc, _ := newTestService(t, &stubEmbedder{})
	_, err := svc.Process(nil)
	require.Error(t, err)
}

func TestEmbedAttachesVectors(t *testing.T) {
	emb := &stubEmbedder{}
	svc, store := newTestService(t, emb)
	_, err := svc.Process(testPages())
	require.NoError(t, err)

	require.NoError(t, svc.Embed())
	st := store.Status()
	assert.Equal(t, st.ChunkCount, st.EmbeddingCount)
	assert.True(t, st.Ready)

	// A second run has nothing left to embed.
	require.NoError(t, svc.Embed())
	assert.Equal(t, 1, emb.batchCalls)
}

func TestEmbedFailureCommitsNothing(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("credential rejected")}
	svc, store := newTestService(t, emb)
	_, err := svc.Process(testPages())
	require.NoError(t, err)

	err = svc.Embed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential rejected")
	assert.Equal(t, 0, store.Status().EmbeddingCount)
}

func TestSearchEndToEnd(t *testing.T) {
	svc, _ := newTestService(t, &stubEmbedder{})
	require.NoError(t, svc.Rebuild(testPages()))

	results, err := svc.Search("문서 내용", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)

	out := svc.Format(results)
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "%)")
}

func TestRebuildPersistsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	emb := &stubEmbedder{}
	store := index.NewStore(path, nil)
	engine := search.NewEngine(emb, store)
	svc := New(chunker.NewWindowChunker(1000, 200), emb, store, engine, nil)
	require.NoError(t, svc.Rebuild(testPages()))

	// A fresh service over the same path picks the snapshot up.
	store2 := index.NewStore(path, nil)
	engine2 := search.NewEngine(emb, store2)
	svc2 := New(chunker.NewWindowChunker(1000, 200), emb, store2, engine2, nil)
	require.True(t, svc2.Load())
	st := svc2.Status()
	assert.Equal(t, 3, st.ChunkCount)
	assert.Equal(t, 3, st.EmbeddingCount)
	assert.True(t, st.Ready)
}

func TestSaveSwallowsWriteFailure(t *testing.T) {
	emb := &stubEmbedder{}
	// Snapshot path is a directory, so the write always fails.
	store := index.NewStore(t.TempDir(), nil)
	engine := search.NewEngine(emb, store)
	svc := New(chunker.NewWindowChunker(1000, 200), emb, store, engine, nil)
	_, err := svc.Process(testPages())
	require.NoError(t, err)

	svc.Save() // must not panic or fail
	assert.Equal(t, 3, svc.Status().ChunkCount)
}

func TestLoadReportsMissingSnapshot(t *testing.T) {
	svc, _ := newTestService(t, &stubEmbedder{})
	assert.False(t, svc.Load())
}
