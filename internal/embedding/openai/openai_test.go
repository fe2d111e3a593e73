package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newEmbeddingsServer returns a server echoing one vector per input. When
// reverse is set, the data array comes back in reverse index order, which a
// correct client must reorder.
func newEmbeddingsServer(t *testing.T, reverse bool, batchSizes *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if batchSizes != nil {
			*batchSizes = append(*batchSizes, len(req.Input))
		}

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i, text := range req.Input {
			data[i] = datum{Index: i, Embedding: []float64{float64(len(text)), 1}}
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func newTestClient(t *testing.T, baseURL string, batchSize int) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:   baseURL,
		APIKeyEnv: "TEST_EMBED_KEY",
		Model:     "test-model",
		Timeout:   5 * time.Second,
		BatchSize: batchSize,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_EMBED_KEY")
}

func TestEmbedBatchSplitsIntoGroups(t *testing.T) {
	var batchSizes []int
	srv := newEmbeddingsServer(t, false, &batchSizes)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := c.EmbedBatch(texts)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, batchSizes)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float64{float64(len(text)), 1}, vectors[i])
	}
	assert.Equal(t, 2, c.Dimension())
}

func TestEmbedBatchPreservesOrderFromIndexField(t *testing.T) {
	srv := newEmbeddingsServer(t, true, nil)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100)
	vectors, err := c.EmbedBatch([]string{"x", "yy", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, vectors[0])
	assert.Equal(t, []float64{2, 1}, vectors[1])
	assert.Equal(t, []float64{3, 1}, vectors[2])
}

func TestEmbedBatchFailureAbortsRun(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var req embeddingsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, `{"data":[{"index":0,"embedding":[1]},{"index":1,"embedding":[2]}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.EmbedBatch([]string{"a", "b", "c", "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch starting at 2")
	assert.Equal(t, 2, calls, "no retry after a failed batch")
}

func TestEmbedSingleQuery(t *testing.T) {
	srv := newEmbeddingsServer(t, false, nil)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100)
	vec, err := c.Embed("hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1}, vec)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := newTestClient(t, "http://unused", 100)
	vectors, err := c.EmbedBatch(nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1]}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100)
	_, err := c.EmbedBatch([]string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}
