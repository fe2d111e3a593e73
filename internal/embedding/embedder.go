package embedding

// Embedder converts text into fixed-length numeric vectors via an external
// embedding service. EmbedBatch preserves order: result i corresponds to
// input i. A batch failure aborts the whole run; retry is the caller's
// responsibility.
type Embedder interface {
	EmbedBatch(texts []string) ([][]float64, error)
	Embed(text string) ([]float64, error)
}
