package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"notionrag/internal/domain"
)

// Default window parameters, in characters (runes).
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// WindowChunker splits text into fixed-size chunks with a fixed overlap.
// Boundaries fall on raw character offsets, not word or sentence
// boundaries; the downstream embedding model tolerates mid-word splits.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker creates a chunker with the given window parameters.
// Overlap must be strictly less than chunk size to guarantee forward
// progress; invalid values fall back to the defaults.
func NewWindowChunker(chunkSize, overlap int) *WindowChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into chunks carrying provenance metadata built from the
// page. A text no longer than the window size yields exactly one chunk.
func (c *WindowChunker) Chunk(text, title string, page domain.Page) []domain.Chunk {
	meta := c.metadataTemplate(title, page)

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.chunkSize {
		meta.ChunkIndex = 0
		meta.TotalChunks = 1
		return []domain.Chunk{{
			ID:       fmt.Sprintf("%s-%d", meta.SourceID, 0),
			Content:  text,
			Metadata: meta,
		}}
	}

	step := c.chunkSize - c.overlap
	total := (len(runes) + step - 1) / step
	chunks := make([]domain.Chunk, 0, total)
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		m := meta
		m.ChunkIndex = idx
		m.TotalChunks = total
		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s-%d", m.SourceID, idx),
			Content:  string(runes[start:end]),
			Metadata: m,
		})
		idx++
	}
	return chunks
}

// metadataTemplate builds the shared metadata for every chunk of one page.
// The properties map comes from the exporter's pre-computed metadata when
// present, otherwise from the page's own date-typed properties (end dates
// get an "_end"-suffixed key).
func (c *WindowChunker) metadataTemplate(title string, page domain.Page) domain.ChunkMetadata {
	sourceID := page.ID
	if sourceID == "" {
		sourceID = "page-" + hashString(title)
	}
	modified := page.LastEditedTime
	if modified.IsZero() {
		modified = time.Now()
	}

	var props map[string]string
	if len(page.Meta) > 0 {
		props = make(map[string]string, len(page.Meta))
		for k, v := range page.Meta {
			props[k] = v
		}
	} else {
		for name, prop := range page.Properties {
			if prop.Type != "date" || prop.Date == nil || prop.Date.Start == "" {
				continue
			}
			if props == nil {
				props = make(map[string]string)
			}
			props[name] = prop.Date.Start
			if prop.Date.End != "" {
				props[name+"_end"] = prop.Date.End
			}
		}
	}

	return domain.ChunkMetadata{
		Title:        title,
		SourceID:     sourceID,
		LastModified: modified,
		URL:          page.URL,
		Properties:   props,
	}
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
