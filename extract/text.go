package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/ragmesh/core"
)

// TextExtractor chunks plain text (and markdown) into fixed-size pieces.
type TextExtractor struct {
	// ChunkSize is the approximate chunk length in bytes.
	ChunkSize int
}

// NewTextExtractor creates a TextExtractor with a 1000-byte chunk size.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{ChunkSize: 1000}
}

// Extract implements Extractor. Empty input yields an error rather than an
// empty document list so callers can distinguish "nothing to index".
func (e *TextExtractor) Extract(content []byte, name string) ([]core.Document, error) {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract: %s is empty", name)
	}
	size := e.ChunkSize
	if size <= 0 {
		size = 1000
	}
	fileType := typeFromName(name, "txt")
	var docs []core.Document
	for i := 0; i < len(text); i += size {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[i:end])
		if chunk == "" {
			continue
		}
		docs = append(docs, core.Document{
			Text:     chunk,
			Metadata: docMetadata(name, fileType, len(docs)),
		})
	}
	return docs, nil
}

// typeFromName derives the file type from the name's extension.
func typeFromName(name, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return fallback
	}
	return ext
}
