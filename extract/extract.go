// Package extract houses the content extractor contract and the registry the
// ingestion agent selects from by declared file type. Plain-text, markdown
// and CSV extractors ship built in; binary formats (PDF, Word, slides) are
// external collaborators registered at wiring time.
package extract

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/ragmesh/core"
)

// ErrUnsupportedType is returned by Lookup for a file type no extractor
// handles. The ingestion agent converts it into a per-item failure note.
var ErrUnsupportedType = fmt.Errorf("extract: unsupported file type")

// Extractor converts raw file content into text documents. Metadata on each
// document must include "file_name" and "file_type" for source labeling.
type Extractor interface {
	Extract(content []byte, name string) ([]core.Document, error)
}

// Registry maps declared file types to extractors. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates a registry preloaded with the built-in extractors
// (txt, md, csv).
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	text := NewTextExtractor()
	r.Register("txt", text)
	r.Register("md", text)
	r.Register("csv", NewCSVExtractor())
	return r
}

// Register adds or replaces the extractor for fileType (case-insensitive).
func (r *Registry) Register(fileType string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[strings.ToLower(fileType)] = e
}

// Lookup returns the extractor for fileType or ErrUnsupportedType.
func (r *Registry) Lookup(fileType string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[strings.ToLower(fileType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
	return e, nil
}

// Supported returns the registered file types in sorted order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// docMetadata builds the baseline metadata for one extracted chunk.
func docMetadata(name, fileType string, chunkID int) map[string]string {
	return map[string]string{
		"file_name": name,
		"file_type": fileType,
		"chunk_id":  fmt.Sprintf("%d", chunkID),
	}
}
