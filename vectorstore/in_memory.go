package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/hupe1980/ragmesh/core"
)

type entry struct {
	id       string
	text     string
	metadata map[string]string
	terms    map[string]float64
	norm     float64
}

// InMemoryIndex is a naive process-local Index using term-frequency cosine
// similarity. Suitable for development and tests; swap for an embedding
// backend for production retrieval quality.
//
// Concurrency: protected by RWMutex. Ordering among equal scores is
// insertion order (sort is stable).
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries []entry
}

// NewInMemoryIndex creates an empty in-memory index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Upsert implements Index. Metadata slices shorter than texts are padded
// with empty maps.
func (x *InMemoryIndex) Upsert(_ context.Context, texts []string, metadatas []map[string]string) ([]string, error) {
	if len(metadatas) > len(texts) {
		return nil, fmt.Errorf("vectorstore: %d metadatas for %d texts", len(metadatas), len(texts))
	}
	ids := make([]string, 0, len(texts))
	added := make([]entry, 0, len(texts))
	for i, text := range texts {
		md := map[string]string{}
		if i < len(metadatas) && metadatas[i] != nil {
			md = metadatas[i]
		}
		terms := termFrequencies(text)
		added = append(added, entry{
			id:       uuid.NewString(),
			text:     text,
			metadata: md,
			terms:    terms,
			norm:     vectorNorm(terms),
		})
		ids = append(ids, added[len(added)-1].id)
	}
	x.mu.Lock()
	x.entries = append(x.entries, added...)
	x.mu.Unlock()
	return ids, nil
}

// Query implements Index.
func (x *InMemoryIndex) Query(_ context.Context, text string, k int) ([]core.Chunk, error) {
	if k <= 0 {
		return []core.Chunk{}, nil
	}
	queryTerms := termFrequencies(text)
	queryNorm := vectorNorm(queryTerms)

	x.mu.RLock()
	scored := make([]core.Chunk, 0, len(x.entries))
	for _, e := range x.entries {
		md := make(map[string]string, len(e.metadata))
		for mk, mv := range e.metadata {
			md[mk] = mv
		}
		scored = append(scored, core.Chunk{
			Text:     e.text,
			Metadata: md,
			Score:    cosine(queryTerms, queryNorm, e.terms, e.norm),
		})
	}
	x.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored chunks.
func (x *InMemoryIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func termFrequencies(text string) map[string]float64 {
	terms := map[string]float64{}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		terms[w]++
	}
	return terms
}

func vectorNorm(terms map[string]float64) float64 {
	var sum float64
	for _, v := range terms {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func cosine(a map[string]float64, aNorm float64, b map[string]float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for t, av := range a {
		if bv, ok := b[t]; ok {
			dot += av * bv
		}
	}
	return dot / (aNorm * bNorm)
}
