// Package vectorstore defines the similarity-index contract consumed by the
// retrieval agent, plus a process-local implementation so the module runs
// end-to-end without an external vector database. Durable backends (Chroma,
// pgvector, etc.) implement Index and are selected at wiring time.
package vectorstore

import (
	"context"

	"github.com/hupe1980/ragmesh/core"
)

// Index stores text chunks with metadata and answers similarity queries.
//
// Contract:
//   - Upsert returns one generated id per stored chunk
//   - Query returns at most k chunks ordered most-similar first and never
//     more than the index currently holds (no padding, no error on a small
//     index)
//   - Score is similarity: higher means more similar
type Index interface {
	Upsert(ctx context.Context, texts []string, metadatas []map[string]string) ([]string, error)
	Query(ctx context.Context, text string, k int) ([]core.Chunk, error)
	Count() int
}
