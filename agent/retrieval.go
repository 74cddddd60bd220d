package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/vectorstore"
)

// DefaultTopK bounds retrieval results when a request leaves TopK unset.
const DefaultTopK = 5

// Retrieval answers similarity queries and performs index writes. It
// subscribes to KindIngestionResponse as well: an ingestion result addressed
// to this agent is an index-write command, answered with a status reply
// carrying the stored chunk count.
type Retrieval struct {
	base
	index vectorstore.Index
}

// NewRetrieval creates the retrieval agent backed by the given index.
func NewRetrieval(index vectorstore.Index, logger logging.Logger) *Retrieval {
	return &Retrieval{base: newBase(RetrievalName, logger), index: index}
}

// Kinds implements Agent.
func (a *Retrieval) Kinds() []core.Kind {
	return []core.Kind{core.KindRetrievalRequest, core.KindIngestionResponse}
}

// HandleMessage implements Agent.
func (a *Retrieval) HandleMessage(ctx context.Context, msg core.Message) (*core.Message, error) {
	switch msg.Kind {
	case core.KindRetrievalRequest:
		return a.handleQuery(ctx, msg), nil
	case core.KindIngestionResponse:
		return a.handleIndexWrite(ctx, msg), nil
	default:
		return nil, nil
	}
}

func (a *Retrieval) handleQuery(ctx context.Context, msg core.Message) *core.Message {
	req, ok := msg.Payload.(core.RetrievalRequest)
	if !ok {
		return a.errorReply(msg, "retrieval", fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Kind))
	}
	k := req.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	chunks, err := a.index.Query(ctx, req.Query, k)
	if err != nil {
		return a.errorReply(msg, "retrieval", err)
	}
	a.logger.Info("retrieval completed", "trace_id", msg.TraceID, "query", req.Query, "results", len(chunks))
	reply := msg.Reply(a.name, core.KindRetrievalResponse, core.RetrievalResponse{
		Query:  req.Query,
		Chunks: chunks,
	})
	return &reply
}

func (a *Retrieval) handleIndexWrite(ctx context.Context, msg core.Message) *core.Message {
	in, ok := msg.Payload.(core.IngestionResponse)
	if !ok {
		return a.errorReply(msg, "indexing", fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Kind))
	}
	texts := make([]string, 0, len(in.Documents))
	metadatas := make([]map[string]string, 0, len(in.Documents))
	for _, d := range in.Documents {
		texts = append(texts, d.Text)
		metadatas = append(metadatas, d.Metadata)
	}
	ids, err := a.index.Upsert(ctx, texts, metadatas)
	if err != nil {
		return a.errorReply(msg, "indexing", err)
	}
	a.logger.Info("index write completed", "trace_id", msg.TraceID, "chunks", len(ids))
	reply := msg.Reply(a.name, core.KindStatus, core.StatusUpdate{
		Stage:         "indexing",
		Detail:        fmt.Sprintf("indexed %d chunks", len(ids)),
		ChunksIndexed: len(ids),
	})
	return &reply
}
