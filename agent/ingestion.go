package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/extract"
	"github.com/hupe1980/ragmesh/logging"
)

// Ingestion extracts text from uploaded files. An item with an unsupported
// type or a failing extractor becomes a per-item failure note; the batch
// succeeds as long as the request itself is well formed (partial success).
type Ingestion struct {
	base
	registry *extract.Registry
}

// NewIngestion creates the ingestion agent backed by the given extractor registry.
func NewIngestion(registry *extract.Registry, logger logging.Logger) *Ingestion {
	return &Ingestion{base: newBase(IngestionName, logger), registry: registry}
}

// Kinds implements Agent.
func (a *Ingestion) Kinds() []core.Kind {
	return []core.Kind{core.KindIngestionRequest}
}

// HandleMessage implements Agent.
func (a *Ingestion) HandleMessage(_ context.Context, msg core.Message) (*core.Message, error) {
	req, ok := msg.Payload.(core.IngestionRequest)
	if !ok {
		return a.errorReply(msg, "ingestion", fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Kind)), nil
	}

	var (
		docs      []core.Document
		processed []string
		failures  []core.FileFailure
	)
	for _, f := range req.Files {
		extractor, err := a.registry.Lookup(f.Type)
		if err != nil {
			a.logger.Warn("skipping file", "file", f.Name, "type", f.Type, "reason", err.Error())
			failures = append(failures, core.FileFailure{Name: f.Name, Reason: err.Error()})
			continue
		}
		fileDocs, err := extractor.Extract(f.Content, f.Name)
		if err != nil {
			a.logger.Warn("extraction failed", "file", f.Name, "error", err)
			failures = append(failures, core.FileFailure{Name: f.Name, Reason: err.Error()})
			continue
		}
		docs = append(docs, fileDocs...)
		processed = append(processed, f.Name)
	}

	a.logger.Info("ingestion completed",
		"trace_id", msg.TraceID, "processed", len(processed), "failed", len(failures), "chunks", len(docs))
	reply := msg.Reply(a.name, core.KindIngestionResponse, core.IngestionResponse{
		Success:        true,
		Documents:      docs,
		ProcessedFiles: processed,
		Failures:       failures,
	})
	return &reply, nil
}
