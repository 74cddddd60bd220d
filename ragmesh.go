// Package ragmesh provides a high-level façade over the message bus, the
// pipeline worker agents and the coordinator, enabling construction of a
// complete retrieval-augmented question-answering service in a few lines.
// Most applications interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding the in-memory index,
//     the mock completer or the extractor registry)
//  2. Uploading documents with Upload
//  3. Asking questions with Ask
//
// All defaults are safe for local development and testing; production
// deployments supply a durable vector index, a real model completer and a
// structured logger.
package ragmesh

import (
	"context"

	"github.com/hupe1980/ragmesh/agent"
	"github.com/hupe1980/ragmesh/bus"
	"github.com/hupe1980/ragmesh/coordinator"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/extract"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/vectorstore"
)

// Options configures the Mesh.
type Options struct {
	// Index backs the retrieval agent (in-memory when nil).
	Index vectorstore.Index
	// Completer backs the generation agent (mock when nil).
	Completer model.Completer
	// Extractors backs the ingestion agent (built-in registry when nil).
	Extractors *extract.Registry
	// BusHistoryLimit bounds the bus message history.
	BusHistoryLimit int
	// Coordinator tunes workflow timeouts and limits.
	Coordinator func(o *coordinator.Options)
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the bus, the worker agents and
// the coordinator.
type Mesh struct {
	bus         *bus.Bus
	coordinator *coordinator.Coordinator
	registry    *extract.Registry
	index       vectorstore.Index
}

// New creates a Mesh with optional overrides. Any unset collaborator is
// initialized with an in-memory implementation and the agents are registered
// on a fresh bus.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Index:           vectorstore.NewInMemoryIndex(),
		Completer:       model.NewMockCompleter(),
		Extractors:      extract.NewRegistry(),
		BusHistoryLimit: 1000,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	b := bus.New(func(o *bus.Options) {
		o.HistoryLimit = opts.BusHistoryLimit
		o.Logger = opts.Logger
	})

	agent.Register(b, agent.NewIngestion(opts.Extractors, opts.Logger))
	agent.Register(b, agent.NewRetrieval(opts.Index, opts.Logger))
	agent.Register(b, agent.NewGeneration(opts.Completer, opts.Logger))

	coordFns := []func(o *coordinator.Options){func(o *coordinator.Options) { o.Logger = opts.Logger }}
	if opts.Coordinator != nil {
		coordFns = append(coordFns, opts.Coordinator)
	}
	c := coordinator.New(b, coordFns...)

	return &Mesh{bus: b, coordinator: c, registry: opts.Extractors, index: opts.Index}
}

// Upload runs the document upload workflow.
func (m *Mesh) Upload(ctx context.Context, files []core.FileInput) coordinator.UploadResult {
	return m.coordinator.HandleUpload(ctx, files)
}

// Ask runs the question workflow against a session.
func (m *Mesh) Ask(ctx context.Context, question, sessionID string) coordinator.Answer {
	return m.coordinator.HandleQuestion(ctx, question, sessionID)
}

// Coordinator exposes the underlying coordinator for status and
// conversation operations.
func (m *Mesh) Coordinator() *coordinator.Coordinator { return m.coordinator }

// Bus exposes the underlying bus for custom agent wiring.
func (m *Mesh) Bus() *bus.Bus { return m.bus }

// Extractors exposes the extractor registry for registering additional
// document formats.
func (m *Mesh) Extractors() *extract.Registry { return m.registry }
