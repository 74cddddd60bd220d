// Package agent implements the pipeline worker agents: ingestion, retrieval
// and generation. Each agent subscribes to its request kinds on the bus,
// delegates the stage work to an external collaborator (extractor registry,
// vector index, completer) and always replies with a message: the matching
// response kind on success, KindError on failure. No error ever crosses the
// bus boundary as a Go error.
package agent

import (
	"context"

	"github.com/hupe1980/ragmesh/bus"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
)

// Logical agent names on the bus. The set is closed and known at startup.
const (
	IngestionName   = "IngestionAgent"
	RetrievalName   = "RetrievalAgent"
	GenerationName  = "GenerationAgent"
	CoordinatorName = "CoordinatorAgent"
)

// Agent is one addressable pipeline stage.
type Agent interface {
	// Name is the agent's receiver address on the bus.
	Name() string
	// Kinds lists the message kinds the agent subscribes to.
	Kinds() []core.Kind
	// HandleMessage processes one delivered message; see bus.Handler.
	HandleMessage(ctx context.Context, msg core.Message) (*core.Message, error)
}

// Register subscribes a on b for its name and kinds.
func Register(b *bus.Bus, a Agent) {
	b.Subscribe(a.Name(), a.Kinds(), a.HandleMessage)
}

// base carries the identity and logger shared by the worker agents.
type base struct {
	name   string
	logger logging.Logger
}

func newBase(name string, logger logging.Logger) base {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return base{name: name, logger: logger}
}

// Name implements Agent.
func (b base) Name() string { return b.name }

// errorReply builds a correlated KindError response for msg. Stage names the
// failed pipeline stage for the coordinator's error reporting.
func (b base) errorReply(msg core.Message, stage string, err error) *core.Message {
	b.logger.Error("stage failed", "agent", b.name, "stage", stage, "trace_id", msg.TraceID, "error", err)
	reply := msg.Reply(b.name, core.KindError, core.ErrorInfo{Stage: stage, Message: err.Error()})
	return &reply
}
