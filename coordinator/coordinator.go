// Package coordinator owns the two top-level workflows (document upload and
// question answering) plus per-session conversation memory and the workflow
// status ledger. It translates external intents into bus requests, reacts to
// responses or errors, and is the only component that decides what an error
// means for the caller.
package coordinator

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/ragmesh/agent"
	"github.com/hupe1980/ragmesh/bus"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
)

// InsufficientInfoAnswer is the canned answer returned when the index is
// empty; the generation stage is bypassed entirely so the model is never
// called without grounding.
const InsufficientInfoAnswer = "I don't have enough information in the uploaded documents to answer that question."

// DefaultHistoryWindow is the number of recent turns forwarded to the
// generation stage. Deliberately smaller than the session retention cap.
const DefaultHistoryWindow = 3

// Options configures a Coordinator.
type Options struct {
	// IngestionTimeout bounds the ingestion and index-write requests.
	IngestionTimeout time.Duration
	// RetrievalTimeout bounds similarity-search requests.
	RetrievalTimeout time.Duration
	// GenerationTimeout bounds answer-generation requests.
	GenerationTimeout time.Duration
	// TopK is the retrieval result bound per question.
	TopK int
	// HistoryWindow is the grounding window size (DefaultHistoryWindow when 0).
	HistoryWindow int
	// MaxTurns is the session retention cap (DefaultMaxTurns when 0).
	MaxTurns int
	// RecordLimit bounds the workflow record ledger.
	RecordLimit int
	// Logger receives workflow diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Coordinator sequences multi-hop workflows over the bus. Each workflow gets
// a fresh trace id and a ledger record that always reaches a terminal state;
// a failing step aborts the remaining steps for that trace.
type Coordinator struct {
	bus      *bus.Bus
	sessions *SessionStore
	records  *RecordStore
	opts     Options
}

// New creates a Coordinator wired to b and subscribes it to status
// broadcasts from the worker agents.
func New(b *bus.Bus, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		IngestionTimeout:  60 * time.Second,
		RetrievalTimeout:  30 * time.Second,
		GenerationTimeout: 60 * time.Second,
		TopK:              agent.DefaultTopK,
		HistoryWindow:     DefaultHistoryWindow,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}

	c := &Coordinator{
		bus:      b,
		sessions: NewSessionStore(opts.MaxTurns),
		records:  NewRecordStore(opts.RecordLimit),
		opts:     opts,
	}
	b.Subscribe(agent.CoordinatorName, []core.Kind{core.KindStatus}, c.handleStatus)
	return c
}

// handleStatus logs status broadcasts from worker agents.
func (c *Coordinator) handleStatus(_ context.Context, msg core.Message) (*core.Message, error) {
	if st, ok := msg.Payload.(core.StatusUpdate); ok {
		c.opts.Logger.Info("status update", "trace_id", msg.TraceID, "sender", msg.Sender, "stage", st.Stage, "detail", st.Detail)
	}
	return nil, nil
}

// UploadResult is the caller-visible outcome of one upload workflow.
type UploadResult struct {
	Success        bool               `json:"success"`
	TraceID        string             `json:"trace_id"`
	ProcessedFiles []string           `json:"processed_files"`
	Failures       []core.FileFailure `json:"failures,omitempty"`
	ChunksIndexed  int                `json:"chunks_indexed"`
	Error          string             `json:"error,omitempty"`
}

// HandleUpload runs the upload workflow: ingest the batch, write the
// extracted documents to the index, record the terminal outcome. Partial
// extraction success (some files skipped) is still success; per-file
// failures are enumerated in the result.
func (c *Coordinator) HandleUpload(ctx context.Context, files []core.FileInput) UploadResult {
	traceID := core.NewID()
	c.records.Create(traceID, WorkflowUpload)

	fail := func(stage string, err error) UploadResult {
		c.opts.Logger.Error("upload workflow failed", "trace_id", traceID, "stage", stage, "error", err)
		c.records.Fail(traceID, err.Error())
		metrics.WorkflowsTotal.WithLabelValues(string(WorkflowUpload), string(StatusError)).Inc()
		return UploadResult{TraceID: traceID, Error: err.Error()}
	}

	msg := core.NewMessage(agent.CoordinatorName, agent.IngestionName,
		core.KindIngestionRequest, core.IngestionRequest{Files: files}, traceID)
	resp, err := c.bus.RequestResponse(ctx, msg, c.opts.IngestionTimeout)
	if err != nil {
		return fail("ingestion", err)
	}
	in, errInfo := payloadOf[core.IngestionResponse](resp)
	if errInfo != nil {
		return fail(errInfo.Stage, errInfo)
	}

	idxMsg := core.NewMessage(agent.CoordinatorName, agent.RetrievalName,
		core.KindIngestionResponse, *in, traceID)
	idxResp, err := c.bus.RequestResponse(ctx, idxMsg, c.opts.IngestionTimeout)
	if err != nil {
		return fail("indexing", err)
	}
	st, errInfo := payloadOf[core.StatusUpdate](idxResp)
	if errInfo != nil {
		return fail(errInfo.Stage, errInfo)
	}

	result := UploadResult{
		Success:        true,
		TraceID:        traceID,
		ProcessedFiles: in.ProcessedFiles,
		Failures:       in.Failures,
		ChunksIndexed:  st.ChunksIndexed,
	}
	c.records.Complete(traceID, result)
	metrics.WorkflowsTotal.WithLabelValues(string(WorkflowUpload), string(StatusCompleted)).Inc()
	c.opts.Logger.Info("upload workflow completed",
		"trace_id", traceID, "processed", len(result.ProcessedFiles), "chunks", result.ChunksIndexed)
	return result
}

// Answer is the caller-visible outcome of one question workflow.
type Answer struct {
	Success    bool     `json:"success"`
	TraceID    string   `json:"trace_id"`
	Answer     string   `json:"answer,omitempty"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Error      string   `json:"error,omitempty"`
}

// HandleQuestion runs the question workflow: retrieve context, generate a
// grounded answer carrying the recent conversation window, append the turn
// to the session. An empty index short-circuits with a canned
// insufficient-information answer and never reaches the generation stage.
func (c *Coordinator) HandleQuestion(ctx context.Context, query, sessionID string) Answer {
	traceID := core.NewID()
	c.records.Create(traceID, WorkflowQuery)

	fail := func(stage string, err error) Answer {
		c.opts.Logger.Error("question workflow failed", "trace_id", traceID, "stage", stage, "error", err)
		c.records.Fail(traceID, err.Error())
		metrics.WorkflowsTotal.WithLabelValues(string(WorkflowQuery), string(StatusError)).Inc()
		return Answer{TraceID: traceID, Sources: []string{}, Error: err.Error()}
	}
	complete := func(ans Answer) Answer {
		c.records.Complete(traceID, ans)
		metrics.WorkflowsTotal.WithLabelValues(string(WorkflowQuery), string(StatusCompleted)).Inc()
		return ans
	}

	retrMsg := core.NewMessage(agent.CoordinatorName, agent.RetrievalName,
		core.KindRetrievalRequest, core.RetrievalRequest{Query: query, TopK: c.opts.TopK}, traceID)
	retrResp, err := c.bus.RequestResponse(ctx, retrMsg, c.opts.RetrievalTimeout)
	if err != nil {
		return fail("retrieval", err)
	}
	rr, errInfo := payloadOf[core.RetrievalResponse](retrResp)
	if errInfo != nil {
		return fail(errInfo.Stage, errInfo)
	}

	if len(rr.Chunks) == 0 {
		c.opts.Logger.Info("empty index, skipping generation", "trace_id", traceID)
		c.sessions.Append(sessionID, core.Turn{User: query, Assistant: InsufficientInfoAnswer})
		return complete(Answer{
			Success: true,
			TraceID: traceID,
			Answer:  InsufficientInfoAnswer,
			Sources: []string{},
		})
	}

	texts := make([]string, 0, len(rr.Chunks))
	for _, chunk := range rr.Chunks {
		texts = append(texts, chunk.Text)
	}
	genMsg := core.NewMessage(agent.CoordinatorName, agent.GenerationName,
		core.KindGenerationRequest, core.GenerationRequest{
			Query:   query,
			Context: strings.Join(texts, "\n\n"),
			History: c.sessions.Recent(sessionID, c.opts.HistoryWindow),
			Chunks:  rr.Chunks,
		}, traceID)
	genResp, err := c.bus.RequestResponse(ctx, genMsg, c.opts.GenerationTimeout)
	if err != nil {
		return fail("generation", err)
	}
	gr, errInfo := payloadOf[core.GenerationResponse](genResp)
	if errInfo != nil {
		return fail(errInfo.Stage, errInfo)
	}

	c.sessions.Append(sessionID, core.Turn{User: query, Assistant: gr.Answer})
	return complete(Answer{
		Success:    true,
		TraceID:    traceID,
		Answer:     gr.Answer,
		Sources:    gr.Sources,
		Confidence: gr.Confidence,
	})
}

// Status returns the workflow record for traceID.
func (c *Coordinator) Status(traceID string) (Record, bool) {
	return c.records.Get(traceID)
}

// Conversation returns the retained turns of a session, oldest first.
func (c *Coordinator) Conversation(sessionID string) []core.Turn {
	return c.sessions.Turns(sessionID)
}

// ClearConversation removes a session's history.
func (c *Coordinator) ClearConversation(sessionID string) {
	c.sessions.Clear(sessionID)
}

// payloadOf extracts the typed payload of a response, converting KindError
// replies and payload-shape mismatches into an ErrorInfo (which implements
// error).
func payloadOf[T any](msg core.Message) (*T, *core.ErrorInfo) {
	if msg.Kind == core.KindError {
		if info, ok := msg.Payload.(core.ErrorInfo); ok {
			return nil, &info
		}
		return nil, &core.ErrorInfo{Stage: "unknown", Message: "stage reported an error"}
	}
	p, ok := msg.Payload.(T)
	if !ok {
		return nil, &core.ErrorInfo{Stage: "coordination", Message: "unexpected payload shape"}
	}
	return &p, nil
}
