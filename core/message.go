package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed enumeration of message kinds routed by the bus. Every
// payload shape is determined by its kind; handlers switch exhaustively on it.
type Kind int

const (
	// KindIngestionRequest asks the ingestion agent to extract a batch of files.
	KindIngestionRequest Kind = iota
	// KindIngestionResponse carries extracted documents back to the requester.
	// Addressed to the retrieval agent it doubles as an index-write command.
	KindIngestionResponse
	// KindRetrievalRequest asks the retrieval agent for the top-k similar chunks.
	KindRetrievalRequest
	// KindRetrievalResponse carries ranked chunks back to the requester.
	KindRetrievalResponse
	// KindGenerationRequest asks the generation agent for a grounded answer.
	KindGenerationRequest
	// KindGenerationResponse carries the answer, source labels and confidence.
	KindGenerationResponse
	// KindStatus is an informational broadcast; no particular listener is required.
	KindStatus
	// KindError reports a stage failure while preserving the request/response contract.
	KindError
)

// String returns the wire-stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIngestionRequest:
		return "INGESTION_REQUEST"
	case KindIngestionResponse:
		return "INGESTION_RESPONSE"
	case KindRetrievalRequest:
		return "RETRIEVAL_REQUEST"
	case KindRetrievalResponse:
		return "RETRIEVAL_RESPONSE"
	case KindGenerationRequest:
		return "GENERATION_REQUEST"
	case KindGenerationResponse:
		return "GENERATION_RESPONSE"
	case KindStatus:
		return "STATUS"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Message is the immutable envelope exchanged between agents. After
// construction it must be treated as read-only; a response is always a new
// Message whose CorrelID references the originating request's ID.
//
//   - ID is globally unique for the process lifetime (correlation key)
//   - TraceID is shared by every message of one end-to-end workflow
//   - Sender / Receiver are logical agent names from a closed set
//   - Payload is a typed struct determined by Kind
type Message struct {
	ID        string    `json:"id"`
	TraceID   string    `json:"trace_id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload"`
	CorrelID  string    `json:"correl_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage constructs a fresh message with a generated id and UTC timestamp.
func NewMessage(sender, receiver string, kind Kind, payload any, traceID string) Message {
	return Message{
		ID:        NewID(),
		TraceID:   traceID,
		Sender:    sender,
		Receiver:  receiver,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Reply constructs a response message addressed back to the sender of m,
// correlated to m via CorrelID and sharing its trace.
func (m Message) Reply(sender string, kind Kind, payload any) Message {
	r := NewMessage(sender, m.Sender, kind, payload, m.TraceID)
	r.CorrelID = m.ID
	return r
}

// NewID generates a new unique identifier for messages and traces.
func NewID() string { return uuid.NewString() }
