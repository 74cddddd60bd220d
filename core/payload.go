package core

import "fmt"

// Document is one extracted text record produced by the ingestion stage.
// Metadata carries at least the original file name and declared type so that
// downstream stages can derive human-readable source labels.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Chunk is one retrieved text record with its similarity score
// (higher = more similar).
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

// Turn is one user/assistant exchange retained in a session.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// FileInput is one item of an ingestion batch: raw content plus the declared
// type used to select an extractor.
type FileInput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content []byte `json:"-"`
}

// FileFailure notes a single item that could not be ingested. A batch with
// failures is still a success at the message level (partial success).
type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestionRequest is the payload of KindIngestionRequest.
type IngestionRequest struct {
	Files []FileInput `json:"files"`
}

// IngestionResponse is the payload of KindIngestionResponse.
type IngestionResponse struct {
	Success        bool          `json:"success"`
	Documents      []Document    `json:"documents"`
	ProcessedFiles []string      `json:"processed_files"`
	Failures       []FileFailure `json:"failures,omitempty"`
}

// RetrievalRequest is the payload of KindRetrievalRequest. TopK bounds the
// result count; fewer chunks are returned when the index holds fewer items.
type RetrievalRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// RetrievalResponse is the payload of KindRetrievalResponse. Chunks are
// ordered most-similar first.
type RetrievalResponse struct {
	Query  string  `json:"query"`
	Chunks []Chunk `json:"chunks"`
}

// GenerationRequest is the payload of KindGenerationRequest. History holds
// the grounding window (most recent turns, oldest first), not the full
// session retention. Chunks are forwarded for source-label extraction.
type GenerationRequest struct {
	Query   string  `json:"query"`
	Context string  `json:"context"`
	History []Turn  `json:"history,omitempty"`
	Chunks  []Chunk `json:"chunks,omitempty"`
}

// GenerationResponse is the payload of KindGenerationResponse.
type GenerationResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// StatusUpdate is the payload of KindStatus broadcasts and of the reply
// emitted by the retrieval agent after an index write.
type StatusUpdate struct {
	Stage         string `json:"stage"`
	Detail        string `json:"detail,omitempty"`
	ChunksIndexed int    `json:"chunks_indexed,omitempty"`
}

// ErrorInfo is the payload of KindError messages. Stage names the pipeline
// stage that failed.
type ErrorInfo struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Error implements the error interface so an ErrorInfo can be surfaced
// directly where a Go error is expected.
func (e ErrorInfo) Error() string {
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}
