package coordinator

import (
	"sync"
	"time"
)

// WorkflowKind distinguishes the two top-level workflows.
type WorkflowKind string

const (
	// WorkflowUpload is a document upload workflow.
	WorkflowUpload WorkflowKind = "upload"
	// WorkflowQuery is a question answering workflow.
	WorkflowQuery WorkflowKind = "query"
)

// WorkflowStatus is the workflow state machine:
// processing -> completed | error. Terminal states never transition.
type WorkflowStatus string

const (
	// StatusProcessing marks a workflow still in flight.
	StatusProcessing WorkflowStatus = "processing"
	// StatusCompleted marks a successfully finished workflow.
	StatusCompleted WorkflowStatus = "completed"
	// StatusError marks a failed workflow.
	StatusError WorkflowStatus = "error"
)

// Record is the coordinator's terminal-status ledger entry for one workflow,
// keyed by trace id. Exactly one of Result / Error is populated once the
// record is terminal.
type Record struct {
	TraceID string         `json:"trace_id"`
	Kind    WorkflowKind   `json:"kind"`
	Status  WorkflowStatus `json:"status"`
	Result  any            `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
}

// RecordStore retains workflow records up to a capacity bound, evicting the
// oldest records first. Safe for concurrent use.
type RecordStore struct {
	mu      sync.Mutex
	limit   int
	records map[string]*Record
	order   []string
}

// NewRecordStore creates a store bounded to limit records (1000 when
// limit <= 0).
func NewRecordStore(limit int) *RecordStore {
	if limit <= 0 {
		limit = 1000
	}
	return &RecordStore{limit: limit, records: make(map[string]*Record)}
}

// Create registers a new processing record for traceID.
func (s *RecordStore) Create(traceID string, kind WorkflowKind) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[traceID] = &Record{
		TraceID: traceID,
		Kind:    kind,
		Status:  StatusProcessing,
		Created: now,
		Updated: now,
	}
	s.order = append(s.order, traceID)
	for len(s.order) > s.limit {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
}

// Complete moves the record to its terminal completed state. A record that
// is already terminal is left untouched.
func (s *RecordStore) Complete(traceID string, result any) {
	s.terminal(traceID, StatusCompleted, result, "")
}

// Fail moves the record to its terminal error state. A record that is
// already terminal is left untouched.
func (s *RecordStore) Fail(traceID string, errMsg string) {
	s.terminal(traceID, StatusError, nil, errMsg)
}

func (s *RecordStore) terminal(traceID string, status WorkflowStatus, result any, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[traceID]
	if !ok || r.Status != StatusProcessing {
		return
	}
	r.Status = status
	r.Result = result
	r.Error = errMsg
	r.Updated = time.Now().UTC()
}

// Get returns a copy of the record for traceID.
func (s *RecordStore) Get(traceID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[traceID]
	if !ok {
		return Record{}, false
	}
	return *r, true
}
