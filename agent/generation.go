package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
)

// confidenceCeiling caps the context-length confidence proxy; generated
// answers never claim certainty.
const (
	confidenceCeiling = 0.9
	confidenceDivisor = 2000.0
)

// Generation produces grounded answers. It builds the prompt from the query,
// the retrieved context and the conversational grounding window, delegates
// to the Completer and derives deduplicated source labels from chunk
// metadata.
type Generation struct {
	base
	completer model.Completer
}

// NewGeneration creates the generation agent backed by the given completer.
func NewGeneration(completer model.Completer, logger logging.Logger) *Generation {
	return &Generation{base: newBase(GenerationName, logger), completer: completer}
}

// Kinds implements Agent.
func (a *Generation) Kinds() []core.Kind {
	return []core.Kind{core.KindGenerationRequest}
}

// HandleMessage implements Agent.
func (a *Generation) HandleMessage(ctx context.Context, msg core.Message) (*core.Message, error) {
	req, ok := msg.Payload.(core.GenerationRequest)
	if !ok {
		return a.errorReply(msg, "generation", fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Kind)), nil
	}

	answer, err := a.completer.Complete(ctx, BuildPrompt(req.Query, req.Context, req.History))
	if err != nil {
		return a.errorReply(msg, "generation", err), nil
	}

	a.logger.Info("generation completed", "trace_id", msg.TraceID, "query", req.Query)
	reply := msg.Reply(a.name, core.KindGenerationResponse, core.GenerationResponse{
		Answer:     answer,
		Sources:    SourceLabels(req.Chunks),
		Confidence: Confidence(len(req.Context)),
	})
	return &reply, nil
}

// BuildPrompt assembles the completion prompt from the question, the
// retrieved document context and the recent conversation turns (oldest
// first).
func BuildPrompt(query, context string, history []core.Turn) string {
	var sb strings.Builder
	sb.WriteString("Based on the following context from uploaded documents, please answer the user's question.\n\n")
	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, t := range history {
			fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", t.User, t.Assistant)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Context:\n%s\n\nQuestion: %s\n\n", context, query)
	sb.WriteString("Instructions:\n")
	sb.WriteString("- Provide a clear, accurate answer based on the context\n")
	sb.WriteString("- If the answer isn't in the context, say so\n")
	sb.WriteString("- Include relevant details from the context\n")
	sb.WriteString("- Be concise but comprehensive\n\n")
	sb.WriteString("Answer:")
	return sb.String()
}

// Confidence maps context length to a score in [0, 0.9]. A crude proxy:
// more supporting context raises confidence up to the ceiling.
func Confidence(contextLen int) float64 {
	return math.Min(confidenceCeiling, float64(contextLen)/confidenceDivisor)
}

// SourceLabels derives human-readable "{filename} ({type})" labels from
// chunk metadata, each label appearing once in first-seen order.
func SourceLabels(chunks []core.Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	labels := make([]string, 0, len(chunks))
	for _, c := range chunks {
		name := c.Metadata["file_name"]
		if name == "" {
			name = "Unknown"
		}
		fileType := c.Metadata["file_type"]
		if fileType == "" {
			fileType = "unknown"
		}
		label := fmt.Sprintf("%s (%s)", name, fileType)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
