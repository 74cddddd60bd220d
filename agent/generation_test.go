package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/model"
)

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0))
	assert.InDelta(t, 0.5, Confidence(1000), 1e-9)
	assert.Equal(t, 0.9, Confidence(2000), "confidence is capped at 0.9 for context >= 2000 chars")
	assert.Equal(t, 0.9, Confidence(100000))

	// Monotonically non-decreasing in context length.
	prev := 0.0
	for _, n := range []int{0, 100, 500, 1800, 2000, 5000} {
		c := Confidence(n)
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}
}

func TestSourceLabels_Deduplicated(t *testing.T) {
	chunks := []core.Chunk{
		{Metadata: map[string]string{"file_name": "report.txt", "file_type": "txt"}},
		{Metadata: map[string]string{"file_name": "report.txt", "file_type": "txt"}},
		{Metadata: map[string]string{"file_name": "data.csv", "file_type": "csv"}},
		{Metadata: map[string]string{}},
	}
	labels := SourceLabels(chunks)
	assert.Equal(t, []string{"report.txt (txt)", "data.csv (csv)", "Unknown (unknown)"}, labels)
}

func TestBuildPrompt_IncludesHistoryAndContext(t *testing.T) {
	prompt := BuildPrompt("what is x?", "x is a thing", []core.Turn{
		{User: "hi", Assistant: "hello"},
	})
	assert.Contains(t, prompt, "Context:\nx is a thing")
	assert.Contains(t, prompt, "Question: what is x?")
	assert.Contains(t, prompt, "User: hi")
	assert.Contains(t, prompt, "Assistant: hello")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestGeneration_Response(t *testing.T) {
	completer := model.NewMockCompleter()
	a := NewGeneration(completer, nil)

	msg := core.NewMessage(CoordinatorName, GenerationName, core.KindGenerationRequest, core.GenerationRequest{
		Query:   "q",
		Context: strings.Repeat("c", 3000),
		Chunks: []core.Chunk{
			{Metadata: map[string]string{"file_name": "a.txt", "file_type": "txt"}},
		},
	}, "t")

	reply, err := a.HandleMessage(context.Background(), msg)

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, core.KindGenerationResponse, reply.Kind)
	resp := reply.Payload.(core.GenerationResponse)
	assert.NotEmpty(t, resp.Answer)
	assert.Equal(t, []string{"a.txt (txt)"}, resp.Sources)
	assert.Equal(t, 0.9, resp.Confidence)
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestGeneration_CompleterFailureBecomesErrorMessage(t *testing.T) {
	a := NewGeneration(failingCompleter{}, nil)
	msg := core.NewMessage(CoordinatorName, GenerationName, core.KindGenerationRequest,
		core.GenerationRequest{Query: "q"}, "t")

	reply, err := a.HandleMessage(context.Background(), msg)

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, core.KindError, reply.Kind)
	info := reply.Payload.(core.ErrorInfo)
	assert.Equal(t, "generation", info.Stage)
	assert.Contains(t, info.Message, "model unavailable")
}
