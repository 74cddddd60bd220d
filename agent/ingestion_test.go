package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/extract"
)

func TestIngestion_PartialSuccess(t *testing.T) {
	a := NewIngestion(extract.NewRegistry(), nil)
	msg := core.NewMessage(CoordinatorName, IngestionName, core.KindIngestionRequest, core.IngestionRequest{
		Files: []core.FileInput{
			{Name: "a.txt", Type: "txt", Content: []byte("first document body")},
			{Name: "b.md", Type: "md", Content: []byte("second document body")},
			{Name: "c.xyz", Type: "xyz", Content: []byte("unsupported")},
		},
	}, "trace-up")

	reply, err := a.HandleMessage(context.Background(), msg)

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, core.KindIngestionResponse, reply.Kind)
	assert.Equal(t, msg.ID, reply.CorrelID)

	resp, ok := reply.Payload.(core.IngestionResponse)
	require.True(t, ok)
	assert.True(t, resp.Success, "partial extraction success is success at the message level")
	assert.Equal(t, []string{"a.txt", "b.md"}, resp.ProcessedFiles)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "c.xyz", resp.Failures[0].Name)
	assert.Len(t, resp.Documents, 2)
}

func TestIngestion_BadPayload(t *testing.T) {
	a := NewIngestion(extract.NewRegistry(), nil)
	msg := core.NewMessage(CoordinatorName, IngestionName, core.KindIngestionRequest, "not a request", "t")

	reply, err := a.HandleMessage(context.Background(), msg)

	require.NoError(t, err, "agents never propagate errors past the handler boundary")
	require.NotNil(t, reply)
	assert.Equal(t, core.KindError, reply.Kind)
	info, ok := reply.Payload.(core.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "ingestion", info.Stage)
}
