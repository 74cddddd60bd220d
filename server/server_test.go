package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/agent"
	"github.com/hupe1980/ragmesh/bus"
	"github.com/hupe1980/ragmesh/coordinator"
	"github.com/hupe1980/ragmesh/extract"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/vectorstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b := bus.New()
	registry := extract.NewRegistry()
	agent.Register(b, agent.NewIngestion(registry, nil))
	agent.Register(b, agent.NewRetrieval(vectorstore.NewInMemoryIndex(), nil))
	agent.Register(b, agent.NewGeneration(model.NewMockCompleter(), nil))
	c := coordinator.New(b)

	ts := httptest.NewServer(New(c, registry).Router())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_AskValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/ask", "application/json", strings.NewReader(`{"question":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UploadThenAsk(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("the deployment runs in the berlin region"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var up map[string]any
	decode(t, resp, &up)
	assert.Equal(t, true, up["success"])
	traceID := up["trace_id"].(string)

	// Status lookup for the finished workflow.
	resp, err = http.Get(ts.URL + "/status/" + traceID)
	require.NoError(t, err)
	var record map[string]any
	decode(t, resp, &record)
	assert.Equal(t, "completed", record["status"])

	// Ask against the uploaded content.
	resp, err = http.Post(ts.URL+"/ask", "application/json",
		strings.NewReader(`{"question":"where does the deployment run?","session_id":"s1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ans map[string]any
	decode(t, resp, &ans)
	assert.Equal(t, true, ans["success"])
	assert.NotEmpty(t, ans["answer"])

	// Conversation read and clear.
	resp, err = http.Get(ts.URL + "/conversation/s1")
	require.NoError(t, err)
	var conv map[string]any
	decode(t, resp, &conv)
	assert.Len(t, conv["turns"], 1)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/conversation/s1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/conversation/s1")
	require.NoError(t, err)
	decode(t, resp, &conv)
	assert.Empty(t, conv["turns"])
}

func TestServer_UploadNoFiles(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StatusUnknownTrace(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
