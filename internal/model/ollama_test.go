package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/config"
)

// pullServer streams updates from /api/pull as NDJSON.
func pullServer(t *testing.T, updates []api.ProgressResponse) *OllamaEngine {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, u := range updates {
			enc.Encode(u)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(func() {
		ts.Close()
		http.DefaultTransport.(*http.Transport).CloseIdleConnections()
	})

	eng, err := NewOllamaEngine(config.EngineConfig{Host: ts.URL})
	require.NoError(t, err)
	return eng
}

func TestOllamaPullSumsLayers(t *testing.T) {
	eng := pullServer(t, []api.ProgressResponse{
		{Status: "pulling manifest"},
		{Status: "pulling a", Digest: "sha256:a", Total: 100, Completed: 50},
		{Status: "pulling b", Digest: "sha256:b", Total: 1000, Completed: 100},
		{Status: "pulling a", Digest: "sha256:a", Total: 100, Completed: 100},
		{Status: "pulling b", Digest: "sha256:b", Total: 1000, Completed: 500},
		{Status: "verifying sha256 digest"},
		{Status: "success"},
	})

	var got []float64
	require.NoError(t, eng.Pull(context.Background(), "tinyllama", func(f float64) {
		got = append(got, f)
	}))

	require.Len(t, got, 5)
	assert.InDelta(t, 0.5, got[0], 1e-9)
	assert.InDelta(t, 150.0/1100, got[1], 1e-9)
	assert.InDelta(t, 200.0/1100, got[2], 1e-9)
	assert.InDelta(t, 600.0/1100, got[3], 1e-9)
	assert.Equal(t, 1.0, got[4])
}

func TestOllamaPullHoldsBelowOneUntilSuccess(t *testing.T) {
	eng := pullServer(t, []api.ProgressResponse{
		{Status: "pulling a", Digest: "sha256:a", Total: 100, Completed: 50},
		{Status: "pulling a", Digest: "sha256:a", Total: 100, Completed: 100},
		{Status: "pulling b", Digest: "sha256:b", Total: 1000, Completed: 100},
		{Status: "pulling b", Digest: "sha256:b", Total: 1000, Completed: 500},
		{Status: "pulling b", Digest: "sha256:b", Total: 1000, Completed: 1000},
		{Status: "success"},
	})

	m := NewManager(eng, Options{})
	var got []float64
	for f := range m.Download(context.Background(), "tinyllama") {
		got = append(got, f)
	}

	require.NotEmpty(t, got)
	assert.Equal(t, 1.0, got[len(got)-1])
	for _, f := range got[:len(got)-1] {
		assert.Less(t, f, 1.0)
	}
	assert.Equal(t, []float64{0.5, maxLayerFraction, 1}, got)
}
