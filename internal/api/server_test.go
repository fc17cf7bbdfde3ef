package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/bridge"
	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/model"
	"github.com/mentora-ai/mentora/internal/model/modeltest"
	"github.com/mentora-ai/mentora/internal/prefs"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

type nullNative struct{}

func (nullNative) Toast(string)                          {}
func (nullNative) DeviceInfo() protocol.DeviceInfo       { return protocol.DeviceInfo{} }
func (nullNative) IsAndroid() bool                       { return false }
func (nullNative) NetworkAvailable(context.Context) bool { return true }

func newTestServer(t *testing.T, eng model.Engine, app config.AppConfig) *httptest.Server {
	t.Helper()
	store, err := prefs.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	host := bridge.NewHost(context.Background(), nil)
	svc := course.NewService(model.NewManager(eng, model.Options{}), course.Options{})
	disp := bridge.NewDispatcher(host, svc, store, nullNative{}, nil)

	ts := httptest.NewServer(NewServer(disp, svc, app, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		host.Close()
	})
	return ts
}

func postBridge(t *testing.T, ts *httptest.Server, method protocol.Method, params any) []protocol.Event {
	t.Helper()
	req, err := protocol.NewRequest(method, params)
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/bridge", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var events []protocol.Event
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var ev protocol.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		assert.Equal(t, req.ID, ev.ID)
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestBridgeSyncCall(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{})

	events := postBridge(t, ts, protocol.MethodIsModelLoaded, nil)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.KindResult, events[0].Kind)
	assert.Equal(t, false, events[0].Payload)
}

func TestBridgeStreamsProgress(t *testing.T) {
	eng := &modeltest.Engine{
		Models: []model.Descriptor{{ID: "m1"}},
		Steps:  []float64{0.5, 1.0},
	}
	ts := newTestServer(t, eng, config.AppConfig{})

	events := postBridge(t, ts, protocol.MethodDownloadModel, protocol.ModelParams{ModelID: "m1"})
	require.Len(t, events, 3)
	assert.Equal(t, protocol.KindProgress, events[0].Kind)
	assert.Equal(t, float64(50), events[0].Payload)
	assert.Equal(t, float64(100), events[1].Payload)
	assert.Equal(t, protocol.KindComplete, events[2].Kind)
	assert.Equal(t, true, events[2].Payload)
}

func TestBridgeUnknownMethod(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{})

	events := postBridge(t, ts, protocol.Method("launchRocket"), nil)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.KindError, events[0].Kind)
}

func TestBridgeRejectsBadBody(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{})

	resp, err := http.Post(ts.URL+"/bridge", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsExposeBridgeCalls(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{})
	postBridge(t, ts, protocol.MethodIsAndroid, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mentora_bridge_calls_total")
}

func TestStaticWebApp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mentora</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{WebDir: dir, EntryPoint: "index.html"})

	get := func(path string) (int, string) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, body := get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Mentora")

	code, body = get("/app.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "console.log(1)", body)

	code, _ = get("/missing.css")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebAppMissing(t *testing.T) {
	ts := newTestServer(t, &modeltest.Engine{}, config.AppConfig{WebDir: t.TempDir(), EntryPoint: "index.html"})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
