package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
)

// OllamaEngine runs models through a local ollama server.
type OllamaEngine struct {
	client  *api.Client
	host    string
	catalog []string
}

// NewOllamaEngine creates an engine for the server at cfg.Host. Models in
// cfg.Catalog are listed as pullable even before they are downloaded.
func NewOllamaEngine(cfg config.EngineConfig) (*OllamaEngine, error) {
	u, err := url.Parse(cfg.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewBuilder(errors.CodeConfigInvalid, "invalid engine host: "+cfg.Host).
			User().
			WithSuggestion("Set engine.host to a URL such as http://127.0.0.1:11434").
			Build()
	}

	// Deadlines come from the caller's context; pulls can run for minutes.
	httpClient := &http.Client{}
	return &OllamaEngine{
		client:  api.NewClient(u, httpClient),
		host:    cfg.Host,
		catalog: cfg.Catalog,
	}, nil
}

// Name returns the engine identifier.
func (e *OllamaEngine) Name() string { return "ollama" }

// Ping checks the server is reachable.
func (e *OllamaEngine) Ping(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return classify(err, "ollama not reachable at "+e.host)
	}
	return nil
}

// List merges downloaded models with the catalog and marks running ones.
func (e *OllamaEngine) List(ctx context.Context) ([]Descriptor, error) {
	resp, err := e.client.List(ctx)
	if err != nil {
		return nil, classify(err, "failed to list models")
	}

	running := map[string]bool{}
	if ps, err := e.client.ListRunning(ctx); err == nil {
		for _, m := range ps.Models {
			running[normalizeTag(m.Name)] = true
		}
	}

	seen := map[string]bool{}
	out := make([]Descriptor, 0, len(resp.Models)+len(e.catalog))
	for _, m := range resp.Models {
		id := normalizeTag(m.Name)
		seen[id] = true
		out = append(out, Descriptor{
			ID:         m.Name,
			Name:       displayName(m.Name),
			Category:   categoryFor(m.Name),
			SizeBytes:  m.Size,
			Downloaded: true,
			Loaded:     running[id],
		})
	}
	for _, id := range e.catalog {
		if seen[normalizeTag(id)] {
			continue
		}
		out = append(out, Descriptor{
			ID:       id,
			Name:     displayName(id),
			Category: categoryFor(id),
		})
	}
	return out, nil
}

// Pull downloads a model. Layers are pulled concurrently, so progress is the
// byte total over every layer seen so far. Only a finished pull reports 1.
func (e *OllamaEngine) Pull(ctx context.Context, id string, progress ProgressFunc) error {
	layers := newLayerProgress()
	err := e.client.Pull(ctx, &api.PullRequest{Model: id}, func(p api.ProgressResponse) error {
		if f, ok := layers.update(p); ok && progress != nil {
			progress(f)
		}
		return nil
	})
	if err != nil {
		return classify(err, "failed to pull "+id)
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

// Load makes the model resident by sending an empty prompt.
func (e *OllamaEngine) Load(ctx context.Context, id string) error {
	err := e.client.Generate(ctx, &api.GenerateRequest{Model: id}, func(api.GenerateResponse) error { return nil })
	if err != nil {
		return classify(err, "failed to load "+id)
	}
	return nil
}

// Unload evicts the model with a zero keep-alive.
func (e *OllamaEngine) Unload(ctx context.Context, id string) error {
	req := &api.GenerateRequest{
		Model:     id,
		KeepAlive: &api.Duration{Duration: 0},
	}
	if err := e.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return classify(err, "failed to unload "+id)
	}
	return nil
}

// Generate runs a non-streaming completion.
func (e *OllamaEngine) Generate(ctx context.Context, id string, req *Request) (*Response, error) {
	start := time.Now()
	stream := false
	gr := e.generateRequest(id, req)
	gr.Stream = &stream

	var text strings.Builder
	err := e.client.Generate(ctx, gr, func(r api.GenerateResponse) error {
		text.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return nil, classify(err, "generation failed")
	}
	return &Response{
		Text:       text.String(),
		Model:      id,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// GenerateStream runs a streaming completion.
func (e *OllamaEngine) GenerateStream(ctx context.Context, id string, req *Request, fn TokenFunc) error {
	err := e.client.Generate(ctx, e.generateRequest(id, req), func(r api.GenerateResponse) error {
		if r.Response == "" {
			return nil
		}
		return fn(r.Response)
	})
	if err != nil {
		return classify(err, "streaming generation failed")
	}
	return nil
}

func (e *OllamaEngine) generateRequest(id string, req *Request) *api.GenerateRequest {
	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}

	gr := &api.GenerateRequest{
		Model:   id,
		Prompt:  req.Prompt,
		System:  req.System,
		Options: options,
	}
	if req.JSON {
		gr.Format = json.RawMessage(`"json"`)
	}
	return gr
}

// normalizeTag makes "llama3" and "llama3:latest" compare equal.
func normalizeTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}

// maxLayerFraction keeps layer progress below completion until the server
// reports success.
const maxLayerFraction = 0.99

type layerState struct {
	completed int64
	total     int64
}

// layerProgress sums pull progress over layer digests.
type layerProgress struct {
	layers map[string]layerState
}

func newLayerProgress() *layerProgress {
	return &layerProgress{layers: map[string]layerState{}}
}

// update records p and returns the overall fraction. Updates without a
// digest or a size carry no byte counts.
func (l *layerProgress) update(p api.ProgressResponse) (float64, bool) {
	if p.Digest == "" || p.Total <= 0 {
		return 0, false
	}
	l.layers[p.Digest] = layerState{completed: min(p.Completed, p.Total), total: p.Total}

	var completed, total int64
	for _, st := range l.layers {
		completed += st.completed
		total += st.total
	}
	return min(float64(completed)/float64(total), maxLayerFraction), true
}
