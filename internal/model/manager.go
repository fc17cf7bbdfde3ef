package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/internal/metrics"
	"github.com/mentora-ai/mentora/internal/stats"
)

// Options configures a Manager.
type Options struct {
	// Simulate answers with placeholder content when the engine is not initialized.
	Simulate bool

	// RequestTimeout bounds a single generation. Zero means no limit.
	RequestTimeout time.Duration

	Logger *slog.Logger
	Stats  *stats.Collector
}

// Manager is the model lifecycle facade used by the bridge and the
// orchestrator.
type Manager struct {
	engine  Engine
	session *Session
	opts    Options
	log     *slog.Logger
	stats   *stats.Collector
}

// NewManager creates a manager over engine.
func NewManager(engine Engine, opts Options) *Manager {
	if opts.Stats == nil {
		opts.Stats = stats.NewCollector()
	}
	return &Manager{
		engine:  engine,
		session: NewSession(engine),
		opts:    opts,
		log:     logging.Component(opts.Logger, "model"),
		stats:   opts.Stats,
	}
}

// Engine returns the underlying engine.
func (m *Manager) Engine() Engine { return m.engine }

// Stats returns the generation counters.
func (m *Manager) Stats() *stats.Collector { return m.stats }

// Simulating reports whether placeholder content is enabled.
func (m *Manager) Simulating() bool { return m.opts.Simulate }

// ============================================================
// Lifecycle
// ============================================================

// ListModels returns the engine's models. It never returns an empty list:
// on failure or when the engine knows nothing, the fallback descriptor is
// reported.
func (m *Manager) ListModels(ctx context.Context) []Descriptor {
	models, err := m.engine.List(ctx)
	if err != nil {
		m.log.Warn("listing models failed, using fallback", "error", err)
		return []Descriptor{FallbackDescriptor()}
	}
	if len(models) == 0 {
		return []Descriptor{FallbackDescriptor()}
	}
	current := m.session.Current()
	for i := range models {
		if current != "" && models[i].ID == current {
			models[i].Loaded = true
		}
	}
	return models
}

// Download pulls id and streams progress fractions. Values are within
// [0,1] and never decrease. On failure a single 0 is sent. The channel is
// always closed, including when ctx is canceled.
func (m *Manager) Download(ctx context.Context, id string) <-chan float64 {
	out := make(chan float64, 16)

	go func() {
		defer close(out)

		send := func(p float64) bool {
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var last float64
		sent := false
		err := m.engine.Pull(ctx, id, func(f float64) {
			f = clamp01(f)
			if f < last || (sent && f == last) {
				return
			}
			if send(f) {
				last, sent = f, true
			}
		})

		metrics.Downloads.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			m.log.Error("model download failed", "model", id, "error", err)
			send(0)
			return
		}
		m.log.Info("model downloaded", "model", id)
		if last < 1 {
			send(1)
		}
	}()

	return out
}

// Load makes id the resident model, unloading any other first.
func (m *Manager) Load(ctx context.Context, id string) bool {
	if err := m.session.Load(ctx, id); err != nil {
		m.log.Error("failed to load model", "model", id, "error", err)
		return false
	}
	m.log.Info("model loaded", "model", id)
	return true
}

// Unload evicts the resident model.
func (m *Manager) Unload(ctx context.Context) bool {
	id := m.session.Current()
	if err := m.session.Unload(ctx); err != nil {
		m.log.Error("failed to unload model", "model", id, "error", err)
		return false
	}
	if id != "" {
		m.log.Info("model unloaded", "model", id)
	}
	return true
}

// IsModelLoaded reports whether a model is resident.
func (m *Manager) IsModelLoaded() bool {
	return m.session.Current() != ""
}

// CurrentModel describes the resident model, or returns nil.
func (m *Manager) CurrentModel(ctx context.Context) *Descriptor {
	id := m.session.Current()
	if id == "" {
		return nil
	}
	if models, err := m.engine.List(ctx); err == nil {
		for _, d := range models {
			if d.ID == id {
				d.Loaded = true
				return &d
			}
		}
	}
	return &Descriptor{
		ID:         id,
		Name:       displayName(id),
		Category:   categoryFor(id),
		Downloaded: true,
		Loaded:     true,
	}
}

// ============================================================
// Generation
// ============================================================

// ready returns the resident model id, or why generation cannot run.
func (m *Manager) ready(ctx context.Context) (string, error) {
	if err := m.engine.Ping(ctx); err != nil {
		return "", err
	}
	id := m.session.Current()
	if id == "" {
		return "", errors.NewBuilder(errors.CodeModelNotLoaded, "no model loaded").
			User().
			WithSuggestion("Load a model before generating").
			Build()
	}
	return id, nil
}

// Generate runs one on-device generation and reports failures explicitly.
func (m *Manager) Generate(ctx context.Context, req *Request) (*Response, error) {
	id, err := m.ready(ctx)
	if err != nil {
		return nil, err
	}
	return errors.WithTimeoutResult(ctx, m.opts.RequestTimeout, func(ctx context.Context) (*Response, error) {
		return m.engine.Generate(ctx, id, req)
	})
}

// GenerateText is the bridge-facing generation. It never fails: errors
// become "Error: <message>", and an uninitialized engine yields simulated
// content when enabled.
func (m *Manager) GenerateText(ctx context.Context, prompt string) string {
	start := time.Now()
	resp, err := m.Generate(ctx, &Request{Prompt: prompt})
	if err == nil {
		m.stats.RecordRequest(string(errors.SourceOnDevice), len(resp.Text), time.Since(start))
		metrics.ObserveGeneration("text", string(errors.SourceOnDevice), start)
		m.log.Debug("generated text", "chars", len(resp.Text))
		return resp.Text
	}

	if m.opts.Simulate && errors.IsNotInitialized(err) {
		m.log.Warn("engine not initialized, providing simulated response")
		text := Simulate(prompt)
		m.stats.RecordRequest(string(errors.SourceSimulated), len(text), time.Since(start))
		metrics.ObserveGeneration("text", string(errors.SourceSimulated), start)
		return text
	}

	m.log.Error("generation failed", "error", err)
	m.stats.RecordError()
	metrics.GenerationFailures.WithLabelValues("text").Inc()
	return "Error: " + errors.Message(err)
}

// GenerateStream streams tokens for prompt to onToken. A generation failure
// is delivered as one "Error: <message>" token and is not returned; the
// returned error is non-nil only when onToken fails or ctx ends.
func (m *Manager) GenerateStream(ctx context.Context, prompt string, onToken TokenFunc) error {
	var sinkErr error
	sink := func(token string) error {
		if err := onToken(token); err != nil {
			sinkErr = err
			return err
		}
		return nil
	}

	id, err := m.ready(ctx)
	if err == nil {
		err = m.engine.GenerateStream(ctx, id, &Request{Prompt: prompt}, sink)
	}
	switch {
	case err == nil:
		return nil
	case sinkErr != nil:
		return sinkErr
	case ctx.Err() != nil:
		return ctx.Err()
	}
	m.log.Error("streaming generation failed", "error", err)
	m.stats.RecordError()
	metrics.GenerationFailures.WithLabelValues("stream").Inc()
	return onToken("Error: " + errors.Message(err))
}

// Status summarizes the engine state.
type Status struct {
	Engine       string       `json:"engine"`
	Initialized  bool         `json:"initialized"`
	CurrentModel string       `json:"currentModel,omitempty"`
	Simulate     bool         `json:"simulate"`
	Stats        *stats.Stats `json:"stats"`
}

// Status reports engine reachability, the resident model and counters.
func (m *Manager) Status(ctx context.Context) *Status {
	return &Status{
		Engine:       m.engine.Name(),
		Initialized:  m.engine.Ping(ctx) == nil,
		CurrentModel: m.session.Current(),
		Simulate:     m.opts.Simulate,
		Stats:        m.stats.Collect(),
	}
}

func clamp01(f float64) float64 {
	switch {
	case f != f: // NaN
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
