// Package model wraps the on-device inference engine: listing, pulling,
// loading and running models, plus the session that tracks which model is
// resident.
package model

import (
	"context"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
)

// Engine is the on-device inference SDK.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Ping returns nil when the engine is usable, or a not-initialized error.
	Ping(ctx context.Context) error

	// List returns the models the engine knows about.
	List(ctx context.Context) ([]Descriptor, error)

	// Pull downloads a model, reporting progress as a fraction.
	Pull(ctx context.Context, id string, progress ProgressFunc) error

	// Load makes a model resident.
	Load(ctx context.Context, id string) error

	// Unload evicts a model.
	Unload(ctx context.Context, id string) error

	// Generate runs inference on the given model.
	Generate(ctx context.Context, id string, req *Request) (*Response, error)

	// GenerateStream runs inference and delivers tokens as they arrive.
	GenerateStream(ctx context.Context, id string, req *Request, fn TokenFunc) error
}

// NewEngine builds the engine selected by cfg. EngineNone yields an engine
// that reports not initialized for every call.
func NewEngine(cfg config.EngineConfig) (Engine, error) {
	switch config.EngineKind(cfg.Kind) {
	case config.EngineOllama:
		return NewOllamaEngine(cfg)
	case config.EngineOpenAI:
		return NewOpenAIEngine(cfg), nil
	case config.EngineNone, "":
		return Unavailable{}, nil
	default:
		return nil, errors.NewBuilder(errors.CodeConfigInvalid, "unknown engine kind: "+string(cfg.Kind)).
			User().
			WithSuggestion("Set engine.kind to ollama, openai or none").
			Build()
	}
}

// Unavailable is the engine used when none is configured.
type Unavailable struct{}

func (Unavailable) Name() string { return "none" }

func (Unavailable) Ping(context.Context) error { return notInitialized("no engine configured") }

func (Unavailable) List(context.Context) ([]Descriptor, error) {
	return nil, notInitialized("no engine configured")
}

func (Unavailable) Pull(context.Context, string, ProgressFunc) error {
	return notInitialized("no engine configured")
}

func (Unavailable) Load(context.Context, string) error { return notInitialized("no engine configured") }

func (Unavailable) Unload(context.Context, string) error { return nil }

func (Unavailable) Generate(context.Context, string, *Request) (*Response, error) {
	return nil, notInitialized("no engine configured")
}

func (Unavailable) GenerateStream(context.Context, string, *Request, TokenFunc) error {
	return notInitialized("no engine configured")
}

func notInitialized(detail string) error {
	return errors.NewBuilder(errors.CodeModelNotInitialized, detail).
		System().
		Wrap(errors.ErrNotInitialized).
		WithSuggestion("Start the inference engine or configure engine.host").
		Build()
}
