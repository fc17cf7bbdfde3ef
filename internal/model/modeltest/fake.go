// Package modeltest provides an in-memory engine for tests.
package modeltest

import (
	"context"
	"strings"
	"sync"

	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/model"
)

// Engine is a scriptable model.Engine.
type Engine struct {
	mu sync.Mutex

	// Models is returned by List.
	Models []model.Descriptor

	// Steps are the progress values Pull reports before returning PullErr.
	Steps   []float64
	PullErr error

	// Down makes every call fail as not initialized.
	Down bool

	// ListErr, LoadErr, UnloadErr and GenerateErr force failures.
	ListErr     error
	LoadErr     error
	UnloadErr   error
	GenerateErr error

	// Reply computes the generated text. The default echoes the prompt.
	Reply func(prompt string) string

	// Tokens are streamed by GenerateStream. The default splits Reply on spaces.
	Tokens []string

	// StreamErr is returned after Tokens are delivered.
	StreamErr error

	// Block makes Generate and Pull wait for ctx cancellation.
	Block bool

	Calls   []string
	Prompts []string
}

var _ model.Engine = (*Engine)(nil)

func (e *Engine) record(call string) {
	e.mu.Lock()
	e.Calls = append(e.Calls, call)
	e.mu.Unlock()
}

// CallLog returns a copy of the recorded calls.
func (e *Engine) CallLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Calls...)
}

// LastPrompt returns the most recent generation prompt.
func (e *Engine) LastPrompt() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Prompts) == 0 {
		return ""
	}
	return e.Prompts[len(e.Prompts)-1]
}

func (e *Engine) down() error {
	if e.Down {
		return errors.NewBuilder(errors.CodeModelNotInitialized, "fake engine down").
			Wrap(errors.ErrNotInitialized).
			Build()
	}
	return nil
}

func (e *Engine) Name() string { return "fake" }

func (e *Engine) Ping(context.Context) error {
	e.record("ping")
	return e.down()
}

func (e *Engine) List(context.Context) ([]model.Descriptor, error) {
	e.record("list")
	if err := e.down(); err != nil {
		return nil, err
	}
	if e.ListErr != nil {
		return nil, e.ListErr
	}
	return append([]model.Descriptor(nil), e.Models...), nil
}

func (e *Engine) Pull(ctx context.Context, id string, progress model.ProgressFunc) error {
	e.record("pull:" + id)
	if err := e.down(); err != nil {
		return err
	}
	for _, s := range e.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress(s)
	}
	if e.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if e.PullErr != nil {
		return e.PullErr
	}
	e.mu.Lock()
	for i := range e.Models {
		if e.Models[i].ID == id {
			e.Models[i].Downloaded = true
		}
	}
	e.mu.Unlock()
	return nil
}

func (e *Engine) Load(_ context.Context, id string) error {
	e.record("load:" + id)
	if err := e.down(); err != nil {
		return err
	}
	return e.LoadErr
}

func (e *Engine) Unload(_ context.Context, id string) error {
	e.record("unload:" + id)
	return e.UnloadErr
}

func (e *Engine) reply(prompt string) string {
	if e.Reply != nil {
		return e.Reply(prompt)
	}
	return "echo: " + prompt
}

func (e *Engine) Generate(ctx context.Context, id string, req *model.Request) (*model.Response, error) {
	e.record("generate:" + id)
	e.mu.Lock()
	e.Prompts = append(e.Prompts, req.Prompt)
	e.mu.Unlock()
	if err := e.down(); err != nil {
		return nil, err
	}
	if e.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.GenerateErr != nil {
		return nil, e.GenerateErr
	}
	return &model.Response{Text: e.reply(req.Prompt), Model: id}, nil
}

func (e *Engine) GenerateStream(ctx context.Context, id string, req *model.Request, fn model.TokenFunc) error {
	e.record("stream:" + id)
	if err := e.down(); err != nil {
		return err
	}
	tokens := e.Tokens
	if tokens == nil {
		for i, w := range strings.Fields(e.reply(req.Prompt)) {
			if i > 0 {
				w = " " + w
			}
			tokens = append(tokens, w)
		}
	}
	for _, t := range tokens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return e.StreamErr
}
