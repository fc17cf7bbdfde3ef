package model

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
)

// OpenAIEngine talks to a local OpenAI-compatible server (llama.cpp,
// LM Studio and similar). Models are managed by the server, so Pull is
// unsupported and Load/Unload only check the model exists.
type OpenAIEngine struct {
	client *openai.Client
	host   string
}

// NewOpenAIEngine creates an engine for the server at cfg.Host.
func NewOpenAIEngine(cfg config.EngineConfig) *OpenAIEngine {
	oc := openai.DefaultConfig(cfg.APIKey)
	base := strings.TrimRight(cfg.Host, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	oc.BaseURL = base
	return &OpenAIEngine{client: openai.NewClientWithConfig(oc), host: cfg.Host}
}

// Name returns the engine identifier.
func (e *OpenAIEngine) Name() string { return "openai" }

// Ping lists models to confirm the server answers.
func (e *OpenAIEngine) Ping(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return classify(err, "openai-compatible server not reachable at "+e.host)
	}
	return nil
}

// List reports every served model as downloaded.
func (e *OpenAIEngine) List(ctx context.Context) ([]Descriptor, error) {
	resp, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, classify(err, "failed to list models")
	}
	out := make([]Descriptor, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, Descriptor{
			ID:         m.ID,
			Name:       displayName(m.ID),
			Category:   categoryFor(m.ID),
			Downloaded: true,
		})
	}
	return out, nil
}

// Pull is not supported by OpenAI-compatible servers.
func (e *OpenAIEngine) Pull(context.Context, string, ProgressFunc) error {
	return errors.NewBuilder(errors.CodeUnsupported, "model download is not supported by the openai engine").
		Permanent().
		Wrap(stderrors.ErrUnsupported).
		WithSuggestion("Download the model with the server's own tooling").
		Build()
}

// Load succeeds when the server serves id.
func (e *OpenAIEngine) Load(ctx context.Context, id string) error {
	models, err := e.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		if m.ID == id {
			return nil
		}
	}
	return errors.New(errors.CodeModelNotFound, "model not served: "+id, errors.CategoryUser)
}

// Unload is a no-op; the server owns residency.
func (e *OpenAIEngine) Unload(context.Context, string) error { return nil }

// Generate runs a chat completion.
func (e *OpenAIEngine) Generate(ctx context.Context, id string, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, e.chatRequest(id, req, false))
	if err != nil {
		return nil, classify(err, "generation failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.CodeModelInvalidOutput, "response contained no choices", errors.CategoryPermanent)
	}
	return &Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      resp.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// GenerateStream runs a streaming chat completion.
func (e *OpenAIEngine) GenerateStream(ctx context.Context, id string, req *Request, fn TokenFunc) error {
	stream, err := e.client.CreateChatCompletionStream(ctx, e.chatRequest(id, req, true))
	if err != nil {
		return classify(err, "streaming generation failed")
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return classify(err, "stream interrupted")
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := fn(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

func (e *OpenAIEngine) chatRequest(id string, req *Request, stream bool) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	cr := openai.ChatCompletionRequest{
		Model:       id,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stop:        req.Stop,
		Stream:      stream,
	}
	if req.JSON {
		cr.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return cr
}
