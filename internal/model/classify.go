package model

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mentora-ai/mentora/internal/errors"
)

// classify maps engine client errors onto application codes. An
// unreachable engine counts as not initialized so callers can fall back.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeModelUnavailable, message, errors.CategoryTemporary)
	}

	var urlErr *url.Error
	var opErr *net.OpError
	if stderrors.As(err, &opErr) || stderrors.As(err, &urlErr) {
		return errors.NewBuilder(errors.CodeModelNotInitialized, message).
			System().
			Wrap(err).
			WithSuggestion("Start the inference engine or configure engine.host").
			Build()
	}

	if statusOf(err) == http.StatusNotFound {
		return errors.NewBuilder(errors.CodeModelNotFound, message).
			User().
			Wrap(err).
			WithSuggestion("Download the model first").
			Build()
	}

	return errors.Wrap(err, errors.CodeModelUnavailable, message, errors.CategoryTemporary)
}

func statusOf(err error) int {
	var ollamaErr api.StatusError
	if stderrors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
