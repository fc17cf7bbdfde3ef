// Package model provides types for on-device model operations.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category classifies a model.
type Category string

const (
	CategoryLLM       Category = "LLM"
	CategoryEmbedding Category = "EMBEDDING"
	CategoryVision    Category = "VISION"
)

// Descriptor describes a model known to the engine.
type Descriptor struct {
	ID         string
	Name       string
	Category   Category
	SizeBytes  int64
	Downloaded bool
	Loaded     bool
}

// SizeInMB is the model size in mebibytes with two decimals.
func (d Descriptor) SizeInMB() string {
	return fmt.Sprintf("%.2f", float64(d.SizeBytes)/(1024*1024))
}

type descriptorJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	SizeInMB     string   `json:"sizeInMB"`
	IsDownloaded bool     `json:"isDownloaded"`
	IsLoaded     bool     `json:"isLoaded,omitempty"`
}

// MarshalJSON encodes the descriptor the way the web app reads it.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{
		ID:           d.ID,
		Name:         d.Name,
		Category:     d.Category,
		SizeInMB:     d.SizeInMB(),
		IsDownloaded: d.Downloaded,
		IsLoaded:     d.Loaded,
	})
}

// UnmarshalJSON decodes the web app shape.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw descriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var mb float64
	if raw.SizeInMB != "" {
		if _, err := fmt.Sscanf(raw.SizeInMB, "%f", &mb); err != nil {
			return fmt.Errorf("invalid sizeInMB %q: %w", raw.SizeInMB, err)
		}
	}
	*d = Descriptor{
		ID:         raw.ID,
		Name:       raw.Name,
		Category:   raw.Category,
		SizeBytes:  int64(mb * 1024 * 1024),
		Downloaded: raw.IsDownloaded,
		Loaded:     raw.IsLoaded,
	}
	return nil
}

// FallbackDescriptor is reported when the engine lists nothing.
func FallbackDescriptor() Descriptor {
	return Descriptor{
		ID:         "tinyllama-1.1b",
		Name:       "TinyLlama 1.1B",
		Category:   CategoryLLM,
		SizeBytes:  637 * 1024 * 1024,
		Downloaded: false,
	}
}

// categoryFor guesses a category from a model id.
func categoryFor(id string) Category {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "embed"):
		return CategoryEmbedding
	case strings.Contains(lower, "llava"), strings.Contains(lower, "vision"):
		return CategoryVision
	default:
		return CategoryLLM
	}
}

// displayName turns "llama3.2:1b" into "llama3.2 1b".
func displayName(id string) string {
	name := strings.TrimSuffix(id, ":latest")
	return strings.ReplaceAll(name, ":", " ")
}

// Request represents a model inference request.
type Request struct {
	System      string   `json:"system,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	JSON        bool     `json:"json,omitempty"` // Request JSON output
}

// Response represents a model inference response.
type Response struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	DurationMs int64  `json:"duration_ms"`
}

// ProgressFunc receives download progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)

// TokenFunc receives streamed tokens. Returning an error stops the stream.
type TokenFunc func(token string) error
