package model

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
)

func TestFallbackDescriptorJSON(t *testing.T) {
	data, err := json.Marshal(FallbackDescriptor())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "tinyllama-1.1b",
		"name": "TinyLlama 1.1B",
		"category": "LLM",
		"sizeInMB": "637.00",
		"isDownloaded": false
	}`, string(data))

	var back Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, FallbackDescriptor(), back)
}

func TestCategoryAndDisplayName(t *testing.T) {
	assert.Equal(t, CategoryEmbedding, categoryFor("nomic-embed-text"))
	assert.Equal(t, CategoryVision, categoryFor("llava:7b"))
	assert.Equal(t, CategoryLLM, categoryFor("qwen2.5:0.5b"))
	assert.Equal(t, "llama3.2 1b", displayName("llama3.2:1b"))
	assert.Equal(t, "mistral", displayName("mistral:latest"))
	assert.Equal(t, "mistral:latest", normalizeTag("mistral"))
}

func TestSimulate(t *testing.T) {
	t.Run("lesson", func(t *testing.T) {
		out := Simulate("Write the lesson content.\nLesson Title: Binary Search\nSummary: x")
		assert.True(t, strings.HasPrefix(out, "# Binary Search\n"))
		assert.Contains(t, out, "Understand the core concepts of Binary Search")
	})

	t.Run("lesson without title", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(Simulate("give me LESSON CONTENT"), "# Introduction"))
	})

	t.Run("course", func(t *testing.T) {
		out := Simulate("Create a course outline.\nCourse Title: Go \"Concurrency\"\n")
		var course struct {
			Title   string `json:"title"`
			Lessons []struct {
				Title  string   `json:"title"`
				Topics []string `json:"topics"`
			} `json:"lessons"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &course))
		assert.Equal(t, `Go "Concurrency"`, course.Title)
		require.Len(t, course.Lessons, 6)
		assert.Equal(t, `Introduction to Go "Concurrency"`, course.Lessons[0].Title)
		assert.Len(t, course.Lessons[5].Topics, 3)
	})

	t.Run("course default title", func(t *testing.T) {
		assert.Contains(t, Simulate("draft a course outline"), `"title": "Sample Course"`)
	})

	t.Run("generic excerpt", func(t *testing.T) {
		prompt := strings.Repeat("é", 150)
		out := Simulate(prompt)
		assert.Contains(t, out, strings.Repeat("é", 100)+"...")
		assert.NotContains(t, out, strings.Repeat("é", 101))
	})
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.4, clamp01(0.4))
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(config.EngineConfig{Kind: string(config.EngineNone)})
	require.NoError(t, err)
	assert.True(t, errors.IsNotInitialized(eng.Ping(context.Background())))

	eng, err = NewEngine(config.EngineConfig{Kind: string(config.EngineOllama), Host: "http://127.0.0.1:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", eng.Name())

	eng, err = NewEngine(config.EngineConfig{Kind: string(config.EngineOpenAI), Host: "http://127.0.0.1:8080"})
	require.NoError(t, err)
	assert.Equal(t, "openai", eng.Name())

	_, err = NewEngine(config.EngineConfig{Kind: "tpu"})
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))

	_, err = NewEngine(config.EngineConfig{Kind: string(config.EngineOllama), Host: "not a url"})
	assert.Error(t, err)
}

func TestOpenAIPullUnsupported(t *testing.T) {
	eng := NewOpenAIEngine(config.EngineConfig{Host: "http://127.0.0.1:8080"})
	err := eng.Pull(context.Background(), "x", nil)
	assert.True(t, errors.HasCode(err, errors.CodeUnsupported))
}
