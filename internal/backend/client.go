// Package backend is the HTTP client for the Mentora REST backend that
// serves heavy workflows (uploads, retrieval, exports, speech).
//
// Every call is a single round trip with a fixed timeout. Nothing is
// retried; the orchestrator decides what to do with a failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/logging"
)

// DefaultTimeout bounds a backend call.
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 32 << 20

// Client calls the backend.
type Client struct {
	baseURL string
	enabled bool
	http    *http.Client
	log     *slog.Logger
}

// New creates a client from cfg.
func New(cfg config.BackendConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		enabled: cfg.Enabled && cfg.BaseURL != "",
		http:    &http.Client{Timeout: timeout},
		log:     logging.Component(logger, "backend"),
	}
}

// Enabled reports whether backend calls are configured.
func (c *Client) Enabled() bool { return c != nil && c.enabled }

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// ============================================================
// Capabilities
// ============================================================

// UploadRequest is a multipart upload. Set FilePath or File+FileName for a
// document, URL for a web page.
type UploadRequest struct {
	FilePath string
	File     io.Reader
	FileName string
	URL      string
	Prompt   string
}

// UploadResult is the backend's processed upload.
type UploadResult struct {
	CourseID      string          `json:"course_id"`
	ExtractedText string          `json:"extracted_text"`
	Course        json.RawMessage `json:"course"`
}

// Upload sends a document or URL for extraction and course generation.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.FilePath == "" && req.File == nil && req.URL == "" {
		return nil, errors.User(errors.CodeInvalidInput, "no file or URL provided")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if req.FilePath != "" || req.File != nil {
		src := req.File
		name := req.FileName
		if req.FilePath != "" {
			fh, err := os.Open(req.FilePath)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "cannot open upload file", errors.CategoryUser)
			}
			defer fh.Close()
			src = fh
			if name == "" {
				name = filepath.Base(req.FilePath)
			}
		}
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "failed to build upload", errors.CategorySystem)
		}
		if _, err := io.Copy(part, src); err != nil {
			return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "failed to read upload file", errors.CategorySystem)
		}
	}
	if req.URL != "" {
		if err := mw.WriteField("url", req.URL); err != nil {
			return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "failed to build upload", errors.CategorySystem)
		}
	}
	if err := mw.WriteField("prompt", req.Prompt); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "failed to build upload", errors.CategorySystem)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "failed to build upload", errors.CategorySystem)
	}

	var out UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCourse asks the backend to build a course from text chunks.
func (c *Client) GenerateCourse(ctx context.Context, chunks []string, prompt string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.postJSON(ctx, "/generate-course", map[string]any{
		"chunks": chunks,
		"prompt": prompt,
	}, &out)
	if err != nil {
		return nil, err
	}
	// Some deployments wrap the course in {"course": ...}.
	var wrapped struct {
		Course json.RawMessage `json:"course"`
	}
	if json.Unmarshal(out, &wrapped) == nil && len(wrapped.Course) > 0 && wrapped.Course[0] == '{' {
		return wrapped.Course, nil
	}
	return out, nil
}

// LessonRequest asks for the body of a lesson.
type LessonRequest struct {
	Title         string   `json:"lesson_title"`
	Summary       string   `json:"lesson_summary"`
	ContextChunks []string `json:"context_chunks"`
	CourseID      string   `json:"course_id,omitempty"`
}

// LessonContent returns generated lesson text.
func (c *Client) LessonContent(ctx context.Context, req LessonRequest) (string, error) {
	if req.ContextChunks == nil {
		req.ContextChunks = []string{}
	}
	var out struct {
		Content *string `json:"content"`
	}
	if err := c.postJSON(ctx, "/lesson-content", req, &out); err != nil {
		return "", err
	}
	if out.Content == nil {
		return "", missingField("content")
	}
	return *out.Content, nil
}

// GenerateQuiz returns the backend quiz object.
func (c *Client) GenerateQuiz(ctx context.Context, content, topic string, numQuestions int) (json.RawMessage, error) {
	var out struct {
		Quiz json.RawMessage `json:"quiz"`
	}
	err := c.postJSON(ctx, "/generate-quiz", map[string]any{
		"content":       content,
		"topic":         topic,
		"num_questions": numQuestions,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Quiz) == 0 || string(out.Quiz) == "null" {
		return nil, missingField("quiz")
	}
	return out.Quiz, nil
}

// Translate returns text translated into targetLang.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if sourceLang == "" {
		sourceLang = "auto"
	}
	var out struct {
		TranslatedText *string `json:"translated_text"`
	}
	err := c.postJSON(ctx, "/translate", map[string]any{
		"text":        text,
		"target_lang": targetLang,
		"source_lang": sourceLang,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.TranslatedText == nil {
		return "", missingField("translated_text")
	}
	return *out.TranslatedText, nil
}

// SearchResult is the backend's retrieval answer.
type SearchResult struct {
	Query   string          `json:"query"`
	Results json.RawMessage `json:"results"`
}

// Search looks up stored content relevant to query.
func (c *Client) Search(ctx context.Context, query string, nResults int) (*SearchResult, error) {
	if nResults <= 0 {
		nResults = 5
	}
	var out SearchResult
	err := c.postJSON(ctx, "/search", map[string]any{
		"query":     query,
		"n_results": nResults,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Course fetches a stored course.
func (c *Client) Course(ctx context.Context, id string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "course id is required")
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/course/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePDF exports a course and returns its download URL.
func (c *Client) GeneratePDF(ctx context.Context, courseData any) (string, error) {
	return c.export(ctx, "/generate-pdf", courseData)
}

// GeneratePPTX exports a course as slides and returns its download URL.
func (c *Client) GeneratePPTX(ctx context.Context, courseData any) (string, error) {
	return c.export(ctx, "/generate-pptx", courseData)
}

func (c *Client) export(ctx context.Context, path string, courseData any) (string, error) {
	var out struct {
		DownloadURL *string `json:"download_url"`
	}
	if err := c.postJSON(ctx, path, map[string]any{"courseData": courseData}, &out); err != nil {
		return "", err
	}
	if out.DownloadURL == nil {
		return "", missingField("download_url")
	}
	return *out.DownloadURL, nil
}

// TextToSpeech returns base64 audio for text.
func (c *Client) TextToSpeech(ctx context.Context, text, language string) (string, error) {
	if language == "" {
		language = "en"
	}
	var out struct {
		Audio *string `json:"audio_base64"`
	}
	err := c.postJSON(ctx, "/text-to-speech", map[string]any{
		"text":     text,
		"language": language,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Audio == nil {
		return "", missingField("audio_base64")
	}
	return *out.Audio, nil
}

// Ping reports whether the backend answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return disabled()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeBackendUnavailable, "invalid backend URL", errors.CategoryUser)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeBackendUnavailable, "backend unreachable", errors.CategoryTemporary)
	}
	resp.Body.Close()
	return nil
}

// ============================================================
// Transport
// ============================================================

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "failed to encode request", errors.CategoryPermanent)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if !c.Enabled() {
		return disabled()
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CodeBackendUnavailable, "failed to create request", errors.CategoryPermanent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend call failed", "method", method, "path", path, "error", err)
		return errors.NewBuilder(errors.CodeBackendUnavailable, "backend request failed").
			Wrap(err).
			WithContext("path", path).
			WithSuggestion("Check that the backend is running at " + c.baseURL).
			Build()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, errors.CodeBackendUnavailable, "failed to read response body", errors.CategoryTemporary)
	}
	c.log.Debug("backend call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, path, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewBuilder(errors.CodeBackendDecode, "failed to parse backend response").
			Permanent().
			Wrap(err).
			WithContext("path", path).
			Build()
	}
	return nil
}

func statusError(status int, path string, body []byte) error {
	msg := http.StatusText(status)
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	category := errors.CategoryPermanent
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		category = errors.CategoryTemporary
	case status >= 400 && status < 500:
		category = errors.CategoryUser
	}

	appErr := errors.New(errors.CodeBackendStatus, fmt.Sprintf("backend error (status %d): %s", status, msg), category)
	appErr.Context = map[string]any{"status": status, "path": path}
	return appErr
}

func missingField(name string) error {
	return errors.New(errors.CodeBackendDecode, "backend response missing "+name, errors.CategoryPermanent)
}

func disabled() error {
	return errors.NewBuilder(errors.CodeBackendDisabled, "backend is disabled").
		User().
		WithSuggestion("Set backend.enabled and backend.base_url in config.toml").
		Build()
}
