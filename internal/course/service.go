package course

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentora-ai/mentora/internal/backend"
	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/extract"
	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/internal/metrics"
	"github.com/mentora-ai/mentora/internal/model"
	"github.com/mentora-ai/mentora/internal/prompt"
)

// DefaultProgressStep is the percent between download notifications.
const DefaultProgressStep = 10

// Options configures a Service.
type Options struct {
	Backend      *backend.Client
	Web          *extract.Web
	Files        *extract.Files
	Prompts      *prompt.Builder
	ProgressStep int

	// Notify receives coarse user-facing progress messages.
	Notify func(message string)

	Logger *slog.Logger
}

// Service runs the learning workflows.
type Service struct {
	models  *model.Manager
	backend *backend.Client
	web     *extract.Web
	files   *extract.Files
	prompts *prompt.Builder
	step    int
	notify  func(string)
	log     *slog.Logger

	ensureMu sync.Mutex
}

// NewService creates a service over models. Missing options get defaults;
// a nil Backend disables backend fallbacks.
func NewService(models *model.Manager, opts Options) *Service {
	s := &Service{
		models:  models,
		backend: opts.Backend,
		web:     opts.Web,
		files:   opts.Files,
		prompts: opts.Prompts,
		step:    opts.ProgressStep,
		notify:  opts.Notify,
		log:     logging.Component(opts.Logger, "course"),
	}
	if s.backend == nil {
		s.backend = backend.New(config.BackendConfig{}, opts.Logger)
	}
	if s.web == nil {
		s.web = extract.NewWeb(0)
	}
	if s.files == nil {
		s.files = extract.NewFiles()
	}
	if s.prompts == nil {
		s.prompts = prompt.NewBuilder(0)
	}
	if s.step <= 0 || s.step > 100 {
		s.step = DefaultProgressStep
	}
	if s.notify == nil {
		s.notify = func(string) {}
	}
	return s
}

// Models returns the model manager.
func (s *Service) Models() *model.Manager { return s.models }

// Backend returns the backend client, which may be disabled.
func (s *Service) Backend() *backend.Client { return s.backend }

// Web returns the web extractor.
func (s *Service) Web() *extract.Web { return s.web }

// Files returns the file extractor.
func (s *Service) Files() *extract.Files { return s.files }

// ============================================================
// Model readiness
// ============================================================

// EnsureModel makes sure a model is resident. When nothing is downloaded
// the first available model is pulled, with a notification every
// ProgressStep percent.
func (s *Service) EnsureModel(ctx context.Context) (*model.Descriptor, error) {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()

	if err := s.models.Engine().Ping(ctx); err != nil {
		return nil, err
	}
	if cur := s.models.CurrentModel(ctx); cur != nil {
		return cur, nil
	}

	models := s.models.ListModels(ctx)
	var pick *model.Descriptor
	for i := range models {
		if models[i].Downloaded {
			pick = &models[i]
			break
		}
	}

	if pick == nil {
		pick = &models[0]
		s.log.Info("no model downloaded, fetching", "model", pick.ID)
		if err := s.download(ctx, *pick); err != nil {
			return nil, err
		}
	}

	s.notify(fmt.Sprintf("Loading %s...", pick.Name))
	if !s.models.Load(ctx, pick.ID) {
		return nil, errors.NewBuilder(errors.CodeModelNotLoaded, "failed to load "+pick.ID).
			WithSuggestion("Check the engine logs").
			Build()
	}
	return s.models.CurrentModel(ctx), nil
}

func (s *Service) download(ctx context.Context, d model.Descriptor) error {
	s.notify(fmt.Sprintf("Downloading %s (%s MB)...", d.Name, d.SizeInMB()))

	next := s.step
	last := -1.0
	for p := range s.models.Download(ctx, d.ID) {
		last = p
		pct := int(math.Round(p * 100))
		if pct >= next && pct < 100 {
			s.notify(fmt.Sprintf("Downloading %s: %d%%", d.Name, pct))
			for next <= pct {
				next += s.step
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if last < 1 {
		return errors.NewBuilder(errors.CodeDownloadFailed, "failed to download "+d.ID).
			WithSuggestion("Check your network connection and free disk space").
			Build()
	}
	s.notify(fmt.Sprintf("%s downloaded", d.Name))
	return nil
}

// ============================================================
// Attempt helpers
// ============================================================

// generate runs an on-device generation after EnsureModel.
func (s *Service) generate(ctx context.Context, req *model.Request) (string, error) {
	if _, err := s.EnsureModel(ctx); err != nil {
		return "", err
	}
	resp, err := s.models.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New(errors.CodeModelInvalidOutput, "model returned empty output", errors.CategoryTemporary)
	}
	return resp.Text, nil
}

func (s *Service) onDeviceText(p string, maxTokens int) errors.Attempt[string] {
	return errors.Attempt[string]{
		Source: errors.SourceOnDevice,
		Run: func(ctx context.Context) (string, error) {
			return s.generate(ctx, &model.Request{Prompt: p, MaxTokens: maxTokens})
		},
	}
}

func (s *Service) simulatedText(p string) errors.Attempt[string] {
	return errors.Attempt[string]{
		Source: errors.SourceSimulated,
		When:   s.simulationAllowed,
		Run: func(context.Context) (string, error) {
			return model.Simulate(p), nil
		},
	}
}

func (s *Service) simulationAllowed(prev []error) bool {
	return s.models.Simulating() && errors.AnyNotInitialized(prev)
}

func (s *Service) backendEnabled([]error) bool {
	return s.backend.Enabled()
}

// run executes attempts and records the outcome under operation.
func run[T any](ctx context.Context, s *Service, operation string, attempts ...errors.Attempt[T]) (T, errors.Source, error) {
	start := time.Now()
	out, src, err := errors.FirstSuccess(ctx, attempts...)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(operation).Inc()
		s.models.Stats().RecordError()
		s.log.Error("workflow failed", "operation", operation, "error", err)
		return out, "", err
	}

	chars := 0
	if text, ok := any(out).(string); ok {
		chars = len(text)
	}
	metrics.ObserveGeneration(operation, string(src), start)
	s.models.Stats().RecordRequest(string(src), chars, time.Since(start))
	s.log.Info("workflow served", "operation", operation, "source", src, "duration", time.Since(start))
	return out, src, nil
}

func textResult(text string, src errors.Source, err error) (*TextResult, error) {
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: text, Source: src}, nil
}

// ============================================================
// Workflows
// ============================================================

// GenerateCourse builds a course outline from a page, a file or text.
func (s *Service) GenerateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	content := in.ExtractedText
	title := in.Title

	switch {
	case content == "" && in.URL != "":
		page, err := s.web.Extract(ctx, in.URL)
		if err != nil {
			return nil, err
		}
		content = page.Text
		if title == "" {
			title = page.Title
		}
	case content == "" && in.FilePath != "":
		doc, err := s.files.Extract(ctx, in.FilePath)
		if err != nil {
			return nil, err
		}
		content = doc.Text
		if title == "" {
			title = strings.TrimSuffix(doc.Name, fileExt(doc.Name))
		}
	}

	p := s.prompts.CourseOutline(prompt.CourseSpec{
		Title:         title,
		Difficulty:    in.Difficulty,
		Audience:      in.Audience,
		Prerequisites: in.Prerequisites,
		Request:       in.Prompt,
		Content:       content,
	})

	c, src, err := run(ctx, s, "course",
		errors.Attempt[*Course]{
			Source: errors.SourceOnDevice,
			Run: func(ctx context.Context) (*Course, error) {
				text, err := s.generate(ctx, &model.Request{Prompt: p, JSON: true, MaxTokens: 4000})
				if err != nil {
					return nil, err
				}
				return ParseCourse(text)
			},
		},
		errors.Attempt[*Course]{
			Source: errors.SourceBackend,
			When:   s.backendEnabled,
			Run: func(ctx context.Context) (*Course, error) {
				chunks := extract.Chunk(content, extract.DefaultChunkSize)
				if len(chunks) == 0 {
					chunks = []string{nonEmpty(title, in.Prompt)}
				}
				raw, err := s.backend.GenerateCourse(ctx, chunks, nonEmpty(in.Prompt, title))
				if err != nil {
					return nil, err
				}
				return ParseCourse(string(raw))
			},
		},
		errors.Attempt[*Course]{
			Source: errors.SourceSimulated,
			When:   s.simulationAllowed,
			Run: func(context.Context) (*Course, error) {
				return ParseCourse(model.Simulate(p))
			},
		},
	)
	if err != nil {
		return nil, err
	}

	c.ID = uuid.NewString()
	c.Source = src
	c.CreatedAt = time.Now().UTC()
	if title != "" && (c.Title == "" || c.Title == "Generated Course") {
		c.Title = title
	}
	return c, nil
}

// GenerateLesson writes the body of a lesson.
func (s *Service) GenerateLesson(ctx context.Context, in LessonInput) (*TextResult, error) {
	chunks := in.ContextChunks
	if len(chunks) == 0 && strings.TrimSpace(in.CourseContext) != "" {
		chunks = []string{in.CourseContext}
	}
	p := s.prompts.Lesson(in.Title, in.Description, chunks)

	text, src, err := run(ctx, s, "lesson",
		s.onDeviceText(p, 2000),
		errors.Attempt[string]{
			Source: errors.SourceBackend,
			When:   s.backendEnabled,
			Run: func(ctx context.Context) (string, error) {
				return s.backend.LessonContent(ctx, backend.LessonRequest{
					Title:         in.Title,
					Summary:       in.Description,
					ContextChunks: chunks,
					CourseID:      in.CourseID,
				})
			},
		},
		s.simulatedText(p),
	)
	return textResult(text, src, err)
}

// Translate translates text into target.
func (s *Service) Translate(ctx context.Context, text, target, source string) (*TextResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "text to translate is empty")
	}
	p := s.prompts.Translate(text, target)

	out, src, err := run(ctx, s, "translate",
		s.onDeviceText(p, 1000),
		errors.Attempt[string]{
			Source: errors.SourceBackend,
			When:   s.backendEnabled,
			Run: func(ctx context.Context) (string, error) {
				return s.backend.Translate(ctx, text, target, source)
			},
		},
		s.simulatedText(p),
	)
	return textResult(out, src, err)
}

// Summarize condenses content to at most maxWords words.
func (s *Service) Summarize(ctx context.Context, content string, maxWords int) (*TextResult, error) {
	p := s.prompts.Summarize(content, maxWords)
	out, src, err := run(ctx, s, "summarize", s.onDeviceText(p, 500), s.simulatedText(p))
	return textResult(out, src, err)
}

// Chat answers a learner question.
func (s *Service) Chat(ctx context.Context, question, courseContext string, history []prompt.Turn) (*TextResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "question is empty")
	}
	p := s.prompts.Chat(question, courseContext, history)
	out, src, err := run(ctx, s, "chat", s.onDeviceText(p, 800), s.simulatedText(question))
	return textResult(out, src, err)
}

// Simplify explains concept for a reader of targetAge.
func (s *Service) Simplify(ctx context.Context, concept string, targetAge int) (*TextResult, error) {
	p := s.prompts.Simplify(concept, targetAge)
	out, src, err := run(ctx, s, "simplify", s.onDeviceText(p, 600), s.simulatedText(p))
	return textResult(out, src, err)
}

// StudyNotes writes notes for content in format.
func (s *Service) StudyNotes(ctx context.Context, content, format string) (*TextResult, error) {
	p := s.prompts.StudyNotes(content, format)
	out, src, err := run(ctx, s, "study_notes", s.onDeviceText(p, 1500), s.simulatedText(p))
	return textResult(out, src, err)
}

// Quiz generates a multiple-choice quiz.
func (s *Service) Quiz(ctx context.Context, in QuizInput) (*Quiz, error) {
	if in.NumQuestions <= 0 {
		in.NumQuestions = 5
	}
	p := s.prompts.Quiz(in.Content, in.Topic, in.NumQuestions, in.Difficulty)

	q, src, err := run(ctx, s, "quiz",
		errors.Attempt[*Quiz]{
			Source: errors.SourceOnDevice,
			Run: func(ctx context.Context) (*Quiz, error) {
				text, err := s.generate(ctx, &model.Request{Prompt: p, JSON: true, MaxTokens: 1500})
				if err != nil {
					return nil, err
				}
				return ParseQuiz(text)
			},
		},
		errors.Attempt[*Quiz]{
			Source: errors.SourceBackend,
			When:   s.backendEnabled,
			Run: func(ctx context.Context) (*Quiz, error) {
				raw, err := s.backend.GenerateQuiz(ctx, in.Content, in.Topic, in.NumQuestions)
				if err != nil {
					return nil, err
				}
				return ParseQuiz(string(raw))
			},
		},
	)
	if err != nil {
		return nil, err
	}
	q.Source = src
	return q, nil
}

// Flashcards generates a study deck. Only the on-device model can serve it.
func (s *Service) Flashcards(ctx context.Context, content string, numCards int) (*FlashcardSet, error) {
	p := s.prompts.Flashcards(content, numCards)
	set, src, err := run(ctx, s, "flashcards", errors.Attempt[*FlashcardSet]{
		Source: errors.SourceOnDevice,
		Run: func(ctx context.Context) (*FlashcardSet, error) {
			text, err := s.generate(ctx, &model.Request{Prompt: p, JSON: true, MaxTokens: 1500})
			if err != nil {
				return nil, err
			}
			return ParseFlashcards(text)
		},
	})
	if err != nil {
		return nil, err
	}
	set.Source = src
	return set, nil
}

// ============================================================
// Backend-only capabilities
// ============================================================

// Search queries stored course content.
func (s *Service) Search(ctx context.Context, query string, n int) (*backend.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "query is required")
	}
	return s.backend.Search(ctx, query, n)
}

// Export renders a course as "pdf" or "pptx" and returns the download URL.
func (s *Service) Export(ctx context.Context, courseData json.RawMessage, format string) (string, error) {
	switch strings.ToLower(format) {
	case "pdf", "":
		return s.backend.GeneratePDF(ctx, courseData)
	case "pptx", "ppt":
		return s.backend.GeneratePPTX(ctx, courseData)
	default:
		return "", errors.User(errors.CodeInvalidInput, "unknown export format: "+format)
	}
}

// TextToSpeech returns base64 audio for text.
func (s *Service) TextToSpeech(ctx context.Context, text, language string) (string, error) {
	return s.backend.TextToSpeech(ctx, text, language)
}

// Upload sends a document or URL to the backend for extraction and course
// generation. fileURI may be a plain path or a file:// URI.
func (s *Service) Upload(ctx context.Context, fileURI, pageURL, prompt string) (*backend.UploadResult, error) {
	req := backend.UploadRequest{URL: strings.TrimSpace(pageURL), Prompt: prompt}
	if strings.TrimSpace(fileURI) != "" {
		path, err := extract.ResolvePath(fileURI)
		if err != nil {
			return nil, err
		}
		req.FilePath = path
	}
	return s.backend.Upload(ctx, req)
}

// Course fetches a course the backend stored earlier.
func (s *Service) Course(ctx context.Context, id string) (json.RawMessage, error) {
	return s.backend.Course(ctx, id)
}

// BackendStatus describes backend reachability.
type BackendStatus struct {
	Enabled   bool   `json:"enabled"`
	Reachable bool   `json:"reachable"`
	URL       string `json:"url,omitempty"`
}

// Status is the combined AI status shown in the app.
type Status struct {
	Model   *model.Status `json:"model"`
	Backend BackendStatus `json:"backend"`
	Ready   bool          `json:"ready"`
}

// Status reports engine and backend state.
func (s *Service) Status(ctx context.Context) *Status {
	st := &Status{
		Model: s.models.Status(ctx),
		Backend: BackendStatus{
			Enabled: s.backend.Enabled(),
			URL:     s.backend.BaseURL(),
		},
	}
	if st.Backend.Enabled {
		st.Backend.Reachable = s.backend.Ping(ctx) == nil
	}
	st.Ready = (st.Model.Initialized && st.Model.CurrentModel != "") || st.Backend.Reachable || st.Model.Simulate
	return st
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}
