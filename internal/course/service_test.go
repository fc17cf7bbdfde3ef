package course_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/backend"
	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/model"
	"github.com/mentora-ai/mentora/internal/model/modeltest"
)

type notes struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notes) add(s string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, s)
	n.mu.Unlock()
}

func (n *notes) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func loadedEngine() *modeltest.Engine {
	return &modeltest.Engine{Models: []model.Descriptor{{ID: "m1", Name: "M1", Downloaded: true}}}
}

func newService(t *testing.T, eng *modeltest.Engine, simulate bool, backendURL string) (*course.Service, *notes) {
	t.Helper()
	n := &notes{}
	opts := course.Options{Notify: n.add, ProgressStep: 25}
	if backendURL != "" {
		opts.Backend = backend.New(config.BackendConfig{Enabled: true, BaseURL: backendURL}, nil)
	}
	mgr := model.NewManager(eng, model.Options{Simulate: simulate})
	return course.NewService(mgr, opts), n
}

func backendServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestEnsureModelLoadsDownloadedModel(t *testing.T) {
	eng := loadedEngine()
	svc, _ := newService(t, eng, false, "")

	d, err := svc.EnsureModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", d.ID)
	assert.True(t, d.Loaded)
	assert.Contains(t, eng.CallLog(), "load:m1")

	// Second call keeps the resident model.
	_, err = svc.EnsureModel(context.Background())
	require.NoError(t, err)
	loads := 0
	for _, c := range eng.CallLog() {
		if strings.HasPrefix(c, "load:") {
			loads++
		}
	}
	assert.Equal(t, 1, loads)
}

func TestEnsureModelDownloadsWithNotifications(t *testing.T) {
	eng := &modeltest.Engine{
		Models: []model.Descriptor{{ID: "m1", Name: "M1", SizeBytes: 10 << 20}},
		Steps:  []float64{0.1, 0.3, 0.55, 0.8, 1},
	}
	svc, n := newService(t, eng, false, "")

	d, err := svc.EnsureModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", d.ID)

	msgs := n.all()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Downloading M1 (10.00 MB)...", msgs[0])
	assert.Contains(t, msgs, "Downloading M1: 30%")
	assert.Contains(t, msgs, "Downloading M1: 55%")
	assert.Contains(t, msgs, "Downloading M1: 80%")
	assert.NotContains(t, msgs, "Downloading M1: 10%")
	assert.Contains(t, msgs, "M1 downloaded")
	assert.Equal(t, "Loading M1...", msgs[len(msgs)-1])
}

func TestEnsureModelDownloadFailure(t *testing.T) {
	eng := &modeltest.Engine{
		Models:  []model.Descriptor{{ID: "m1", Name: "M1"}},
		PullErr: fmt.Errorf("disk full"),
	}
	svc, _ := newService(t, eng, false, "")

	_, err := svc.EnsureModel(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeDownloadFailed))
	assert.NotContains(t, eng.CallLog(), "load:m1")
}

func TestEnsureModelEngineDown(t *testing.T) {
	svc, _ := newService(t, &modeltest.Engine{Down: true}, false, "")
	_, err := svc.EnsureModel(context.Background())
	assert.True(t, errors.IsNotInitialized(err))
}

func TestGenerateLessonOnDevice(t *testing.T) {
	eng := loadedEngine()
	eng.Reply = func(string) string { return "# Loops\n\nBody" }
	svc, _ := newService(t, eng, true, "")

	res, err := svc.GenerateLesson(context.Background(), course.LessonInput{Title: "Loops", Description: "for and range"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceOnDevice, res.Source)
	assert.Equal(t, "# Loops\n\nBody", res.Text)
	assert.Contains(t, eng.LastPrompt(), "Lesson Title: Loops\n")
}

func TestGenerateLessonFallsBackToBackend(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lesson-content", r.URL.Path)
		w.Write([]byte(`{"content":"from backend"}`))
	})
	svc, _ := newService(t, &modeltest.Engine{Down: true}, true, url)

	res, err := svc.GenerateLesson(context.Background(), course.LessonInput{Title: "Loops"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceBackend, res.Source)
	assert.Equal(t, "from backend", res.Text)
}

func TestGenerateLessonSimulatedWhenNotInitialized(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	svc, _ := newService(t, &modeltest.Engine{Down: true}, true, url)

	res, err := svc.GenerateLesson(context.Background(), course.LessonInput{Title: "Recursion"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceSimulated, res.Source)
	assert.True(t, strings.HasPrefix(res.Text, "# Recursion"))

	st := svc.Models().Stats().Collect()
	assert.EqualValues(t, 1, st.RequestCount)
	assert.EqualValues(t, 1, st.FallbackCount)
}

func TestNoSimulationForOtherFailures(t *testing.T) {
	eng := loadedEngine()
	eng.GenerateErr = fmt.Errorf("engine crashed")
	svc, _ := newService(t, eng, true, "")

	_, err := svc.Summarize(context.Background(), "content", 50)
	require.Error(t, err)
	assert.False(t, errors.IsNotInitialized(err))
	assert.EqualValues(t, 1, svc.Models().Stats().Collect().ErrorCount)
}

func TestNoSimulationWhenDisabled(t *testing.T) {
	svc, _ := newService(t, &modeltest.Engine{Down: true}, false, "")
	_, err := svc.Simplify(context.Background(), "gravity", 10)
	require.Error(t, err)
	assert.True(t, errors.IsNotInitialized(err))
}

func TestGenerateCourseOnDevice(t *testing.T) {
	eng := loadedEngine()
	eng.Reply = func(string) string {
		return "Sure! " + `{"title":"Go Basics","description":"d","lessons":[{"title":"Intro","description":"x","topics":["a"]}]}`
	}
	svc, _ := newService(t, eng, true, "")

	c, err := svc.GenerateCourse(context.Background(), course.CourseInput{Title: "Go", ExtractedText: "Go is a language."})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceOnDevice, c.Source)
	assert.Equal(t, "Go Basics", c.Title)
	require.Len(t, c.Lessons, 1)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Contains(t, eng.LastPrompt(), "Go is a language.")
}

func TestGenerateCourseBackendChunks(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"Some source text."}, body["chunks"])
		w.Write([]byte(`{"course":{"title":"Remote","lessons":[{"title":"One","summary":"s"}]}}`))
	})
	svc, _ := newService(t, &modeltest.Engine{Down: true}, true, url)

	c, err := svc.GenerateCourse(context.Background(), course.CourseInput{ExtractedText: "Some source text."})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceBackend, c.Source)
	assert.Equal(t, "Remote", c.Title)
	assert.Equal(t, "s", c.Lessons[0].Description)
}

func TestGenerateCourseSimulated(t *testing.T) {
	svc, _ := newService(t, &modeltest.Engine{Down: true}, true, "")

	c, err := svc.GenerateCourse(context.Background(), course.CourseInput{Title: "Chemistry"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceSimulated, c.Source)
	assert.Equal(t, "Chemistry", c.Title)
	assert.Len(t, c.Lessons, 6)
	assert.Equal(t, "Introduction to Chemistry", c.Lessons[0].Title)
}

func TestGenerateCourseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("Photosynthesis converts light into energy."), 0o644))

	eng := loadedEngine()
	eng.Reply = func(string) string { return `{"lessons":[{"title":"Light"}]}` }
	svc, _ := newService(t, eng, false, "")

	c, err := svc.GenerateCourse(context.Background(), course.CourseInput{FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, "notes", c.Title)
	assert.Contains(t, eng.LastPrompt(), "Photosynthesis converts light")
	assert.Contains(t, eng.LastPrompt(), "Course Title: notes\n")
}

func TestGenerateCourseFromPage(t *testing.T) {
	page := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Volcanoes</title></head><body><p>Magma rises.</p></body></html>`))
	})
	eng := loadedEngine()
	eng.Reply = func(string) string { return `{"lessons":[{"title":"Magma"}]}` }
	svc, _ := newService(t, eng, false, "")

	c, err := svc.GenerateCourse(context.Background(), course.CourseInput{URL: page})
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes", c.Title)
	assert.Contains(t, eng.LastPrompt(), "Magma rises.")
}

func TestTranslate(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translated_text":"hola"}`))
	})
	svc, _ := newService(t, &modeltest.Engine{Down: true}, true, url)

	res, err := svc.Translate(context.Background(), "hello", "es", "")
	require.NoError(t, err)
	assert.Equal(t, errors.SourceBackend, res.Source)
	assert.Equal(t, "hola", res.Text)

	_, err = svc.Translate(context.Background(), "  ", "es", "")
	assert.Equal(t, errors.CategoryUser, errors.GetCategory(err))
}

func TestChatUsesHistory(t *testing.T) {
	eng := loadedEngine()
	svc, _ := newService(t, eng, false, "")

	res, err := svc.Chat(context.Background(), "What is a goroutine?", "Go course", nil)
	require.NoError(t, err)
	assert.Equal(t, errors.SourceOnDevice, res.Source)
	assert.Contains(t, eng.LastPrompt(), "What is a goroutine?")

	_, err = svc.Chat(context.Background(), "", "", nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestQuizOnDeviceThenBackend(t *testing.T) {
	eng := loadedEngine()
	eng.Reply = func(string) string {
		return `{"title":"Q","questions":[{"question":"2+2?","options":["3","4"],"correctAnswer":1}]}`
	}
	svc, _ := newService(t, eng, false, "")

	q, err := svc.Quiz(context.Background(), course.QuizInput{Content: "math"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceOnDevice, q.Source)
	assert.Equal(t, 1, q.Questions[0].ID)

	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quiz":{"title":"Remote","questions":[{"id":7,"question":"q","options":["a","b"],"correctAnswer":0}]}}`))
	})
	bad := loadedEngine()
	bad.Reply = func(string) string { return "no json here" }
	svc, _ = newService(t, bad, false, url)

	q, err = svc.Quiz(context.Background(), course.QuizInput{Content: "math"})
	require.NoError(t, err)
	assert.Equal(t, errors.SourceBackend, q.Source)
	assert.Equal(t, 7, q.Questions[0].ID)
}

func TestFlashcardsOnDeviceOnly(t *testing.T) {
	eng := loadedEngine()
	eng.Reply = func(string) string {
		return `{"cards":[{"front":"CPU","back":"processor"},{"front":"","back":"x"}]}`
	}
	svc, _ := newService(t, eng, true, "")

	set, err := svc.Flashcards(context.Background(), "hardware", 5)
	require.NoError(t, err)
	assert.Equal(t, errors.SourceOnDevice, set.Source)
	assert.Len(t, set.Cards, 1)

	down, _ := newService(t, &modeltest.Engine{Down: true}, true, "")
	_, err = down.Flashcards(context.Background(), "hardware", 5)
	assert.True(t, errors.IsNotInitialized(err))
}

func TestExportAndSearch(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate-pdf":
			w.Write([]byte(`{"download_url":"/d/c.pdf"}`))
		case "/generate-pptx":
			w.Write([]byte(`{"download_url":"/d/c.pptx"}`))
		case "/search":
			w.Write([]byte(`{"query":"go","results":[]}`))
		}
	})
	svc, _ := newService(t, loadedEngine(), false, url)
	ctx := context.Background()

	u, err := svc.Export(ctx, json.RawMessage(`{"title":"T"}`), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "/d/c.pdf", u)

	u, err = svc.Export(ctx, json.RawMessage(`{"title":"T"}`), "pptx")
	require.NoError(t, err)
	assert.Equal(t, "/d/c.pptx", u)

	_, err = svc.Export(ctx, json.RawMessage(`{}`), "docx")
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	res, err := svc.Search(ctx, "go", 3)
	require.NoError(t, err)
	assert.Equal(t, "go", res.Query)
}

func TestUploadFileURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("cells divide"), 0o644))

	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "notes.txt", hdr.Filename)
		w.Write([]byte(`{"course_id":"c9","extracted_text":"cells divide"}`))
	})
	svc, _ := newService(t, loadedEngine(), false, url)

	res, err := svc.Upload(context.Background(), "file://"+path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "c9", res.CourseID)

	_, err = svc.Upload(context.Background(), "https://example.com/x.pdf", "", "")
	assert.True(t, errors.HasCode(err, errors.CodeUnsupportedFile))
}

func TestBackendOnlyWithoutBackend(t *testing.T) {
	svc, _ := newService(t, loadedEngine(), false, "")
	_, err := svc.TextToSpeech(context.Background(), "hi", "en")
	assert.True(t, errors.HasCode(err, errors.CodeBackendDisabled))
}

func TestStatus(t *testing.T) {
	url := backendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	svc, _ := newService(t, &modeltest.Engine{Down: true}, false, url)

	st := svc.Status(context.Background())
	assert.False(t, st.Model.Initialized)
	assert.True(t, st.Backend.Enabled)
	assert.True(t, st.Backend.Reachable)
	assert.Equal(t, url, st.Backend.URL)
	assert.True(t, st.Ready)

	off, _ := newService(t, &modeltest.Engine{Down: true}, false, "")
	assert.False(t, off.Status(context.Background()).Ready)
}
