package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mentora-ai/mentora/internal/backend"
	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/internal/metrics"
	"github.com/mentora-ai/mentora/internal/model"
	"github.com/mentora-ai/mentora/internal/prefs"
	"github.com/mentora-ai/mentora/internal/prompt"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

// Sink receives events for the web app.
type Sink interface {
	Emit(ev protocol.Event) error
}

// Dispatcher routes bridge requests to their handlers. Synchronous methods
// answer on the calling goroutine. Asynchronous methods run on the Host
// and deliver every event through its UI loop.
type Dispatcher struct {
	host   *Host
	svc    *course.Service
	prefs  *prefs.Store
	native Native
	log    *slog.Logger
	table  map[protocol.Method]route
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(host *Host, svc *course.Service, store *prefs.Store, native Native, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		host:   host,
		svc:    svc,
		prefs:  store,
		native: native,
		log:    logging.Component(logger, "dispatch"),
	}
	d.table = d.routes()
	return d
}

// Notifier returns a function that shows message as a toast on the UI loop.
func Notifier(host *Host, native Native) func(string) {
	return func(message string) {
		host.Post(func() { native.Toast(message) })
	}
}

// call carries one request through its handler.
type call struct {
	req   *protocol.Request
	emit  func(protocol.Event)
	start time.Time

	// finished is set once the handler emitted its own final event.
	finished bool
}

func (c *call) event(kind protocol.EventKind, callback string, payload any) {
	c.emit(protocol.Event{ID: c.req.ID, Kind: kind, Callback: callback, Payload: payload})
}

func (c *call) progress(payload any) { c.event(protocol.KindProgress, c.req.ProgressCallback, payload) }
func (c *call) token(payload any)    { c.event(protocol.KindToken, c.req.ProgressCallback, payload) }

func (c *call) complete(payload any) {
	c.finished = true
	c.event(protocol.KindComplete, c.req.Callback, payload)
}

// handler returns the result payload, or an error when the call failed.
type handler func(ctx context.Context, c *call) (any, error)

type route struct {
	run handler
	// failure is the payload delivered when run fails.
	failure func(err error) any
}

// Dispatch handles req and delivers its events to sink. It never panics
// and always emits exactly one final event unless the host is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request, sink Sink) {
	if req.ID == "" {
		req.ID = protocol.NewID()
	}

	r, ok := d.table[req.Method]
	if !ok {
		d.fail(req, sink, errors.NewBuilder(errors.CodeBridgeUnknownMethod, "unknown method: "+string(req.Method)).
			User().
			Build())
		return
	}

	if !req.Method.Async() {
		c := &call{req: req, start: time.Now(), emit: d.direct(sink)}
		d.run(ctx, c, r)
		return
	}

	post := func(ev protocol.Event) {
		d.host.Post(func() { d.deliver(sink, ev) })
	}
	started := d.host.Go(func(hostCtx context.Context) {
		runCtx, cancel := context.WithCancel(hostCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		d.run(runCtx, &call{req: req, start: time.Now(), emit: post}, r)
	})
	if !started {
		d.fail(req, sink, errors.New(errors.CodeBridgeClosed, "bridge is closed", errors.CategoryPermanent))
	}
}

func (d *Dispatcher) direct(sink Sink) func(protocol.Event) {
	return func(ev protocol.Event) { d.deliver(sink, ev) }
}

func (d *Dispatcher) deliver(sink Sink, ev protocol.Event) {
	if err := sink.Emit(ev); err != nil {
		d.log.Warn("event delivery failed", "id", ev.ID, "kind", ev.Kind, "error", err)
	}
}

func (d *Dispatcher) fail(req *protocol.Request, sink Sink, err error) {
	label := string(req.Method)
	if !req.Method.Known() {
		label = "unknown"
	}
	metrics.BridgeCalls.WithLabelValues(label, metrics.Outcome(err)).Inc()
	d.log.Warn("bridge call rejected", "method", req.Method, "error", err)
	d.deliver(sink, protocol.Event{
		ID:       req.ID,
		Kind:     protocol.KindError,
		Callback: req.Callback,
		Payload:  failure(err),
	})
}

// run executes r, converting panics and errors into failure payloads. A
// handler that already completed gets no result event.
func (d *Dispatcher) run(ctx context.Context, c *call, r route) {
	var (
		payload any
		err     error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				d.log.Error("bridge handler panicked", "method", c.req.Method, "panic", fmt.Sprint(p))
				err = errors.System(errors.CodeBridgeInternal, fmt.Sprintf("internal error in %s", c.req.Method))
			}
		}()
		payload, err = r.run(ctx, c)
	}()

	switch {
	case c.finished:
		if err != nil {
			d.log.Error("bridge call failed", "method", c.req.Method, "error", err)
		}
	case errors.HasCode(err, errors.CodeBridgeBadRequest):
		d.log.Warn("bad bridge request", "method", c.req.Method, "error", err)
		c.event(protocol.KindError, c.req.Callback, failure(err))
	case err != nil:
		d.log.Error("bridge call failed", "method", c.req.Method, "error", err)
		c.event(protocol.KindResult, c.req.Callback, r.failure(err))
	default:
		c.event(protocol.KindResult, c.req.Callback, payload)
	}

	metrics.BridgeCalls.WithLabelValues(string(c.req.Method), metrics.Outcome(err)).Inc()
	d.log.Debug("bridge call", "method", c.req.Method, "duration", time.Since(c.start))
}

// ============================================================
// Failure payloads
// ============================================================

func failure(err error) protocol.Failure {
	return protocol.Failure{Success: false, Error: errors.Message(err), Code: errors.GetCode(err)}
}

func failWith(v any) func(error) any { return func(error) any { return v } }

func failObject(err error) any { return failure(err) }

func failText(err error) any { return "Error: " + errors.Message(err) }

// params decodes request params, reporting bad input as a user error.
func params[T any](c *call) (T, error) {
	p, err := protocol.DecodeParams[T](c.req)
	if err != nil {
		return p, errors.Wrap(err, errors.CodeBridgeBadRequest, "invalid params for "+string(c.req.Method), errors.CategoryUser)
	}
	return p, nil
}

// ============================================================
// Routes
// ============================================================

func (d *Dispatcher) routes() map[protocol.Method]route {
	return map[protocol.Method]route{
		// Native
		protocol.MethodShowToast:              {d.showToast, failWith(false)},
		protocol.MethodGetDeviceInfo:          {d.deviceInfo, failObject},
		protocol.MethodIsAndroid:              {d.isAndroid, failWith(false)},
		protocol.MethodCheckNetworkConnection: {d.checkNetwork, failWith(false)},

		// Preferences
		protocol.MethodSaveString:       {d.saveString, failWith(false)},
		protocol.MethodGetString:        {d.getString, failWith("")},
		protocol.MethodSaveBoolean:      {d.saveBool, failWith(false)},
		protocol.MethodGetBoolean:       {d.getBool, failWith(false)},
		protocol.MethodSaveInt:          {d.saveInt, failWith(false)},
		protocol.MethodGetInt:           {d.getInt, failWith(0)},
		protocol.MethodRemovePreference: {d.removePref, failWith(false)},
		protocol.MethodClearPreferences: {d.clearPrefs, failWith(false)},

		protocol.MethodGetAIStatus: {d.aiStatus, failObject},

		// Model lifecycle
		protocol.MethodGetAvailableModels: {d.availableModels, failWith([]model.Descriptor{})},
		protocol.MethodDownloadModel:      {d.downloadModel, failWith(false)},
		protocol.MethodLoadModel:          {d.loadModel, failWith(false)},
		protocol.MethodUnloadModel:        {d.unloadModel, failWith(false)},
		protocol.MethodIsModelLoaded:      {d.isModelLoaded, failWith(false)},
		protocol.MethodGetCurrentModel:    {d.currentModel, failWith(nil)},

		// Generation
		protocol.MethodGenerateText:       {d.generateText, failText},
		protocol.MethodGenerateTextStream: {d.generateStream, failWith(false)},
		protocol.MethodChat:               {d.chat, failText},

		// Content
		protocol.MethodExtractWebsiteContent: {d.extractWebsite, failObject},
		protocol.MethodExtractFileContent:    {d.extractFile, failObject},

		// Workflows
		protocol.MethodGenerateCourseContent: {d.generateCourse, failObject},
		protocol.MethodGenerateLessonContent: {d.generateLesson, failObject},
		protocol.MethodTranslateText:         {d.translate, failObject},
		protocol.MethodSummarizeText:         {d.summarize, failObject},
		protocol.MethodGenerateQuiz:          {d.quiz, failObject},
		protocol.MethodChatWithAI:            {d.chatWithAI, failObject},
		protocol.MethodGenerateFlashcards:    {d.flashcards, failObject},
		protocol.MethodSimplifyExplanation:   {d.simplify, failObject},
		protocol.MethodGenerateStudyNotes:    {d.studyNotes, failObject},

		// Backend only
		protocol.MethodTextToSpeech:  {d.textToSpeech, failObject},
		protocol.MethodSearchContent: {d.search, failObject},
		protocol.MethodExportCourse:  {d.exportCourse, failObject},
		protocol.MethodUploadContent: {d.uploadContent, failObject},
		protocol.MethodGetCourse:     {d.getCourse, failObject},
	}
}

// ============================================================
// Native handlers
// ============================================================

func (d *Dispatcher) showToast(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.ToastParams](c)
	if err != nil {
		return nil, err
	}
	msg := p.Message
	if !d.host.Post(func() { d.native.Toast(msg) }) {
		return nil, errors.New(errors.CodeBridgeClosed, "bridge is closed", errors.CategoryPermanent)
	}
	return true, nil
}

func (d *Dispatcher) deviceInfo(context.Context, *call) (any, error) {
	return d.native.DeviceInfo(), nil
}

func (d *Dispatcher) isAndroid(context.Context, *call) (any, error) {
	return d.native.IsAndroid(), nil
}

func (d *Dispatcher) checkNetwork(ctx context.Context, _ *call) (any, error) {
	return d.native.NetworkAvailable(ctx), nil
}

// ============================================================
// Preference handlers
// ============================================================

func (d *Dispatcher) saveString(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.StringPrefParams](c)
	if err != nil {
		return nil, err
	}
	return true, d.prefs.SaveString(p.Key, p.Value)
}

func (d *Dispatcher) getString(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.StringPrefParams](c)
	if err != nil {
		return nil, err
	}
	return d.prefs.GetString(p.Key, p.Default), nil
}

func (d *Dispatcher) saveBool(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.BoolPrefParams](c)
	if err != nil {
		return nil, err
	}
	return true, d.prefs.SaveBool(p.Key, p.Value)
}

func (d *Dispatcher) getBool(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.BoolPrefParams](c)
	if err != nil {
		return nil, err
	}
	return d.prefs.GetBool(p.Key, p.Default), nil
}

func (d *Dispatcher) saveInt(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.IntPrefParams](c)
	if err != nil {
		return nil, err
	}
	return true, d.prefs.SaveInt(p.Key, p.Value)
}

func (d *Dispatcher) getInt(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.IntPrefParams](c)
	if err != nil {
		return nil, err
	}
	return d.prefs.GetInt(p.Key, p.Default), nil
}

func (d *Dispatcher) removePref(_ context.Context, c *call) (any, error) {
	p, err := params[protocol.KeyParams](c)
	if err != nil {
		return nil, err
	}
	return true, d.prefs.Remove(p.Key)
}

func (d *Dispatcher) clearPrefs(context.Context, *call) (any, error) {
	return true, d.prefs.Clear()
}

func (d *Dispatcher) aiStatus(ctx context.Context, _ *call) (any, error) {
	return d.svc.Status(ctx), nil
}

// ============================================================
// Model handlers
// ============================================================

func (d *Dispatcher) availableModels(ctx context.Context, _ *call) (any, error) {
	return d.svc.Models().ListModels(ctx), nil
}

// downloadModel emits integer percent progress and a final complete event
// that is true only when the download reached 1.
func (d *Dispatcher) downloadModel(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.ModelParams](c)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ModelID) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "modelId is required")
	}

	last := 0.0
	for f := range d.svc.Models().Download(ctx, p.ModelID) {
		last = f
		c.progress(int(math.Round(f * 100)))
	}
	ok := last >= 1 && ctx.Err() == nil
	c.complete(ok)
	if !ok {
		return nil, errors.New(errors.CodeDownloadFailed, "download did not complete: "+p.ModelID, errors.CategoryTemporary)
	}
	return nil, nil
}

func (d *Dispatcher) loadModel(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.ModelParams](c)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ModelID) == "" {
		return nil, errors.User(errors.CodeInvalidInput, "modelId is required")
	}
	return d.svc.Models().Load(ctx, p.ModelID), nil
}

func (d *Dispatcher) unloadModel(ctx context.Context, _ *call) (any, error) {
	return d.svc.Models().Unload(ctx), nil
}

func (d *Dispatcher) isModelLoaded(context.Context, *call) (any, error) {
	return d.svc.Models().IsModelLoaded(), nil
}

func (d *Dispatcher) currentModel(ctx context.Context, _ *call) (any, error) {
	if m := d.svc.Models().CurrentModel(ctx); m != nil {
		return m, nil
	}
	return nil, nil
}

// ============================================================
// Generation handlers
// ============================================================

func (d *Dispatcher) generateText(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.PromptParams](c)
	if err != nil {
		return nil, err
	}
	return d.svc.Models().GenerateText(ctx, p.Prompt), nil
}

func (d *Dispatcher) chat(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.ChatParams](c)
	if err != nil {
		return nil, err
	}
	return d.svc.Models().GenerateText(ctx, p.Message), nil
}

// generateStream emits tokens and then complete. Engine failures arrive as
// an "Error:" token and still complete with true.
func (d *Dispatcher) generateStream(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.PromptParams](c)
	if err != nil {
		return nil, err
	}
	err = d.svc.Models().GenerateStream(ctx, p.Prompt, func(tok string) error {
		c.token(tok)
		return nil
	})
	c.complete(err == nil)
	return nil, err
}

// ============================================================
// Content handlers
// ============================================================

func (d *Dispatcher) extractWebsite(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.URLParams](c)
	if err != nil {
		return nil, err
	}
	page, err := d.svc.Web().Extract(ctx, p.URL)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"url":      page.URL,
		"title":    page.Title,
		"text":     page.Text,
		"markdown": page.Markdown,
		"length":   page.Length,
	}, nil
}

func (d *Dispatcher) extractFile(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.FileParams](c)
	if err != nil {
		return nil, err
	}
	doc, err := d.svc.Files().Extract(ctx, p.FileURI)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"fileUri": p.FileURI,
		"name":    doc.Name,
		"kind":    doc.Kind,
		"title":   doc.Title,
		"text":    doc.Text,
		"pages":   doc.Pages,
		"length":  doc.Length,
	}, nil
}

// ============================================================
// Workflow handlers
// ============================================================

func textPayload(res *course.TextResult, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "text": res.Text, "source": res.Source}, nil
}

func (d *Dispatcher) generateCourse(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.CourseParams](c)
	if err != nil {
		return nil, err
	}
	out, err := d.svc.GenerateCourse(ctx, course.CourseInput{
		Title:         p.CourseTitle,
		Difficulty:    p.Difficulty,
		Audience:      p.Audience,
		Prerequisites: p.Prerequisites,
		URL:           p.URL,
		ExtractedText: p.ExtractedText,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "course": out, "source": out.Source}, nil
}

func (d *Dispatcher) generateLesson(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.LessonParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.GenerateLesson(ctx, course.LessonInput{
		Title:         p.LessonTitle,
		Description:   p.LessonDescription,
		CourseContext: p.CourseContext,
	}))
}

func (d *Dispatcher) translate(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.TranslateParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.Translate(ctx, p.Text, p.TargetLanguage, ""))
}

func (d *Dispatcher) summarize(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.SummarizeParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.Summarize(ctx, p.Text, p.MaxLength))
}

func (d *Dispatcher) quiz(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.QuizParams](c)
	if err != nil {
		return nil, err
	}
	q, err := d.svc.Quiz(ctx, course.QuizInput{
		Content:      p.LessonContent,
		NumQuestions: p.NumQuestions,
		Difficulty:   p.Difficulty,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "quiz": q, "source": q.Source}, nil
}

func (d *Dispatcher) chatWithAI(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.ChatWithAIParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.Chat(ctx, p.Question, p.Context, parseHistory(p.ConversationHistory)))
}

// parseHistory reads a JSON array of turns. Anything else is ignored.
func parseHistory(raw string) []prompt.Turn {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var turns []prompt.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil
	}
	return turns
}

func (d *Dispatcher) flashcards(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.FlashcardParams](c)
	if err != nil {
		return nil, err
	}
	set, err := d.svc.Flashcards(ctx, p.LessonContent, p.NumCards)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "cards": set.Cards, "source": set.Source}, nil
}

func (d *Dispatcher) simplify(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.SimplifyParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.Simplify(ctx, p.Concept, p.TargetAge))
}

func (d *Dispatcher) studyNotes(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.StudyNotesParams](c)
	if err != nil {
		return nil, err
	}
	return textPayload(d.svc.StudyNotes(ctx, p.LessonContent, p.Format))
}

// ============================================================
// Backend handlers
// ============================================================

func (d *Dispatcher) textToSpeech(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.SpeechParams](c)
	if err != nil {
		return nil, err
	}
	audio, err := d.svc.TextToSpeech(ctx, p.Text, p.Language)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "audioBase64": audio}, nil
}

func (d *Dispatcher) search(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.SearchParams](c)
	if err != nil {
		return nil, err
	}
	res, err := d.svc.Search(ctx, p.Query, p.NResults)
	if err != nil {
		return nil, err
	}
	return searchPayload(res), nil
}

func searchPayload(res *backend.SearchResult) map[string]any {
	return map[string]any{"success": true, "query": res.Query, "results": res.Results}
}

func (d *Dispatcher) exportCourse(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.ExportParams](c)
	if err != nil {
		return nil, err
	}
	if len(p.CourseData) == 0 {
		return nil, errors.User(errors.CodeInvalidInput, "courseData is required")
	}
	u, err := d.svc.Export(ctx, p.CourseData, p.Format)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "downloadUrl": u}, nil
}

func (d *Dispatcher) uploadContent(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.UploadParams](c)
	if err != nil {
		return nil, err
	}
	res, err := d.svc.Upload(ctx, p.FileURI, p.URL, p.Prompt)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":       true,
		"courseId":      res.CourseID,
		"extractedText": res.ExtractedText,
		"course":        res.Course,
	}, nil
}

func (d *Dispatcher) getCourse(ctx context.Context, c *call) (any, error) {
	p, err := params[protocol.CourseIDParams](c)
	if err != nil {
		return nil, err
	}
	out, err := d.svc.Course(ctx, p.CourseID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "courseId": p.CourseID, "course": out}, nil
}
