// Package api serves the web app and the bridge over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentora-ai/mentora/internal/bridge"
	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

// maxRequestBody bounds a single bridge request.
const maxRequestBody = protocol.MaxFrameSize

var errClientGone = errors.New(errors.CodeBridgeClosed, "bridge client disconnected", errors.CategoryPermanent)

// Server is the local HTTP server of the host.
type Server struct {
	disp *bridge.Dispatcher
	svc  *course.Service
	app  config.AppConfig
	log  *slog.Logger
}

// NewServer creates a server dispatching bridge calls to disp.
func NewServer(disp *bridge.Dispatcher, svc *course.Service, app config.AppConfig, logger *slog.Logger) *Server {
	return &Server{
		disp: disp,
		svc:  svc,
		app:  app,
		log:  logging.Component(logger, "api"),
	}
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/status", s.handleStatus)
	r.Post("/bridge", s.handleBridge)

	if dir := s.webDir(); dir != "" {
		entry := filepath.Join(dir, s.app.EntryPoint)
		fileServer := http.FileServer(http.Dir(dir))
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, entry)
		})
		r.Get("/*", fileServer.ServeHTTP)
	} else {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			writeError(w, http.StatusNotFound, "web app not installed")
		})
	}

	return r
}

// webDir returns the configured web directory when it holds the entry point.
func (s *Server) webDir() string {
	if s.app.WebDir == "" {
		return ""
	}
	if _, err := os.Stat(filepath.Join(s.app.WebDir, s.app.EntryPoint)); err != nil {
		s.log.Warn("web app entry point missing", "dir", s.app.WebDir, "entry", s.app.EntryPoint)
		return ""
	}
	return s.app.WebDir
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status(req.Context()))
}

// handleBridge runs one bridge call and streams its events as NDJSON until
// the final event. Disconnecting the client cancels the call.
func (s *Server) handleBridge(w http.ResponseWriter, req *http.Request) {
	var call protocol.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBody))
	if err := dec.Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid bridge request: "+err.Error())
		return
	}

	sink := newStreamSink(req.Context().Done())
	start := time.Now()
	s.disp.Dispatch(req.Context(), &call, sink)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for {
		select {
		case ev := <-sink.events:
			if err := enc.Encode(ev); err != nil {
				s.log.Warn("bridge stream write failed", "method", call.Method, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			if ev.Kind.Final() {
				s.log.Debug("bridge call served", "method", call.Method, "duration", time.Since(start))
				return
			}
		case <-req.Context().Done():
			s.log.Debug("bridge client went away", "method", call.Method)
			return
		}
	}
}

// streamSink hands events to the HTTP handler. Events arriving after the
// handler returned are dropped.
type streamSink struct {
	events chan protocol.Event
	done   <-chan struct{}
}

func newStreamSink(done <-chan struct{}) *streamSink {
	return &streamSink{events: make(chan protocol.Event, 64), done: done}
}

func (s *streamSink) Emit(ev protocol.Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return errClientGone
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers so a dev server can reach the bridge.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
