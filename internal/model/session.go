package model

import (
	"context"
	"strings"
	"sync"

	"github.com/mentora-ai/mentora/internal/errors"
)

// Session tracks the resident model. Load and unload are serialized; loading
// a different model unloads the current one first.
type Session struct {
	mu      sync.Mutex
	engine  Engine
	current string
}

// NewSession creates a session over engine.
func NewSession(engine Engine) *Session {
	return &Session{engine: engine}
}

// Load makes id the resident model. Loading the current model is a no-op.
func (s *Session) Load(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.User(errors.CodeInvalidInput, "model id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == id {
		return nil
	}
	if s.current != "" {
		if err := s.engine.Unload(ctx, s.current); err != nil {
			return err
		}
		s.current = ""
	}
	if err := s.engine.Load(ctx, id); err != nil {
		return err
	}
	s.current = id
	return nil
}

// Unload evicts the resident model. It succeeds when nothing is loaded.
func (s *Session) Unload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return nil
	}
	if err := s.engine.Unload(ctx, s.current); err != nil {
		return err
	}
	s.current = ""
	return nil
}

// Current returns the resident model id, or "".
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
