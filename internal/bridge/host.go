// Package bridge connects the embedded web app to native capabilities and
// the AI workflows. A Host owns the lifetime of one hosting view: its
// background work and its UI loop. A Dispatcher maps protocol requests to
// handlers and delivers their events through the Host.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mentora-ai/mentora/internal/logging"
)

const uiQueueSize = 256

// Host runs background work bound to one view and serializes UI work on a
// single loop goroutine.
type Host struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	mu       sync.Mutex
	stopping bool
	closed   bool
	work     sync.WaitGroup

	ui     chan func()
	uiDone chan struct{}
	once   sync.Once
}

// NewHost starts a host whose work is canceled when parent ends or Close
// is called.
func NewHost(parent context.Context, logger *slog.Logger) *Host {
	ctx, cancel := context.WithCancel(parent)
	h := &Host{
		ctx:    ctx,
		cancel: cancel,
		log:    logging.Component(logger, "bridge"),
		ui:     make(chan func(), uiQueueSize),
		uiDone: make(chan struct{}),
	}
	go h.loop()
	return h
}

// Context is canceled when the host closes.
func (h *Host) Context() context.Context { return h.ctx }

func (h *Host) loop() {
	defer close(h.uiDone)
	for fn := range h.ui {
		h.runUI(fn)
	}
}

func (h *Host) runUI(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic on UI loop", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post queues fn on the UI loop. It reports false once the host is closed.
func (h *Host) Post(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.ui <- fn
	return true
}

// Go runs fn in the background with the host context. It reports false
// when the host is closing.
func (h *Host) Go(fn func(ctx context.Context)) bool {
	h.mu.Lock()
	if h.stopping {
		h.mu.Unlock()
		return false
	}
	h.work.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.work.Done()
		defer func() {
			if r := recover(); r != nil {
				h.log.Error("panic in background work", "panic", fmt.Sprint(r))
			}
		}()
		fn(h.ctx)
	}()
	return true
}

// Close cancels background work, waits for it, then drains and stops the
// UI loop. Work may still post to the UI loop while it winds down.
func (h *Host) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopping = true
		h.mu.Unlock()

		h.cancel()
		h.work.Wait()

		h.mu.Lock()
		h.closed = true
		close(h.ui)
		h.mu.Unlock()

		<-h.uiDone
		h.log.Debug("host closed")
	})
}
