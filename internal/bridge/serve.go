package bridge

import (
	"context"
	"io"
	"sync"

	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

// FrameSink writes events as length-prefixed JSON frames. It is safe for
// concurrent use.
type FrameSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameSink returns a sink writing to w.
func NewFrameSink(w io.Writer) *FrameSink { return &FrameSink{w: w} }

// Emit writes ev as one frame.
func (s *FrameSink) Emit(ev protocol.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.WriteFrame(s.w, ev)
}

// Serve reads request frames from r and dispatches them, writing events to
// w. It returns nil when r ends between frames and stops reading once ctx
// is done. Malformed frames are answered with an error event.
func Serve(ctx context.Context, d *Dispatcher, r io.Reader, w io.Writer) error {
	sink := NewFrameSink(w)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var req protocol.Request
		err := protocol.ReadFrame(r, &req)
		switch {
		case err == nil:
			d.Dispatch(ctx, &req, sink)
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, protocol.ErrMalformed):
			d.log.Warn("undecodable request frame", "error", err)
			d.deliver(sink, protocol.Event{
				Kind:    protocol.KindError,
				Payload: failure(errors.Wrap(err, errors.CodeBridgeBadRequest, "malformed request", errors.CategoryUser)),
			})
		default:
			return errors.Wrap(err, errors.CodeBridgeBadRequest, "bridge stream failed", errors.CategoryPermanent)
		}
	}
}
