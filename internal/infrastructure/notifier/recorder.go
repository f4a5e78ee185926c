package notifier

import (
	"context"
	"sync"

	"github.com/leaguehq/auction-engine/internal/domain/event"
)

// Recorder is an in-memory publisher for tests.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// ByKind filters recorded events by kind.
func (r *Recorder) ByKind(kind event.Kind) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []event.Event
	for _, e := range r.events {
		if e.EventKind() == kind {
			out = append(out, e)
		}
	}
	return out
}
