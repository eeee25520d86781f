package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives, normalized. Tests use it to
// assert what a reconstruction reported.
type CaptureHook struct {
	Events []Event
	// Err is returned from every Notify call once set.
	Err error
	mu  sync.Mutex
}

// Notify records the event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Last returns the most recent event.
func (h *CaptureHook) Last() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Events) == 0 {
		return Event{}, false
	}
	return h.Events[len(h.Events)-1], true
}

// RunIDs returns the object ids of captured sequence events, oldest first.
func (h *CaptureHook) RunIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []string
	for _, event := range h.Events {
		if event.ObjectType == ObjectTypeSequence {
			ids = append(ids, event.ObjectID)
		}
	}
	return ids
}
