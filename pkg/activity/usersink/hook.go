// Package usersink forwards activity events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-seqtree/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel is recorded for events that carry none.
	Channel string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identifiers that are not UUIDs are recorded as uuid.Nil. Sequence events
// also carry derived ratios next to their run counters.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	channel := event.Channel
	if channel == "" {
		channel = strings.TrimSpace(h.Channel)
	}
	data := event.Metadata
	if event.ObjectType == activity.ObjectTypeSequence {
		data = sequenceData(event.ObjectID, data)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    channel,
		Data:       data,
		OccurredAt: occurredAt,
	})
}

// sequenceData adds the run id plus the compression ratio (compressed nodes
// per tree node) and the accepted ratio (built steps per input step) when the
// counters allow it.
func sequenceData(runID string, metadata map[string]any) map[string]any {
	data := make(map[string]any, len(metadata)+3)
	for key, value := range metadata {
		data[key] = value
	}
	data["run_id"] = runID

	if nodes, ok := count(data["nodes"]); ok && nodes > 0 {
		if compressed, ok := count(data["compressed_nodes"]); ok {
			data["compression_ratio"] = float64(compressed) / float64(nodes)
		}
	}
	steps, okSteps := count(data["steps"])
	dropped, okDropped := count(data["dropped"])
	if okSteps && okDropped && steps+dropped > 0 {
		data["accepted_ratio"] = float64(steps) / float64(steps+dropped)
	}
	return data
}

// count reads a counter that may have been round-tripped through JSON.
func count(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	}
	return 0, false
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
