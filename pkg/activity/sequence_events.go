package activity

import (
	"strings"
	"time"
)

const (
	// VerbSequenceReconstructed is emitted after a sequence is built and compressed.
	VerbSequenceReconstructed = "sequence.reconstructed"
	// ObjectTypeSequence identifies reconstruction runs.
	ObjectTypeSequence = "sequence"
)

// SequenceEventInput describes a completed reconstruction.
type SequenceEventInput struct {
	ActorID  string
	UserID   string
	TenantID string
	Channel  string
	// RunID identifies the reconstruction and becomes the event's object id.
	RunID           string
	Steps           int
	Dropped         int
	Nodes           int
	CompressedNodes int
	Filter          string
	Metadata        map[string]any
	OccurredAt      time.Time
}

// BuildSequenceReconstructedEvent constructs an activity event for one
// reconstruction run.
func BuildSequenceReconstructedEvent(input SequenceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["steps"] = input.Steps
	metadata["dropped"] = input.Dropped
	metadata["nodes"] = input.Nodes
	metadata["compressed_nodes"] = input.CompressedNodes
	if input.Filter != "" {
		metadata["filter"] = input.Filter
	}

	objectID := strings.TrimSpace(input.RunID)
	if objectID == "" {
		objectID = ObjectTypeSequence
	}

	return Event{
		Verb:       VerbSequenceReconstructed,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeSequence,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
