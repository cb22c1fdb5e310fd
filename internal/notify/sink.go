package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes a scheduling decision that already happened. Sinks deliver
// it best-effort; a sink failure must never roll back the decision.
type Event struct {
	Type       string         `json:"type"`
	SubjectID  uuid.UUID      `json:"subject_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Sink receives events after a scheduling operation commits.
type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// NopSink discards every event. Used when no delivery channel is configured.
type NopSink struct{}

func (NopSink) Notify(ctx context.Context, ev Event) error {
	return nil
}
