package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// Locker serializes calendar mutations per therapist. Implementations must
// guarantee that at most one caller runs fn for a given therapist at a time,
// and should bound fn with a deadline so a stuck critical section cannot hold
// the calendar forever.
type Locker interface {
	WithTherapistLock(ctx context.Context, therapistID uuid.UUID, fn func(ctx context.Context) error) error
}
