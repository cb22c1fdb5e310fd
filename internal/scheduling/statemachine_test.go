package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		changed  bool
		wantErr  bool
	}{
		{StatusScheduled, StatusConfirmed, true, false},
		{StatusScheduled, StatusCancelled, true, false},
		{StatusConfirmed, StatusCompleted, true, false},
		{StatusConfirmed, StatusCancelled, true, false},

		// Idempotent retries.
		{StatusConfirmed, StatusConfirmed, false, false},
		{StatusCompleted, StatusCompleted, false, false},
		{StatusCancelled, StatusCancelled, false, false},

		// Not reachable.
		{StatusScheduled, StatusCompleted, false, true},
		{StatusConfirmed, StatusScheduled, false, true},

		// Terminal states stay terminal.
		{StatusCompleted, StatusCancelled, false, true},
		{StatusCompleted, StatusScheduled, false, true},
		{StatusCancelled, StatusConfirmed, false, true},
		{StatusCancelled, StatusScheduled, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			changed, err := Transition(tt.from, tt.to)
			if tt.wantErr {
				var invalid *InvalidTransitionError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.from, invalid.From)
				assert.Equal(t, tt.to, invalid.To)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(StatusScheduled))
	assert.False(t, IsTerminal(StatusConfirmed))
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))
}
