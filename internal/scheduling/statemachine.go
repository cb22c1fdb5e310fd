package scheduling

// Allowed appointment lifecycle:
//
//	scheduled -> confirmed -> completed
//	scheduled -> cancelled
//	confirmed -> cancelled
//
// completed and cancelled are terminal. Re-applying the current status is a
// no-op success so retried client requests do not error.

var allowedTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	StatusScheduled: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsTerminal reports whether no further transitions are permitted from s.
func IsTerminal(s AppointmentStatus) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transition validates a status change. It returns (false, nil) when from and
// to are equal (idempotent retry), (true, nil) when the change is allowed, and
// an *InvalidTransitionError otherwise.
func Transition(from, to AppointmentStatus) (bool, error) {
	if from == to {
		return false, nil
	}
	if allowedTransitions[from][to] {
		return true, nil
	}
	return false, &InvalidTransitionError{From: from, To: to}
}
