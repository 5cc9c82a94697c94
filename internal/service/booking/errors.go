package booking

import "errors"

// Booking error taxonomy. Conflicts are client-correctable; everything
// else surfaces as an internal error.
var (
	// ErrNoTherapistAvailable means every candidate in the pool was busy
	// for the requested window.
	ErrNoTherapistAvailable = errors.New("no therapist available for the requested time")

	// ErrAssignedTherapistUnavailable means the user's sticky therapist is
	// busy; the caller should retry another window or contact support.
	ErrAssignedTherapistUnavailable = errors.New("assigned therapist is unavailable for the requested time")

	// ErrInvalidWindow means the requested time window is malformed.
	ErrInvalidWindow = errors.New("booking window end must be after start")
)
