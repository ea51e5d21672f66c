package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the fountain fetch failed and no snapshot exists.
	ErrDataUnavailable = errors.New("fountain data unavailable")

	// ErrLocationUnavailable is matched by every *LocationError.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrInvalidVoteType rejects votes outside VoteTypes.
	ErrInvalidVoteType = errors.New("invalid vote type")

	// ErrNoRoute is returned by routing providers that answered without a route candidate.
	ErrNoRoute = errors.New("no route found")

	// ErrSnapshotMissing means nothing has been written to the snapshot store yet.
	ErrSnapshotMissing = errors.New("fountain snapshot missing")
)

// LocationCause classifies why a position could not be obtained.
type LocationCause string

const (
	CausePermissionDenied    LocationCause = "permission_denied"
	CausePositionUnavailable LocationCause = "position_unavailable"
	CauseTimeout             LocationCause = "timeout"
)

// LocationError is returned by location providers.
type LocationError struct {
	Cause LocationCause
	Err   error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location unavailable (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("location unavailable (%s)", e.Cause)
}

func (e *LocationError) Unwrap() error { return e.Err }

func (e *LocationError) Is(target error) bool { return target == ErrLocationUnavailable }

// Message returns a user-facing description of the failure.
func (e *LocationError) Message() string {
	switch e.Cause {
	case CausePermissionDenied:
		return "Location access denied. Please enable location services."
	case CausePositionUnavailable:
		return "Location information unavailable."
	case CauseTimeout:
		return "Location request timed out."
	}
	return "Unable to get your location"
}
