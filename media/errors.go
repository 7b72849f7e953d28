package media

import "errors"

var (
	// ErrSessionClosed is returned when media is pushed through a
	// session that has already been torn down.
	ErrSessionClosed = errors.New("media session is closed")

	// ErrParticipantExists is returned when a participant with the
	// same name is already part of the session.
	ErrParticipantExists = errors.New("participant is already in the call")
)
