package server

import "errors"

// Sentinel errors for signaling state machine violations.
var (
	// ErrNotConnected indicates an operation naming a user with no
	// active authenticated connection.
	ErrNotConnected = errors.New("user is not connected")

	// ErrAlreadyBeingCalled indicates a call request for a user who
	// is already being rung.
	ErrAlreadyBeingCalled = errors.New("user is already being called")

	// ErrNotBeingCalled indicates a call response from or about a
	// user who is not being rung.
	ErrNotBeingCalled = errors.New("user is not being called")

	// ErrNotActualCaller indicates a caller-only operation attempted
	// by a user who did not start the ring.
	ErrNotActualCaller = errors.New("user is not the actual caller")

	// ErrNotHost indicates a host-only operation attempted by a user
	// who is not the group's host.
	ErrNotHost = errors.New("user is not the call host")

	// ErrInvalidTarget indicates a call request that cannot succeed,
	// such as calling a user who is already a participant.
	ErrInvalidTarget = errors.New("invalid call target")

	// ErrProtocolViolation indicates a message that is never valid in
	// the connection's current state.
	ErrProtocolViolation = errors.New("protocol violation")
)
