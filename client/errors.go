package client

import "errors"

// Sentinel errors for client operations.
var (
	// ErrGroupNotFound indicates an operation naming a call group the
	// client does not have.
	ErrGroupNotFound = errors.New("call group not found")

	// ErrNotInGroup indicates a join grant for a user who is not a
	// member of the group.
	ErrNotInGroup = errors.New("user is not a group member")

	// ErrNotLoggedIn indicates an operation that requires an
	// authenticated session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotInCall indicates a call-only operation while no media
	// session is active.
	ErrNotInCall = errors.New("not in a call")

	// ErrLoginFailed wraps the server's reason for refusing a login.
	ErrLoginFailed = errors.New("login failed")

	// ErrRegisterFailed wraps the server's reason for refusing a
	// registration.
	ErrRegisterFailed = errors.New("registration failed")
)
