package storage

import "errors"

// Sentinel errors for account operations.
var (
	// ErrAccountExists indicates a registration under a taken name.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials indicates a login with a wrong name or
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidUserInfo indicates a name or password that fails
	// validation.
	ErrInvalidUserInfo = errors.New("invalid username or password format")

	// ErrUnknownUser indicates an operation on a name with no account.
	ErrUnknownUser = errors.New("unknown user")
)
