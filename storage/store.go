package storage

import "context"

// Store is the account persistence interface the server depends on.
// All operations are safe for concurrent use.
type Store interface {
	// CreateAccount registers a new user. Returns ErrInvalidUserInfo
	// for malformed credentials and ErrAccountExists for a taken name.
	CreateAccount(ctx context.Context, name, password string) error

	// VerifyCredentials checks a login attempt. Returns
	// ErrInvalidCredentials when the name or password is wrong.
	VerifyCredentials(ctx context.Context, name, password string) error

	// Exists reports whether an account with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Contacts lists the confirmed contacts of a user.
	Contacts(ctx context.Context, name string) ([]string, error)

	// PendingContacts lists users who asked to be contacts of name
	// and have not been answered yet.
	PendingContacts(ctx context.Context, name string) ([]string, error)

	// AddPendingContact records that requester asked to contact name.
	AddPendingContact(ctx context.Context, name, requester string) error

	// RemovePendingContact discards a pending request, whether it was
	// accepted or rejected.
	RemovePendingContact(ctx context.Context, name, requester string) error

	// AddContact records a confirmed contact relation. The relation
	// is symmetric: both users see each other afterwards.
	AddContact(ctx context.Context, a, b string) error

	// RemoveContact removes a contact relation from both sides.
	RemoveContact(ctx context.Context, a, b string) error

	// ProfilePicture returns the stored picture bytes, nil when the
	// user has never set one.
	ProfilePicture(ctx context.Context, name string) ([]byte, error)

	// SetProfilePicture replaces the stored picture bytes.
	SetProfilePicture(ctx context.Context, name string, picture []byte) error

	// Close releases the underlying storage.
	Close() error
}

const (
	minCredentialLen = 3
	maxCredentialLen = 16
)

// ValidCredential reports whether s is acceptable as a username or
// password: 3 to 16 characters from [A-Za-z0-9_]. The same rule
// applies on registration for both fields.
func ValidCredential(s string) bool {
	if len(s) < minCredentialLen || len(s) > maxCredentialLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
