package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "voicelink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAccountAndLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))

	assert.NoError(t, store.VerifyCredentials(ctx, "alice", "hunter_22"))
	assert.ErrorIs(t, store.VerifyCredentials(ctx, "alice", "wrong_pw"), ErrInvalidCredentials)
	assert.ErrorIs(t, store.VerifyCredentials(ctx, "nobody", "hunter_22"), ErrInvalidCredentials)
}

func TestCreateAccountDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))
	assert.ErrorIs(t, store.CreateAccount(ctx, "alice", "other_pw"), ErrAccountExists)
}

func TestCreateAccountValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"short name", "al", "hunter_22"},
		{"long name", "a_very_long_username", "hunter_22"},
		{"bad characters", "alice!", "hunter_22"},
		{"space in name", "al ice", "hunter_22"},
		{"short password", "alice", "pw"},
		{"bad password characters", "alice", "hunter 22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.CreateAccount(ctx, tt.user, tt.password), ErrInvalidUserInfo)
		})
	}
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))

	exists, err := store.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestContactSymmetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))
	require.NoError(t, store.CreateAccount(ctx, "bob", "hunter_22"))

	require.NoError(t, store.AddContact(ctx, "alice", "bob"))

	aliceContacts, err := store.Contacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, aliceContacts)

	bobContacts, err := store.Contacts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, bobContacts)

	require.NoError(t, store.RemoveContact(ctx, "bob", "alice"))

	aliceContacts, err = store.Contacts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceContacts)

	bobContacts, err = store.Contacts(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobContacts)
}

func TestAddContactUnknownUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))
	assert.ErrorIs(t, store.AddContact(ctx, "alice", "ghost"), ErrUnknownUser)
}

func TestPendingContactLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))
	require.NoError(t, store.CreateAccount(ctx, "bob", "hunter_22"))

	require.NoError(t, store.AddPendingContact(ctx, "alice", "bob"))
	// A repeated request must not error or duplicate.
	require.NoError(t, store.AddPendingContact(ctx, "alice", "bob"))

	pending, err := store.PendingContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, pending)

	require.NoError(t, store.RemovePendingContact(ctx, "alice", "bob"))

	pending, err = store.PendingContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProfilePicture(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "hunter_22"))

	pic, err := store.ProfilePicture(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, pic)

	want := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	require.NoError(t, store.SetProfilePicture(ctx, "alice", want))

	pic, err = store.ProfilePicture(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, want, pic)

	_, err = store.ProfilePicture(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.ErrorIs(t, store.SetProfilePicture(ctx, "ghost", want), ErrUnknownUser)
}

func TestValidCredential(t *testing.T) {
	assert.True(t, ValidCredential("abc"))
	assert.True(t, ValidCredential("User_123"))
	assert.True(t, ValidCredential("sixteen_chars_ab"))
	assert.False(t, ValidCredential("ab"))
	assert.False(t, ValidCredential("seventeen_chars_x"))
	assert.False(t, ValidCredential("bad-char"))
	assert.False(t, ValidCredential(""))
}
