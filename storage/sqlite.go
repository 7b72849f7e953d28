package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // pure-Go driver, registers as "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	name          TEXT PRIMARY KEY,
	password_hash BLOB NOT NULL,
	picture       BLOB
);

CREATE TABLE IF NOT EXISTS contacts (
	user_name    TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
	contact_name TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
	PRIMARY KEY (user_name, contact_name)
);

CREATE TABLE IF NOT EXISTS pending_contacts (
	user_name      TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
	requester_name TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
	PRIMARY KEY (user_name, requester_name)
);
`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database at path and
// applies the schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSQLite",
		"path":     path,
	}).Info("User store opened")

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAccount registers a new user with a bcrypt password hash.
func (s *SQLiteStore) CreateAccount(ctx context.Context, name, password string) error {
	if !ValidCredential(name) || !ValidCredential(password) {
		return ErrInvalidUserInfo
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash) VALUES (?, ?)`, name, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("creating account: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "CreateAccount",
		"user":     name,
	}).Info("Account created")
	return nil
}

// VerifyCredentials checks name and password against the stored hash.
func (s *SQLiteStore) VerifyCredentials(ctx context.Context, name, password string) error {
	var hash []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE name = ?`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Exists reports whether an account with the given name exists.
func (s *SQLiteStore) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return true, nil
}

// Contacts lists the confirmed contacts of a user.
func (s *SQLiteStore) Contacts(ctx context.Context, name string) ([]string, error) {
	return s.listNames(ctx,
		`SELECT contact_name FROM contacts WHERE user_name = ? ORDER BY contact_name`, name)
}

// PendingContacts lists unanswered contact requesters for a user.
func (s *SQLiteStore) PendingContacts(ctx context.Context, name string) ([]string, error) {
	return s.listNames(ctx,
		`SELECT requester_name FROM pending_contacts WHERE user_name = ? ORDER BY requester_name`, name)
}

// AddPendingContact records that requester asked to contact name.
// Repeating an existing request is a no-op.
func (s *SQLiteStore) AddPendingContact(ctx context.Context, name, requester string) error {
	if err := s.requireUsers(ctx, name, requester); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pending_contacts (user_name, requester_name) VALUES (?, ?)`,
		name, requester)
	if err != nil {
		return fmt.Errorf("adding pending contact: %w", err)
	}
	return nil
}

// RemovePendingContact discards a pending request.
func (s *SQLiteStore) RemovePendingContact(ctx context.Context, name, requester string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_contacts WHERE user_name = ? AND requester_name = ?`,
		name, requester)
	if err != nil {
		return fmt.Errorf("removing pending contact: %w", err)
	}
	return nil
}

// AddContact records the relation in both directions so each user
// lists the other.
func (s *SQLiteStore) AddContact(ctx context.Context, a, b string) error {
	if err := s.requireUsers(ctx, a, b); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO contacts (user_name, contact_name) VALUES (?, ?)`,
			pair[0], pair[1]); err != nil {
			return fmt.Errorf("adding contact: %w", err)
		}
	}
	return tx.Commit()
}

// RemoveContact removes the relation from both sides.
func (s *SQLiteStore) RemoveContact(ctx context.Context, a, b string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts
		 WHERE (user_name = ? AND contact_name = ?) OR (user_name = ? AND contact_name = ?)`,
		a, b, b, a)
	if err != nil {
		return fmt.Errorf("removing contact: %w", err)
	}
	return nil
}

// ProfilePicture returns the stored picture, nil if never set.
func (s *SQLiteStore) ProfilePicture(ctx context.Context, name string) ([]byte, error) {
	var picture []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT picture FROM users WHERE name = ?`, name).Scan(&picture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("reading picture: %w", err)
	}
	return picture, nil
}

// SetProfilePicture replaces the stored picture.
func (s *SQLiteStore) SetProfilePicture(ctx context.Context, name string, picture []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET picture = ? WHERE name = ?`, picture, name)
	if err != nil {
		return fmt.Errorf("storing picture: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUnknownUser
	}
	return nil
}

func (s *SQLiteStore) listNames(ctx context.Context, query, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// requireUsers verifies every listed account exists before a relation
// insert, since the relation tables only reference names.
func (s *SQLiteStore) requireUsers(ctx context.Context, names ...string) error {
	for _, name := range names {
		exists, err := s.Exists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrUnknownUser, name)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
