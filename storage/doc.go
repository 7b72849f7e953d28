// Package storage persists VoiceLink accounts: credentials, the
// symmetric contact graph, pending contact requests, and profile
// pictures.
//
// Store is the interface the server programs against; SQLiteStore is
// the shipped implementation, built on the pure-Go modernc.org/sqlite
// driver so the server binary needs no cgo. Passwords are stored as
// bcrypt hashes and never leave this package.
package storage
