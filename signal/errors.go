package signal

import "errors"

// Sentinel errors for envelope encoding and decoding. Any of these on
// a received frame is a protocol violation and fatal for the
// connection that produced it.
var (
	// ErrUnknownKind indicates an envelope whose kind has no
	// registered message type.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrBadEnvelope indicates bytes that do not decode as an
	// envelope or whose payload does not decode as the named kind.
	ErrBadEnvelope = errors.New("malformed envelope")

	// ErrVersionMismatch indicates an envelope from a peer speaking a
	// different protocol version.
	ErrVersionMismatch = errors.New("protocol version mismatch")
)
