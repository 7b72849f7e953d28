package wire

import "errors"

// Sentinel errors for wire operations. A socket error returned from
// Send or Receive is passed through untouched so callers can treat it
// as endpoint disconnection; the sentinels below mark framing faults,
// which are fatal for the connection that produced them.
var (
	// ErrCorruptFrame indicates a frame whose body could not be
	// located, opened, or authenticated.
	ErrCorruptFrame = errors.New("corrupt frame")

	// ErrFrameTooLarge indicates a declared frame length above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrBadLengthPrefix indicates a length prefix that is not a
	// 10-digit ASCII decimal number.
	ErrBadLengthPrefix = errors.New("malformed length prefix")

	// ErrPacketTooShort indicates a datagram shorter than a sealed
	// payload can be.
	ErrPacketTooShort = errors.New("packet too short")
)
