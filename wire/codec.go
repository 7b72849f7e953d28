package wire

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// LengthPrefixSize is the width of the ASCII decimal frame length.
	LengthPrefixSize = 10

	// TailSize is the number of trailing payload bytes that are sealed
	// on the framed transport. Everything before the tail is sent in
	// the clear, which keeps large picture payloads cheap.
	TailSize = 2048

	// MaxFrameSize bounds the declared frame length to protect the
	// receiver from hostile prefixes.
	MaxFrameSize = 64 * 1024 * 1024

	nonceSize = 24
)

// encryptionMarker separates the plaintext head from the sealed tail
// inside a frame body.
var encryptionMarker = []byte("&Encrypt&")

// sealedTailLen is the on-wire size of a sealed full-size tail.
const sealedTailLen = nonceSize + TailSize + secretbox.Overhead

// defaultKeyPhrase seeds the compiled-in transport key. Both sides of
// every connection must derive the same key.
const defaultKeyPhrase = "voicelink transport key v1"

// Codec frames, seals, and opens messages on behalf of one process.
// It is stateless apart from the key and safe for concurrent use.
type Codec struct {
	key [32]byte
}

// NewCodec returns a codec using the compiled-in transport key.
func NewCodec() *Codec {
	return NewCodecWithKey(sha256.Sum256([]byte(defaultKeyPhrase)))
}

// NewCodecWithKey returns a codec using the supplied symmetric key.
func NewCodecWithKey(key [32]byte) *Codec {
	return &Codec{key: key}
}

// Send writes one framed message to w. Any write error is returned to
// the caller, which treats it as endpoint disconnection.
func (c *Codec) Send(w io.Writer, payload []byte) error {
	body, err := c.sealBody(payload)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, LengthPrefixSize+len(body))
	frame = append(frame, lengthPrefix(len(body))...)
	frame = append(frame, body...)

	if _, err := w.Write(frame); err != nil {
		return err
	}
	return nil
}

// Receive reads exactly one framed message from r, looping until the
// declared byte count has been fully read. Partial reads are expected
// on streaming sockets.
func (c *Codec) Receive(r io.Reader) ([]byte, error) {
	prefix := make([]byte, LengthPrefixSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}

	length, err := strconv.Atoi(string(prefix))
	if err != nil || length < 0 {
		return nil, ErrBadLengthPrefix
	}
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	payload, err := c.openBody(body)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Receive",
			"frame_size": length,
		}).Warn("Dropping undecryptable frame")
		return nil, err
	}
	return payload, nil
}

// SealPacket seals an entire datagram payload. Media packets are small
// and bounded, so unlike the framed transport no plaintext head is
// kept.
func (c *Codec) SealPacket(payload []byte) ([]byte, error) {
	return c.seal(payload)
}

// OpenPacket opens a datagram sealed by SealPacket.
func (c *Codec) OpenPacket(packet []byte) ([]byte, error) {
	return c.open(packet)
}

// sealBody builds a frame body from a payload: plaintext head, marker,
// sealed tail. Payloads within TailSize are sealed whole.
func (c *Codec) sealBody(payload []byte) ([]byte, error) {
	split := 0
	if len(payload) > TailSize {
		split = len(payload) - TailSize
	}

	sealed, err := c.seal(payload[split:])
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, split+len(encryptionMarker)+len(sealed))
	body = append(body, payload[:split]...)
	body = append(body, encryptionMarker...)
	body = append(body, sealed...)
	return body, nil
}

// openBody reverses sealBody. The marker position is fully determined
// by the body length: a full-size sealed tail always occupies the last
// sealedTailLen bytes, and anything shorter is a whole-sealed payload.
func (c *Codec) openBody(body []byte) ([]byte, error) {
	markerLen := len(encryptionMarker)
	if len(body) < markerLen+nonceSize+secretbox.Overhead {
		return nil, ErrCorruptFrame
	}

	if len(body) <= markerLen+sealedTailLen {
		if !bytes.HasPrefix(body, encryptionMarker) {
			return nil, ErrCorruptFrame
		}
		return c.open(body[markerLen:])
	}

	split := len(body) - sealedTailLen - markerLen
	if !bytes.Equal(body[split:split+markerLen], encryptionMarker) {
		return nil, ErrCorruptFrame
	}

	tail, err := c.open(body[split+markerLen:])
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, split+len(tail))
	payload = append(payload, body[:split]...)
	payload = append(payload, tail...)
	return payload, nil
}

// seal encrypts data with a fresh random nonce, prepending the nonce
// to the box.
func (c *Codec) seal(data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, nonceSize, nonceSize+len(data)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, data, &nonce, &c.key), nil
}

// open authenticates and decrypts a nonce-prefixed box.
func (c *Codec) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrPacketTooShort
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	data, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, ErrCorruptFrame
	}
	return data, nil
}

// lengthPrefix renders n as a zero-padded 10-digit ASCII decimal.
func lengthPrefix(n int) []byte {
	return []byte(fmt.Sprintf("%010d", n))
}
