// Package wire implements the framed message transport shared by the
// VoiceLink server and clients.
//
// Every signaling message travels over a stream socket as a frame: a
// 10-digit zero-padded ASCII decimal length prefix followed by exactly
// that many bytes of payload. To bound encryption cost on large
// payloads (profile pictures, chat images) only the last TailSize
// bytes of a payload are sealed; the plaintext head, a sentinel
// marker, and the sealed tail are concatenated into the frame body.
// Payloads no longer than TailSize are sealed whole.
//
// Media datagrams use SealPacket/OpenPacket instead, which seal the
// entire payload. Both paths use NaCl secretbox with a random
// per-message nonce under a shared symmetric key.
//
// Example:
//
//	codec := wire.NewCodec()
//	if err := codec.Send(conn, payload); err != nil {
//	    // treat as endpoint disconnection
//	}
package wire
