// Package signal defines the typed signaling message set exchanged
// between VoiceLink clients and the server.
//
// Every message is a concrete struct implementing Message, identified
// by a stable Kind discriminant. On the wire a message travels as a
// CBOR-encoded Envelope carrying a protocol version, the kind, and the
// message payload. Encode and Decode convert between Message values
// and envelope bytes; Decode rejects unknown kinds and version
// mismatches so a peer speaking a different protocol fails loudly
// instead of being half-understood.
//
// The message families mirror the protocol surface: connection
// lifecycle, call signaling, call groups, contacts, relayed chat, and
// relayed in-call notifications.
package signal
