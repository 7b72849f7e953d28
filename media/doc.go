// Package media implements the peer-to-peer side of a VoiceLink call:
// voice, camera, and screen data exchanged directly between
// participants over UDP, outside the signaling connection.
//
// A Session owns one running call. It broadcasts the local user's
// media to every participant and runs receive loops for each of them.
// Each participant occupies three local UDP ports assigned by the
// signaling server, one per media type; the ports are handed back to
// the caller when a participant leaves so the client can return them
// to the server.
//
// Voice is raw signed 16-bit mono PCM in fixed chunks, gated by
// volume so silence is never sent. Camera and screen frames are JPEG
// images kept under the maximum datagram size; screen sharing adapts
// its JPEG quality to stay there. Every datagram is sealed with the
// shared transport key before it leaves the machine.
package media
