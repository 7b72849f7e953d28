// Package server implements the VoiceLink signaling server: the
// rendezvous point that authenticates clients, walks them through the
// call signaling state machine, allocates the UDP port pairs their
// media sessions bind, and relays chat and in-call notifications.
//
// The server never touches media. Once a call is established the
// participants stream voice, camera, and screen data directly to each
// other; the server's involvement ends at handing out peer descriptors.
//
// Concurrency model: one reader goroutine per connection decodes
// frames and forwards them into a single event channel. One dispatch
// goroutine consumes that channel and owns all signaling state, so the
// state machine itself runs lock-free and every message is processed
// in a total order.
package server
