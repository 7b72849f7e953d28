// Package client implements the VoiceLink client session layer: the
// signaling connection to the server, the local view of call groups
// and contacts, and the lifecycle of the active media session.
//
// The package is UI-free. Everything a frontend needs to display is
// delivered through the Events interface supplied at construction;
// media capture and playback are behind the session factory. Tests
// and headless clients plug in their own implementations.
package client
