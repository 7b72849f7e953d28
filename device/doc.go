// Package device binds VoiceLink's media session to real audio
// hardware through malgo. The Microphone feeds the session's outgoing
// voice and each Speaker plays one participant's incoming stream.
package device
