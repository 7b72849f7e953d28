package media

import "time"

// AudioSource supplies outgoing voice as raw signed 16-bit mono PCM.
// The device package provides a microphone-backed implementation.
type AudioSource interface {
	// ReadChunk blocks until one full chunk of samples is available.
	ReadChunk() ([]byte, error)
}

// AudioSink plays one participant's incoming voice. Each participant
// gets a sink of their own so streams never mix before playback.
type AudioSink interface {
	// Play queues one chunk of raw signed 16-bit mono PCM.
	Play(chunk []byte) error

	Close() error
}

// AudioSinkFactory opens a playback sink for a new participant.
type AudioSinkFactory func() (AudioSink, error)

// FrameSource supplies outgoing JPEG frames. Screen capture re-encodes
// each frame at the given quality; sources with a fixed encoding, like
// most cameras, ignore the hint.
type FrameSource interface {
	NextFrame(quality int) ([]byte, error)
}

// Monitor receives what the call surface needs to display. All methods
// are called from the session's receive goroutines and must not block.
type Monitor interface {
	// Speaking flags a participant as currently talking. Raised when
	// voice data arrives and lowered after a short quiet period.
	Speaking(name string, active bool)

	// CameraFrame delivers a participant's camera picture.
	CameraFrame(name string, frame []byte)

	// ScreenFrame delivers a participant's screen picture.
	ScreenFrame(name string, frame []byte)
}

// NopMonitor discards everything. Used when no frontend is attached.
type NopMonitor struct{}

func (NopMonitor) Speaking(string, bool)      {}
func (NopMonitor) CameraFrame(string, []byte) {}
func (NopMonitor) ScreenFrame(string, []byte) {}

// discardSink drops incoming voice. Used when no playback factory is
// configured, which keeps the receive side running for the speaking
// indicator.
type discardSink struct{}

func (discardSink) Play([]byte) error { return nil }
func (discardSink) Close() error      { return nil }

// silentSource blocks forever pacing out empty chunks far apart, so a
// session without a microphone still runs its voice loop harmlessly.
type silentSource struct{ chunk int }

func (s silentSource) ReadChunk() ([]byte, error) {
	time.Sleep(time.Second)
	return make([]byte, s.chunk), nil
}
