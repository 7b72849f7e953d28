package device

import (
	"sync"

	malgo "github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/media"
)

// Speaker plays one participant's voice stream on the default playback
// device. It implements media.AudioSink; the session opens one per
// participant so streams mix in hardware rather than in software.
type Speaker struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device

	mu      sync.Mutex
	pending []byte

	once sync.Once
}

// NewSpeakerSink is a media.AudioSinkFactory backed by OpenSpeaker.
func NewSpeakerSink() (media.AudioSink, error) {
	return OpenSpeaker()
}

// OpenSpeaker starts a playback device at the call sample rate.
func OpenSpeaker() (*Speaker, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logrus.WithField("source", "malgo").Debug(message)
	})
	if err != nil {
		return nil, err
	}

	s := &Speaker{ctx: ctx}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = media.SampleRate
	cfg.PeriodSizeInFrames = media.ChunkSamples

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, _ uint32) {
			s.mu.Lock()
			n := copy(output, s.pending)
			s.pending = s.pending[n:]
			s.mu.Unlock()
			for i := n; i < len(output); i++ {
				output[i] = 0
			}
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, err
	}

	s.dev = dev
	return s, nil
}

// Play queues one chunk of raw signed 16-bit mono PCM for playback.
func (s *Speaker) Play(chunk []byte) error {
	s.mu.Lock()
	s.pending = append(s.pending, chunk...)
	s.mu.Unlock()
	return nil
}

// Close stops playback and releases the device.
func (s *Speaker) Close() error {
	s.once.Do(func() {
		_ = s.dev.Stop()
		s.dev.Uninit()
		s.ctx.Uninit()
		s.ctx.Free()
	})
	return nil
}
