package device

import (
	"errors"
	"sync"

	malgo "github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/media"
)

// ErrMicrophoneClosed is returned by ReadChunk after Close.
var ErrMicrophoneClosed = errors.New("microphone is closed")

// Microphone captures signed 16-bit mono PCM from the default capture
// device and serves it in fixed voice chunks. It implements
// media.AudioSource.
type Microphone struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device

	incoming chan []byte
	pending  []byte

	once sync.Once
	done chan struct{}
}

// OpenMicrophone starts capturing at the call sample rate.
func OpenMicrophone() (*Microphone, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logrus.WithField("source", "malgo").Debug(message)
	})
	if err != nil {
		return nil, err
	}

	m := &Microphone{
		ctx:      ctx,
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = media.SampleRate
	cfg.PeriodSizeInFrames = media.ChunkSamples

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if len(input) == 0 {
				return
			}
			captured := make([]byte, len(input))
			copy(captured, input)
			select {
			case m.incoming <- captured:
			default:
				// The voice loop fell behind; old audio is worthless.
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

	m.dev = dev
	return m, nil
}

// ReadChunk blocks until a full voice chunk has been captured.
func (m *Microphone) ReadChunk() ([]byte, error) {
	for len(m.pending) < media.VoiceChunkLen {
		select {
		case captured := <-m.incoming:
			m.pending = append(m.pending, captured...)
		case <-m.done:
			return nil, ErrMicrophoneClosed
		}
	}

	chunk := make([]byte, media.VoiceChunkLen)
	copy(chunk, m.pending)
	m.pending = m.pending[media.VoiceChunkLen:]
	return chunk, nil
}

// Close stops capturing and releases the device.
func (m *Microphone) Close() error {
	m.once.Do(func() {
		close(m.done)
		_ = m.dev.Stop()
		m.dev.Uninit()
		m.ctx.Uninit()
		m.ctx.Free()
	})
	return nil
}
