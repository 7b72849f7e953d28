package media

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/wire"
)

const (
	// Voice format: signed 16-bit mono at 44100 Hz in 1024-sample
	// chunks. Both ends of every call use the same format, so chunks
	// need no header.
	SampleRate    = 44100
	ChunkSamples  = 1024
	VoiceChunkLen = ChunkSamples * 2

	// FrameRate paces camera and screen capture.
	FrameRate = 24

	// minSpeakingDecibels gates outgoing voice. Quieter chunks are
	// dropped as background noise.
	minSpeakingDecibels = 40
)

// Config holds media session tunables and device hooks. Zero-value
// hooks are replaced with silent or discarding defaults, so a session
// can run headless.
type Config struct {
	// Audio supplies outgoing voice.
	Audio AudioSource

	// NewAudioSink opens playback for each new participant.
	NewAudioSink AudioSinkFactory

	// Camera and Screen supply outgoing JPEG frames.
	Camera FrameSource
	Screen FrameSource

	// Monitor receives incoming media and speaking indications.
	Monitor Monitor

	// ShareStateChanged is called when a new participant joins while
	// camera or screen sharing is active, so the owner can announce
	// the running share to just that participant over signaling.
	ShareStateChanged func(participant string, camera, screen bool)
}

// DefaultConfig returns a headless configuration: silence out, voice
// in discarded, no frames.
func DefaultConfig() Config {
	return Config{
		Audio:   silentSource{chunk: VoiceChunkLen},
		Monitor: NopMonitor{},
	}
}

// Session is one running call. It owns the media links to every
// participant and the loops that move data over them.
type Session struct {
	cfg   Config
	group string
	codec *wire.Codec

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.RWMutex
	participants map[string]*participant
	closed       bool

	sendingVoice  bool
	sendingCamera bool
	sendingScreen bool

	quality *qualityController
}

// NewSession opens a media session for the named call group and starts
// the send loops. The session has no participants yet.
func NewSession(cfg Config, groupName string) (*Session, error) {
	if cfg.Audio == nil {
		cfg.Audio = silentSource{chunk: VoiceChunkLen}
	}
	if cfg.Monitor == nil {
		cfg.Monitor = NopMonitor{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		group:        groupName,
		codec:        wire.NewCodec(),
		ctx:          ctx,
		cancel:       cancel,
		participants: make(map[string]*participant),
		sendingVoice: true,
		quality:      newQualityController(),
	}

	go s.voiceLoop()
	if cfg.Camera != nil {
		go s.frameLoop(cfg.Camera, s.cameraActive, (*participant).cameraLink)
	}
	if cfg.Screen != nil {
		go s.screenLoop()
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewSession",
		"group":    groupName,
	}).Info("Media session started")
	return s, nil
}

// GroupName returns the call group this session belongs to.
func (s *Session) GroupName() string {
	return s.group
}

// ParticipantNames lists the current peers.
func (s *Session) ParticipantNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.participants))
	for name := range s.participants {
		names = append(names, name)
	}
	return names
}

// AddParticipant opens media channels to one new peer and starts its
// receive loops.
func (s *Session) AddParticipant(peer signal.PeerDescriptor) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if _, ok := s.participants[peer.Name]; ok {
		s.mu.Unlock()
		return ErrParticipantExists
	}
	camera, screen := s.sendingCamera, s.sendingScreen
	s.mu.Unlock()

	sink, err := s.openSink()
	if err != nil {
		return err
	}
	p, err := newParticipant(peer, sink)
	if err != nil {
		sink.Close()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		p.close()
		return ErrSessionClosed
	}
	s.participants[peer.Name] = p
	s.mu.Unlock()

	go p.receiveVoice(s.codec, s.cfg.Monitor)
	go p.playVoice()
	go p.receiveFrames(p.camera, s.codec, s.cfg.Monitor.CameraFrame)
	go p.receiveFrames(p.screen, s.codec, s.cfg.Monitor.ScreenFrame)

	if (camera || screen) && s.cfg.ShareStateChanged != nil {
		s.cfg.ShareStateChanged(peer.Name, camera, screen)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "AddParticipant",
		"group":       s.group,
		"participant": peer.Name,
	}).Info("Participant joined media session")
	return nil
}

// RemoveParticipant closes the channels to one peer and returns the
// local UDP ports that are free again.
func (s *Session) RemoveParticipant(name string) []uint16 {
	s.mu.Lock()
	p, ok := s.participants[name]
	if ok {
		delete(s.participants, name)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	ports := p.ports()
	p.close()
	return ports
}

// Close tears the whole session down and returns every local UDP port
// that is free again.
func (s *Session) Close() []uint16 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	remaining := s.participants
	s.participants = make(map[string]*participant)
	s.mu.Unlock()

	s.cancel()
	var ports []uint16
	for _, p := range remaining {
		ports = append(ports, p.ports()...)
		p.close()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"group":    s.group,
	}).Info("Media session closed")
	return ports
}

// SetVoiceActive mutes or unmutes the microphone.
func (s *Session) SetVoiceActive(active bool) {
	s.mu.Lock()
	s.sendingVoice = active
	s.mu.Unlock()
}

// SetCameraActive starts or stops sending camera frames.
func (s *Session) SetCameraActive(active bool) {
	s.mu.Lock()
	s.sendingCamera = active
	s.mu.Unlock()
}

// SetScreenActive starts or stops sending screen frames.
func (s *Session) SetScreenActive(active bool) {
	s.mu.Lock()
	s.sendingScreen = active
	s.mu.Unlock()
}

func (s *Session) voiceActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendingVoice
}

func (s *Session) cameraActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendingCamera
}

func (s *Session) screenActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendingScreen
}

func (s *Session) openSink() (AudioSink, error) {
	if s.cfg.NewAudioSink == nil {
		return discardSink{}, nil
	}
	return s.cfg.NewAudioSink()
}

// voiceLoop reads microphone chunks and broadcasts the ones loud
// enough to be speech. The microphone read paces the loop.
func (s *Session) voiceLoop() {
	for s.ctx.Err() == nil {
		chunk, err := s.cfg.Audio.ReadChunk()
		if err != nil {
			logrus.WithError(err).Debug("Microphone read failed, voice loop stopping")
			return
		}
		if !s.voiceActive() {
			continue
		}
		if chunkDecibels(chunk) < minSpeakingDecibels {
			continue
		}
		s.broadcast(chunk, (*participant).voiceLink)
	}
}

// frameLoop captures and broadcasts fixed-quality frames at the frame
// rate, skipping any frame that will not fit in one datagram.
func (s *Session) frameLoop(source FrameSource, active func() bool, link func(*participant) *mediaLink) {
	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		if !active() {
			continue
		}

		frame, err := source.NextFrame(0)
		if err != nil {
			logrus.WithError(err).Debug("Frame capture failed")
			continue
		}
		if len(frame) > maxDatagramBytes {
			continue
		}
		s.broadcast(frame, link)
	}
}

// screenLoop captures and broadcasts screen frames, feeding each
// frame's size back into the quality controller so the next one aims
// under the datagram limit.
func (s *Session) screenLoop() {
	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.screenActive() {
			continue
		}

		frame, err := s.cfg.Screen.NextFrame(s.quality.Quality())
		if err != nil {
			logrus.WithError(err).Debug("Screen capture failed")
			continue
		}
		s.quality.Observe(len(frame))
		if len(frame) > maxDatagramBytes {
			continue
		}
		s.broadcast(frame, (*participant).screenLink)
	}
}

// broadcast seals a payload once and sends it to the chosen link of
// every participant.
func (s *Session) broadcast(payload []byte, link func(*participant) *mediaLink) {
	packet, err := s.codec.SealPacket(payload)
	if err != nil {
		logrus.WithError(err).Debug("Sealing media packet failed")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if err := link(p).send(packet); err != nil {
			logrus.WithError(err).WithField("participant", p.name).Debug("Sending media packet failed")
		}
	}
}

func (p *participant) voiceLink() *mediaLink  { return p.voice }
func (p *participant) cameraLink() *mediaLink { return p.camera }
func (p *participant) screenLink() *mediaLink { return p.screen }

// chunkDecibels measures a PCM chunk's loudness as 20*log10 of the RMS
// of its signed 16-bit samples. Silence measures zero.
func chunkDecibels(chunk []byte) float64 {
	samples := len(chunk) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(chunk[2*i:])))
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(samples))
	if rms <= 0 {
		return 0
	}
	return 20 * math.Log10(rms)
}
