package media

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/wire"
)

type collectingSink struct {
	mu     sync.Mutex
	chunks [][]byte
	played chan struct{}
}

func newCollectingSink() *collectingSink {
	return &collectingSink{played: make(chan struct{}, 64)}
}

func (s *collectingSink) Play(chunk []byte) error {
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
	s.played <- struct{}{}
	return nil
}

func (s *collectingSink) Close() error { return nil }

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

type channelMonitor struct {
	NopMonitor
	speaking chan bool
	camera   chan []byte
	screen   chan []byte
}

func newChannelMonitor() *channelMonitor {
	return &channelMonitor{
		speaking: make(chan bool, 16),
		camera:   make(chan []byte, 16),
		screen:   make(chan []byte, 16),
	}
}

func (m *channelMonitor) Speaking(_ string, active bool) { m.speaking <- active }
func (m *channelMonitor) CameraFrame(_ string, f []byte) { m.camera <- f }
func (m *channelMonitor) ScreenFrame(_ string, f []byte) { m.screen <- f }

// loudChunk builds a voice chunk of constant amplitude.
func loudChunk(amplitude int16) []byte {
	chunk := make([]byte, VoiceChunkLen)
	for i := 0; i < ChunkSamples; i++ {
		binary.LittleEndian.PutUint16(chunk[2*i:], uint16(amplitude))
	}
	return chunk
}

func TestChunkDecibels(t *testing.T) {
	assert.Equal(t, float64(0), chunkDecibels(make([]byte, VoiceChunkLen)))
	assert.Equal(t, float64(0), chunkDecibels(nil))

	// A constant signal's RMS equals its amplitude.
	assert.InDelta(t, 80.0, chunkDecibels(loudChunk(10000)), 0.01)
	assert.InDelta(t, 33.98, chunkDecibels(loudChunk(50)), 0.01)

	assert.GreaterOrEqual(t, chunkDecibels(loudChunk(10000)), float64(minSpeakingDecibels))
	assert.Less(t, chunkDecibels(loudChunk(50)), float64(minSpeakingDecibels))
}

func TestVoiceBacklogFlushed(t *testing.T) {
	sink := newCollectingSink()
	p := &participant{
		name:       "bob",
		sink:       sink,
		voiceQueue: make(chan []byte, voiceQueueCapacity),
		done:       make(chan struct{}),
	}
	defer close(p.done)

	for i := 0; i < voiceBacklogLimit+10; i++ {
		p.voiceQueue <- loudChunk(1000)
	}
	go p.playVoice()

	select {
	case <-sink.played:
	case <-time.After(5 * time.Second):
		t.Fatal("playback never started")
	}

	// Playback fell behind, so everything queued after the first chunk
	// was flushed rather than played late.
	assert.Eventually(t, func() bool { return len(p.voiceQueue) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

func TestDrainVoiceQueue(t *testing.T) {
	queue := make(chan []byte, 32)
	for i := 0; i < 7; i++ {
		queue <- []byte{1}
	}
	assert.Equal(t, 7, drainVoiceQueue(queue))
	assert.Empty(t, queue)
}

// fakePeer is the remote end of one media channel.
type fakePeer struct {
	conn *net.UDPConn
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &fakePeer{conn: conn}
}

func (f *fakePeer) port() uint16 {
	return uint16(f.conn.LocalAddr().(*net.UDPAddr).Port)
}

func (f *fakePeer) receive(t *testing.T) []byte {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, frameBufferBytes)
	n, _, err := f.conn.ReadFromUDP(buf)
	require.NoError(t, err)
	payload, err := wire.NewCodec().OpenPacket(buf[:n])
	require.NoError(t, err)
	return payload
}

func (f *fakePeer) send(t *testing.T, payload []byte, toPort uint16) {
	t.Helper()
	packet, err := wire.NewCodec().SealPacket(payload)
	require.NoError(t, err)
	_, err = f.conn.WriteToUDP(packet, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(toPort)})
	require.NoError(t, err)
}

func startSessionWithPeer(t *testing.T, cfg Config) (*Session, *fakePeer, *fakePeer, *fakePeer) {
	t.Helper()

	session, err := NewSession(cfg, "test group")
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	voice := newFakePeer(t)
	screen := newFakePeer(t)
	camera := newFakePeer(t)

	// Receive port 0 binds an ephemeral port; the reported free ports
	// come from the socket itself.
	err = session.AddParticipant(signal.PeerDescriptor{
		Name:   "bob",
		IP:     "127.0.0.1",
		Voice:  signal.PortPair{SendTo: voice.port()},
		Screen: signal.PortPair{SendTo: screen.port()},
		Camera: signal.PortPair{SendTo: camera.port()},
	})
	require.NoError(t, err)
	return session, voice, screen, camera
}

func TestBroadcastReachesParticipant(t *testing.T) {
	session, voice, screen, camera := startSessionWithPeer(t, DefaultConfig())

	chunk := loudChunk(12000)
	session.broadcast(chunk, (*participant).voiceLink)
	assert.Equal(t, chunk, voice.receive(t))

	frame := []byte("jpeg bytes")
	session.broadcast(frame, (*participant).screenLink)
	assert.Equal(t, frame, screen.receive(t))

	session.broadcast(frame, (*participant).cameraLink)
	assert.Equal(t, frame, camera.receive(t))
}

func TestIncomingVoicePlaysAndIndicatesSpeaking(t *testing.T) {
	monitor := newChannelMonitor()
	sink := newCollectingSink()
	cfg := DefaultConfig()
	cfg.Monitor = monitor
	cfg.NewAudioSink = func() (AudioSink, error) { return sink, nil }

	session, voice, _, _ := startSessionWithPeer(t, cfg)
	session.mu.RLock()
	voicePort := session.participants["bob"].voice.localPort()
	session.mu.RUnlock()

	chunk := loudChunk(9000)
	voice.send(t, chunk, voicePort)

	select {
	case active := <-monitor.speaking:
		assert.True(t, active)
	case <-time.After(5 * time.Second):
		t.Fatal("no speaking indication")
	}
	select {
	case <-sink.played:
	case <-time.After(5 * time.Second):
		t.Fatal("chunk never played")
	}
	assert.Equal(t, chunk, sink.chunks[0])

	// Silence lowers the indicator once the hold elapses.
	select {
	case active := <-monitor.speaking:
		assert.False(t, active)
	case <-time.After(5 * time.Second):
		t.Fatal("speaking indication never lowered")
	}
}

func TestIncomingFramesReachMonitor(t *testing.T) {
	monitor := newChannelMonitor()
	cfg := DefaultConfig()
	cfg.Monitor = monitor

	session, voice, _, _ := startSessionWithPeer(t, cfg)
	session.mu.RLock()
	p := session.participants["bob"]
	cameraPort := p.camera.localPort()
	screenPort := p.screen.localPort()
	session.mu.RUnlock()

	voice.send(t, []byte("camera frame"), cameraPort)
	select {
	case frame := <-monitor.camera:
		assert.Equal(t, []byte("camera frame"), frame)
	case <-time.After(5 * time.Second):
		t.Fatal("camera frame never delivered")
	}

	voice.send(t, []byte("screen frame"), screenPort)
	select {
	case frame := <-monitor.screen:
		assert.Equal(t, []byte("screen frame"), frame)
	case <-time.After(5 * time.Second):
		t.Fatal("screen frame never delivered")
	}
}

func TestRemoveParticipantReturnsPorts(t *testing.T) {
	session, _, _, _ := startSessionWithPeer(t, DefaultConfig())

	ports := session.RemoveParticipant("bob")
	require.Len(t, ports, 3)
	for _, port := range ports {
		assert.NotZero(t, port)
	}
	assert.Empty(t, session.ParticipantNames())

	assert.Nil(t, session.RemoveParticipant("bob"))
}

func TestCloseReturnsAllPorts(t *testing.T) {
	session, _, _, _ := startSessionWithPeer(t, DefaultConfig())

	ports := session.Close()
	assert.Len(t, ports, 3)

	// A second close finds nothing left.
	assert.Nil(t, session.Close())
	assert.ErrorIs(t, session.AddParticipant(signal.PeerDescriptor{Name: "carol", IP: "127.0.0.1"}), ErrSessionClosed)
}

func TestDuplicateParticipantRejected(t *testing.T) {
	session, voice, screen, camera := startSessionWithPeer(t, DefaultConfig())

	err := session.AddParticipant(signal.PeerDescriptor{
		Name:   "bob",
		IP:     "127.0.0.1",
		Voice:  signal.PortPair{SendTo: voice.port()},
		Screen: signal.PortPair{SendTo: screen.port()},
		Camera: signal.PortPair{SendTo: camera.port()},
	})
	assert.ErrorIs(t, err, ErrParticipantExists)
}

func TestShareStateAnnouncedToNewParticipant(t *testing.T) {
	type announcement struct {
		name           string
		camera, screen bool
	}
	announced := make(chan announcement, 1)

	cfg := DefaultConfig()
	cfg.ShareStateChanged = func(name string, camera, screen bool) {
		announced <- announcement{name: name, camera: camera, screen: screen}
	}

	session, err := NewSession(cfg, "test group")
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	session.SetScreenActive(true)

	peer := newFakePeer(t)
	require.NoError(t, session.AddParticipant(signal.PeerDescriptor{
		Name:   "bob",
		IP:     "127.0.0.1",
		Voice:  signal.PortPair{SendTo: peer.port()},
		Screen: signal.PortPair{SendTo: peer.port()},
		Camera: signal.PortPair{SendTo: peer.port()},
	}))

	select {
	case a := <-announced:
		assert.Equal(t, announcement{name: "bob", camera: false, screen: true}, a)
	case <-time.After(time.Second):
		t.Fatal("running share never announced")
	}
}
