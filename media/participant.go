package media

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/wire"
)

const (
	// Receive buffer sizes per media type. Voice chunks are small and
	// fixed; frames may use the full datagram budget.
	voiceBufferBytes = 3000
	frameBufferBytes = 65536

	// voiceBacklogLimit is the queued chunk count past which the whole
	// backlog is discarded to pull playback back to real time.
	voiceBacklogLimit = 20

	// voiceQueueCapacity bounds the jitter queue outright.
	voiceQueueCapacity = 256

	// speakingHold is how long the speaking indicator stays up after
	// the last voice packet.
	speakingHold = 200 * time.Millisecond
)

// mediaLink is one directional UDP channel to a peer: a local socket
// bound to our receive port and the peer's address for sending.
type mediaLink struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

func openLink(ip string, pair signal.PortPair) (*mediaLink, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(pair.Receive)})
	if err != nil {
		return nil, fmt.Errorf("binding media port %d: %w", pair.Receive, err)
	}
	remote := &net.UDPAddr{IP: net.ParseIP(ip), Port: int(pair.SendTo)}
	return &mediaLink{conn: conn, remote: remote}, nil
}

// localPort reports the bound port, which may differ from the pair's
// when the pair requested port 0.
func (l *mediaLink) localPort() uint16 {
	return uint16(l.conn.LocalAddr().(*net.UDPAddr).Port)
}

func (l *mediaLink) send(packet []byte) error {
	_, err := l.conn.WriteToUDP(packet, l.remote)
	return err
}

// participant is one remote peer in the call: three media links, the
// playback sink, and the jitter queue that smooths incoming voice.
type participant struct {
	name   string
	voice  *mediaLink
	screen *mediaLink
	camera *mediaLink

	sink       AudioSink
	voiceQueue chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newParticipant(peer signal.PeerDescriptor, sink AudioSink) (*participant, error) {
	p := &participant{
		name:       peer.Name,
		sink:       sink,
		voiceQueue: make(chan []byte, voiceQueueCapacity),
		done:       make(chan struct{}),
	}

	var err error
	if p.voice, err = openLink(peer.IP, peer.Voice); err != nil {
		return nil, err
	}
	if p.screen, err = openLink(peer.IP, peer.Screen); err != nil {
		p.voice.conn.Close()
		return nil, err
	}
	if p.camera, err = openLink(peer.IP, peer.Camera); err != nil {
		p.voice.conn.Close()
		p.screen.conn.Close()
		return nil, err
	}
	return p, nil
}

// ports lists the local UDP ports this participant occupies.
func (p *participant) ports() []uint16 {
	return []uint16{p.voice.localPort(), p.screen.localPort(), p.camera.localPort()}
}

// close shuts the participant's sockets, which unblocks every receive
// loop, and closes the playback sink.
func (p *participant) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.voice.conn.Close()
		p.screen.conn.Close()
		p.camera.conn.Close()
		if err := p.sink.Close(); err != nil {
			logrus.WithError(err).WithField("participant", p.name).Debug("Closing audio sink failed")
		}
	})
}

// receiveVoice reads sealed voice packets and queues the chunks for
// the playback loop, keeping the speaking indicator alive while data
// flows.
func (p *participant) receiveVoice(codec *wire.Codec, monitor Monitor) {
	buf := make([]byte, voiceBufferBytes)
	speaking := false

	for {
		if err := p.voice.conn.SetReadDeadline(time.Now().Add(speakingHold)); err != nil {
			return
		}
		n, _, err := p.voice.conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				if speaking {
					speaking = false
					monitor.Speaking(p.name, false)
				}
				continue
			}
			if speaking {
				monitor.Speaking(p.name, false)
			}
			return
		}

		chunk, err := codec.OpenPacket(buf[:n])
		if err != nil {
			logrus.WithField("participant", p.name).Debug("Dropping undecryptable voice packet")
			continue
		}

		if !speaking {
			speaking = true
			monitor.Speaking(p.name, true)
		}

		select {
		case p.voiceQueue <- chunk:
		default:
			// Queue full; playback is hopelessly behind anyway and the
			// playback loop will flush it.
		}
	}
}

// playVoice drains the jitter queue into the sink. A backlog past the
// limit means playback fell behind real time, so the whole queue is
// flushed before continuing.
func (p *participant) playVoice() {
	for {
		select {
		case <-p.done:
			return
		case chunk := <-p.voiceQueue:
			if len(p.voiceQueue) > voiceBacklogLimit {
				flushed := drainVoiceQueue(p.voiceQueue)
				logrus.WithFields(logrus.Fields{
					"participant": p.name,
					"flushed":     flushed,
				}).Debug("Flushed voice backlog")
			}
			if err := p.sink.Play(chunk); err != nil {
				logrus.WithError(err).WithField("participant", p.name).Debug("Voice playback failed")
			}
		}
	}
}

// receiveFrames reads sealed JPEG frames from a link and hands them to
// deliver. Serves both the camera and screen channels.
func (p *participant) receiveFrames(link *mediaLink, codec *wire.Codec, deliver func(name string, frame []byte)) {
	buf := make([]byte, frameBufferBytes)
	for {
		n, _, err := link.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		frame, err := codec.OpenPacket(buf[:n])
		if err != nil {
			logrus.WithField("participant", p.name).Debug("Dropping undecryptable frame packet")
			continue
		}
		deliver(p.name, frame)
	}
}

// drainVoiceQueue empties the queue without blocking and reports how
// many chunks were discarded.
func drainVoiceQueue(queue chan []byte) int {
	flushed := 0
	for {
		select {
		case <-queue:
			flushed++
		default:
			return flushed
		}
	}
}

func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}
