package server

import (
	"net"

	"github.com/opd-ai/voicelink/signal"
)

// BeingCalledState is stored on a callee's endpoint while a call rings
// for them. It holds everything needed to establish the call should
// they accept: who is in the voice chat, which group it belongs to,
// and which group members are not in the chat yet.
//
// The last participant is always the actual caller, the user whose
// request started this ring.
type BeingCalledState struct {
	Participants     []string
	GroupName        string
	HostName         string
	NotInCallMembers []string
}

// ActualCaller returns the user who started the ring.
func (b *BeingCalledState) ActualCaller() string {
	return b.Participants[len(b.Participants)-1]
}

// Endpoint is one authenticated client connection and its server-side
// call state. Endpoints are created on login and discarded on
// disconnect; all access happens on the dispatch goroutine.
type Endpoint struct {
	Name string
	IP   string

	conn        net.Conn
	ports       *PortPool
	beingCalled *BeingCalledState
}

// NewEndpoint wraps an authenticated connection.
func NewEndpoint(name, ip string, conn net.Conn) *Endpoint {
	return &Endpoint{
		Name:  name,
		IP:    ip,
		conn:  conn,
		ports: NewPortPool(),
	}
}

// BeingCalled reports whether a call currently rings for this user.
func (e *Endpoint) BeingCalled() bool {
	return e.beingCalled != nil
}

// StartBeingCalled records the ringing call's context.
func (e *Endpoint) StartBeingCalled(state *BeingCalledState) {
	e.beingCalled = state
}

// StopBeingCalled clears the ringing call's context.
func (e *Endpoint) StopBeingCalled() {
	e.beingCalled = nil
}

// allocatePortPairs reserves the media ports connecting e and peer and
// returns each side's pairs in channel order (voice, screen, camera).
// The port one side sends to is the port the other side listens on.
func allocatePortPairs(e, peer *Endpoint) (mine, theirs [peerPortPairs]signal.PortPair) {
	for i := 0; i < peerPortPairs; i++ {
		myListen := e.ports.Allocate()
		peerListen := peer.ports.Allocate()
		mine[i] = signal.PortPair{SendTo: peerListen, Receive: myListen}
		theirs[i] = signal.PortPair{SendTo: myListen, Receive: peerListen}
	}
	return mine, theirs
}
