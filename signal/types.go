package signal

// PortPair is one directed UDP channel between two call participants.
// SendTo is the remote port this side sends to; Receive is the local
// port it listens on. The pair held by the other participant is the
// mirror image.
type PortPair struct {
	SendTo  uint16 `cbor:"s"`
	Receive uint16 `cbor:"r"`
}

// PeerDescriptor carries everything a client needs to open media
// channels to one other call participant: voice, screen, and camera
// port pairs in that order.
type PeerDescriptor struct {
	Name    string   `cbor:"n"`
	IP      string   `cbor:"ip"`
	Voice   PortPair `cbor:"v"`
	Screen  PortPair `cbor:"sc"`
	Camera  PortPair `cbor:"cm"`
	Picture []byte   `cbor:"pic,omitempty"`
}

// ContactInfo is the server's view of one contact at login time.
type ContactInfo struct {
	Name    string `cbor:"n"`
	Online  bool   `cbor:"o"`
	Picture []byte `cbor:"pic,omitempty"`
}
