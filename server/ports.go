package server

import "github.com/sirupsen/logrus"

const (
	// portBlockSize is how many consecutive ports join the pool at
	// once, both initially and on every extension.
	portBlockSize = 20

	// basePort is the first UDP port handed to a client.
	basePort = 9000

	// peerPortPairs is how many directed channels connect two call
	// participants: voice, screen, and camera.
	peerPortPairs = 3
)

// PortPool tracks the UDP ports one client has available for media
// channels. Allocation pops the lowest open port; when the pool runs
// dry it extends itself with the next untouched contiguous block, so
// allocation never fails. Clients return ports through NewOpenPorts
// once a channel closes.
//
// The pool is owned by the dispatch goroutine and needs no locking.
type PortPool struct {
	open    []uint16
	biggest uint16
}

// NewPortPool returns a pool seeded with the first port block.
func NewPortPool() *PortPool {
	p := &PortPool{}
	p.extend(basePort)
	return p
}

// Allocate removes and returns the lowest open port, extending the
// pool first when it is empty.
func (p *PortPool) Allocate() uint16 {
	if len(p.open) == 0 {
		p.extend(p.biggest + 1)
	}
	port := p.open[0]
	p.open = p.open[1:]
	return port
}

// Release returns ports to the pool after their channels closed.
func (p *PortPool) Release(ports []uint16) {
	p.open = append(p.open, ports...)
}

// Open returns how many ports are currently available.
func (p *PortPool) Open() int {
	return len(p.open)
}

func (p *PortPool) extend(from uint16) {
	for port := from; port < from+portBlockSize; port++ {
		p.open = append(p.open, port)
	}
	p.biggest = from + portBlockSize - 1

	logrus.WithFields(logrus.Fields{
		"function":     "extend",
		"biggest_port": p.biggest,
	}).Debug("Port pool extended")
}
