package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortPoolAllocatesLowestFirst(t *testing.T) {
	pool := NewPortPool()

	assert.Equal(t, uint16(9000), pool.Allocate())
	assert.Equal(t, uint16(9001), pool.Allocate())
	assert.Equal(t, uint16(9002), pool.Allocate())
	assert.Equal(t, portBlockSize-3, pool.Open())
}

func TestPortPoolExtends(t *testing.T) {
	pool := NewPortPool()

	seen := make(map[uint16]bool)
	for i := 0; i < 3*portBlockSize; i++ {
		port := pool.Allocate()
		require.False(t, seen[port], "port %d issued twice", port)
		seen[port] = true
	}

	// Three full blocks from the base, no gaps.
	for port := uint16(9000); port < 9000+3*portBlockSize; port++ {
		assert.True(t, seen[port], "port %d never issued", port)
	}
}

func TestPortPoolRelease(t *testing.T) {
	pool := NewPortPool()

	first := pool.Allocate()
	for i := 0; i < 5; i++ {
		pool.Allocate()
	}
	pool.Release([]uint16{first})

	// Released ports rejoin the pool and are issued again before any
	// extension happens.
	for i := 0; i < portBlockSize-6; i++ {
		pool.Allocate()
	}
	assert.Equal(t, first, pool.Allocate())
}

func TestAllocatePortPairsMirrors(t *testing.T) {
	a := NewEndpoint("alice", "192.0.2.1", nil)
	b := NewEndpoint("bob", "192.0.2.2", nil)

	mine, theirs := allocatePortPairs(a, b)
	for i := 0; i < peerPortPairs; i++ {
		assert.Equal(t, mine[i].SendTo, theirs[i].Receive)
		assert.Equal(t, mine[i].Receive, theirs[i].SendTo)
	}
}

func TestBeingCalledActualCaller(t *testing.T) {
	state := &BeingCalledState{
		Participants: []string{"carol", "dave", "alice"},
		GroupName:    "alice -> bob",
	}
	assert.Equal(t, "alice", state.ActualCaller())
}
