package client

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/wire"
)

// fakeSession records the peers a call session was told about.
type fakeSession struct {
	group        string
	mu           sync.Mutex
	participants []string
	closed       bool
}

func (f *fakeSession) GroupName() string { return f.group }

func (f *fakeSession) ParticipantNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.participants...)
}

func (f *fakeSession) AddParticipant(peer signal.PeerDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants = append(f.participants, peer.Name)
	return nil
}

func (f *fakeSession) RemoveParticipant(name string) []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.participants {
		if p == name {
			f.participants = append(f.participants[:i], f.participants[i+1:]...)
			break
		}
	}
	return []uint16{9000, 9001}
}

func (f *fakeSession) Close() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return []uint16{9002, 9003}
}

// recordingEvents captures callbacks for assertions.
type recordingEvents struct {
	NopEvents
	mu        sync.Mutex
	started   []string
	ended     []string
	joined    []string
	left      []string
	deleted   []string
	rejected  int
	callFails []string
}

func (r *recordingEvents) CallStarted(group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, group)
}

func (r *recordingEvents) CallEnded(group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, group)
}

func (r *recordingEvents) ParticipantJoined(name string, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, name)
}

func (r *recordingEvents) ParticipantLeft(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, name)
}

func (r *recordingEvents) GroupDeleted(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, name)
}

func (r *recordingEvents) CallRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *recordingEvents) CallingFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callFails = append(r.callFails, reason)
}

// newTestClient wires a client to one end of a pipe and returns a
// channel of everything it sends to the "server" side.
func newTestClient(t *testing.T, events Events) (*Client, chan signal.Message) {
	t.Helper()

	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	cfg := DefaultConfig()
	cfg.Events = events
	cfg.NewSession = func(group string) (CallSession, error) {
		return &fakeSession{group: group}, nil
	}

	c := New(cfg)
	c.conn = clientEnd
	c.name = "alice"

	sent := make(chan signal.Message, 64)
	codec := wire.NewCodec()
	go func() {
		for {
			payload, err := codec.Receive(serverEnd)
			if err != nil {
				close(sent)
				return
			}
			msg, err := signal.Decode(payload)
			if err != nil {
				close(sent)
				return
			}
			sent <- msg
		}
	}()
	return c, sent
}

func nextSent(t *testing.T, sent chan signal.Message) signal.Message {
	t.Helper()
	select {
	case msg, ok := <-sent:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a sent message")
		return nil
	}
}

func TestNextGroupNameCollisions(t *testing.T) {
	c, _ := newTestClient(t, NopEvents{})

	assert.Equal(t, "alice -> bob", c.nextGroupNameLocked("bob"))

	c.groups["alice -> bob"] = NewCallGroup("alice -> bob", "alice")
	assert.Equal(t, "alice -> bob (1)", c.nextGroupNameLocked("bob"))

	c.groups["alice -> bob (1)"] = NewCallGroup("alice -> bob (1)", "alice")
	assert.Equal(t, "alice -> bob (2)", c.nextGroupNameLocked("bob"))
}

func TestCallOutsideCall(t *testing.T) {
	c, sent := newTestClient(t, NopEvents{})

	require.NoError(t, c.Call("bob"))

	msg := nextSent(t, sent).(*signal.RequestCall)
	assert.Equal(t, "bob", msg.Callee)
	assert.Equal(t, "alice -> bob", msg.GroupName)
	assert.Equal(t, "alice", msg.HostName)
	assert.Empty(t, msg.OtherParticipants)
}

func TestCallInsideCallInvites(t *testing.T) {
	c, sent := newTestClient(t, NopEvents{})

	group := NewCallGroup("alice -> bob", "alice")
	group.AddMembers("alice", []string{"bob", "carol", "dave"})
	c.groups[group.Name] = group
	c.session = &fakeSession{group: group.Name, participants: []string{"bob"}}

	require.NoError(t, c.Call("erin"))

	msg := nextSent(t, sent).(*signal.RequestCall)
	assert.Equal(t, "erin", msg.Callee)
	assert.Equal(t, []string{"bob"}, msg.OtherParticipants)
	assert.Equal(t, []string{"carol", "dave"}, msg.NotInCallMembers)
	assert.Equal(t, "alice -> bob", msg.GroupName)
}

func TestStartNewCallFlow(t *testing.T) {
	events := &recordingEvents{}
	c, _ := newTestClient(t, events)
	c.callingUser = "bob"

	c.handle(&signal.StartNewCall{
		GroupName: "alice -> bob",
		Peers: []signal.PeerDescriptor{
			{Name: "bob", IP: "192.0.2.2"},
		},
	})

	assert.True(t, c.InCall())
	assert.Equal(t, []string{"alice -> bob"}, events.started)
	assert.Equal(t, []string{"bob"}, events.joined)

	// The connecting peer was the one being rung; the ring is over.
	c.mu.Lock()
	assert.Empty(t, c.callingUser)
	c.mu.Unlock()
}

func TestLastParticipantLeavingEndsCall(t *testing.T) {
	events := &recordingEvents{}
	c, sent := newTestClient(t, events)

	c.handle(&signal.CreateCallGroup{GroupName: "alice -> bob", HostName: "alice"})
	c.handle(&signal.AddGroupMembers{GroupName: "alice -> bob", Members: []string{"bob"}})
	c.handle(&signal.StartNewCall{
		GroupName: "alice -> bob",
		Peers:     []signal.PeerDescriptor{{Name: "bob"}},
	})

	c.handle(&signal.ParticipantLeftCall{Sender: "bob"})

	assert.False(t, c.InCall())
	assert.Equal(t, []string{"bob"}, events.left)
	assert.Equal(t, []string{"alice -> bob"}, events.ended)
	assert.Equal(t, []string{"alice -> bob"}, events.deleted)

	// Ports from removing bob, then the leave notice, the session's
	// remaining ports, and the group close.
	ports := nextSent(t, sent).(*signal.NewOpenPorts)
	assert.Equal(t, []uint16{9000, 9001}, ports.Ports)
	_ = nextSent(t, sent).(*signal.LeaveVoiceChat)
	_ = nextSent(t, sent).(*signal.NewOpenPorts)
	closeCmd := nextSent(t, sent).(*signal.CloseGroupCommand)
	assert.Equal(t, "alice -> bob", closeCmd.GroupName)
	assert.Equal(t, []string{"bob"}, closeCmd.OtherMembers)
}

func TestHostLeavingHandsOver(t *testing.T) {
	events := &recordingEvents{}
	c, sent := newTestClient(t, events)

	c.handle(&signal.CreateCallGroup{GroupName: "group", HostName: "alice"})
	c.handle(&signal.AddGroupMembers{GroupName: "group", Members: []string{"bob", "carol"}})
	c.session = &fakeSession{group: "group", participants: []string{"bob", "carol"}}

	require.NoError(t, c.LeaveCall())

	_ = nextSent(t, sent).(*signal.LeaveVoiceChat)
	_ = nextSent(t, sent).(*signal.NewOpenPorts)
	hostLeft := nextSent(t, sent).(*signal.HostLeftVoiceChat)
	assert.Equal(t, "group", hostLeft.GroupName)
	assert.Equal(t, []string{"bob", "carol"}, hostLeft.OtherParticipants)
	assert.Equal(t, "alice", hostLeft.HostName)

	// Host left but the call goes on elsewhere; the group survives.
	assert.NotNil(t, c.Group("group"))
}

func TestJoinRequestAutoGrant(t *testing.T) {
	c, sent := newTestClient(t, NopEvents{})

	c.handle(&signal.CreateCallGroup{GroupName: "group", HostName: "alice"})
	c.handle(&signal.AddGroupMembers{GroupName: "group", Members: []string{"bob", "carol"}})
	c.session = &fakeSession{group: "group", participants: []string{"carol"}}

	c.handle(&signal.JoinRequested{GroupName: "group", RequestedBy: "bob"})

	grant := nextSent(t, sent).(*signal.AllowCallJoin)
	assert.Equal(t, "group", grant.GroupName)
	assert.Equal(t, "bob", grant.RequestedBy)
	assert.Equal(t, []string{"carol"}, grant.OtherParticipants)
}

func TestJoinRequestFromNonMemberDenied(t *testing.T) {
	c, sent := newTestClient(t, NopEvents{})

	c.handle(&signal.CreateCallGroup{GroupName: "group", HostName: "alice"})
	c.handle(&signal.AddGroupMembers{GroupName: "group", Members: []string{"carol"}})
	c.session = &fakeSession{group: "group", participants: []string{"carol"}}

	c.handle(&signal.JoinRequested{GroupName: "group", RequestedBy: "mallory"})

	select {
	case msg := <-sent:
		t.Fatalf("nothing should be sent, got %T", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRemoveGroupMemberDeletesEmptyGroup(t *testing.T) {
	events := &recordingEvents{}
	c, _ := newTestClient(t, events)

	c.handle(&signal.CreateCallGroup{GroupName: "group", HostName: "bob"})
	c.handle(&signal.AddGroupMembers{GroupName: "group", Members: []string{"bob"}})

	c.handle(&signal.RemoveGroupMember{GroupName: "group", Member: "bob"})

	assert.Nil(t, c.Group("group"))
	assert.Equal(t, []string{"group"}, events.deleted)
}

func TestGroupMembershipBookkeeping(t *testing.T) {
	g := NewCallGroup("group", "alice")

	g.AddMembers("alice", []string{"bob", "carol", "alice", "bob"})
	assert.Equal(t, []string{"bob", "carol"}, g.OtherMembers())
	assert.True(t, g.Contains("bob"))
	assert.False(t, g.Contains("alice"))

	g.RemoveMember("bob")
	assert.Equal(t, []string{"carol"}, g.OtherMembers())
	assert.False(t, g.Empty())

	g.RemoveMember("carol")
	assert.True(t, g.Empty())
}

func TestContactLifecycle(t *testing.T) {
	c, _ := newTestClient(t, NopEvents{})

	c.handle(&signal.AskedToBeContact{By: "bob"})
	assert.Equal(t, []string{"bob"}, c.PendingContacts())

	c.handle(&signal.AddContacts{Contacts: []signal.ContactInfo{{Name: "bob", Online: true}}})
	assert.Empty(t, c.PendingContacts())
	contacts := c.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "bob", contacts[0].Name)
	assert.True(t, contacts[0].Online)

	c.handle(&signal.ContactOffline{Name: "bob"})
	assert.False(t, c.Contacts()[0].Online)

	c.handle(&signal.DeleteContact{Name: "bob"})
	assert.Empty(t, c.Contacts())
}

func TestCallingFailedClearsRing(t *testing.T) {
	events := &recordingEvents{}
	c, _ := newTestClient(t, events)
	c.callingUser = "bob"

	c.handle(&signal.CallingFailed{Reason: "user is already being called"})

	c.mu.Lock()
	assert.Empty(t, c.callingUser)
	c.mu.Unlock()
	assert.Equal(t, []string{"user is already being called"}, events.callFails)
}

// reentrantEvents calls back into the client from inside each
// callback, the way a frontend reading state for its UI would.
type reentrantEvents struct {
	NopEvents
	client *Client

	mu      sync.Mutex
	inCall  []bool
	deleted []string
}

func (r *reentrantEvents) CallEnded(string) {
	in := r.client.InCall()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inCall = append(r.inCall, in)
}

func (r *reentrantEvents) ParticipantLeft(string) {
	in := r.client.InCall()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inCall = append(r.inCall, in)
}

func (r *reentrantEvents) GroupDeleted(name string) {
	r.client.Group(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, name)
}

// runOrFail guards against a callback blocking the receive goroutine.
func runOrFail(t *testing.T, name string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s blocked on a reentrant callback", name)
	}
}

func TestReentrantEventCallbacks(t *testing.T) {
	events := &reentrantEvents{}
	c, _ := newTestClient(t, events)
	events.client = c

	c.handle(&signal.CreateCallGroup{GroupName: "alice -> bob", HostName: "alice"})
	c.handle(&signal.AddGroupMembers{GroupName: "alice -> bob", Members: []string{"bob"}})
	c.handle(&signal.StartNewCall{
		GroupName: "alice -> bob",
		Peers:     []signal.PeerDescriptor{{Name: "bob"}},
	})

	// The last peer leaving fires ParticipantLeft, GroupDeleted, and
	// CallEnded, each of which reads client state.
	runOrFail(t, "ParticipantLeftCall", func() {
		c.handle(&signal.ParticipantLeftCall{Sender: "bob"})
	})
	assert.False(t, c.InCall())
	assert.Equal(t, []string{"alice -> bob"}, events.deleted)

	c.handle(&signal.CreateCallGroup{GroupName: "group", HostName: "alice"})
	runOrFail(t, "DeleteCallGroup", func() {
		c.handle(&signal.DeleteCallGroup{GroupName: "group"})
	})
	assert.Equal(t, []string{"alice -> bob", "group"}, events.deleted)
	assert.Nil(t, c.Group("group"))
}

func TestChatHostImplementations(t *testing.T) {
	contact := &Contact{Name: "bob"}
	assert.Equal(t, "bob", contact.ChatName())
	assert.Equal(t, []string{"bob"}, contact.ChatParticipants())

	group := NewCallGroup("group", "alice")
	group.AddMembers("alice", []string{"bob", "carol"})
	assert.Equal(t, "group", group.ChatName())
	assert.Equal(t, []string{"bob", "carol"}, group.ChatParticipants())
}
