package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/wire"
)

// CallSession is the media-session surface the client drives. The
// media package provides the real implementation; tests substitute
// their own.
type CallSession interface {
	// GroupName returns the call group this session belongs to.
	GroupName() string

	// ParticipantNames lists the current peers.
	ParticipantNames() []string

	// AddParticipant opens media channels to one new peer.
	AddParticipant(peer signal.PeerDescriptor) error

	// RemoveParticipant closes the channels to one peer and returns
	// the local UDP ports that are free again.
	RemoveParticipant(name string) []uint16

	// Close tears the whole session down and returns every local UDP
	// port that is free again.
	Close() []uint16
}

// SessionFactory opens a media session for a newly started call.
type SessionFactory func(groupName string) (CallSession, error)

// Config holds client tunables.
type Config struct {
	// ServerAddr is the signaling server's TCP address.
	ServerAddr string

	// DialTimeout bounds the initial connection attempt.
	DialTimeout time.Duration

	// Events receives everything the frontend needs to display.
	Events Events

	// NewSession opens the media session when a call starts.
	NewSession SessionFactory
}

// DefaultConfig returns a configuration with no-op events. The caller
// must still supply ServerAddr and NewSession.
func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		Events:      NopEvents{},
	}
}

// Client is one user's connection to the VoiceLink server and the
// local state that hangs off it: call groups, contacts, the outbound
// ring, and the active media session.
type Client struct {
	cfg    Config
	events Events
	codec  *wire.Codec

	conn   net.Conn
	sendMu sync.Mutex

	mu              sync.Mutex
	name            string
	callingUser     string
	session         CallSession
	groups          map[string]*CallGroup
	contacts        map[string]*Contact
	pendingContacts []string
}

// New returns an unconnected client.
func New(cfg Config) *Client {
	if cfg.Events == nil {
		cfg.Events = NopEvents{}
	}
	return &Client{
		cfg:      cfg,
		events:   cfg.Events,
		codec:    wire.NewCodec(),
		groups:   make(map[string]*CallGroup),
		contacts: make(map[string]*Contact),
	}
}

// Connect dials the signaling server.
func (c *Client) Connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.cfg.ServerAddr, err)
	}
	c.conn = conn
	return nil
}

// Login authenticates and, on success, starts the receive loop.
func (c *Client) Login(name, password string) error {
	if err := c.send(&signal.Login{Name: name, Password: password}); err != nil {
		return err
	}
	msg, err := c.receive()
	if err != nil {
		return err
	}

	switch msg := msg.(type) {
	case *signal.LoginOK:
		c.mu.Lock()
		c.name = name
		c.pendingContacts = append([]string{}, msg.PendingContacts...)
		for _, info := range msg.Contacts {
			c.contacts[info.Name] = &Contact{Name: info.Name, Online: info.Online, Picture: info.Picture}
		}
		c.mu.Unlock()

		go c.receiveLoop()

		logrus.WithFields(logrus.Fields{
			"function": "Login",
			"user":     name,
			"contacts": len(msg.Contacts),
		}).Info("Logged in")
		return nil

	case *signal.LoginFailed:
		return fmt.Errorf("%w: %s", ErrLoginFailed, msg.Reason)
	default:
		return fmt.Errorf("unexpected %s in response to login", msg.Kind())
	}
}

// Register creates a new account. The connection stays usable for a
// subsequent Login.
func (c *Client) Register(name, password string) error {
	if err := c.send(&signal.Register{Name: name, Password: password}); err != nil {
		return err
	}
	msg, err := c.receive()
	if err != nil {
		return err
	}

	switch msg := msg.(type) {
	case *signal.RegisterOK:
		return nil
	case *signal.RegisterFailed:
		return fmt.Errorf("%w: %s", ErrRegisterFailed, msg.Reason)
	default:
		return fmt.Errorf("unexpected %s in response to register", msg.Kind())
	}
}

// Name returns the logged-in username.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Contacts returns a snapshot of the contact list.
func (c *Client) Contacts() []Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	contacts := make([]Contact, 0, len(c.contacts))
	for _, contact := range c.contacts {
		contacts = append(contacts, *contact)
	}
	return contacts
}

// PendingContacts returns a snapshot of unanswered contact requests.
func (c *Client) PendingContacts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.pendingContacts...)
}

// Group returns the named call group, nil when unknown.
func (c *Client) Group(name string) *CallGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups[name]
}

// InCall reports whether a media session is active.
func (c *Client) InCall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Call rings another user. Outside a call this starts a fresh one
// under a new group name; inside a call it invites the user into the
// current voice chat.
func (c *Client) Call(callee string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var msg *signal.RequestCall
	if c.session != nil {
		group, ok := c.groups[c.session.GroupName()]
		if !ok {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, c.session.GroupName())
		}
		participants := c.session.ParticipantNames()
		msg = &signal.RequestCall{
			Callee:            callee,
			OtherParticipants: participants,
			GroupName:         group.Name,
			HostName:          group.Host,
			NotInCallMembers:  subtract(group.OtherMembers(), participants),
		}
	} else {
		msg = &signal.RequestCall{
			Callee:    callee,
			GroupName: c.nextGroupNameLocked(callee),
			HostName:  c.name,
		}
	}

	c.callingUser = callee
	return c.send(msg)
}

// StopCalling withdraws the current outbound ring.
func (c *Client) StopCalling() error {
	c.mu.Lock()
	callee := c.callingUser
	c.callingUser = ""
	c.mu.Unlock()

	if callee == "" {
		return nil
	}
	return c.send(&signal.StopCalling{Callee: callee})
}

// Accept accepts the call currently ringing for this client.
func (c *Client) Accept() error {
	return c.send(&signal.AcceptCall{})
}

// Reject declines the call currently ringing for this client.
func (c *Client) Reject() error {
	return c.send(&signal.RejectCall{})
}

// JoinGroupCall asks the host of one of this client's groups for
// permission to join the group's running voice chat.
func (c *Client) JoinGroupCall(groupName string) error {
	c.mu.Lock()
	group, ok := c.groups[groupName]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupName)
	}
	return c.send(&signal.RequestJoinCall{GroupName: groupName, HostName: group.Host})
}

// LeaveCall leaves the active voice chat: peers are told, freed ports
// are returned to the server, and the group is closed or handed to a
// new host as the situation requires.
func (c *Client) LeaveCall() error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotInCall
	}
	notify := c.leaveSessionLocked()
	c.mu.Unlock()

	notify.fire()
	return nil
}

// LeaveGroup leaves a call group for good, leaving its voice chat
// first when the client is in it.
func (c *Client) LeaveGroup(groupName string) error {
	c.mu.Lock()

	group, ok := c.groups[groupName]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupName)
	}

	var notify notifications
	if c.session != nil && c.session.GroupName() == groupName {
		notify = c.leaveSessionLocked()
	}
	// The group can vanish while leaving the call ends it.
	if _, ok := c.groups[groupName]; !ok {
		c.mu.Unlock()
		notify.fire()
		return nil
	}

	if err := c.send(&signal.LeaveGroup{GroupName: groupName, OtherMembers: group.OtherMembers()}); err != nil {
		c.mu.Unlock()
		notify.fire()
		return err
	}
	deleted := c.deleteGroupLocked(groupName)
	c.mu.Unlock()

	notify.fire()
	if deleted {
		c.events.GroupDeleted(groupName)
	}
	return nil
}

// AddContact sends a contact request.
func (c *Client) AddContact(name string) error {
	return c.send(&signal.RequestAddContact{Name: name})
}

// AcceptContact accepts a pending contact request. The server answers
// with AddContacts for both sides.
func (c *Client) AcceptContact(name string) error {
	return c.send(&signal.AcceptContact{Name: name})
}

// RejectContact declines a pending contact request.
func (c *Client) RejectContact(name string) error {
	c.mu.Lock()
	c.pendingContacts = remove(c.pendingContacts, name)
	c.mu.Unlock()
	return c.send(&signal.RejectContact{Name: name})
}

// DeleteContact removes a confirmed contact from both sides.
func (c *Client) DeleteContact(name string) error {
	c.mu.Lock()
	delete(c.contacts, name)
	c.mu.Unlock()
	return c.send(&signal.DeleteContact{Name: name})
}

// SendChatText sends a text line to a chat host's participants.
func (c *Client) SendChatText(host ChatHost, text string) error {
	return c.send(&signal.SendChatText{
		ChatName:     host.ChatName(),
		Participants: host.ChatParticipants(),
		SentAt:       time.Now().UTC(),
		Text:         text,
	})
}

// SendChatPicture sends a picture to a chat host's participants.
func (c *Client) SendChatPicture(host ChatHost, picture []byte) error {
	return c.send(&signal.SendChatPicture{
		ChatName:     host.ChatName(),
		Participants: host.ChatParticipants(),
		SentAt:       time.Now().UTC(),
		Picture:      picture,
	})
}

// RequestUserInfo queries the server about any username. The answer
// arrives through Events.UserInfo.
func (c *Client) RequestUserInfo(name string) error {
	return c.send(&signal.RequestUserInfo{Name: name})
}

// ChangePicture sets a new profile picture, notifying contacts and
// current call peers.
func (c *Client) ChangePicture(picture []byte) error {
	c.mu.Lock()
	var inCall []string
	if c.session != nil {
		inCall = c.session.ParticipantNames()
	}
	c.mu.Unlock()
	return c.send(&signal.ChangePicture{Picture: picture, InCallParticipants: inCall})
}

// SetCameraSharing and SetScreenSharing tell the current call peers
// that sharing started or stopped.
func (c *Client) SetCameraSharing(active bool) error {
	participants, err := c.participantsForRelay()
	if err != nil {
		return err
	}
	if active {
		return c.send(&signal.CameraShareStarted{Participants: participants})
	}
	return c.send(&signal.CameraShareStopped{Participants: participants})
}

func (c *Client) SetScreenSharing(active bool) error {
	participants, err := c.participantsForRelay()
	if err != nil {
		return err
	}
	if active {
		return c.send(&signal.ScreenShareStarted{Participants: participants})
	}
	return c.send(&signal.ScreenShareStopped{Participants: participants})
}

// Close leaves the call and every group, then closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	var notify notifications
	if c.session != nil {
		notify = c.leaveSessionLocked()
	}
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	c.mu.Unlock()
	notify.fire()

	for _, name := range names {
		if err := c.LeaveGroup(name); err != nil {
			logrus.WithError(err).Debug("Leaving group on close failed")
		}
	}

	c.send(&signal.Disconnect{})
	return c.conn.Close()
}

// notifications collects Events callbacks that accrued while c.mu was
// held. Callbacks are free to call back into the Client, so they only
// ever run through fire, after the mutex is released.
type notifications []func()

func (n notifications) fire() {
	for _, fn := range n {
		fn()
	}
}

// leaveSessionLocked tears the media session down, returns its ports,
// and settles the group's fate. Callers hold c.mu and must fire the
// returned notifications once they release it.
func (c *Client) leaveSessionLocked() notifications {
	session := c.session
	c.session = nil

	groupName := session.GroupName()
	stillInCall := session.ParticipantNames()
	ports := session.Close()

	if err := c.send(&signal.LeaveVoiceChat{Participants: stillInCall}); err != nil {
		logrus.WithError(err).Debug("Sending leave notification failed")
	}
	c.releasePorts(ports)

	var notify notifications
	if c.settleGroupAfterLeaveLocked(groupName, stillInCall) {
		notify = append(notify, func() { c.events.GroupDeleted(groupName) })
	}
	notify = append(notify, func() { c.events.CallEnded(groupName) })
	return notify
}

// settleGroupAfterLeaveLocked ends the group when the call died with
// this user's departure, or hands the host role on when the departing
// user held it. Reports whether the group record was deleted.
func (c *Client) settleGroupAfterLeaveLocked(groupName string, stillInCall []string) bool {
	group, ok := c.groups[groupName]
	if !ok {
		return false
	}

	if len(stillInCall) == 0 {
		if err := c.send(&signal.CloseGroupCommand{
			GroupName:    groupName,
			OtherMembers: group.OtherMembers(),
		}); err != nil {
			logrus.WithError(err).Debug("Sending group close failed")
		}
		return c.deleteGroupLocked(groupName)
	}

	if c.name == group.Host {
		if err := c.send(&signal.HostLeftVoiceChat{
			GroupName:         groupName,
			OtherParticipants: stillInCall,
			OtherMembers:      group.OtherMembers(),
			HostName:          group.Host,
		}); err != nil {
			logrus.WithError(err).Debug("Sending host handover failed")
		}
	}
	return false
}

// deleteGroupLocked drops a group record, reporting whether it
// existed. The caller fires GroupDeleted after releasing c.mu.
func (c *Client) deleteGroupLocked(name string) bool {
	if _, ok := c.groups[name]; !ok {
		return false
	}
	delete(c.groups, name)
	return true
}

// nextGroupNameLocked builds a fresh group name from the template
// "caller -> callee", suffixing " (N)" until it is unused.
func (c *Client) nextGroupNameLocked(callee string) string {
	base := fmt.Sprintf("%s -> %s", c.name, callee)
	name := base
	for try := 1; ; try++ {
		if _, taken := c.groups[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s (%d)", base, try)
	}
}

func (c *Client) participantsForRelay() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNotInCall
	}
	return c.session.ParticipantNames(), nil
}

func (c *Client) releasePorts(ports []uint16) {
	if len(ports) == 0 {
		return
	}
	if err := c.send(&signal.NewOpenPorts{Ports: ports}); err != nil {
		logrus.WithError(err).Debug("Returning ports failed")
	}
}

func (c *Client) send(msg signal.Message) error {
	payload, err := signal.Encode(msg)
	if err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.codec.Send(c.conn, payload)
}

func (c *Client) receive() (signal.Message, error) {
	payload, err := c.codec.Receive(c.conn)
	if err != nil {
		return nil, err
	}
	return signal.Decode(payload)
}

func subtract(all, exclude []string) []string {
	var rest []string
	for _, name := range all {
		found := false
		for _, ex := range exclude {
			if ex == name {
				found = true
				break
			}
		}
		if !found {
			rest = append(rest, name)
		}
	}
	return rest
}

func remove(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
