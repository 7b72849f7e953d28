package client

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
)

// receiveLoop drains the server connection until it dies and routes
// each message to its handler.
func (c *Client) receiveLoop() {
	for {
		msg, err := c.receive()
		if err != nil {
			c.connectionLost(err)
			return
		}
		c.handle(msg)
	}
}

// connectionLost tears down local state after the signaling link died.
// Nothing is sent; there is no one left to send to.
func (c *Client) connectionLost(err error) {
	c.mu.Lock()
	var endedGroup string
	if c.session != nil {
		endedGroup = c.session.GroupName()
		c.session.Close()
		c.session = nil
	}
	c.groups = make(map[string]*CallGroup)
	c.callingUser = ""
	c.mu.Unlock()

	if endedGroup != "" {
		c.events.CallEnded(endedGroup)
	}
	c.conn.Close()
	c.events.Disconnected(err)
}

func (c *Client) handle(msg signal.Message) {
	logrus.WithFields(logrus.Fields{
		"function": "handle",
		"kind":     msg.Kind().String(),
	}).Debug("Handling server message")

	switch msg := msg.(type) {
	case *signal.CalledBy:
		c.events.CalledBy(msg.Callers, msg.GroupName)
	case *signal.InvitedToCall:
		c.events.InvitedToCall(msg.GroupName, msg.InCallParticipants)
	case *signal.StartNewCall:
		c.handleStartNewCall(msg)
	case *signal.AddParticipant:
		c.handleAddParticipant(msg)
	case *signal.CallRejected:
		c.clearCallingUser()
		c.events.CallRejected()
	case *signal.CallingFailed:
		c.clearCallingUser()
		c.events.CallingFailed(msg.Reason)
	case *signal.StopBeingCalled:
		c.events.StopBeingCalled()
	case *signal.JoinRequested:
		c.handleJoinRequested(msg)
	case *signal.ParticipantChangedPicture:
		c.events.ParticipantChangedPicture(msg.Name, msg.Picture)

	case *signal.CreateCallGroup:
		c.handleCreateGroup(msg)
	case *signal.AddGroupMembers:
		c.handleAddGroupMembers(msg)
	case *signal.DeleteCallGroup:
		c.mu.Lock()
		deleted := c.deleteGroupLocked(msg.GroupName)
		c.mu.Unlock()
		if deleted {
			c.events.GroupDeleted(msg.GroupName)
		}
	case *signal.ChangeGroupHost:
		c.handleChangeGroupHost(msg)
	case *signal.RemoveGroupMember:
		c.handleRemoveGroupMember(msg)

	case *signal.AddContacts:
		c.handleAddContacts(msg)
	case *signal.AskedToBeContact:
		c.mu.Lock()
		c.pendingContacts = append(c.pendingContacts, msg.By)
		c.mu.Unlock()
		c.events.AskedToBeContact(msg.By)
	case *signal.ContactOnline:
		c.setContactOnline(msg.Name, true)
		c.events.ContactOnline(msg.Name)
	case *signal.ContactOffline:
		c.setContactOnline(msg.Name, false)
		c.events.ContactOffline(msg.Name)
	case *signal.DeleteContact:
		c.mu.Lock()
		delete(c.contacts, msg.Name)
		c.mu.Unlock()
		c.events.ContactDeleted(msg.Name)
	case *signal.ContactChangedPicture:
		c.mu.Lock()
		if contact, ok := c.contacts[msg.Name]; ok {
			contact.Picture = msg.Picture
		}
		c.mu.Unlock()
		c.events.ContactChangedPicture(msg.Name, msg.Picture)

	case *signal.ChatText:
		c.events.ChatText(msg.ChatName, msg.Sender, msg.SentAt, msg.Text)
	case *signal.ChatPicture:
		c.events.ChatPicture(msg.ChatName, msg.Sender, msg.SentAt, msg.Picture)

	case *signal.ParticipantLeftCall:
		c.handleParticipantLeft(msg.Sender)
	case *signal.ParticipantCameraStarted:
		c.events.CameraShareChanged(msg.Sender, true)
	case *signal.ParticipantCameraStopped:
		c.events.CameraShareChanged(msg.Sender, false)
	case *signal.ParticipantScreenStarted:
		c.events.ScreenShareChanged(msg.Sender, true)
	case *signal.ParticipantScreenStopped:
		c.events.ScreenShareChanged(msg.Sender, false)

	case *signal.UserInfo:
		c.events.UserInfo(msg)
	case *signal.Popup:
		c.events.Popup(msg.Text)

	default:
		logrus.WithField("kind", msg.Kind().String()).Debug("Ignoring unexpected server message")
	}
}

// handleStartNewCall opens the media session and connects to every
// listed peer, leaving any stale session first.
func (c *Client) handleStartNewCall(msg *signal.StartNewCall) {
	c.mu.Lock()
	var notify notifications
	if c.session != nil {
		notify = c.leaveSessionLocked()
	}
	session, err := c.cfg.NewSession(msg.GroupName)
	if err != nil {
		c.mu.Unlock()
		notify.fire()
		logrus.WithError(err).Error("Opening media session failed")
		return
	}
	c.session = session
	c.mu.Unlock()

	notify.fire()
	c.events.CallStarted(msg.GroupName)
	for _, peer := range msg.Peers {
		c.addPeer(session, peer)
	}
}

func (c *Client) handleAddParticipant(msg *signal.AddParticipant) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil || session.GroupName() != msg.GroupName {
		logrus.WithField("group", msg.GroupName).Debug("Participant for a call this client is not in")
		return
	}

	c.addPeer(session, msg.Peer)
	c.updateCalledUserInfo()
}

func (c *Client) addPeer(session CallSession, peer signal.PeerDescriptor) {
	if err := session.AddParticipant(peer); err != nil {
		logrus.WithError(err).WithField("peer", peer.Name).Error("Connecting to peer failed")
		return
	}

	c.mu.Lock()
	if peer.Name == c.callingUser {
		c.callingUser = ""
	}
	c.mu.Unlock()
	c.events.ParticipantJoined(peer.Name, peer.Picture)
}

// handleParticipantLeft drops a departed peer. A call left with no
// peers is over; the group dies with it.
func (c *Client) handleParticipantLeft(name string) {
	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return
	}

	ports := session.RemoveParticipant(name)
	c.releasePorts(ports)

	var notify notifications
	if len(session.ParticipantNames()) == 0 {
		notify = c.leaveSessionLocked()
	}
	c.mu.Unlock()

	c.events.ParticipantLeft(name)
	notify.fire()
}

// handleJoinRequested auto-grants a join request when this client is
// in the group's call and the requester really is a member.
func (c *Client) handleJoinRequested(msg *signal.JoinRequested) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[msg.GroupName]
	if !ok {
		logrus.WithField("group", msg.GroupName).Debug("Join request for unknown group")
		return
	}
	if !group.Contains(msg.RequestedBy) {
		logrus.WithFields(logrus.Fields{
			"group": msg.GroupName,
			"user":  msg.RequestedBy,
		}).Warn("Join request from non-member")
		return
	}
	if c.session == nil || c.session.GroupName() != msg.GroupName {
		return
	}

	if err := c.send(&signal.AllowCallJoin{
		GroupName:         msg.GroupName,
		RequestedBy:       msg.RequestedBy,
		OtherParticipants: c.session.ParticipantNames(),
	}); err != nil {
		logrus.WithError(err).Debug("Granting join failed")
	}
}

func (c *Client) handleCreateGroup(msg *signal.CreateCallGroup) {
	group := NewCallGroup(msg.GroupName, msg.HostName)
	c.mu.Lock()
	c.groups[msg.GroupName] = group
	c.mu.Unlock()
	c.events.GroupCreated(group)
}

func (c *Client) handleAddGroupMembers(msg *signal.AddGroupMembers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	group, ok := c.groups[msg.GroupName]
	if !ok {
		logrus.WithField("group", msg.GroupName).Debug("Members for unknown group")
		return
	}
	group.AddMembers(c.name, msg.Members)
}

func (c *Client) handleChangeGroupHost(msg *signal.ChangeGroupHost) {
	c.mu.Lock()
	group, ok := c.groups[msg.GroupName]
	if ok {
		group.Host = msg.NewHost
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	c.updateCalledUserInfo()
	c.events.GroupHostChanged(msg.GroupName, msg.NewHost)
}

func (c *Client) handleRemoveGroupMember(msg *signal.RemoveGroupMember) {
	c.mu.Lock()
	group, ok := c.groups[msg.GroupName]
	deleted := false
	if ok {
		group.RemoveMember(msg.Member)
		if group.Empty() {
			deleted = c.deleteGroupLocked(msg.GroupName)
		}
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if deleted {
		c.events.GroupDeleted(msg.GroupName)
	}
	c.updateCalledUserInfo()
	c.events.GroupMemberRemoved(msg.GroupName, msg.Member)
}

func (c *Client) handleAddContacts(msg *signal.AddContacts) {
	for _, info := range msg.Contacts {
		c.mu.Lock()
		c.contacts[info.Name] = &Contact{Name: info.Name, Online: info.Online, Picture: info.Picture}
		c.pendingContacts = remove(c.pendingContacts, info.Name)
		c.mu.Unlock()
		c.events.ContactAdded(info)
	}
}

func (c *Client) setContactOnline(name string, online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if contact, ok := c.contacts[name]; ok {
		contact.Online = online
	}
}

func (c *Client) clearCallingUser() {
	c.mu.Lock()
	c.callingUser = ""
	c.mu.Unlock()
}

// updateCalledUserInfo refreshes the ring context for a user this
// client is currently calling: when the surrounding call changed, the
// callee's stored state must change with it, and a ring that outlived
// its call is withdrawn.
func (c *Client) updateCalledUserInfo() {
	c.mu.Lock()
	callee := c.callingUser
	session := c.session
	if callee == "" {
		c.mu.Unlock()
		return
	}

	if session == nil {
		c.callingUser = ""
		c.mu.Unlock()
		if err := c.send(&signal.StopCalling{Callee: callee}); err != nil {
			logrus.WithError(err).Debug("Withdrawing stale ring failed")
		}
		return
	}

	group, ok := c.groups[session.GroupName()]
	if !ok {
		c.mu.Unlock()
		return
	}
	participants := session.ParticipantNames()
	msg := &signal.UpdateBeingCalledInfo{
		Callee:            callee,
		OtherParticipants: participants,
		GroupName:         group.Name,
		HostName:          group.Host,
		NotInCallMembers:  subtract(group.OtherMembers(), participants),
	}
	c.mu.Unlock()

	if err := c.send(msg); err != nil {
		logrus.WithError(err).Debug("Updating ring context failed")
	}
}
