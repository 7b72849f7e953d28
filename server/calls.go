package server

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
)

// handleRequestCall starts ringing the callee. The sender's name is
// appended to the participant list so the callee can always find the
// actual caller at its tail.
func (s *Server) handleRequestCall(from *Endpoint, msg *signal.RequestCall) {
	callee, err := s.registry.Lookup(msg.Callee)
	if err != nil {
		s.send(from, &signal.CallingFailed{Reason: "user is not connected"})
		return
	}
	if callee.BeingCalled() {
		s.send(from, &signal.CallingFailed{Reason: "user is already being called"})
		return
	}

	participants := append(append([]string{}, msg.OtherParticipants...), from.Name)
	if contains(participants, callee.Name) {
		s.send(from, &signal.CallingFailed{Reason: "user is already a call participant"})
		return
	}

	callee.StartBeingCalled(&BeingCalledState{
		Participants:     participants,
		GroupName:        msg.GroupName,
		HostName:         msg.HostName,
		NotInCallMembers: msg.NotInCallMembers,
	})

	// A callee who already belongs to the calling group is invited to
	// its running call; anyone else is rung cold.
	if contains(msg.NotInCallMembers, callee.Name) {
		s.send(callee, &signal.InvitedToCall{
			GroupName:          msg.GroupName,
			InCallParticipants: participants,
		})
	} else {
		s.send(callee, &signal.CalledBy{
			Callers:   participants,
			GroupName: msg.GroupName,
		})
	}
}

// handleAcceptCall establishes the call the sender is being rung for:
// group bookkeeping messages first, then the peer descriptors that let
// everyone open media channels.
func (s *Server) handleAcceptCall(ctx context.Context, callee *Endpoint) {
	if !callee.BeingCalled() {
		logrus.WithField("user", callee.Name).Debug("Accept from user who is not being called")
		return
	}
	state := callee.beingCalled

	callers := s.registry.LookupAll(state.Participants)
	if len(callers) == 0 {
		// Everyone who was ringing disconnected; there is no call left
		// to join.
		logrus.WithFields(logrus.Fields{
			"function": "handleAcceptCall",
			"user":     callee.Name,
			"group":    state.GroupName,
		}).Debug("Accept after every caller disconnected")
		s.send(callee, &signal.StopBeingCalled{})
		callee.StopBeingCalled()
		return
	}
	notInCall := s.registry.LookupAll(state.NotInCallMembers)

	s.sendGroupStartMessages(callee, state, append(append([]*Endpoint{}, callers...), notInCall...))
	s.establishCall(ctx, callee, callers, state.GroupName)
	callee.StopBeingCalled()
}

// handleRejectCall tells the actual caller the ring was declined.
func (s *Server) handleRejectCall(callee *Endpoint) {
	if !callee.BeingCalled() {
		logrus.WithField("user", callee.Name).Debug("Reject from user who is not being called")
		return
	}
	if caller, err := s.registry.Lookup(callee.beingCalled.ActualCaller()); err == nil {
		s.send(caller, &signal.CallRejected{})
	}
	callee.StopBeingCalled()
}

// handleStopCalling withdraws a ring. Only the actual caller may stop
// one; anyone else's request is dropped.
func (s *Server) handleStopCalling(from *Endpoint, msg *signal.StopCalling) {
	callee, err := s.registry.Lookup(msg.Callee)
	if err != nil || !callee.BeingCalled() {
		return
	}
	if callee.beingCalled.ActualCaller() != from.Name {
		logrus.WithFields(logrus.Fields{
			"function": "handleStopCalling",
			"user":     from.Name,
			"callee":   callee.Name,
		}).Debug("Stop request from user who is not the actual caller")
		return
	}
	s.send(callee, &signal.StopBeingCalled{})
	callee.StopBeingCalled()
}

// handleUpdateBeingCalledInfo replaces the ringing callee's stored
// call context, for example after another participant joined the
// caller's voice chat mid-ring.
func (s *Server) handleUpdateBeingCalledInfo(from *Endpoint, msg *signal.UpdateBeingCalledInfo) {
	callee, err := s.registry.Lookup(msg.Callee)
	if err != nil || !callee.BeingCalled() {
		return
	}
	if callee.beingCalled.ActualCaller() != from.Name {
		logrus.WithFields(logrus.Fields{
			"function": "handleUpdateBeingCalledInfo",
			"user":     from.Name,
			"callee":   callee.Name,
		}).Debug("Update from user who is not the actual caller")
		return
	}

	participants := append(append([]string{}, msg.OtherParticipants...), from.Name)
	callee.StartBeingCalled(&BeingCalledState{
		Participants:     participants,
		GroupName:        msg.GroupName,
		HostName:         msg.HostName,
		NotInCallMembers: msg.NotInCallMembers,
	})
}

// handleRequestJoinCall forwards a group member's request to join the
// running voice chat to the group's host.
func (s *Server) handleRequestJoinCall(from *Endpoint, msg *signal.RequestJoinCall) {
	host, err := s.registry.Lookup(msg.HostName)
	if err != nil {
		logrus.WithError(err).Debug("Join request for offline host")
		return
	}
	s.send(host, &signal.JoinRequested{
		GroupName:   msg.GroupName,
		RequestedBy: from.Name,
	})
}

// handleAllowCallJoin admits a group member into the running call.
// Processed like an accepted call with the roles swapped: the joiner
// takes the callee's seat and the current participants the callers'.
func (s *Server) handleAllowCallJoin(ctx context.Context, host *Endpoint, msg *signal.AllowCallJoin) {
	joiner, err := s.registry.Lookup(msg.RequestedBy)
	if err != nil {
		logrus.WithError(err).Debug("Join grant for offline user")
		return
	}

	// A joiner who got rung in the meantime abandons that ring.
	if joiner.BeingCalled() {
		if caller, err := s.registry.Lookup(joiner.beingCalled.ActualCaller()); err == nil {
			s.send(caller, &signal.CallRejected{})
		}
		joiner.StopBeingCalled()
	}

	participants := append(s.registry.LookupAll(msg.OtherParticipants), host)
	s.establishCall(ctx, joiner, participants, msg.GroupName)
}

// establishCall allocates media port pairs between the joining user
// and every current participant, then fans out the peer descriptors.
// Exactly one participant means a brand-new call, so both sides get
// StartNewCall; otherwise the existing participants each get an
// AddParticipant for the joiner.
func (s *Server) establishCall(ctx context.Context, joiner *Endpoint, participants []*Endpoint, groupName string) {
	joinerPicture := s.profilePicture(ctx, joiner.Name)

	joinerPeers := make([]signal.PeerDescriptor, 0, len(participants))
	for _, participant := range participants {
		joinerPairs, participantPairs := allocatePortPairs(joiner, participant)

		joinerPeers = append(joinerPeers, peerDescriptor(participant, joinerPairs, s.profilePicture(ctx, participant.Name)))
		joinerAsPeer := peerDescriptor(joiner, participantPairs, joinerPicture)

		if len(participants) == 1 {
			s.send(participant, &signal.StartNewCall{
				Peers:     []signal.PeerDescriptor{joinerAsPeer},
				GroupName: groupName,
			})
		} else {
			s.send(participant, &signal.AddParticipant{
				Peer:      joinerAsPeer,
				GroupName: groupName,
			})
		}
	}

	s.send(joiner, &signal.StartNewCall{
		Peers:     joinerPeers,
		GroupName: groupName,
	})
}

// sendGroupStartMessages tells the callee (and, on a brand-new call,
// the lone caller) to create the call group, then synchronizes member
// lists: the callee learns everyone, everyone learns the callee.
func (s *Server) sendGroupStartMessages(callee *Endpoint, state *BeingCalledState, inGroup []*Endpoint) {
	create := &signal.CreateCallGroup{
		GroupName: state.GroupName,
		HostName:  state.HostName,
	}
	s.send(callee, create)
	if len(inGroup) == 1 {
		s.send(inGroup[0], create)
	}

	allMembers := append(append([]string{}, state.Participants...), state.NotInCallMembers...)
	s.send(callee, &signal.AddGroupMembers{
		GroupName: state.GroupName,
		Members:   allMembers,
	})
	for _, member := range inGroup {
		s.send(member, &signal.AddGroupMembers{
			GroupName: state.GroupName,
			Members:   []string{callee.Name},
		})
	}
}

// peerDescriptor builds the descriptor for endpoint e with the port
// pairs the receiving side must use, in voice, screen, camera order.
func peerDescriptor(e *Endpoint, pairs [peerPortPairs]signal.PortPair, picture []byte) signal.PeerDescriptor {
	return signal.PeerDescriptor{
		Name:    e.Name,
		IP:      e.IP,
		Voice:   pairs[0],
		Screen:  pairs[1],
		Camera:  pairs[2],
		Picture: picture,
	}
}

func (s *Server) profilePicture(ctx context.Context, name string) []byte {
	picture, err := s.store.ProfilePicture(ctx, name)
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).WithField("user", name).Debug("Loading picture failed")
	}
	return picture
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
