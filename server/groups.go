package server

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
)

// handleCloseGroup orders the remaining members to delete a group
// after its call ended with too few people to keep it alive.
func (s *Server) handleCloseGroup(from *Endpoint, msg *signal.CloseGroupCommand) {
	s.broadcast(s.registry.LookupAll(msg.OtherMembers), &signal.DeleteCallGroup{
		GroupName: msg.GroupName,
	})
}

// handleHostLeft elects a new host after the current one left the
// voice chat. The new host is the first remaining participant in the
// departing host's list. Only the host may trigger the election.
func (s *Server) handleHostLeft(from *Endpoint, msg *signal.HostLeftVoiceChat) {
	if from.Name != msg.HostName {
		logrus.WithFields(logrus.Fields{
			"function": "handleHostLeft",
			"user":     from.Name,
			"group":    msg.GroupName,
		}).Debug("Host-left message from user who is not the host")
		return
	}
	if len(msg.OtherParticipants) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "handleHostLeft",
			"group":    msg.GroupName,
		}).Warn("Host left with no remaining participants")
		return
	}

	newHost := msg.OtherParticipants[0]
	members := append(s.registry.LookupAll(msg.OtherMembers), from)
	s.broadcast(members, &signal.ChangeGroupHost{
		GroupName: msg.GroupName,
		NewHost:   newHost,
	})
}

// handleLeaveGroup tells the remaining members to drop the sender
// from their group records.
func (s *Server) handleLeaveGroup(from *Endpoint, msg *signal.LeaveGroup) {
	s.broadcast(s.registry.LookupAll(msg.OtherMembers), &signal.RemoveGroupMember{
		GroupName: msg.GroupName,
		Member:    from.Name,
	})
}
