package server

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
)

// Chat and in-call notifications pass through the server untouched:
// the recipient list is swapped for the sender's name, nothing else
// is interpreted.

func (s *Server) handleChatText(from *Endpoint, msg *signal.SendChatText) {
	s.broadcast(s.registry.LookupAll(msg.Participants), &signal.ChatText{
		ChatName: msg.ChatName,
		Sender:   from.Name,
		SentAt:   msg.SentAt,
		Text:     msg.Text,
	})
}

func (s *Server) handleChatPicture(from *Endpoint, msg *signal.SendChatPicture) {
	s.broadcast(s.registry.LookupAll(msg.Participants), &signal.ChatPicture{
		ChatName: msg.ChatName,
		Sender:   from.Name,
		SentAt:   msg.SentAt,
		Picture:  msg.Picture,
	})
}

// relayInCall fans one in-call notification out to the sender's
// current call peers.
func (s *Server) relayInCall(from *Endpoint, participants []string, msg signal.Message) {
	s.broadcast(s.registry.LookupAll(participants), msg)
}

// handleUserInfo answers an arbitrary-user lookup.
func (s *Server) handleUserInfo(ctx context.Context, from *Endpoint, msg *signal.RequestUserInfo) {
	exists, err := s.store.Exists(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("User info lookup failed")
		return
	}
	info := &signal.UserInfo{Name: msg.Name, Exists: exists}
	if exists {
		info.Online = s.registry.Connected(msg.Name)
		info.Picture = s.profilePicture(ctx, msg.Name)
	}
	s.send(from, info)
}

// handleChangePicture stores the new picture and pushes it to online
// contacts and, separately, to the sender's current call peers.
func (s *Server) handleChangePicture(ctx context.Context, from *Endpoint, msg *signal.ChangePicture) {
	if err := s.store.SetProfilePicture(ctx, from.Name, msg.Picture); err != nil {
		logrus.WithError(err).Error("Storing picture failed")
		return
	}

	s.broadcastToConnectedContacts(ctx, from.Name, &signal.ContactChangedPicture{
		Name:    from.Name,
		Picture: msg.Picture,
	})
	if len(msg.InCallParticipants) > 0 {
		s.broadcast(s.registry.LookupAll(msg.InCallParticipants), &signal.ParticipantChangedPicture{
			Name:    from.Name,
			Picture: msg.Picture,
		})
	}
}
