package server

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/storage"
)

// handleRequestAddContact validates and relays a contact request. The
// target must exist and must not be the sender; a fresh request rings
// the target if they are online, a repeat just tells the sender so.
func (s *Server) handleRequestAddContact(ctx context.Context, from *Endpoint, msg *signal.RequestAddContact) {
	if msg.Name == from.Name {
		return
	}
	exists, err := s.store.Exists(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("Contact existence check failed")
		return
	}
	if !exists {
		s.send(from, &signal.Popup{Text: "no user with that name exists"})
		return
	}

	pending, err := s.store.PendingContacts(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("Loading pending contacts failed")
		return
	}
	if contains(pending, from.Name) {
		s.send(from, &signal.Popup{Text: "you already sent this user a contact request"})
		return
	}

	if err := s.store.AddPendingContact(ctx, msg.Name, from.Name); err != nil {
		logrus.WithError(err).Error("Storing pending contact failed")
		return
	}
	s.send(from, &signal.Popup{Text: "contact request sent"})
	if target, err := s.registry.Lookup(msg.Name); err == nil {
		s.send(target, &signal.AskedToBeContact{By: from.Name})
	}
}

// handleAcceptContact makes two users contacts of each other and
// hands each the other's contact card.
func (s *Server) handleAcceptContact(ctx context.Context, from *Endpoint, msg *signal.AcceptContact) {
	if err := s.store.RemovePendingContact(ctx, from.Name, msg.Name); err != nil {
		logrus.WithError(err).Error("Removing pending contact failed")
	}
	if err := s.store.RemovePendingContact(ctx, msg.Name, from.Name); err != nil {
		logrus.WithError(err).Error("Removing pending contact failed")
	}
	if err := s.store.AddContact(ctx, from.Name, msg.Name); err != nil {
		if errors.Is(err, storage.ErrUnknownUser) {
			return
		}
		logrus.WithError(err).Error("Storing contact failed")
		return
	}

	requesterOnline := s.registry.Connected(msg.Name)
	if requesterOnline {
		if requester, err := s.registry.Lookup(msg.Name); err == nil {
			s.send(requester, &signal.AddContacts{Contacts: []signal.ContactInfo{{
				Name:    from.Name,
				Online:  true,
				Picture: s.profilePicture(ctx, from.Name),
			}}})
		}
	}
	s.send(from, &signal.AddContacts{Contacts: []signal.ContactInfo{{
		Name:    msg.Name,
		Online:  requesterOnline,
		Picture: s.profilePicture(ctx, msg.Name),
	}}})
}

// handleRejectContact quietly discards a pending request.
func (s *Server) handleRejectContact(ctx context.Context, from *Endpoint, msg *signal.RejectContact) {
	if err := s.store.RemovePendingContact(ctx, from.Name, msg.Name); err != nil {
		logrus.WithError(err).Error("Removing pending contact failed")
	}
}

// handleDeleteContact removes the relation from both sides and tells
// the deleted contact if they are online.
func (s *Server) handleDeleteContact(ctx context.Context, from *Endpoint, msg *signal.DeleteContact) {
	if err := s.store.RemoveContact(ctx, from.Name, msg.Name); err != nil {
		logrus.WithError(err).Error("Removing contact failed")
		return
	}
	if deleted, err := s.registry.Lookup(msg.Name); err == nil {
		s.send(deleted, &signal.DeleteContact{Name: from.Name})
	}
}
