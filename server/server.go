package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicelink/signal"
	"github.com/opd-ai/voicelink/storage"
	"github.com/opd-ai/voicelink/wire"
)

// Config holds server tunables.
type Config struct {
	// ListenAddr is the TCP address the signaling listener binds.
	ListenAddr string

	// EventBuffer sizes the channel between connection readers and
	// the dispatch loop.
	EventBuffer int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":7312",
		EventBuffer: 256,
	}
}

// Server is the VoiceLink signaling server.
type Server struct {
	cfg      Config
	store    storage.Store
	codec    *wire.Codec
	registry *Registry

	// pending holds accepted connections that have not authenticated
	// yet. Only Login and Register are legal from them.
	pending map[net.Conn]bool

	events chan event
}

type event interface{}

type evAccepted struct{ conn net.Conn }

type evMessage struct {
	conn net.Conn
	msg  signal.Message
}

type evClosed struct {
	conn net.Conn
	err  error
}

// New returns a server using the given store.
func New(cfg Config, store storage.Store) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		codec:    wire.NewCodec(),
		registry: NewRegistry(),
		pending:  make(map[net.Conn]bool),
		events:   make(chan event, cfg.EventBuffer),
	}
}

// Run listens and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}
	defer listener.Close()

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"addr":     listener.Addr().String(),
	}).Info("Signaling server listening")

	go s.acceptLoop(ctx, listener)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

// Serve runs the dispatch loop against an already-bound listener.
// Used by tests that need to know the bound address up front.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go s.acceptLoop(ctx, listener)

	for {
		select {
		case <-ctx.Done():
			listener.Close()
			s.shutdown()
			return ctx.Err()
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("Accept failed")
			return
		}
		s.events <- evAccepted{conn: conn}
	}
}

// readLoop decodes frames off one connection and forwards them to the
// dispatch loop. Any receive or decode failure ends the connection.
func (s *Server) readLoop(conn net.Conn) {
	for {
		payload, err := s.codec.Receive(conn)
		if err != nil {
			s.events <- evClosed{conn: conn, err: err}
			return
		}
		msg, err := signal.Decode(payload)
		if err != nil {
			s.events <- evClosed{conn: conn, err: fmt.Errorf("%w: %v", ErrProtocolViolation, err)}
			return
		}
		s.events <- evMessage{conn: conn, msg: msg}
	}
}

func (s *Server) dispatch(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case evAccepted:
		s.pending[ev.conn] = true
		go s.readLoop(ev.conn)
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"remote":   ev.conn.RemoteAddr().String(),
		}).Debug("Connection accepted")

	case evClosed:
		s.disconnect(ev.conn, ev.err)

	case evMessage:
		if s.pending[ev.conn] {
			s.handlePending(ctx, ev.conn, ev.msg)
			return
		}
		endpoint := s.registry.ByConn(ev.conn)
		if endpoint == nil {
			// Raced with a disconnect; the message has no owner.
			return
		}
		s.handleMessage(ctx, endpoint, ev.msg)
	}
}

// handlePending processes the only messages legal before
// authentication. Anything else ends the connection.
func (s *Server) handlePending(ctx context.Context, conn net.Conn, msg signal.Message) {
	switch msg := msg.(type) {
	case *signal.Login:
		s.handleLogin(ctx, conn, msg)
	case *signal.Register:
		s.handleRegister(ctx, conn, msg)
	default:
		s.disconnect(conn, fmt.Errorf("%w: %s before login", ErrProtocolViolation, msg.Kind()))
	}
}

func (s *Server) handleLogin(ctx context.Context, conn net.Conn, msg *signal.Login) {
	if err := s.store.VerifyCredentials(ctx, msg.Name, msg.Password); err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			s.sendConn(conn, &signal.LoginFailed{Reason: "incorrect username or password"})
			return
		}
		logrus.WithError(err).Error("Credential check failed")
		s.sendConn(conn, &signal.LoginFailed{Reason: "internal error"})
		return
	}
	if s.registry.Connected(msg.Name) {
		s.sendConn(conn, &signal.LoginFailed{Reason: "user is already connected"})
		return
	}

	ip := remoteIP(conn)
	endpoint := NewEndpoint(msg.Name, ip, conn)
	delete(s.pending, conn)
	s.registry.Add(endpoint)

	contacts, err := s.contactInfoList(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("Loading contacts failed")
	}
	pendingContacts, err := s.store.PendingContacts(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("Loading pending contacts failed")
	}
	picture, err := s.store.ProfilePicture(ctx, msg.Name)
	if err != nil {
		logrus.WithError(err).Error("Loading picture failed")
	}

	s.send(endpoint, &signal.LoginOK{
		Contacts:        contacts,
		PendingContacts: pendingContacts,
		Picture:         picture,
	})
	s.broadcastToConnectedContacts(ctx, msg.Name, &signal.ContactOnline{Name: msg.Name})

	logrus.WithFields(logrus.Fields{
		"function": "handleLogin",
		"user":     msg.Name,
		"ip":       ip,
	}).Info("User logged in")
}

func (s *Server) handleRegister(ctx context.Context, conn net.Conn, msg *signal.Register) {
	err := s.store.CreateAccount(ctx, msg.Name, msg.Password)
	switch {
	case errors.Is(err, storage.ErrAccountExists):
		s.sendConn(conn, &signal.RegisterFailed{Reason: "username is already taken"})
	case errors.Is(err, storage.ErrInvalidUserInfo):
		s.sendConn(conn, &signal.RegisterFailed{Reason: "username and password must be 3 to 16 letters, digits or underscores"})
	case err != nil:
		logrus.WithError(err).Error("Registration failed")
		s.sendConn(conn, &signal.RegisterFailed{Reason: "internal error"})
	default:
		s.sendConn(conn, &signal.RegisterOK{})
	}
}

// handleMessage routes an authenticated client's message to the
// matching handler family.
func (s *Server) handleMessage(ctx context.Context, from *Endpoint, msg signal.Message) {
	logrus.WithFields(logrus.Fields{
		"function": "handleMessage",
		"user":     from.Name,
		"kind":     msg.Kind().String(),
	}).Debug("Handling message")

	switch msg := msg.(type) {
	case *signal.Disconnect:
		s.disconnect(from.conn, nil)

	case *signal.NewOpenPorts:
		from.ports.Release(msg.Ports)

	case *signal.RequestUserInfo:
		s.handleUserInfo(ctx, from, msg)
	case *signal.ChangePicture:
		s.handleChangePicture(ctx, from, msg)

	case *signal.RequestCall:
		s.handleRequestCall(from, msg)
	case *signal.AcceptCall:
		s.handleAcceptCall(ctx, from)
	case *signal.RejectCall:
		s.handleRejectCall(from)
	case *signal.StopCalling:
		s.handleStopCalling(from, msg)
	case *signal.UpdateBeingCalledInfo:
		s.handleUpdateBeingCalledInfo(from, msg)
	case *signal.RequestJoinCall:
		s.handleRequestJoinCall(from, msg)
	case *signal.AllowCallJoin:
		s.handleAllowCallJoin(ctx, from, msg)

	case *signal.CloseGroupCommand:
		s.handleCloseGroup(from, msg)
	case *signal.HostLeftVoiceChat:
		s.handleHostLeft(from, msg)
	case *signal.LeaveGroup:
		s.handleLeaveGroup(from, msg)

	case *signal.RequestAddContact:
		s.handleRequestAddContact(ctx, from, msg)
	case *signal.AcceptContact:
		s.handleAcceptContact(ctx, from, msg)
	case *signal.RejectContact:
		s.handleRejectContact(ctx, from, msg)
	case *signal.DeleteContact:
		s.handleDeleteContact(ctx, from, msg)

	case *signal.SendChatText:
		s.handleChatText(from, msg)
	case *signal.SendChatPicture:
		s.handleChatPicture(from, msg)

	case *signal.LeaveVoiceChat:
		s.relayInCall(from, msg.Participants, &signal.ParticipantLeftCall{Sender: from.Name})
	case *signal.CameraShareStarted:
		s.relayInCall(from, msg.Participants, &signal.ParticipantCameraStarted{Sender: from.Name})
	case *signal.CameraShareStopped:
		s.relayInCall(from, msg.Participants, &signal.ParticipantCameraStopped{Sender: from.Name})
	case *signal.ScreenShareStarted:
		s.relayInCall(from, msg.Participants, &signal.ParticipantScreenStarted{Sender: from.Name})
	case *signal.ScreenShareStopped:
		s.relayInCall(from, msg.Participants, &signal.ParticipantScreenStopped{Sender: from.Name})

	default:
		logrus.WithFields(logrus.Fields{
			"function": "handleMessage",
			"user":     from.Name,
			"kind":     msg.Kind().String(),
		}).Warn("Unexpected message from client")
	}
}

// disconnect tears down a connection, whether pending or
// authenticated, and tells the user's contacts they went offline.
func (s *Server) disconnect(conn net.Conn, cause error) {
	if endpoint := s.registry.ByConn(conn); endpoint != nil {
		s.registry.Remove(conn)
		s.broadcastToConnectedContacts(context.Background(), endpoint.Name,
			&signal.ContactOffline{Name: endpoint.Name})

		logrus.WithFields(logrus.Fields{
			"function": "disconnect",
			"user":     endpoint.Name,
			"cause":    fmt.Sprintf("%v", cause),
		}).Info("User disconnected")
	}
	delete(s.pending, conn)
	conn.Close()
}

func (s *Server) shutdown() {
	for conn := range s.pending {
		conn.Close()
	}
	for _, endpoint := range s.registry.byName {
		endpoint.conn.Close()
	}
}

// send delivers a message to an endpoint. Send failures are logged
// and left for the endpoint's reader to surface as a disconnect.
func (s *Server) send(to *Endpoint, msg signal.Message) {
	s.sendConn(to.conn, msg)
}

func (s *Server) sendConn(conn net.Conn, msg signal.Message) {
	payload, err := signal.Encode(msg)
	if err != nil {
		logrus.WithError(err).Error("Encoding message failed")
		return
	}
	if err := s.codec.Send(conn, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "sendConn",
			"kind":     msg.Kind().String(),
		}).WithError(err).Warn("Sending message failed")
	}
}

// broadcast delivers one message to every listed endpoint.
func (s *Server) broadcast(to []*Endpoint, msg signal.Message) {
	for _, endpoint := range to {
		s.send(endpoint, msg)
	}
}

func (s *Server) broadcastToConnectedContacts(ctx context.Context, name string, msg signal.Message) {
	contacts, err := s.store.Contacts(ctx, name)
	if err != nil {
		logrus.WithError(err).Error("Loading contacts for broadcast failed")
		return
	}
	s.broadcast(s.registry.LookupAll(contacts), msg)
}

func (s *Server) contactInfoList(ctx context.Context, name string) ([]signal.ContactInfo, error) {
	contacts, err := s.store.Contacts(ctx, name)
	if err != nil {
		return nil, err
	}

	infos := make([]signal.ContactInfo, 0, len(contacts))
	for _, contact := range contacts {
		picture, err := s.store.ProfilePicture(ctx, contact)
		if err != nil {
			return nil, err
		}
		infos = append(infos, signal.ContactInfo{
			Name:    contact,
			Online:  s.registry.Connected(contact),
			Picture: picture,
		})
	}
	return infos, nil
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
