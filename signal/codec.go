package signal

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Version is the signaling protocol version stamped into every
// envelope. Bump it on any wire-incompatible message change.
const Version = 1

// Message is implemented by every concrete signaling message.
type Message interface {
	Kind() Kind
}

// Envelope is the wire form of a signaling message: protocol version,
// kind discriminant, and the CBOR-encoded message payload.
type Envelope struct {
	V       uint8           `cbor:"v"`
	Kind    Kind            `cbor:"k"`
	Payload cbor.RawMessage `cbor:"p"`
}

// encMode uses Core Deterministic Encoding so the same logical
// message always produces identical bytes.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields for
// forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("signal: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("signal: CBOR decoder initialization failed: " + err.Error())
	}
}

// constructors maps each kind to a factory for its zero message.
// Decode unmarshals envelope payloads into the product.
var constructors = map[Kind]func() Message{
	KindLogin:                     func() Message { return &Login{} },
	KindRegister:                  func() Message { return &Register{} },
	KindLoginOK:                   func() Message { return &LoginOK{} },
	KindLoginFailed:               func() Message { return &LoginFailed{} },
	KindRegisterOK:                func() Message { return &RegisterOK{} },
	KindRegisterFailed:            func() Message { return &RegisterFailed{} },
	KindDisconnect:                func() Message { return &Disconnect{} },
	KindNewOpenPorts:              func() Message { return &NewOpenPorts{} },
	KindPopup:                     func() Message { return &Popup{} },
	KindRequestUserInfo:           func() Message { return &RequestUserInfo{} },
	KindUserInfo:                  func() Message { return &UserInfo{} },
	KindChangePicture:             func() Message { return &ChangePicture{} },
	KindRequestCall:               func() Message { return &RequestCall{} },
	KindUpdateBeingCalledInfo:     func() Message { return &UpdateBeingCalledInfo{} },
	KindRequestJoinCall:           func() Message { return &RequestJoinCall{} },
	KindJoinRequested:             func() Message { return &JoinRequested{} },
	KindAllowCallJoin:             func() Message { return &AllowCallJoin{} },
	KindCalledBy:                  func() Message { return &CalledBy{} },
	KindInvitedToCall:             func() Message { return &InvitedToCall{} },
	KindAcceptCall:                func() Message { return &AcceptCall{} },
	KindRejectCall:                func() Message { return &RejectCall{} },
	KindStartNewCall:              func() Message { return &StartNewCall{} },
	KindAddParticipant:            func() Message { return &AddParticipant{} },
	KindCallRejected:              func() Message { return &CallRejected{} },
	KindStopCalling:               func() Message { return &StopCalling{} },
	KindStopBeingCalled:           func() Message { return &StopBeingCalled{} },
	KindCallingFailed:             func() Message { return &CallingFailed{} },
	KindParticipantChangedPicture: func() Message { return &ParticipantChangedPicture{} },
	KindCreateCallGroup:           func() Message { return &CreateCallGroup{} },
	KindAddGroupMembers:           func() Message { return &AddGroupMembers{} },
	KindCloseGroupCommand:         func() Message { return &CloseGroupCommand{} },
	KindDeleteCallGroup:           func() Message { return &DeleteCallGroup{} },
	KindChangeGroupHost:           func() Message { return &ChangeGroupHost{} },
	KindHostLeftVoiceChat:         func() Message { return &HostLeftVoiceChat{} },
	KindLeaveGroup:                func() Message { return &LeaveGroup{} },
	KindRemoveGroupMember:         func() Message { return &RemoveGroupMember{} },
	KindRequestAddContact:         func() Message { return &RequestAddContact{} },
	KindAskedToBeContact:          func() Message { return &AskedToBeContact{} },
	KindAcceptContact:             func() Message { return &AcceptContact{} },
	KindRejectContact:             func() Message { return &RejectContact{} },
	KindAddContacts:               func() Message { return &AddContacts{} },
	KindContactOnline:             func() Message { return &ContactOnline{} },
	KindContactOffline:            func() Message { return &ContactOffline{} },
	KindDeleteContact:             func() Message { return &DeleteContact{} },
	KindContactChangedPicture:     func() Message { return &ContactChangedPicture{} },
	KindSendChatText:              func() Message { return &SendChatText{} },
	KindSendChatPicture:           func() Message { return &SendChatPicture{} },
	KindChatText:                  func() Message { return &ChatText{} },
	KindChatPicture:               func() Message { return &ChatPicture{} },
	KindLeaveVoiceChat:            func() Message { return &LeaveVoiceChat{} },
	KindCameraShareStarted:        func() Message { return &CameraShareStarted{} },
	KindCameraShareStopped:        func() Message { return &CameraShareStopped{} },
	KindScreenShareStarted:        func() Message { return &ScreenShareStarted{} },
	KindScreenShareStopped:        func() Message { return &ScreenShareStopped{} },
	KindParticipantLeftCall:       func() Message { return &ParticipantLeftCall{} },
	KindParticipantCameraStarted:  func() Message { return &ParticipantCameraStarted{} },
	KindParticipantCameraStopped:  func() Message { return &ParticipantCameraStopped{} },
	KindParticipantScreenStarted:  func() Message { return &ParticipantScreenStarted{} },
	KindParticipantScreenStopped:  func() Message { return &ParticipantScreenStopped{} },
}

// Encode wraps msg in a versioned envelope and returns its CBOR bytes.
func Encode(msg Message) ([]byte, error) {
	payload, err := encMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", msg.Kind(), err)
	}

	data, err := encMode.Marshal(Envelope{
		V:       Version,
		Kind:    msg.Kind(),
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", msg.Kind(), err)
	}
	return data, nil
}

// Decode parses envelope bytes into the concrete message they carry.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.V != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, env.V, Version)
	}

	construct, ok := constructors[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(env.Kind))
	}

	msg := construct()
	if err := decMode.Unmarshal(env.Payload, msg); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrBadEnvelope, env.Kind, err)
	}
	return msg, nil
}
