package signal

// Kind identifies a concrete signaling message type on the wire.
// Values are stable protocol constants; never reorder them.
type Kind uint8

// Connection lifecycle messages.
const (
	KindLogin Kind = iota + 1
	KindRegister
	KindLoginOK
	KindLoginFailed
	KindRegisterOK
	KindRegisterFailed
	KindDisconnect
	KindNewOpenPorts
	KindPopup
	KindRequestUserInfo
	KindUserInfo
	KindChangePicture
)

// Call signaling messages.
const (
	KindRequestCall Kind = iota + 13
	KindUpdateBeingCalledInfo
	KindRequestJoinCall
	KindJoinRequested
	KindAllowCallJoin
	KindCalledBy
	KindInvitedToCall
	KindAcceptCall
	KindRejectCall
	KindStartNewCall
	KindAddParticipant
	KindCallRejected
	KindStopCalling
	KindStopBeingCalled
	KindCallingFailed
	KindParticipantChangedPicture
)

// Call group management messages.
const (
	KindCreateCallGroup Kind = iota + 29
	KindAddGroupMembers
	KindCloseGroupCommand
	KindDeleteCallGroup
	KindChangeGroupHost
	KindHostLeftVoiceChat
	KindLeaveGroup
	KindRemoveGroupMember
)

// Contact lifecycle messages.
const (
	KindRequestAddContact Kind = iota + 37
	KindAskedToBeContact
	KindAcceptContact
	KindRejectContact
	KindAddContacts
	KindContactOnline
	KindContactOffline
	KindDeleteContact
	KindContactChangedPicture
)

// Chat relay messages.
const (
	KindSendChatText Kind = iota + 46
	KindSendChatPicture
	KindChatText
	KindChatPicture
)

// In-call notification relay messages. The client-to-server variants
// carry the recipient list; the Participant* variants are the
// broadcasts the server fans out in response.
const (
	KindLeaveVoiceChat Kind = iota + 50
	KindCameraShareStarted
	KindCameraShareStopped
	KindScreenShareStarted
	KindScreenShareStopped
	KindParticipantLeftCall
	KindParticipantCameraStarted
	KindParticipantCameraStopped
	KindParticipantScreenStarted
	KindParticipantScreenStopped
)

var kindNames = map[Kind]string{
	KindLogin:                     "Login",
	KindRegister:                  "Register",
	KindLoginOK:                   "LoginOK",
	KindLoginFailed:               "LoginFailed",
	KindRegisterOK:                "RegisterOK",
	KindRegisterFailed:            "RegisterFailed",
	KindDisconnect:                "Disconnect",
	KindNewOpenPorts:              "NewOpenPorts",
	KindPopup:                     "Popup",
	KindRequestUserInfo:           "RequestUserInfo",
	KindUserInfo:                  "UserInfo",
	KindChangePicture:             "ChangePicture",
	KindRequestCall:               "RequestCall",
	KindUpdateBeingCalledInfo:     "UpdateBeingCalledInfo",
	KindRequestJoinCall:           "RequestJoinCall",
	KindJoinRequested:             "JoinRequested",
	KindAllowCallJoin:             "AllowCallJoin",
	KindCalledBy:                  "CalledBy",
	KindInvitedToCall:             "InvitedToCall",
	KindAcceptCall:                "AcceptCall",
	KindRejectCall:                "RejectCall",
	KindStartNewCall:              "StartNewCall",
	KindAddParticipant:            "AddParticipant",
	KindCallRejected:              "CallRejected",
	KindStopCalling:               "StopCalling",
	KindStopBeingCalled:           "StopBeingCalled",
	KindCallingFailed:             "CallingFailed",
	KindParticipantChangedPicture: "ParticipantChangedPicture",
	KindCreateCallGroup:           "CreateCallGroup",
	KindAddGroupMembers:           "AddGroupMembers",
	KindCloseGroupCommand:         "CloseGroupCommand",
	KindDeleteCallGroup:           "DeleteCallGroup",
	KindChangeGroupHost:           "ChangeGroupHost",
	KindHostLeftVoiceChat:         "HostLeftVoiceChat",
	KindLeaveGroup:                "LeaveGroup",
	KindRemoveGroupMember:         "RemoveGroupMember",
	KindRequestAddContact:         "RequestAddContact",
	KindAskedToBeContact:          "AskedToBeContact",
	KindAcceptContact:             "AcceptContact",
	KindRejectContact:             "RejectContact",
	KindAddContacts:               "AddContacts",
	KindContactOnline:             "ContactOnline",
	KindContactOffline:            "ContactOffline",
	KindDeleteContact:             "DeleteContact",
	KindContactChangedPicture:     "ContactChangedPicture",
	KindSendChatText:              "SendChatText",
	KindSendChatPicture:           "SendChatPicture",
	KindChatText:                  "ChatText",
	KindChatPicture:               "ChatPicture",
	KindLeaveVoiceChat:            "LeaveVoiceChat",
	KindCameraShareStarted:        "CameraShareStarted",
	KindCameraShareStopped:        "CameraShareStopped",
	KindScreenShareStarted:        "ScreenShareStarted",
	KindScreenShareStopped:        "ScreenShareStopped",
	KindParticipantLeftCall:       "ParticipantLeftCall",
	KindParticipantCameraStarted:  "ParticipantCameraStarted",
	KindParticipantCameraStopped:  "ParticipantCameraStopped",
	KindParticipantScreenStarted:  "ParticipantScreenStarted",
	KindParticipantScreenStopped:  "ParticipantScreenStopped",
}

// String returns the message type name for logging.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}
