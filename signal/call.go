package signal

// RequestCall asks the server to ring Callee. OtherParticipants lists
// the sender's current call peers; the server appends the sender so
// the actual caller is always the last element of the callee's caller
// list. GroupName, HostName, and NotInCallMembers describe the group
// the callee would join, letting the callee distinguish a group
// invitation from a plain call.
type RequestCall struct {
	Callee            string   `cbor:"c"`
	OtherParticipants []string `cbor:"op"`
	GroupName         string   `cbor:"g"`
	HostName          string   `cbor:"h"`
	NotInCallMembers  []string `cbor:"nm"`
}

// UpdateBeingCalledInfo replaces the call context stored for a callee
// the sender is currently ringing. Only the actual caller may send it.
type UpdateBeingCalledInfo struct {
	Callee            string   `cbor:"c"`
	OtherParticipants []string `cbor:"op"`
	GroupName         string   `cbor:"g"`
	HostName          string   `cbor:"h"`
	NotInCallMembers  []string `cbor:"nm"`
}

// RequestJoinCall asks a group's host for permission to join the
// group's running voice chat.
type RequestJoinCall struct {
	GroupName string `cbor:"g"`
	HostName  string `cbor:"h"`
}

// JoinRequested informs a host that a group member wants to join the
// running voice chat.
type JoinRequested struct {
	GroupName   string `cbor:"g"`
	RequestedBy string `cbor:"u"`
}

// AllowCallJoin grants a pending join request. Sent by the host; the
// server processes it like an accepted call with the roles swapped.
type AllowCallJoin struct {
	GroupName         string   `cbor:"g"`
	RequestedBy       string   `cbor:"u"`
	OtherParticipants []string `cbor:"op"`
}

// CalledBy rings a callee who is not a member of the calling group.
// The actual caller is the last element of Callers.
type CalledBy struct {
	Callers   []string `cbor:"cs"`
	GroupName string   `cbor:"g"`
}

// InvitedToCall rings a callee who is already a member of the calling
// group.
type InvitedToCall struct {
	GroupName          string   `cbor:"g"`
	InCallParticipants []string `cbor:"icp"`
}

// AcceptCall accepts the call the sender is currently being rung for.
// The server resolves the call from its stored being-called state.
type AcceptCall struct{}

// RejectCall declines the call the sender is currently being rung for.
type RejectCall struct{}

// StartNewCall tells a client to open media channels to every listed
// peer. Sent when the call has exactly one participant so far.
type StartNewCall struct {
	Peers     []PeerDescriptor `cbor:"ps"`
	GroupName string           `cbor:"g"`
}

// AddParticipant tells an in-call client to open media channels to one
// new peer.
type AddParticipant struct {
	Peer      PeerDescriptor `cbor:"p"`
	GroupName string         `cbor:"g"`
}

// CallRejected informs the actual caller that the callee declined.
type CallRejected struct{}

// StopCalling withdraws an outbound call attempt. Only the actual
// caller may stop a ring.
type StopCalling struct {
	Callee string `cbor:"c"`
}

// StopBeingCalled tells a ringing callee that the call attempt ended.
type StopBeingCalled struct{}

// CallingFailed informs the caller that the ring could not be placed.
type CallingFailed struct {
	Reason string `cbor:"r"`
}

// ParticipantChangedPicture informs in-call peers that a participant
// has a new profile picture.
type ParticipantChangedPicture struct {
	Name    string `cbor:"n"`
	Picture []byte `cbor:"pic"`
}

func (*RequestCall) Kind() Kind               { return KindRequestCall }
func (*UpdateBeingCalledInfo) Kind() Kind     { return KindUpdateBeingCalledInfo }
func (*RequestJoinCall) Kind() Kind           { return KindRequestJoinCall }
func (*JoinRequested) Kind() Kind             { return KindJoinRequested }
func (*AllowCallJoin) Kind() Kind             { return KindAllowCallJoin }
func (*CalledBy) Kind() Kind                  { return KindCalledBy }
func (*InvitedToCall) Kind() Kind             { return KindInvitedToCall }
func (*AcceptCall) Kind() Kind                { return KindAcceptCall }
func (*RejectCall) Kind() Kind                { return KindRejectCall }
func (*StartNewCall) Kind() Kind              { return KindStartNewCall }
func (*AddParticipant) Kind() Kind            { return KindAddParticipant }
func (*CallRejected) Kind() Kind              { return KindCallRejected }
func (*StopCalling) Kind() Kind               { return KindStopCalling }
func (*StopBeingCalled) Kind() Kind           { return KindStopBeingCalled }
func (*CallingFailed) Kind() Kind             { return KindCallingFailed }
func (*ParticipantChangedPicture) Kind() Kind { return KindParticipantChangedPicture }
