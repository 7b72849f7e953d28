package signal

// CreateCallGroup tells a client to create a local call group record.
type CreateCallGroup struct {
	GroupName string `cbor:"g"`
	HostName  string `cbor:"h"`
}

// AddGroupMembers adds usernames to an existing call group.
type AddGroupMembers struct {
	GroupName string   `cbor:"g"`
	Members   []string `cbor:"m"`
}

// CloseGroupCommand orders the listed members to delete the group.
// Sent by the host when the group dissolves.
type CloseGroupCommand struct {
	GroupName    string   `cbor:"g"`
	OtherMembers []string `cbor:"m"`
}

// DeleteCallGroup tells a client to delete its local group record.
type DeleteCallGroup struct {
	GroupName string `cbor:"g"`
}

// ChangeGroupHost announces the group's new host.
type ChangeGroupHost struct {
	GroupName string `cbor:"g"`
	NewHost   string `cbor:"h"`
}

// HostLeftVoiceChat is sent by a departing host. The server elects the
// new host from OtherParticipants and broadcasts the change to
// OtherMembers.
type HostLeftVoiceChat struct {
	GroupName         string   `cbor:"g"`
	OtherParticipants []string `cbor:"op"`
	OtherMembers      []string `cbor:"m"`
	HostName          string   `cbor:"h"`
}

// LeaveGroup removes the sender from a group and tells the server to
// notify the remaining members.
type LeaveGroup struct {
	GroupName    string   `cbor:"g"`
	OtherMembers []string `cbor:"m"`
}

// RemoveGroupMember tells a client that a member left its group.
type RemoveGroupMember struct {
	GroupName string `cbor:"g"`
	Member    string `cbor:"u"`
}

func (*CreateCallGroup) Kind() Kind   { return KindCreateCallGroup }
func (*AddGroupMembers) Kind() Kind   { return KindAddGroupMembers }
func (*CloseGroupCommand) Kind() Kind { return KindCloseGroupCommand }
func (*DeleteCallGroup) Kind() Kind   { return KindDeleteCallGroup }
func (*ChangeGroupHost) Kind() Kind   { return KindChangeGroupHost }
func (*HostLeftVoiceChat) Kind() Kind { return KindHostLeftVoiceChat }
func (*LeaveGroup) Kind() Kind        { return KindLeaveGroup }
func (*RemoveGroupMember) Kind() Kind { return KindRemoveGroupMember }
