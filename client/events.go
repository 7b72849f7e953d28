package client

import (
	"time"

	"github.com/opd-ai/voicelink/signal"
)

// Events is the callback surface a frontend implements to observe the
// session. All callbacks fire on the client's receive goroutine, so
// implementations must hand work that blocks off to their own loop.
// No internal locks are held during a callback, so implementations may
// call back into the Client. Embed NopEvents to implement only what
// you need.
type Events interface {
	// CalledBy fires when another user rings this client. The actual
	// caller is the last name in callers.
	CalledBy(callers []string, groupName string)

	// InvitedToCall fires when a group this client belongs to invites
	// it into the group's running call.
	InvitedToCall(groupName string, inCallParticipants []string)

	// CallStarted fires when a media session opens.
	CallStarted(groupName string)

	// CallEnded fires when the media session closes, for any reason.
	CallEnded(groupName string)

	// ParticipantJoined fires when a peer joins the active call.
	ParticipantJoined(name string, picture []byte)

	// ParticipantLeft fires when a peer leaves the active call.
	ParticipantLeft(name string)

	// CallRejected fires when the user this client was ringing
	// declined.
	CallRejected()

	// CallingFailed fires when a ring could not be placed.
	CallingFailed(reason string)

	// StopBeingCalled fires when an incoming ring is withdrawn.
	StopBeingCalled()

	// CameraShareChanged and ScreenShareChanged fire when an in-call
	// peer starts or stops sharing.
	CameraShareChanged(sender string, active bool)
	ScreenShareChanged(sender string, active bool)

	// ParticipantChangedPicture fires when an in-call peer changes
	// their profile picture.
	ParticipantChangedPicture(name string, picture []byte)

	// GroupCreated, GroupDeleted, GroupHostChanged, and
	// GroupMemberRemoved track the client's call group records.
	GroupCreated(group *CallGroup)
	GroupDeleted(groupName string)
	GroupHostChanged(groupName, newHost string)
	GroupMemberRemoved(groupName, member string)

	// Contact lifecycle notifications.
	ContactAdded(info signal.ContactInfo)
	ContactDeleted(name string)
	ContactOnline(name string)
	ContactOffline(name string)
	ContactChangedPicture(name string, picture []byte)
	AskedToBeContact(by string)

	// ChatText and ChatPicture deliver relayed chat content.
	ChatText(chatName, sender string, sentAt time.Time, text string)
	ChatPicture(chatName, sender string, sentAt time.Time, picture []byte)

	// UserInfo answers a RequestUserInfo call.
	UserInfo(info *signal.UserInfo)

	// Popup delivers a human-readable server notice.
	Popup(text string)

	// Disconnected fires when the signaling connection dies.
	Disconnected(err error)
}

// NopEvents implements Events with empty methods.
type NopEvents struct{}

func (NopEvents) CalledBy([]string, string)                {}
func (NopEvents) InvitedToCall(string, []string)           {}
func (NopEvents) CallStarted(string)                       {}
func (NopEvents) CallEnded(string)                         {}
func (NopEvents) ParticipantJoined(string, []byte)         {}
func (NopEvents) ParticipantLeft(string)                   {}
func (NopEvents) CallRejected()                            {}
func (NopEvents) CallingFailed(string)                     {}
func (NopEvents) StopBeingCalled()                         {}
func (NopEvents) CameraShareChanged(string, bool)          {}
func (NopEvents) ScreenShareChanged(string, bool)          {}
func (NopEvents) ParticipantChangedPicture(string, []byte) {}
func (NopEvents) GroupCreated(*CallGroup)                  {}
func (NopEvents) GroupDeleted(string)                      {}
func (NopEvents) GroupHostChanged(string, string)          {}
func (NopEvents) GroupMemberRemoved(string, string)        {}
func (NopEvents) ContactAdded(signal.ContactInfo)          {}
func (NopEvents) ContactDeleted(string)                    {}
func (NopEvents) ContactOnline(string)                     {}
func (NopEvents) ContactOffline(string)                    {}
func (NopEvents) ContactChangedPicture(string, []byte)     {}
func (NopEvents) AskedToBeContact(string)                  {}
func (NopEvents) ChatText(string, string, time.Time, string) {
}
func (NopEvents) ChatPicture(string, string, time.Time, []byte) {
}
func (NopEvents) UserInfo(*signal.UserInfo) {}
func (NopEvents) Popup(string)              {}
func (NopEvents) Disconnected(error)        {}
