package client

// ChatHost is anything a written chat can attach to. Both direct
// contacts and call groups host chats; code that sends or displays
// chat content works against this interface and never needs to know
// which one it holds.
type ChatHost interface {
	// ChatName identifies the chat on the wire.
	ChatName() string

	// ChatParticipants lists the users a sent message goes to.
	ChatParticipants() []string
}

// Contact is one confirmed contact and the host of the direct chat
// with them.
type Contact struct {
	Name    string
	Online  bool
	Picture []byte
}

// ChatName returns the contact's name; a direct chat is identified by
// the other side.
func (c *Contact) ChatName() string {
	return c.Name
}

// ChatParticipants returns the contact as the sole recipient.
func (c *Contact) ChatParticipants() []string {
	return []string{c.Name}
}
