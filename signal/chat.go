package signal

import "time"

// Chat messages pass through the server as an opaque relay: the server
// rewrites the recipient list into a sender name and forwards, it
// never interprets the content.

// SendChatText asks the server to deliver a text line to every listed
// chat participant.
type SendChatText struct {
	ChatName     string    `cbor:"c"`
	Participants []string  `cbor:"ps"`
	SentAt       time.Time `cbor:"t"`
	Text         string    `cbor:"x"`
}

// SendChatPicture asks the server to deliver a picture to every listed
// chat participant.
type SendChatPicture struct {
	ChatName     string    `cbor:"c"`
	Participants []string  `cbor:"ps"`
	SentAt       time.Time `cbor:"t"`
	Picture      []byte    `cbor:"pic"`
}

// ChatText delivers a relayed text line to a recipient.
type ChatText struct {
	ChatName string    `cbor:"c"`
	Sender   string    `cbor:"s"`
	SentAt   time.Time `cbor:"t"`
	Text     string    `cbor:"x"`
}

// ChatPicture delivers a relayed picture to a recipient.
type ChatPicture struct {
	ChatName string    `cbor:"c"`
	Sender   string    `cbor:"s"`
	SentAt   time.Time `cbor:"t"`
	Picture  []byte    `cbor:"pic"`
}

func (*SendChatText) Kind() Kind    { return KindSendChatText }
func (*SendChatPicture) Kind() Kind { return KindSendChatPicture }
func (*ChatText) Kind() Kind        { return KindChatText }
func (*ChatPicture) Kind() Kind     { return KindChatPicture }
