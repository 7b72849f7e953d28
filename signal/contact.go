package signal

// RequestAddContact asks the server to send a contact request to Name.
type RequestAddContact struct {
	Name string `cbor:"n"`
}

// AskedToBeContact informs a user that By wants to add them.
type AskedToBeContact struct {
	By string `cbor:"n"`
}

// AcceptContact accepts a pending contact request from Name.
type AcceptContact struct {
	Name string `cbor:"n"`
}

// RejectContact declines a pending contact request from Name.
type RejectContact struct {
	Name string `cbor:"n"`
}

// AddContacts tells a client to add the listed contacts locally.
type AddContacts struct {
	Contacts []ContactInfo `cbor:"c"`
}

// ContactOnline announces that a contact connected.
type ContactOnline struct {
	Name string `cbor:"n"`
}

// ContactOffline announces that a contact disconnected.
type ContactOffline struct {
	Name string `cbor:"n"`
}

// DeleteContact removes a contact relation from both sides.
type DeleteContact struct {
	Name string `cbor:"n"`
}

// ContactChangedPicture announces a contact's new profile picture.
type ContactChangedPicture struct {
	Name    string `cbor:"n"`
	Picture []byte `cbor:"pic"`
}

func (*RequestAddContact) Kind() Kind     { return KindRequestAddContact }
func (*AskedToBeContact) Kind() Kind      { return KindAskedToBeContact }
func (*AcceptContact) Kind() Kind         { return KindAcceptContact }
func (*RejectContact) Kind() Kind         { return KindRejectContact }
func (*AddContacts) Kind() Kind           { return KindAddContacts }
func (*ContactOnline) Kind() Kind         { return KindContactOnline }
func (*ContactOffline) Kind() Kind        { return KindContactOffline }
func (*DeleteContact) Kind() Kind         { return KindDeleteContact }
func (*ContactChangedPicture) Kind() Kind { return KindContactChangedPicture }
