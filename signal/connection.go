package signal

// Login authenticates an existing account. First message on a new
// connection.
type Login struct {
	Name     string `cbor:"n"`
	Password string `cbor:"p"`
}

// Register creates a new account. First message on a new connection.
type Register struct {
	Name     string `cbor:"n"`
	Password string `cbor:"p"`
}

// LoginOK acknowledges a successful login and seeds the client with
// its server-side state.
type LoginOK struct {
	Contacts        []ContactInfo `cbor:"c"`
	PendingContacts []string      `cbor:"pc"`
	Picture         []byte        `cbor:"pic,omitempty"`
}

// LoginFailed rejects a login attempt.
type LoginFailed struct {
	Reason string `cbor:"r"`
}

// RegisterOK acknowledges a successful registration.
type RegisterOK struct{}

// RegisterFailed rejects a registration attempt.
type RegisterFailed struct {
	Reason string `cbor:"r"`
}

// Disconnect announces an orderly shutdown of the connection.
type Disconnect struct{}

// NewOpenPorts returns UDP ports to the sender's server-side pool
// after a call channel closes.
type NewOpenPorts struct {
	Ports []uint16 `cbor:"p"`
}

// Popup carries a human-readable notice for the client to display.
type Popup struct {
	Text string `cbor:"t"`
}

// RequestUserInfo asks the server about an arbitrary username.
type RequestUserInfo struct {
	Name string `cbor:"n"`
}

// UserInfo answers a RequestUserInfo query.
type UserInfo struct {
	Name    string `cbor:"n"`
	Exists  bool   `cbor:"e"`
	Online  bool   `cbor:"o"`
	Picture []byte `cbor:"pic,omitempty"`
}

// ChangePicture sets the sender's profile picture. InCallParticipants
// lists current call peers so the server can notify them directly.
type ChangePicture struct {
	Picture            []byte   `cbor:"pic"`
	InCallParticipants []string `cbor:"icp,omitempty"`
}

func (*Login) Kind() Kind           { return KindLogin }
func (*Register) Kind() Kind        { return KindRegister }
func (*LoginOK) Kind() Kind         { return KindLoginOK }
func (*LoginFailed) Kind() Kind     { return KindLoginFailed }
func (*RegisterOK) Kind() Kind      { return KindRegisterOK }
func (*RegisterFailed) Kind() Kind  { return KindRegisterFailed }
func (*Disconnect) Kind() Kind      { return KindDisconnect }
func (*NewOpenPorts) Kind() Kind    { return KindNewOpenPorts }
func (*Popup) Kind() Kind           { return KindPopup }
func (*RequestUserInfo) Kind() Kind { return KindRequestUserInfo }
func (*UserInfo) Kind() Kind        { return KindUserInfo }
func (*ChangePicture) Kind() Kind   { return KindChangePicture }
