package signal

// In-call notifications ride the reliable signaling connection rather
// than the UDP media channels. A client sends one naming its current
// peers; the server responds by broadcasting the matching Participant*
// message, stamped with the sender's name, to each of them.

// LeaveVoiceChat announces that the sender left its call.
type LeaveVoiceChat struct {
	Participants []string `cbor:"ps"`
}

// CameraShareStarted announces that the sender began camera sharing.
type CameraShareStarted struct {
	Participants []string `cbor:"ps"`
}

// CameraShareStopped announces that the sender stopped camera sharing.
type CameraShareStopped struct {
	Participants []string `cbor:"ps"`
}

// ScreenShareStarted announces that the sender began screen sharing.
type ScreenShareStarted struct {
	Participants []string `cbor:"ps"`
}

// ScreenShareStopped announces that the sender stopped screen sharing.
type ScreenShareStopped struct {
	Participants []string `cbor:"ps"`
}

// ParticipantLeftCall tells a participant that Sender left the call.
type ParticipantLeftCall struct {
	Sender string `cbor:"s"`
}

// ParticipantCameraStarted tells a participant that Sender began
// camera sharing.
type ParticipantCameraStarted struct {
	Sender string `cbor:"s"`
}

// ParticipantCameraStopped tells a participant that Sender stopped
// camera sharing.
type ParticipantCameraStopped struct {
	Sender string `cbor:"s"`
}

// ParticipantScreenStarted tells a participant that Sender began
// screen sharing.
type ParticipantScreenStarted struct {
	Sender string `cbor:"s"`
}

// ParticipantScreenStopped tells a participant that Sender stopped
// screen sharing.
type ParticipantScreenStopped struct {
	Sender string `cbor:"s"`
}

func (*LeaveVoiceChat) Kind() Kind           { return KindLeaveVoiceChat }
func (*CameraShareStarted) Kind() Kind       { return KindCameraShareStarted }
func (*CameraShareStopped) Kind() Kind       { return KindCameraShareStopped }
func (*ScreenShareStarted) Kind() Kind       { return KindScreenShareStarted }
func (*ScreenShareStopped) Kind() Kind       { return KindScreenShareStopped }
func (*ParticipantLeftCall) Kind() Kind      { return KindParticipantLeftCall }
func (*ParticipantCameraStarted) Kind() Kind { return KindParticipantCameraStarted }
func (*ParticipantCameraStopped) Kind() Kind { return KindParticipantCameraStopped }
func (*ParticipantScreenStarted) Kind() Kind { return KindParticipantScreenStarted }
func (*ParticipantScreenStopped) Kind() Kind { return KindParticipantScreenStopped }
