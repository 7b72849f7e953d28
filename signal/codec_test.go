package signal

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sent := &RequestCall{
		Callee:            "bob",
		OtherParticipants: []string{"carol", "dave"},
		GroupName:         "alice -> bob",
		HostName:          "alice",
		NotInCallMembers:  []string{"erin"},
	}

	data, err := Encode(sent)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	received, ok := got.(*RequestCall)
	require.True(t, ok, "decoded message should be *RequestCall, got %T", got)
	assert.Equal(t, sent, received)
}

func TestEncodeDecodePeerDescriptors(t *testing.T) {
	sent := &StartNewCall{
		Peers: []PeerDescriptor{{
			Name:   "bob",
			IP:     "192.0.2.7",
			Voice:  PortPair{SendTo: 9000, Receive: 9001},
			Screen: PortPair{SendTo: 9002, Receive: 9003},
			Camera: PortPair{SendTo: 9004, Receive: 9005},
		}},
		GroupName: "alice -> bob",
	}

	data, err := Encode(sent)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestEncodeDecodeEmptyMessage(t *testing.T) {
	data, err := Encode(&AcceptCall{})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, KindAcceptCall, got.Kind())
}

func TestEncodeDecodeChatTimestamp(t *testing.T) {
	sentAt := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	sent := &ChatText{
		ChatName: "alice -> bob",
		Sender:   "alice",
		SentAt:   sentAt,
		Text:     "hello",
	}

	data, err := Encode(sent)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	received := got.(*ChatText)
	assert.True(t, received.SentAt.Equal(sentAt))
	assert.Equal(t, "hello", received.Text)
}

func TestDecodeUnknownKind(t *testing.T) {
	data, err := encMode.Marshal(Envelope{V: Version, Kind: 200, Payload: mustMarshal(t, struct{}{})})
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeVersionMismatch(t *testing.T) {
	data, err := encMode.Marshal(Envelope{V: Version + 1, Kind: KindLogin, Payload: mustMarshal(t, Login{})})
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0x00, 0x13, 0x37})
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestConstructorsCoverAllKinds(t *testing.T) {
	for kind, construct := range constructors {
		assert.Equal(t, kind, construct().Kind(), "constructor for %s builds wrong kind", kind)
	}
	assert.Len(t, constructors, len(kindNames))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "RequestCall", KindRequestCall.String())
	assert.Equal(t, "Unknown", Kind(250).String())
}

func mustMarshal(t *testing.T, v any) cbor.RawMessage {
	t.Helper()
	data, err := encMode.Marshal(v)
	require.NoError(t, err)
	return data
}
