package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/voicelink/media"
)

func TestCallEndedClearsSession(t *testing.T) {
	a := newApp()

	session, err := media.NewSession(media.DefaultConfig(), "group")
	require.NoError(t, err)
	defer session.Close()

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	a.CallEnded("group")

	assert.Nil(t, a.mediaSession())

	// Toggles after the call ended must refuse instead of driving the
	// closed session.
	err = a.toggle([]string{"on"}, func(s *media.Session, on bool) error {
		t.Fatal("toggle applied without a session")
		return nil
	})
	assert.EqualError(t, err, "not in a call")
}
