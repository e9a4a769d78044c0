package server

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazesync/protocol"
)

func TestRouter_BroadcastExclude(t *testing.T) {
	s := newTestServer(t)
	alice, aliceT := addMember(t, s, "alice")
	_, bobT := addMember(t, s, "bob")
	_, carolT := addMember(t, s, "carol")

	msg, err := protocol.Encode("alice", protocol.SetReady{Ready: true})
	require.NoError(t, err)

	failed := s.router.Broadcast(msg, alice)
	assert.Empty(t, failed)
	assert.Equal(t, 0, aliceT.count())
	assert.Equal(t, 1, bobT.count())
	assert.Equal(t, 1, carolT.count())

	s.router.Broadcast(msg, nil)
	assert.Equal(t, 1, aliceT.count())
	assert.Equal(t, 2, bobT.count())
}

func TestRouter_FailureDoesNotBlockOthers(t *testing.T) {
	s := newTestServer(t)
	_, brokenT := addMember(t, s, "broken")
	brokenT.failSend = true
	_, healthyT := addMember(t, s, "healthy")

	msg, err := protocol.Encode("newbie", protocol.PlayerConnected{Player: &protocol.PlayerInfo{Name: "newbie"}})
	require.NoError(t, err)

	failed := s.router.Broadcast(msg, nil)
	assert.Equal(t, []string{"broken"}, failed)

	frames := healthyT.frames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.TypePlayerConnected, frames[0].Message.Type())
	assert.Equal(t, "newbie", frames[0].Source)
	assert.Equal(t, int64(1), atomic.LoadInt64(&s.metrics.SendFailures))
}

func TestRouter_BroadcastEmptyRegistry(t *testing.T) {
	s := newTestServer(t)
	assert.Empty(t, s.router.Broadcast([]byte(`{}`), nil))
}
