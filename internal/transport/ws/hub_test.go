package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func receive(t *testing.T, c *Connection) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message on %s", c.ID)
		return nil
	}
}

func TestHubBroadcastFansOutToSession(t *testing.T) {
	h := startHub(t)

	a, b, other := h.NewConnection(nil), h.NewConnection(nil), h.NewConnection(nil)
	for _, c := range []*Connection{a, b, other} {
		h.Register(c)
	}
	h.BindSession(a, "s1", "")
	h.BindSession(b, "s1", "")
	h.BindSession(other, "s2", "")

	assert.Equal(t, 2, h.SessionCount())
	assert.True(t, h.HasActiveConnections("s1"))

	h.Broadcast("s1", []byte("hi"))
	assert.Equal(t, "hi", string(receive(t, a)))
	assert.Equal(t, "hi", string(receive(t, b)))
	select {
	case <-other.Send:
		t.Fatalf("connection of another session received the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRebindAndUnregister(t *testing.T) {
	h := startHub(t)

	c := h.NewConnection(nil)
	h.Register(c)
	h.BindSession(c, "s1", "a.csv")
	h.BindSession(c, "s2", "b.csv")

	sessionID, source := h.Binding(c)
	assert.Equal(t, "s2", sessionID)
	assert.Equal(t, "b.csv", source)
	assert.False(t, h.HasActiveConnections("s1"))

	h.Unregister(c)
	_, ok := <-c.Send
	assert.False(t, ok, "send channel should be closed")

	require.Eventually(t, func() bool { return h.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, h.HasActiveConnections("s2"))
	assert.ErrorIs(t, h.SendToConnection(c, []byte("late")), ErrConnectionClosed)
}

func TestHubStopsWithContext(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// Calls after shutdown must not block.
	c := h.NewConnection(nil)
	h.Register(c)
	h.Unregister(c)
	h.Broadcast("s1", []byte("x"))
}
