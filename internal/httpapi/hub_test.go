package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterPublishUnregister(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	c := &client{send: make(chan []byte, 4)}
	require.True(t, hub.join(c))
	assert.Equal(t, 1, hub.Len())

	hub.Publish([]byte(`{"kind":"day.reordered"}`))
	select {
	case got := <-c.send:
		assert.JSONEq(t, `{"kind":"day.reordered"}`, string(got))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.leave(c)
	_, open := <-c.send
	assert.False(t, open, "send channel closed on leave")
	assert.Equal(t, 0, hub.Len())
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	slow := &client{send: make(chan []byte, 1)}
	require.True(t, hub.join(slow))
	hub.Publish([]byte("1"))
	hub.Publish([]byte("2"))

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	c := &client{send: make(chan []byte, 1)}
	require.True(t, hub.join(c))
	hub.Stop()
	hub.Stop()

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, hub.join(&client{send: make(chan []byte)}), "join after stop fails")
}
