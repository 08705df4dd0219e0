package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Mock client
	client := &Client{
		id:   uuid.New(),
		hub:  hub,
		send: make(chan []byte, 1),
	}

	// Test registration
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Test broadcast
	hub.Broadcast(EventSettingsReloaded, map[string]int{"keys": 3})

	select {
	case received := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(received, &event))
		assert.Equal(t, EventSettingsReloaded, event.Type)
		assert.Equal(t, map[string]any{"keys": 3.0}, event.Data)
	case <-time.After(1 * time.Second):
		t.Fatal("Client did not receive broadcast message in time")
	}

	// Test unregistration
	hub.unregister <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.send
	assert.False(t, open)
}

func TestBroadcastWithoutRunningHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 300; i++ {
		hub.Broadcast(EventSettingsUpdated, i)
	}
	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}

func TestServeWs(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(EventSettingsUpdated, map[string]string{"path": "checkout.enabled"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventSettingsUpdated, event.Type)
}
