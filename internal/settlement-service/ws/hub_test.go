package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, participant string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Participant: participant}))
	var ack map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "subscribed", ack["type"])
	assert.Equal(t, participant, ack["participant"])
}

func TestHub_BroadcastToSubscribers(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	alice := dial(t, srv)
	subscribe(t, alice, "alice")
	all := dial(t, srv)
	subscribe(t, all, Wildcard)
	bob := dial(t, srv)
	subscribe(t, bob, "bob")

	assert.Equal(t, 1, hub.Subscribers("alice"))

	hub.Broadcast(events.WagerSettled{InvocationID: "inv-1", Participant: "alice", Won: true, Payout: 20})

	for _, c := range []*websocket.Conn{alice, all} {
		var got events.WagerSettled
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, c.ReadJSON(&got))
		assert.Equal(t, "inv-1", got.InvocationID)
		assert.Equal(t, uint64(20), got.Payout)
	}

	// bob não recebe a liquidação de alice; o próximo frame é o pong
	require.NoError(t, bob.WriteJSON(ClientMsg{Type: "ping"}))
	var pong map[string]string
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, bob.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])
}

func TestHub_UnsubscribeOnDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	subscribe(t, conn, "alice")
	require.Equal(t, 1, hub.Subscribers("alice"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("alice") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StalledClientDoesNotBlockFeed(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	hub.writeWait = 100 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	stalled := dial(t, srv)
	subscribe(t, stalled, Wildcard) // nunca mais lê

	healthy := dial(t, srv)
	subscribe(t, healthy, "alice")
	received := make(chan struct{}, 64)
	go func() {
		for {
			if _, _, err := healthy.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	const rounds = 40
	big := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			hub.Broadcast(events.WagerSettled{InvocationID: big, Participant: "alice"})
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked by stalled client")
	}
	for i := 0; i < rounds; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("healthy client got %d of %d messages", i, rounds)
		}
	}
	assert.Eventually(t, func() bool { return hub.Subscribers(Wildcard) == 0 }, 2*time.Second, 10*time.Millisecond)
}
