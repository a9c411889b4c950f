package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
)

func testState(money int) *engine.GameState {
	state := engine.InitGameStateFromConfig(nil)
	state.Players[0].Money = money
	return &state
}

func newClient(hub *Hub, gameID string) *Client {
	return &Client{hub: hub, gameID: gameID, send: make(chan []byte, sendBuffer)}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.games == nil {
		t.Error("Hub games map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialized")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newClient(hub, "g1")

	hub.registerClient(client)

	if !hub.games["g1"][client] {
		t.Error("Client was not registered in game")
	}
	if len(hub.games["g1"]) != 1 {
		t.Errorf("Expected 1 client in game, got %d", len(hub.games["g1"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newClient(hub, "g1")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.games["g1"]; exists {
		t.Error("Game should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// second unregister is harmless
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInGame(t *testing.T) {
	hub := NewHub(nil)
	client1 := newClient(hub, "g1")
	client2 := newClient(hub, "g1")
	other := newClient(hub, "g2")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	hub.deliver(envelope{gameID: "g1", data: []byte(`{}`)})

	for i, c := range []*Client{client1, client2} {
		select {
		case <-c.send:
		default:
			t.Errorf("client%d did not receive the message", i+1)
		}
	}
	select {
	case <-other.send:
		t.Error("client of another game received the message")
	default:
	}

	hub.unregisterClient(client1)
	if len(hub.games["g1"]) != 1 || !hub.games["g1"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, gameID: "g1", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.deliver(envelope{gameID: "g1", data: []byte(`{}`)})

	if _, exists := hub.games["g1"]; exists {
		t.Error("Expected slow client to be unregistered")
	}
}

func TestHubNotifyEncodesEvent(t *testing.T) {
	hub := NewHub(nil)

	hub.Notify("g1", driver.Event{Type: driver.EventRent, Player: 0, Target: 1, Amount: 50}, testState(1450))

	select {
	case env := <-hub.broadcast:
		if env.gameID != "g1" {
			t.Errorf("Expected game g1, got %s", env.gameID)
		}
		var msg Message
		if err := json.Unmarshal(env.data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if msg.Event != "rent" {
			t.Errorf("Expected event rent, got %s", msg.Event)
		}
		if msg.TurnEvent == nil || msg.TurnEvent.Amount != 50 || msg.TurnEvent.Target != 1 {
			t.Errorf("Turn event not transmitted: %+v", msg.TurnEvent)
		}
		if msg.GameState == nil || msg.GameState.Players[0].Money != 1450 {
			t.Error("GameState not correctly transmitted")
		}
	default:
		t.Fatal("No message queued")
	}
}

func TestHubNotifyNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		// nothing drains the hub
		for i := 0; i < sendBuffer*2; i++ {
			hub.BroadcastState("g1", testState(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a saturated hub")
	}
	if len(hub.broadcast) != sendBuffer {
		t.Errorf("Expected %d buffered messages, got %d", sendBuffer, len(hub.broadcast))
	}
}

func startServer(t *testing.T, hub *Hub, initial *engine.GameState) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("game"), initial)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?game=" + gameID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, gameID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(gameID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients for %s, got %d", want, gameID, hub.ClientCount(gameID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub(nil)
	server := startServer(t, hub, nil)

	conn := dial(t, server, "ws-test")
	waitForClients(t, hub, "ws-test", 1)

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketInitialStateAndEvents(t *testing.T) {
	hub := NewHub(nil)
	server := startServer(t, hub, testState(1500))

	conn := dial(t, server, "g1")

	first := readMessage(t, conn)
	if first.Event != EventStateUpdate || first.GameState == nil || first.GameState.Players[0].Money != 1500 {
		t.Errorf("Expected initial state frame, got %+v", first)
	}

	waitForClients(t, hub, "g1", 1)
	hub.Notify("g1", driver.Event{Type: driver.EventPurchase, Position: 6, Amount: 100}, testState(1400))

	msg := readMessage(t, conn)
	if msg.GameID != "g1" || msg.Event != "purchase" {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.GameState.Players[0].Money != 1400 {
		t.Errorf("Expected money 1400, got %d", msg.GameState.Players[0].Money)
	}
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("game"), nil)
	}))
	defer server.Close()

	dial(t, server, "g1")
	waitForClients(t, hub, "g1", 1)

	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.leave(newClient(hub, "g1"))
		if n := hub.ClientCount("g1"); n != 0 {
			t.Errorf("Expected 0 clients after stop, got %d", n)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("leaving a stopped hub blocked")
	}

	// a connection arriving after shutdown is closed straight away
	late := dial(t, server, "g1")
	late.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Error("Expected the late connection to be closed")
	} else if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		t.Error("Late connection was left open")
	}
}
