package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/events"
)

// TestNewWSHub tests hub creation
func TestNewWSHub(t *testing.T) {
	hub := NewWSHub()
	if hub.clients == nil || hub.broadcast == nil {
		t.Fatal("hub not initialized")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.GetClientCount())
	}
	hub.Stop()
	hub.Stop()
}

// TestHubDropsWhenNoRun tests that broadcasting never blocks
func TestHubDropsWhenNoRun(t *testing.T) {
	hub := NewWSHub()
	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.BroadcastEvent(events.Event{Type: events.EventSignalEvaluated})
	}
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

// TestSignalStream tests that evaluation events reach a connected client
func TestSignalStream(t *testing.T) {
	bus := events.NewEventBus()
	s := newTestServer(config.ServerConfig{}, Deps{EventBus: bus})
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/signals"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if msg := readJSON(t, conn); msg["type"] != "CONNECTED" {
		t.Fatalf("Expected greeting, got %v", msg)
	}

	bus.PublishSignalEvaluated("BTCUSDT", "SETUP_WATCH", "swept", nil)

	msg := readJSON(t, conn)
	if msg["type"] != string(events.EventSignalEvaluated) {
		t.Fatalf("Expected signal event, got %v", msg)
	}
	data, _ := msg["data"].(map[string]interface{})
	if data["symbol"] != "BTCUSDT" || data["state"] != "SETUP_WATCH" {
		t.Errorf("Unexpected event data %v", data)
	}
}

// TestErrorEventsNotStreamed tests that only signal and universe events are broadcast
func TestErrorEventsNotStreamed(t *testing.T) {
	bus := events.NewEventBus()
	s := newTestServer(config.ServerConfig{}, Deps{EventBus: bus})
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/signals", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readJSON(t, conn)

	bus.PublishError("binance", "boom", nil)
	bus.PublishUniverseRefreshed("exchange", 50)

	if msg := readJSON(t, conn); msg["type"] != string(events.EventUniverseRefreshed) {
		t.Errorf("Expected universe event first, got %v", msg)
	}
}
