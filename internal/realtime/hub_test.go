package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Publish("post_created", map[string]interface{}{"id": 7, "title": "Loss ratios"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var event struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("invalid event JSON: %v", err)
	}
	if event.Type != "post_created" {
		t.Errorf("event type = %q, want post_created", event.Type)
	}
	if event.Payload["title"] != "Loss ratios" {
		t.Errorf("unexpected payload: %v", event.Payload)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Error("expected dial from unknown origin to fail")
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"", []string{"http://a"}, true},
		{"http://a", []string{"http://a"}, true},
		{"http://b", []string{"http://a"}, false},
		{"http://b", []string{"*"}, true},
		{"http://b", nil, false},
	}
	for _, tt := range tests {
		if got := originAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("originAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < sendBufferSize+10; i++ {
		hub.Publish("post_liked", i)
	}
}
