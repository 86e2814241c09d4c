package websocket

import (
	"testing"
	"time"
)

func TestHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Mock client
	client := &Client{
		hub:  hub,
		send: make(chan []byte, 1),
	}

	// Test registration
	hub.register <- client
	// Give the hub loop a moment to process.
	time.Sleep(10 * time.Millisecond)
	if len(hub.clients) != 1 {
		t.Fatalf("Expected 1 client after registration, got %d", len(hub.clients))
	}

	// Test broadcast
	hub.Broadcast([]byte("hello"))

	select {
	case received := <-client.send:
		if string(received) != "hello" {
			t.Errorf("Client received wrong message: got %s, want hello", received)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Client did not receive broadcast message in time")
	}

	// Test unregistration
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if len(hub.clients) != 0 {
		t.Fatalf("Expected 0 clients after unregistration, got %d", len(hub.clients))
	}
}

func TestNotifierMessageShape(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 2)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	notifier := NewNotifier(hub)
	notifier.NotifyUpdateInstalled("demo", "1.3.0")

	select {
	case msg := <-client.send:
		want := `{"payload":{"plugin_id":"demo","version":"1.3.0"},"type":"plugin_update_installed"}`
		if string(msg) != want {
			t.Errorf("message = %s, want %s", msg, want)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("notification not delivered")
	}
}
