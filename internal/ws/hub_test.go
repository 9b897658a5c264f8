package ws

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestHubRegistrationAndConnected(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil, "session-1")
	hub.Register(client)

	if !hub.Connected("session-1") {
		t.Fatal("session-1 should be connected after register")
	}
	if hub.Connected("session-2") {
		t.Fatal("session-2 should not be connected")
	}

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.Connected("session-1") {
		t.Fatal("room not cleaned up after last client left")
	}
}

func TestPublishReachesOnlyItsRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	mine := NewClient(hub, nil, "opener-a")
	other := NewClient(hub, nil, "opener-b")
	hub.Register(mine)
	hub.Register(other)

	if err := hub.Publish("opener-a", "scan.accepted", map[string]string{"entryId": "e-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case raw := <-mine.send:
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != "scan.accepted" {
			t.Errorf("type: got %q, want scan.accepted", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case <-other.send:
		t.Fatal("event leaked to another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			if err := hub.Publish("opener-a", "pc-scan-result", map[string]int{"n": i}); !errors.Is(err, ErrHubStopped) {
				t.Errorf("publish %d: got %v, want ErrHubStopped", i, err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}
