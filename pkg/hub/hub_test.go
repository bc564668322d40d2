package hub

import (
	"testing"
	"time"
)

func TestNewHub(t *testing.T) {
	h := New("status")

	if h == nil {
		t.Fatal("New returned nil")
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New("logs")
	go h.Run()

	// No clients connected: the message is consumed and dropped.
	if err := h.BroadcastJSON(map[string]string{"msg": "hello"}); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})

	time.Sleep(10 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Error("ClientCount should still be 0")
	}
}

func TestBroadcastJSONInvalid(t *testing.T) {
	h := New("status")

	// Channels cannot be marshalled.
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestBroadcastQueueFullDoesNotBlock(t *testing.T) {
	h := New("detections")
	// Run is intentionally not started; fill the queue past capacity.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			h.Broadcast(Message{Kind: TextMessage, Data: []byte("x")})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
}
