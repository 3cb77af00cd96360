package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	msg := AssignmentCompleted(7, "kitchen_cleanup", 42, 10, 2, 3)
	hub.Broadcast(msg)

	// Check both clients received the message
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "assignment_completed" {
				t.Errorf("expected type assignment_completed, got %s", got.Type)
			}
			if got.FamilyID != 7 {
				t.Errorf("expected family 7, got %d", got.FamilyID)
			}
			if got.MemberID != 42 {
				t.Errorf("expected member 42, got %d", got.MemberID)
			}
			if got.Extra["points"] != float64(10) {
				t.Errorf("expected 10 points, got %v", got.Extra["points"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(MemberJoined(1, 2, "Alice"))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(AssignmentCreated(1, "trash", int64(i), 1))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(AssignmentCreated(1, "trash", 999, 1))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestEventConstructors(t *testing.T) {
	created := AssignmentCreated(3, "laundry", 9, 4)
	if created.Type != "assignment_created" {
		t.Errorf("expected type assignment_created, got %s", created.Type)
	}
	if created.TaskID != "laundry" || created.MemberID != 9 {
		t.Errorf("unexpected payload: %+v", created)
	}
	if created.Extra["assigned_by"] != int64(4) {
		t.Errorf("expected assigned_by 4, got %v", created.Extra["assigned_by"])
	}

	joined := MemberJoined(3, 9, "Bob")
	if joined.Type != "member_joined" {
		t.Errorf("expected type member_joined, got %s", joined.Type)
	}
	if joined.Extra["display_name"] != "Bob" {
		t.Errorf("expected display_name Bob, got %v", joined.Extra["display_name"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(AssignmentCreated(1, "trash", 0, 0))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
