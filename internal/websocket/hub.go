package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time ledger event broadcast to all connected clients.
// Clients filter on FamilyID themselves; the hub does not shard by family.
type Message struct {
	Type     string         `json:"type"`
	FamilyID int64          `json:"family_id,omitempty"`
	TaskID   string         `json:"task_id,omitempty"`
	MemberID int64          `json:"member_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// AssignmentCreated announces a new active assignment.
func AssignmentCreated(familyID int64, taskID string, assignedTo, assignedBy int64) Message {
	return Message{
		Type:     "assignment_created",
		FamilyID: familyID,
		TaskID:   taskID,
		MemberID: assignedTo,
		Extra:    map[string]any{"assigned_by": assignedBy},
	}
}

// AssignmentCompleted announces a completion along with what it earned.
func AssignmentCompleted(familyID int64, taskID string, memberID int64, points, level, streak int) Message {
	return Message{
		Type:     "assignment_completed",
		FamilyID: familyID,
		TaskID:   taskID,
		MemberID: memberID,
		Extra: map[string]any{
			"points": points,
			"level":  level,
			"streak": streak,
		},
	}
}

// MemberJoined announces a new or renamed family member.
func MemberJoined(familyID, memberID int64, displayName string) Message {
	return Message{
		Type:     "member_joined",
		FamilyID: familyID,
		MemberID: memberID,
		Extra:    map[string]any{"display_name": displayName},
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts ledger
// events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the broadcaster
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
