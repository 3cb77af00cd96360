package handler

import (
	"encoding/json"
	"net/http"

	"famtask/internal/ledger"
	"famtask/internal/model"
	"famtask/internal/websocket"
)

type AssignmentHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
}

func NewAssignmentHandler(l *ledger.Ledger, hub *websocket.Hub) *AssignmentHandler {
	return &AssignmentHandler{ledger: l, hub: hub}
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	var req struct {
		TaskID     string `json:"task_id"`
		AssignedTo int64  `json:"assigned_to"`
		AssignedBy int64  `json:"assigned_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.TaskID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task_id is required"})
		return
	}
	if req.AssignedTo <= 0 || req.AssignedBy <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assigned_to and assigned_by are required"})
		return
	}

	a, err := h.ledger.Assign(familyID, req.TaskID, req.AssignedTo, req.AssignedBy)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(websocket.AssignmentCreated(familyID, a.TaskID, a.AssignedTo, a.AssignedBy))
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) ListFamily(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	assignments, err := h.ledger.ActiveForFamily(familyID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if assignments == nil {
		assignments = []model.AssignmentWithTask{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) ListMember(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}
	memberID, err := pathInt64(r, "member_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member_id"})
		return
	}

	assignments, err := h.ledger.ActiveForMember(familyID, memberID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if assignments == nil {
		assignments = []model.AssignmentWithTask{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

// Complete retires an active assignment and returns the gamification outcome.
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	var req struct {
		TaskID   string `json:"task_id"`
		MemberID int64  `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.TaskID == "" || req.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task_id and member_id are required"})
		return
	}

	out, err := h.ledger.Complete(familyID, req.TaskID, req.MemberID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(websocket.AssignmentCompleted(familyID, req.TaskID, req.MemberID,
		out.PointsAwarded, out.NewLevel, out.Streak))
	writeJSON(w, http.StatusOK, out)
}
