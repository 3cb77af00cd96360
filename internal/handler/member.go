package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"famtask/internal/ledger"
	"famtask/internal/model"
	"famtask/internal/websocket"
)

type MemberHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
}

func NewMemberHandler(l *ledger.Ledger, hub *websocket.Hub) *MemberHandler {
	return &MemberHandler{ledger: l, hub: hub}
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	var req struct {
		MemberID    int64  `json:"member_id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name is required"})
		return
	}
	if req.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required"})
		return
	}

	member, err := h.ledger.AddMember(familyID, req.MemberID, req.DisplayName)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(websocket.MemberJoined(familyID, member.MemberID, member.DisplayName))
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	members, err := h.ledger.Members(familyID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}
