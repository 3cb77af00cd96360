package handler

import (
	"net/http"
	"strconv"
	"time"

	"famtask/internal/ledger"
	"famtask/internal/model"
)

type StatsHandler struct {
	ledger *ledger.Ledger
}

func NewStatsHandler(l *ledger.Ledger) *StatsHandler {
	return &StatsHandler{ledger: l}
}

func (h *StatsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathInt64(r, "member_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member_id"})
		return
	}

	stats, err := h.ledger.UserStats(memberID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stats recorded for member"})
		return
	}
	if stats.Badges == nil {
		stats.Badges = []model.BadgeKind{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathInt64(r, "family_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid family_id"})
		return
	}

	board, err := h.ledger.Leaderboard(familyID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if board == nil {
		board = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *StatsHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathInt64(r, "member_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member_id"})
		return
	}

	year := time.Now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		year, err = strconv.Atoi(s)
		if err != nil || year < 1970 || year > 9999 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
	}

	months, err := h.ledger.MonthlyStats(memberID, year)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}
