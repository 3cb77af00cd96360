package handler

import (
	"net/http"

	"famtask/internal/ledger"
)

type TaskHandler struct {
	ledger *ledger.Ledger
}

func NewTaskHandler(l *ledger.Ledger) *TaskHandler {
	return &TaskHandler{ledger: l}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.ledger.AllTasks()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.ledger.TaskByID(r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
