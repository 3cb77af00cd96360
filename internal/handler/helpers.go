package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"famtask/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrDuplicateAssignment), errors.Is(err, ledger.ErrNotAssigned):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrTransientStore):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage temporarily unavailable"})
	case errors.Is(err, ledger.ErrDataIntegrity):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "task catalog integrity failure"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
