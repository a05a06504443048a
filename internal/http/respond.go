package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: not-found is 404,
// a version conflict is 409, validation failures are 422, everything
// else (including a failed ledger fetch) is a 500 carrying the
// ledger-naming message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrNegativeAmount,
		core.ErrInvalidDirection,
		core.ErrInvalidFlow,
		core.ErrInvalidAccount,
		core.ErrInvalidStatus,
		core.ErrInvalidPeriod,
		core.ErrEmptyBankName,
		core.ErrEmptyVendor,
		core.ErrEmptyNumber,
		core.ErrEmptyName,
		core.ErrEmptyEmployee,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// parsePeriodFilter reads the optional month query parameter. A present
// but malformed value is a hard 400, never a silent all-time view.
func parsePeriodFilter(w http.ResponseWriter, r *http.Request) (core.Period, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return core.Period{}, true
	}
	p, err := core.ParsePeriod(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid month filter: " + err.Error()})
		return core.Period{}, false
	}
	return p, true
}
