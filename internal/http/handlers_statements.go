package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type entryPayload struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
}

type createStatementRequest struct {
	BankName      string         `json:"bankName"`
	Description   string         `json:"description"`
	SelectedMonth string         `json:"selectedMonth"`
	Entries       []entryPayload `json:"entries"`
}

type updateEntryRequest struct {
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	Direction   *string `json:"direction"`
}

// statementResponse carries the statement plus any coercion warnings
// from the mutation that produced it.
type statementResponse struct {
	Statement core.Statement `json:"statement"`
	Warnings  []string       `json:"warnings,omitempty"`
}

func parseEntryDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (p entryPayload) toInput(w http.ResponseWriter) (services.EntryInput, bool) {
	date, err := parseEntryDate(p.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry date: " + err.Error()})
		return services.EntryInput{}, false
	}
	return services.EntryInput{
		Date:        date,
		Description: p.Description,
		Amount:      p.Amount,
		Direction:   p.Direction,
	}, true
}

func (s *Server) handleCreateStatement(w http.ResponseWriter, r *http.Request) {
	var req createStatementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SelectedMonth != "" {
		if _, err := core.ParsePeriod(req.SelectedMonth); err != nil {
			writeError(w, err)
			return
		}
	}

	batch := make([]services.EntryInput, 0, len(req.Entries))
	for _, p := range req.Entries {
		in, ok := p.toInput(w)
		if !ok {
			return
		}
		batch = append(batch, in)
	}

	stmt, warnings, err := s.statements.Create(r.Context(), req.BankName, req.Description, req.SelectedMonth, batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statementResponse{Statement: stmt, Warnings: warnings})
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := s.statements.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if statements == nil {
		statements = []core.Statement{}
	}
	writeJSON(w, http.StatusOK, statements)
}

func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	stmt, err := s.statements.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func (s *Server) handleDeleteStatement(w http.ResponseWriter, r *http.Request) {
	if err := s.statements.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var p entryPayload
	if !decodeBody(w, r, &p) {
		return
	}
	in, ok := p.toInput(w)
	if !ok {
		return
	}

	stmt, warnings, err := s.statements.AddEntry(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Statement: stmt, Warnings: warnings})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.EntryPatch{
		Description: req.Description,
		Amount:      req.Amount,
		Direction:   req.Direction,
	}
	if req.Date != nil {
		date, err := parseEntryDate(*req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry date: " + err.Error()})
			return
		}
		patch.Date = &date
	}

	stmt, warnings, err := s.statements.UpdateEntry(r.Context(), r.PathValue("id"), r.PathValue("entryID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Statement: stmt, Warnings: warnings})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	stmt, err := s.statements.DeleteEntry(r.Context(), r.PathValue("id"), r.PathValue("entryID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Statement: stmt})
}
