package http

import "net/http"

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	filter, ok := parsePeriodFilter(w, r)
	if !ok {
		return
	}

	report, err := s.reports.BalanceSheet(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	filter, ok := parsePeriodFilter(w, r)
	if !ok {
		return
	}
	groupByMonth := r.URL.Query().Get("groupBy") == "month"

	report, err := s.reports.ProfitAndLoss(r.Context(), filter, groupByMonth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
