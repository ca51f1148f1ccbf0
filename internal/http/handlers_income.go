package http

import (
	"net/http"

	"emipilot/internal/core"
)

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	income, err := s.income.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeResponse(income))
}

// handleUpdateIncome upserts the income row and answers 200 in both cases.
func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var patch core.IncomePatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	income, err := s.income.Update(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeResponse(income))
}
