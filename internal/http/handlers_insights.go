package http

import "net/http"

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	stress, err := s.insights.Stress(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStressResponse(stress))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.insights.Insights(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightResponses(insights))
}
