package http

import (
	"net/http"

	"emipilot/internal/core"
)

const msgEMIDeleted = "EMI deleted successfully"

func (s *Server) handleListEMIs(w http.ResponseWriter, r *http.Request) {
	emis, err := s.emis.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEMIResponses(emis))
}

func (s *Server) handleCreateEMI(w http.ResponseWriter, r *http.Request) {
	var patch core.EMIPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.emis.Create(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEMIResponse(created))
}

func (s *Server) handleGetEMI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	emi, err := s.emis.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEMIResponse(emi))
}

// handleUpdateEMI answers 404 for an unknown id before looking at the body.
func (s *Server) handleUpdateEMI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.emis.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.EMIPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.emis.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEMIResponse(updated))
}

func (s *Server) handleDeleteEMI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.emis.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: msgEMIDeleted, EMI: toEMIResponse(deleted)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.emis.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	weeks, err := s.emis.Timeline(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekResponses(weeks))
}
