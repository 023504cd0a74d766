package http

import (
	"net/http"

	"revtrack/internal/services"

	"github.com/shopspring/decimal"
)

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseCallFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Calls(filter))
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	c, err := s.data.Call(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func sanitizeCall(in *services.CallInput) {
	in.ClientName = sanitizeInput(in.ClientName)
	in.Email = sanitizeInput(in.Email)
	in.Phone = sanitizeInput(in.Phone)
	in.Notes = sanitizeInput(in.Notes)
}

func (s *Server) handleCreateCall(w http.ResponseWriter, r *http.Request) {
	var in services.CallInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizeCall(&in)

	c, err := s.data.AddCall(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCall(w http.ResponseWriter, r *http.Request) {
	var in services.CallInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizeCall(&in)

	c, err := s.data.UpdateCall(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCall(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteCall(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConvertCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.data.ConvertCall(r.Context(), r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRevertCall(w http.ResponseWriter, r *http.Request) {
	c, err := s.data.RevertCall(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCallStats(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseCallFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.CallStats(filter))
}
