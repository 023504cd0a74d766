package http

import (
	"net/http"

	"revtrack/internal/core"
	"revtrack/internal/services"
)

func (s *Server) handleListRevenue(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseEntryFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.RevenueEntries(filter))
}

func (s *Server) handleGetRevenue(w http.ResponseWriter, r *http.Request) {
	e, err := s.data.RevenueEntry(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateRevenue(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	e, err := s.data.AddRevenueEntry(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateRevenue(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	e, err := s.data.UpdateRevenueEntry(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteRevenue(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteRevenueEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Goals())
}

// goalRequest creates a goal either from a template or from explicit fields.
type goalRequest struct {
	services.GoalInput
	TemplateID string `json:"templateId,omitempty"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		g   core.Goal
		err error
	)
	if req.TemplateID != "" {
		g, err = s.data.AddGoalFromTemplate(r.Context(), req.TemplateID)
	} else {
		req.Description = sanitizeInput(req.Description)
		g, err = s.data.AddGoal(r.Context(), req.GoalInput)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	progress := s.data.GoalProgress()
	writeJSON(w, http.StatusOK, struct {
		Goals          []core.GoalProgress `json:"goals"`
		CompletionRate float64             `json:"completionRate"`
	}{progress, core.CompletionRate(progress)})
}
