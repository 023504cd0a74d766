package http

import (
	"net/http"

	"revtrack/internal/core"
	"revtrack/internal/services"
)

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Forms())
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.data.Form(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var in services.FormInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Description = sanitizeInput(in.Description)

	f, err := s.data.CreateForm(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	var in services.FormInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Description = sanitizeInput(in.Description)

	f, err := s.data.UpdateForm(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteForm(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.data.Form(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Submissions(id))
}

func (s *Server) handleFormStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.data.FormStats(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// submissionPatch updates the status, the notes, or both.
type submissionPatch struct {
	Status *core.SubmissionStatus `json:"status,omitempty"`
	Notes  *string                `json:"notes,omitempty"`
}

func (s *Server) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	var patch submissionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Status == nil && patch.Notes == nil {
		BadRequestError(r, "status or notes is required").Write(w)
		return
	}

	id := r.PathValue("id")
	var (
		sub core.FormSubmission
		err error
	)
	if patch.Status != nil {
		if sub, err = s.data.UpdateSubmissionStatus(r.Context(), id, *patch.Status); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if patch.Notes != nil {
		if sub, err = s.data.UpdateSubmissionNotes(r.Context(), id, sanitizeInput(*patch.Notes)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sub)
}

// publicForm is what an anonymous visitor sees of a form.
type publicForm struct {
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	DepositRequired bool             `json:"depositRequired"`
	DepositAmount   string           `json:"depositAmount,omitempty"`
	Fields          []core.FormField `json:"fields"`
}

func (s *Server) handlePublicForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.data.PublicForm(r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	pf := publicForm{
		Name:            f.Name,
		Description:     f.Description,
		DepositRequired: f.DepositRequired,
		Fields:          f.SortedFields(),
	}
	if f.DepositRequired {
		pf.DepositAmount = f.DepositAmount.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, pf)
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	var data map[string]string
	if err := decodeJSON(w, r, &data); err != nil {
		writeError(w, r, err)
		return
	}
	for k, v := range data {
		data[k] = sanitizeInput(v)
	}

	res, err := s.data.SubmitForm(r.Context(), r.PathValue("slug"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkoutUrl,omitempty"`
	}{res.Submission.ID, res.CheckoutURL})
}
