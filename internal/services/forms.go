package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"revtrack/internal/core"
	"revtrack/internal/log"
	"revtrack/internal/storage"

	"github.com/shopspring/decimal"
)

// FormInput is the editable part of a form. A nil IsActive keeps the
// current value, or true for new forms; nil Fields keeps the current fields,
// or the default Name/Email/Phone set for new forms.
type FormInput struct {
	Name            string           `json:"name"`
	Slug            string           `json:"slug,omitempty"`
	Description     string           `json:"description,omitempty"`
	DepositRequired bool             `json:"depositRequired"`
	DepositAmount   decimal.Decimal  `json:"depositAmount"`
	CheckoutURL     string           `json:"checkoutUrl,omitempty"`
	IsActive        *bool            `json:"isActive,omitempty"`
	Fields          []core.FormField `json:"fields,omitempty"`
}

// SubmitResult is returned to the public form page.
type SubmitResult struct {
	Submission  core.FormSubmission `json:"submission"`
	CheckoutURL string              `json:"checkoutUrl,omitempty"`
}

func (in FormInput) apply(f core.Form) core.Form {
	f.Name = in.Name
	f.Slug = core.Slugify(in.Slug)
	if f.Slug == "" {
		f.Slug = core.Slugify(in.Name)
	}
	f.Description = in.Description
	f.DepositRequired = in.DepositRequired
	f.DepositAmount = in.DepositAmount
	f.CheckoutURL = in.CheckoutURL
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	if in.Fields != nil {
		f.Fields = slices.Clone(in.Fields)
	}
	return f
}

func (s *DataService) slugTaken(slug, exceptID string) bool {
	return slices.ContainsFunc(s.data.forms, func(f core.Form) bool {
		return f.Slug == slug && f.ID != exceptID
	})
}

func (s *DataService) CreateForm(ctx context.Context, in FormInput) (core.Form, error) {
	now := s.now()
	f := in.apply(core.Form{ID: s.newID(), IsActive: true, CreatedAt: now, UpdatedAt: now})
	if len(f.Fields) == 0 {
		f.Fields = core.DefaultFormFields()
	}
	if err := f.Validate(); err != nil {
		return core.Form{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTaken(f.Slug, "") {
		return core.Form{}, fmt.Errorf("%w: slug %q already in use", core.ErrConflict, f.Slug)
	}
	next := s.data
	next.forms = append(slices.Clone(s.data.forms), f)
	if err := s.commit(ctx, next, storage.Forms); err != nil {
		return core.Form{}, err
	}
	s.logger.WithComponent(log.ComponentForms).InfoContext(ctx, "Form created", log.FieldFormID, f.ID, "slug", f.Slug)
	return f, nil
}

func (s *DataService) UpdateForm(ctx context.Context, id string, in FormInput) (core.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.data.forms, id, func(f core.Form) string { return f.ID })
	if i < 0 {
		return core.Form{}, fmt.Errorf("%w: form %s", core.ErrNotFound, id)
	}
	f := in.apply(s.data.forms[i])
	f.UpdatedAt = s.now()
	if err := f.Validate(); err != nil {
		return core.Form{}, err
	}
	if s.slugTaken(f.Slug, id) {
		return core.Form{}, fmt.Errorf("%w: slug %q already in use", core.ErrConflict, f.Slug)
	}
	next := s.data
	next.forms = slices.Clone(s.data.forms)
	next.forms[i] = f
	if err := s.commit(ctx, next, storage.Forms); err != nil {
		return core.Form{}, err
	}
	return f, nil
}

// DeleteForm removes form id and its submissions.
func (s *DataService) DeleteForm(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.data.forms, id, func(f core.Form) string { return f.ID })
	if i < 0 {
		return fmt.Errorf("%w: form %s", core.ErrNotFound, id)
	}
	next := s.data
	next.forms = slices.Delete(slices.Clone(s.data.forms), i, i+1)
	next.submissions = slices.DeleteFunc(slices.Clone(s.data.submissions), func(sub core.FormSubmission) bool {
		return sub.FormID == id
	})
	return s.commit(ctx, next, storage.Forms, storage.FormSubmissions)
}

func (s *DataService) Forms() []core.Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.forms)
}

func (s *DataService) Form(id string) (core.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexByID(s.data.forms, id, func(f core.Form) string { return f.ID })
	if i < 0 {
		return core.Form{}, fmt.Errorf("%w: form %s", core.ErrNotFound, id)
	}
	return s.data.forms[i], nil
}

// PublicForm returns the active form published at slug.
func (s *DataService) PublicForm(slug string) (core.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publicForm(slug)
}

func (s *DataService) publicForm(slug string) (core.Form, error) {
	i := indexByID(s.data.forms, core.Slugify(slug), func(f core.Form) string { return f.Slug })
	if i < 0 {
		return core.Form{}, fmt.Errorf("%w: form %q", core.ErrNotFound, slug)
	}
	if !s.data.forms[i].IsActive {
		return core.Form{}, core.ErrFormInactive
	}
	return s.data.forms[i], nil
}

// SubmitForm records a public submission for the form at slug. The checkout
// URL is returned when the form requires a deposit.
func (s *DataService) SubmitForm(ctx context.Context, slug string, data map[string]string) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.publicForm(slug)
	if err != nil {
		return SubmitResult{}, err
	}
	clean, err := f.ValidateSubmission(data)
	if err != nil {
		return SubmitResult{}, err
	}
	sub := core.FormSubmission{
		ID:          s.newID(),
		FormID:      f.ID,
		Data:        clean,
		SubmittedAt: s.now(),
		Status:      core.SubmissionNew,
	}
	next := s.data
	next.submissions = append([]core.FormSubmission{sub}, s.data.submissions...)
	if err := s.commit(ctx, next, storage.FormSubmissions); err != nil {
		return SubmitResult{}, err
	}

	s.logger.WithComponent(log.ComponentForms).InfoContext(ctx, "Form submitted", log.FieldFormID, f.ID, "submission_id", sub.ID)
	res := SubmitResult{Submission: sub}
	if f.DepositRequired {
		res.CheckoutURL = f.CheckoutURL
	}
	return res, nil
}

// Submissions lists the submissions of formID, newest first.
func (s *DataService) Submissions(formID string) []core.FormSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.FormSubmission, 0)
	for _, sub := range s.data.submissions {
		if sub.FormID == formID {
			out = append(out, sub)
		}
	}
	slices.SortStableFunc(out, func(a, b core.FormSubmission) int {
		return cmp.Compare(b.SubmittedAt.UnixNano(), a.SubmittedAt.UnixNano())
	})
	return out
}

func (s *DataService) UpdateSubmissionStatus(ctx context.Context, id string, status core.SubmissionStatus) (core.FormSubmission, error) {
	return s.mutateSubmission(ctx, id, func(sub core.FormSubmission) (core.FormSubmission, error) {
		return sub.SetStatus(status)
	})
}

func (s *DataService) UpdateSubmissionNotes(ctx context.Context, id, notes string) (core.FormSubmission, error) {
	return s.mutateSubmission(ctx, id, func(sub core.FormSubmission) (core.FormSubmission, error) {
		sub.Notes = notes
		return sub, nil
	})
}

func (s *DataService) mutateSubmission(ctx context.Context, id string, fn func(core.FormSubmission) (core.FormSubmission, error)) (core.FormSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.data.submissions, id, func(sub core.FormSubmission) string { return sub.ID })
	if i < 0 {
		return core.FormSubmission{}, fmt.Errorf("%w: submission %s", core.ErrNotFound, id)
	}
	sub, err := fn(s.data.submissions[i])
	if err != nil {
		return core.FormSubmission{}, err
	}
	next := s.data
	next.submissions = slices.Clone(s.data.submissions)
	next.submissions[i] = sub
	if err := s.commit(ctx, next, storage.FormSubmissions); err != nil {
		return core.FormSubmission{}, err
	}
	return sub, nil
}

func (s *DataService) FormStats(formID string) (core.FormStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if indexByID(s.data.forms, formID, func(f core.Form) string { return f.ID }) < 0 {
		return core.FormStats{}, fmt.Errorf("%w: form %s", core.ErrNotFound, formID)
	}
	return core.ComputeFormStats(formID, s.data.submissions), nil
}
