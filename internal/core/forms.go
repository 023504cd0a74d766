package core

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	FieldType        string
	SubmissionStatus string
)

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldNumber   FieldType = "number"
)

const (
	SubmissionNew       SubmissionStatus = "new"
	SubmissionContacted SubmissionStatus = "contacted"
	SubmissionQualified SubmissionStatus = "qualified"
	SubmissionConverted SubmissionStatus = "converted"
	SubmissionLost      SubmissionStatus = "lost"
)

var (
	ErrEmptyFormName     = fmt.Errorf("%w: form name is required", ErrValidation)
	ErrInvalidSlug       = fmt.Errorf("%w: form slug is required", ErrValidation)
	ErrInvalidField      = fmt.Errorf("%w: invalid form field", ErrValidation)
	ErrInvalidDeposit    = fmt.Errorf("%w: deposit amount must be positive", ErrValidation)
	ErrMissingFields     = fmt.Errorf("%w: missing required fields", ErrValidation)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidNumber     = fmt.Errorf("%w: invalid number", ErrValidation)
	ErrInvalidOption     = fmt.Errorf("%w: value is not one of the options", ErrValidation)
	ErrInvalidSubmission = fmt.Errorf("%w: invalid submission status", ErrValidation)
	ErrFormInactive      = fmt.Errorf("%w: form is not accepting submissions", ErrNotFound)
)

type (
	FormField struct {
		ID          string    `json:"id"`
		Label       string    `json:"label"`
		FieldType   FieldType `json:"fieldType"`
		Placeholder string    `json:"placeholder,omitempty"`
		Required    bool      `json:"required"`
		Options     []string  `json:"options,omitempty"`
		Order       int       `json:"order"`
	}

	// Form is a public lead-capture form reachable at its slug.
	Form struct {
		ID              string          `json:"id"`
		Name            string          `json:"name"`
		Slug            string          `json:"slug"`
		Description     string          `json:"description,omitempty"`
		DepositRequired bool            `json:"depositRequired"`
		DepositAmount   decimal.Decimal `json:"depositAmount"`
		CheckoutURL     string          `json:"checkoutUrl,omitempty"`
		IsActive        bool            `json:"isActive"`
		Fields          []FormField     `json:"fields"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	FormSubmission struct {
		ID          string            `json:"id"`
		FormID      string            `json:"formId"`
		Data        map[string]string `json:"data"`
		SubmittedAt time.Time         `json:"submittedAt"`
		Status      SubmissionStatus  `json:"status"`
		Notes       string            `json:"notes,omitempty"`
		Converted   bool              `json:"converted"`
	}

	// FormStats counts submissions of one form.
	FormStats struct {
		FormID         string                   `json:"formId"`
		Submissions    int                      `json:"submissions"`
		Conversions    int                      `json:"conversions"`
		ConversionRate float64                  `json:"conversionRate"`
		ByStatus       map[SubmissionStatus]int `json:"byStatus"`
	}
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldSelect, FieldNumber:
		return true
	}
	return false
}

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionNew, SubmissionContacted, SubmissionQualified, SubmissionConverted, SubmissionLost:
		return true
	}
	return false
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// DefaultFormFields is the field set of a new form.
func DefaultFormFields() []FormField {
	return []FormField{
		{ID: "name", Label: "Name", FieldType: FieldText, Placeholder: "Your name", Required: true, Order: 0},
		{ID: "email", Label: "Email", FieldType: FieldEmail, Placeholder: "you@example.com", Required: true, Order: 1},
		{ID: "phone", Label: "Phone", FieldType: FieldPhone, Placeholder: "Your phone number", Order: 2},
	}
}

// Validate checks a form whose slug has already been normalised.
func (f Form) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyFormName
	}
	if f.Slug == "" || f.Slug != Slugify(f.Slug) {
		return ErrInvalidSlug
	}
	if f.DepositRequired && !f.DepositAmount.IsPositive() {
		return ErrInvalidDeposit
	}
	if len(f.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	seen := make(map[string]bool, len(f.Fields))
	for _, fld := range f.Fields {
		if fld.ID == "" || seen[fld.ID] || strings.TrimSpace(fld.Label) == "" || !fld.FieldType.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidField, fld.ID)
		}
		if fld.FieldType == FieldSelect && len(fld.Options) == 0 {
			return fmt.Errorf("%w: select %q has no options", ErrInvalidField, fld.ID)
		}
		seen[fld.ID] = true
	}
	return nil
}

// SortedFields returns the fields in display order.
func (f Form) SortedFields() []FormField {
	out := slices.Clone(f.Fields)
	slices.SortStableFunc(out, func(a, b FormField) int { return a.Order - b.Order })
	return out
}

// ValidateSubmission checks submitted values against the form fields. Values
// for unknown fields are dropped from the returned data.
func (f Form) ValidateSubmission(data map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(f.Fields))
	var missing []string
	for _, fld := range f.SortedFields() {
		v := strings.TrimSpace(data[fld.ID])
		if v == "" {
			if fld.Required {
				missing = append(missing, fld.Label)
			}
			continue
		}
		switch fld.FieldType {
		case FieldEmail:
			if _, err := mail.ParseAddress(v); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, fld.Label)
			}
		case FieldNumber:
			if _, err := decimal.NewFromString(v); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, fld.Label)
			}
		case FieldSelect:
			if !slices.Contains(fld.Options, v) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidOption, fld.Label)
			}
		}
		clean[fld.ID] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return clean, nil
}

// SetStatus moves a submission to status; converted follows the status.
func (s FormSubmission) SetStatus(status SubmissionStatus) (FormSubmission, error) {
	if !status.Valid() {
		return s, ErrInvalidSubmission
	}
	s.Status = status
	s.Converted = status == SubmissionConverted
	return s, nil
}

// ComputeFormStats counts the submissions that belong to formID.
func ComputeFormStats(formID string, submissions []FormSubmission) FormStats {
	stats := FormStats{FormID: formID, ByStatus: map[SubmissionStatus]int{}}
	for _, s := range submissions {
		if s.FormID != formID {
			continue
		}
		stats.Submissions++
		stats.ByStatus[s.Status]++
		if s.Converted {
			stats.Conversions++
		}
	}
	if stats.Submissions > 0 {
		stats.ConversionRate = float64(stats.Conversions) / float64(stats.Submissions) * 100
	}
	return stats
}
