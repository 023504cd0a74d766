// Package core holds the revtrack domain: revenue entries, sales calls and
// the entries derived from converted calls, goals and their period buckets,
// lead forms, and the summaries and analytics computed over them.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are persisted and served as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	CallTypeCall         CallType = "call"
	CallTypeMeeting      CallType = "meeting"
	CallTypeConsultation CallType = "consultation"
)

const (
	StatusScheduled  CallStatus = "scheduled"
	StatusCompleted  CallStatus = "completed"
	StatusCancelled  CallStatus = "cancelled"
	StatusNoShow     CallStatus = "no-show"
	StatusNotPaidYet CallStatus = "hasn't paid yet"
)

const (
	GoalRevenue GoalType = "revenue"
	GoalClients GoalType = "clients"
)

const maxDescriptionLength = 500

type (
	CallType   string
	CallStatus string
	GoalType   string

	// RevenueEntry is a single dated amount of income.
	RevenueEntry struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category,omitempty"`
		Description string          `json:"description,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// Call is a scheduled or held sales conversation.
	Call struct {
		ID               string          `json:"id"`
		ClientName       string          `json:"clientName"`
		Email            string          `json:"email,omitempty"`
		Phone            string          `json:"phone,omitempty"`
		CallType         CallType        `json:"callType"`
		Date             Date            `json:"date"`
		Time             string          `json:"time"`
		Duration         int             `json:"duration"` // minutes
		Notes            string          `json:"notes,omitempty"`
		Status           CallStatus      `json:"status"`
		IsConverted      bool            `json:"isConverted"`
		ConversionAmount decimal.Decimal `json:"conversionAmount"`
		CreatedAt        time.Time       `json:"createdAt"`
	}

	// Goal is a revenue or client target for one bucket of one granularity.
	Goal struct {
		ID           string          `json:"id"`
		Type         Granularity     `json:"type"`
		Period       BucketKey       `json:"period"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		GoalType     GoalType        `json:"goalType"`
		Description  string          `json:"description,omitempty"`
		Category     string          `json:"category,omitempty"`
		CreatedAt    time.Time       `json:"createdAt"`
	}
)

var (
	// ErrValidation is wrapped by every input validation error.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("conflict")

	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long", ErrValidation)
	ErrEmptyClientName    = fmt.Errorf("%w: empty client name", ErrValidation)
	ErrInvalidCallType    = fmt.Errorf("%w: invalid call type", ErrValidation)
	ErrInvalidCallStatus  = fmt.Errorf("%w: invalid call status", ErrValidation)
	ErrInvalidDuration    = fmt.Errorf("%w: duration must be a positive number of minutes", ErrValidation)
	ErrInvalidTime        = fmt.Errorf("%w: invalid time of day", ErrValidation)
	ErrInvalidGranularity = fmt.Errorf("%w: invalid granularity", ErrValidation)
	ErrInvalidPeriod      = fmt.Errorf("%w: invalid period", ErrValidation)
	ErrInvalidGoalType    = fmt.Errorf("%w: invalid goal type", ErrValidation)
	ErrInvalidTarget      = fmt.Errorf("%w: target amount must be positive", ErrValidation)
	ErrEmptyID            = fmt.Errorf("%w: empty id", ErrValidation)
)

func (t CallType) Valid() bool {
	switch t {
	case CallTypeCall, CallTypeMeeting, CallTypeConsultation:
		return true
	}
	return false
}

func (s CallStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow, StatusNotPaidYet:
		return true
	}
	return false
}

func (t GoalType) Valid() bool {
	return t == GoalRevenue || t == GoalClients
}

func (e RevenueEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(e.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Call) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.ClientName) == "" {
		return ErrEmptyClientName
	}
	if !c.CallType.Valid() {
		return ErrInvalidCallType
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if c.Time != "" {
		if _, err := time.Parse("15:04", c.Time); err != nil {
			return ErrInvalidTime
		}
	}
	if c.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !c.Status.Valid() {
		return ErrInvalidCallStatus
	}
	if c.ConversionAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrEmptyID
	}
	if !g.Type.Valid() {
		return ErrInvalidGranularity
	}
	if _, err := BucketRange(g.Period, g.Type); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	if !g.GoalType.Valid() {
		return ErrInvalidGoalType
	}
	if len(g.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
