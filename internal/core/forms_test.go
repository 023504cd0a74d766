package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForm() Form {
	return Form{
		ID:       "f1",
		Name:     "Discovery call",
		Slug:     Slugify("Discovery Call!"),
		IsActive: true,
		Fields: append(DefaultFormFields(), FormField{
			ID: "budget", Label: "Budget", FieldType: FieldSelect, Options: []string{"<1k", "1k+"}, Order: 3,
		}),
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "discovery-call", Slugify("  Discovery Call! "))
	assert.Equal(t, "a-b-c", Slugify("a__b--c"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestFormValidate(t *testing.T) {
	require.NoError(t, sampleForm().Validate())

	noName := sampleForm()
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrEmptyFormName)

	badSlug := sampleForm()
	badSlug.Slug = "Has Spaces"
	assert.ErrorIs(t, badSlug.Validate(), ErrInvalidSlug)

	deposit := sampleForm()
	deposit.DepositRequired = true
	assert.ErrorIs(t, deposit.Validate(), ErrInvalidDeposit)
	deposit.DepositAmount = decimal.NewFromInt(25)
	assert.NoError(t, deposit.Validate())

	dup := sampleForm()
	dup.Fields = append(dup.Fields, FormField{ID: "email", Label: "Email again", FieldType: FieldEmail})
	assert.ErrorIs(t, dup.Validate(), ErrInvalidField)
}

func TestValidateSubmission(t *testing.T) {
	f := sampleForm()

	data, err := f.ValidateSubmission(map[string]string{
		"name":    " Ada ",
		"email":   "ada@example.com",
		"budget":  "1k+",
		"unknown": "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ada", "email": "ada@example.com", "budget": "1k+"}, data)

	_, err = f.ValidateSubmission(map[string]string{"phone": "123"})
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Contains(t, err.Error(), "Name, Email")

	_, err = f.ValidateSubmission(map[string]string{"name": "Ada", "email": "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.ValidateSubmission(map[string]string{"name": "Ada", "email": "a@b.co", "budget": "lots"})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestSubmissionStatusAndStats(t *testing.T) {
	s := FormSubmission{ID: "s1", FormID: "f1", Status: SubmissionNew}
	converted, err := s.SetStatus(SubmissionConverted)
	require.NoError(t, err)
	assert.True(t, converted.Converted)

	lost, err := converted.SetStatus(SubmissionLost)
	require.NoError(t, err)
	assert.False(t, lost.Converted)

	_, err = s.SetStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	stats := ComputeFormStats("f1", []FormSubmission{converted, s, lost, {FormID: "other", Converted: true}})
	assert.Equal(t, 3, stats.Submissions)
	assert.Equal(t, 1, stats.Conversions)
	assert.InDelta(t, 100.0/3, stats.ConversionRate, 1e-9)
	assert.Equal(t, 1, stats.ByStatus[SubmissionLost])
}
