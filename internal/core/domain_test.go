package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &d))
	assert.Equal(t, 0, d.Compare(NewDate(2024, 2, 29)))

	err = json.Unmarshal([]byte(`"2024-13-01"`), &d)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestRevenueEntryValidate(t *testing.T) {
	good := RevenueEntry{ID: "e1", Date: NewDate(2024, 3, 1), Amount: decimal.NewFromInt(50)}
	require.NoError(t, good.Validate())

	zero := good
	zero.Amount = decimal.Zero
	assert.NoError(t, zero.Validate(), "free entries are allowed")

	cases := []struct {
		name string
		edit func(*RevenueEntry)
		want error
	}{
		{"no id", func(e *RevenueEntry) { e.ID = " " }, ErrEmptyID},
		{"zero date", func(e *RevenueEntry) { e.Date = Date{} }, ErrInvalidDate},
		{"negative", func(e *RevenueEntry) { e.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"long description", func(e *RevenueEntry) { e.Description = string(make([]byte, 501)) }, ErrDescriptionTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.edit(&e)
			err := e.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCallValidate(t *testing.T) {
	good := Call{
		ID:         "c1",
		ClientName: "Ada",
		CallType:   CallTypeConsultation,
		Date:       NewDate(2024, 3, 1),
		Time:       "14:30",
		Duration:   30,
		Status:     StatusScheduled,
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name string
		edit func(*Call)
		want error
	}{
		{"no client", func(c *Call) { c.ClientName = "" }, ErrEmptyClientName},
		{"bad type", func(c *Call) { c.CallType = "visit" }, ErrInvalidCallType},
		{"bad time", func(c *Call) { c.Time = "25:00" }, ErrInvalidTime},
		{"zero duration", func(c *Call) { c.Duration = 0 }, ErrInvalidDuration},
		{"bad status", func(c *Call) { c.Status = "done" }, ErrInvalidCallStatus},
		{"negative conversion", func(c *Call) { c.ConversionAmount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := good
			tc.edit(&c)
			assert.ErrorIs(t, c.Validate(), tc.want)
		})
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{ID: "g1", Type: Weekly, Period: "2024-W09", TargetAmount: decimal.NewFromInt(1000), GoalType: GoalRevenue}
	require.NoError(t, good.Validate())

	bads := map[string]Goal{
		"bad period":      {ID: "g", Type: Monthly, Period: "2024-W09", TargetAmount: decimal.NewFromInt(1), GoalType: GoalRevenue},
		"zero target":     {ID: "g", Type: Yearly, Period: "2024", TargetAmount: decimal.Zero, GoalType: GoalRevenue},
		"bad goal type":   {ID: "g", Type: Daily, Period: "2024-03-01", TargetAmount: decimal.NewFromInt(1), GoalType: "profit"},
		"bad granularity": {ID: "g", Type: 0, Period: "2024", TargetAmount: decimal.NewFromInt(1), GoalType: GoalRevenue},
	}
	for name, g := range bads {
		err := g.Validate()
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestGoalJSONRoundTripKeepsGranularityName(t *testing.T) {
	g := Goal{ID: "g1", Type: Weekly, Period: "2024-W09", TargetAmount: decimal.NewFromInt(1000), GoalType: GoalRevenue}
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"weekly"`)
	assert.Contains(t, string(b), `"targetAmount":1000`)

	var back Goal
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Weekly, back.Type)
	assert.True(t, back.TargetAmount.Equal(g.TargetAmount))
}
