package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEntryFilter(t *testing.T) {
	from := NewDate(2024, 3, 1)
	to := NewDate(2024, 3, 31)
	minAmount := decimal.NewFromInt(10)
	maxAmount := decimal.NewFromInt(100)

	entries := []RevenueEntry{
		{ID: "in", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(50), Category: "coaching", Description: "Monthly Coaching"},
		{ID: "early", Date: NewDate(2024, 2, 29), Amount: decimal.NewFromInt(50), Category: "coaching"},
		{ID: "late", Date: NewDate(2024, 4, 1), Amount: decimal.NewFromInt(50), Category: "coaching"},
		{ID: "other-cat", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(50), Category: "products"},
		{ID: "no-cat", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(50), Description: "coaching call"},
		{ID: "cheap", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(5), Category: "coaching"},
		{ID: "dear", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(500), Category: "coaching"},
		{ID: "no-desc", Date: NewDate(2024, 3, 31), Amount: decimal.NewFromInt(100), Category: "coaching"},
		{ID: "wrong-desc", Date: NewDate(2024, 3, 5), Amount: decimal.NewFromInt(50), Category: "coaching", Description: "workshop"},
	}
	f := EntryFilter{
		From:       &from,
		To:         &to,
		Categories: []string{"coaching"},
		MinAmount:  &minAmount,
		MaxAmount:  &maxAmount,
		Search:     "COACH",
	}

	var ids []string
	for _, e := range FilterEntries(entries, f) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"in", "no-cat", "no-desc"}, ids)
	assert.False(t, f.IsZero())
	assert.True(t, EntryFilter{Search: "  "}.IsZero())
	assert.Len(t, FilterEntries(entries, EntryFilter{}), len(entries))
}

func TestCallFilter(t *testing.T) {
	from := NewDate(2024, 3, 1)
	calls := []Call{{ID: "a", Date: NewDate(2024, 2, 28)}, {ID: "b", Date: NewDate(2024, 3, 1)}}
	got := FilterCalls(calls, CallFilter{From: &from})
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
