package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var convertedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleCall() Call {
	return Call{
		ID:         "c1",
		ClientName: "Ada Lovelace",
		CallType:   CallTypeConsultation,
		Date:       NewDate(2024, 3, 1),
		Duration:   45,
		Status:     StatusCompleted,
	}
}

func TestConvertAndRevertCall(t *testing.T) {
	c, delta, err := ConvertCall(sampleCall(), decimal.NewFromInt(50), convertedAt)
	require.NoError(t, err)
	assert.True(t, c.IsConverted)
	assert.Equal(t, "50", c.ConversionAmount.String())

	require.Equal(t, DeltaUpsert, delta.Kind)
	e := delta.Entry
	assert.Equal(t, "revenue-c1", e.ID)
	assert.Equal(t, "2024-03-01", e.Date.String())
	assert.Equal(t, "50", e.Amount.String())
	assert.Equal(t, CallsCategory, e.Category)
	assert.Equal(t, "Conversion from consultation: Ada Lovelace", e.Description)

	entries := ApplyDelta([]RevenueEntry{entry("x", NewDate(2024, 2, 1), 10)}, delta)
	require.Len(t, entries, 2)
	assert.Equal(t, "revenue-c1", entries[0].ID, "new entries are prepended")
	assert.Empty(t, FindConversionDrift([]Call{c}, entries))

	reverted, delta := RevertCall(c)
	assert.False(t, reverted.IsConverted)
	assert.True(t, reverted.ConversionAmount.IsZero())
	require.Equal(t, DeltaDelete, delta.Kind)

	entries = ApplyDelta(entries, delta)
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].ID)
	assert.Empty(t, FindConversionDrift([]Call{reverted}, entries))
}

func TestConvertCallRejectsNegativeAmount(t *testing.T) {
	c := sampleCall()
	got, delta, err := ConvertCall(c, decimal.NewFromInt(-1), convertedAt)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.False(t, got.IsConverted)
	assert.Equal(t, DeltaNone, delta.Kind)
}

func TestRevertUnconvertedCallIsNoop(t *testing.T) {
	_, delta := RevertCall(sampleCall())
	assert.Equal(t, DeltaNone, delta.Kind)
}

func TestApplyDeltaUpsertKeepsCreatedAt(t *testing.T) {
	c, delta, err := ConvertCall(sampleCall(), decimal.NewFromInt(50), convertedAt)
	require.NoError(t, err)
	entries := ApplyDelta(nil, delta)

	c.ConversionAmount = decimal.NewFromInt(80)
	later := convertedAt.Add(time.Hour)
	prev := sampleCall()
	prev.IsConverted = true
	prev.ConversionAmount = decimal.NewFromInt(50)

	delta = ReconcileCall(&prev, c, later)
	require.Equal(t, DeltaUpsert, delta.Kind)
	entries = ApplyDelta(entries, delta)
	require.Len(t, entries, 1)
	assert.Equal(t, "80", entries[0].Amount.String())
	assert.True(t, entries[0].CreatedAt.Equal(convertedAt))
}

func TestReconcileCall(t *testing.T) {
	plain := sampleCall()
	converted := plain
	converted.IsConverted = true
	converted.ConversionAmount = decimal.NewFromInt(50)
	moved := converted
	moved.Date = NewDate(2024, 3, 2)
	renoted := converted
	renoted.Notes = "follow up"

	cases := []struct {
		name    string
		prev    *Call
		updated Call
		want    DeltaKind
	}{
		{"new plain call", nil, plain, DeltaNone},
		{"new converted call", nil, converted, DeltaUpsert},
		{"converted by edit", &plain, converted, DeltaUpsert},
		{"unconverted by edit", &converted, plain, DeltaDelete},
		{"date moved", &converted, moved, DeltaUpsert},
		{"unrelated edit", &converted, renoted, DeltaNone},
		{"plain edit", &plain, plain, DeltaNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReconcileCall(tc.prev, tc.updated, convertedAt).Kind)
		})
	}
}

func TestFindConversionDrift(t *testing.T) {
	converted, delta, err := ConvertCall(sampleCall(), decimal.NewFromInt(50), convertedAt)
	require.NoError(t, err)
	stale := delta.Entry
	stale.Amount = decimal.NewFromInt(40)

	missing := sampleCall()
	missing.ID = "c2"
	missing.IsConverted = true

	orphan := RevenueEntry{ID: "revenue-gone", Date: NewDate(2024, 1, 1), Amount: decimal.NewFromInt(5)}
	manual := entry("manual", NewDate(2024, 1, 1), 5)

	drift := FindConversionDrift([]Call{converted, missing}, []RevenueEntry{stale, orphan, manual})
	assert.Equal(t, []Drift{
		{Kind: DriftStaleEntry, CallID: "c1", EntryID: "revenue-c1"},
		{Kind: DriftMissingEntry, CallID: "c2", EntryID: "revenue-c2"},
		{Kind: DriftOrphanedEntry, CallID: "gone", EntryID: "revenue-gone"},
	}, drift)
}

func TestIsDerivedEntryID(t *testing.T) {
	id, ok := IsDerivedEntryID(DerivedEntryID("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	_, ok = IsDerivedEntryID("revenue-")
	assert.False(t, ok)
	_, ok = IsDerivedEntryID("e-1")
	assert.False(t, ok)
}
