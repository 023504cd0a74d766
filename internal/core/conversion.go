package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CallsCategory labels revenue entries derived from converted calls.
	CallsCategory = "calls"

	derivedEntryPrefix = "revenue-"
)

// DeltaKind tells how the entry collection must change after a call mutation.
type DeltaKind int

const (
	DeltaNone DeltaKind = iota
	DeltaUpsert
	DeltaDelete
)

func (k DeltaKind) String() string {
	switch k {
	case DeltaUpsert:
		return "upsert"
	case DeltaDelete:
		return "delete"
	}
	return "none"
}

// EntryDelta is the change to the derived entry that accompanies a call change.
// Entry is set for DeltaUpsert, EntryID for both DeltaUpsert and DeltaDelete.
type EntryDelta struct {
	Kind    DeltaKind
	Entry   RevenueEntry
	EntryID string
}

// DerivedEntryID is the id of the revenue entry owned by call callID.
func DerivedEntryID(callID string) string {
	return derivedEntryPrefix + callID
}

// IsDerivedEntryID reports whether id belongs to an entry owned by a call,
// returning that call's id.
func IsDerivedEntryID(id string) (callID string, ok bool) {
	callID, ok = strings.CutPrefix(id, derivedEntryPrefix)
	return callID, ok && callID != ""
}

// DerivedEntry builds the revenue entry mirroring a converted call.
func DerivedEntry(c Call, now time.Time) RevenueEntry {
	return RevenueEntry{
		ID:          DerivedEntryID(c.ID),
		Date:        c.Date,
		Amount:      c.ConversionAmount,
		Category:    CallsCategory,
		Description: fmt.Sprintf("Conversion from %s: %s", c.CallType, c.ClientName),
		CreatedAt:   now,
	}
}

// ConvertCall marks c as converted for amount and returns the entry upsert
// that keeps the derived entry in step.
func ConvertCall(c Call, amount decimal.Decimal, now time.Time) (Call, EntryDelta, error) {
	if amount.IsNegative() {
		return c, EntryDelta{}, ErrInvalidAmount
	}
	c.IsConverted = true
	c.ConversionAmount = amount
	e := DerivedEntry(c, now)
	return c, EntryDelta{Kind: DeltaUpsert, Entry: e, EntryID: e.ID}, nil
}

// RevertCall clears the conversion of c and returns the deletion of its
// derived entry. Reverting a call that is not converted yields DeltaNone.
func RevertCall(c Call) (Call, EntryDelta) {
	if !c.IsConverted {
		return c, EntryDelta{}
	}
	c.IsConverted = false
	c.ConversionAmount = decimal.Zero
	return c, EntryDelta{Kind: DeltaDelete, EntryID: DerivedEntryID(c.ID)}
}

// ReconcileCall returns the entry change implied by replacing previous with
// updated. previous is nil for a newly created call.
func ReconcileCall(previous *Call, updated Call, now time.Time) EntryDelta {
	wasConverted := previous != nil && previous.IsConverted
	switch {
	case updated.IsConverted:
		if wasConverted && !derivedFieldsChanged(*previous, updated) {
			return EntryDelta{}
		}
		e := DerivedEntry(updated, now)
		return EntryDelta{Kind: DeltaUpsert, Entry: e, EntryID: e.ID}
	case wasConverted:
		return EntryDelta{Kind: DeltaDelete, EntryID: DerivedEntryID(updated.ID)}
	}
	return EntryDelta{}
}

func derivedFieldsChanged(a, b Call) bool {
	return !a.ConversionAmount.Equal(b.ConversionAmount) ||
		a.Date.Compare(b.Date) != 0 ||
		a.ClientName != b.ClientName ||
		a.CallType != b.CallType
}

// ApplyDelta returns a new entry slice with d applied. Upserts replace the
// entry in place, keeping its CreatedAt, or prepend it when absent.
func ApplyDelta(entries []RevenueEntry, d EntryDelta) []RevenueEntry {
	out := make([]RevenueEntry, 0, len(entries)+1)
	switch d.Kind {
	case DeltaUpsert:
		replaced := false
		for _, e := range entries {
			if e.ID == d.Entry.ID {
				upd := d.Entry
				upd.CreatedAt = e.CreatedAt
				out = append(out, upd)
				replaced = true
				continue
			}
			out = append(out, e)
		}
		if !replaced {
			out = append([]RevenueEntry{d.Entry}, out...)
		}
	case DeltaDelete:
		for _, e := range entries {
			if e.ID != d.EntryID {
				out = append(out, e)
			}
		}
	default:
		out = append(out, entries...)
	}
	return out
}

// DriftKind classifies a broken call/entry pairing.
type DriftKind string

const (
	// DriftMissingEntry: a converted call has no derived entry.
	DriftMissingEntry DriftKind = "missing_entry"
	// DriftOrphanedEntry: a derived entry has no converted call.
	DriftOrphanedEntry DriftKind = "orphaned_entry"
	// DriftStaleEntry: a derived entry disagrees with its call on amount or date.
	DriftStaleEntry DriftKind = "stale_entry"
)

// Drift is one violation of the call conversion invariant.
type Drift struct {
	Kind    DriftKind `json:"kind"`
	CallID  string    `json:"callId"`
	EntryID string    `json:"entryId"`
}

// FindConversionDrift lists every call whose conversion state does not match
// the derived entries. The result is ordered by calls, then by entries.
func FindConversionDrift(calls []Call, entries []RevenueEntry) []Drift {
	byID := make(map[string]RevenueEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	converted := make(map[string]bool, len(calls))

	var drift []Drift
	for _, c := range calls {
		id := DerivedEntryID(c.ID)
		e, ok := byID[id]
		switch {
		case c.IsConverted && !ok:
			drift = append(drift, Drift{Kind: DriftMissingEntry, CallID: c.ID, EntryID: id})
		case c.IsConverted && (!e.Amount.Equal(c.ConversionAmount) || e.Date.Compare(c.Date) != 0):
			drift = append(drift, Drift{Kind: DriftStaleEntry, CallID: c.ID, EntryID: id})
		}
		if c.IsConverted {
			converted[c.ID] = true
		}
	}
	for _, e := range entries {
		callID, ok := IsDerivedEntryID(e.ID)
		if ok && !converted[callID] {
			drift = append(drift, Drift{Kind: DriftOrphanedEntry, CallID: callID, EntryID: e.ID})
		}
	}
	return drift
}
