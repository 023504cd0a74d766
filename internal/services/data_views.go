package services

import (
	"fmt"
	"slices"

	"revtrack/internal/core"
)

// RevenueEntries returns a copy of the entries accepted by filter, in
// stored order (newest first).
func (s *DataService) RevenueEntries(filter core.EntryFilter) []core.RevenueEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.FilterEntries(s.data.entries, filter)
}

func (s *DataService) RevenueEntry(id string) (core.RevenueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexByID(s.data.entries, id, func(e core.RevenueEntry) string { return e.ID })
	if i < 0 {
		return core.RevenueEntry{}, fmt.Errorf("%w: revenue entry %s", core.ErrNotFound, id)
	}
	return s.data.entries[i], nil
}

func (s *DataService) Goals() []core.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.goals)
}

func (s *DataService) Calls(filter core.CallFilter) []core.Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.FilterCalls(s.data.calls, filter)
}

func (s *DataService) Call(id string) (core.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexByID(s.data.calls, id, func(c core.Call) string { return c.ID })
	if i < 0 {
		return core.Call{}, fmt.Errorf("%w: call %s", core.ErrNotFound, id)
	}
	return s.data.calls[i], nil
}

// GoalProgress measures every goal against the full entry collection.
func (s *DataService) GoalProgress() []core.GoalProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ComputeAllProgress(s.data.goals, s.data.entries)
}

// Summary computes the dashboard summary. Current-period figures follow the
// filters; previous-period baselines always use every entry and call.
func (s *DataService) Summary(entryFilter core.EntryFilter, callFilter core.CallFilter) core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := core.SummaryInput{
		All:      s.data.entries,
		AllCalls: s.data.calls,
		Progress: core.ComputeAllProgress(s.data.goals, s.data.entries),
	}
	if !entryFilter.IsZero() {
		in.Current = core.FilterEntries(s.data.entries, entryFilter)
	}
	if !callFilter.IsZero() {
		in.CurrentCalls = core.FilterCalls(s.data.calls, callFilter)
	}
	return core.ComputeSummary(s.now(), in)
}

func (s *DataService) CallStats(filter core.CallFilter) core.CallStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ComputeCallStats(core.FilterCalls(s.data.calls, filter))
}

func (s *DataService) Analytics(entryFilter core.EntryFilter, callFilter core.CallFilter) core.Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ComputeAnalytics(s.now(),
		core.FilterEntries(s.data.entries, entryFilter),
		core.FilterCalls(s.data.calls, callFilter))
}

// Consistency lists calls and derived entries that disagree.
func (s *DataService) Consistency() []core.Drift {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.FindConversionDrift(s.data.calls, s.data.entries)
}
