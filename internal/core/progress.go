package core

import "github.com/shopspring/decimal"

// GoalProgress is the derived state of a goal against a set of entries.
type GoalProgress struct {
	Goal          Goal            `json:"goal"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	// ProgressPercentage is uncapped; DisplayPercentage caps it at 100.
	ProgressPercentage float64 `json:"progressPercentage"`
	DisplayPercentage  float64 `json:"displayPercentage"`
	IsCompleted        bool    `json:"isCompleted"`
}

// ComputeProgress sums the entries that fall in the goal's period and
// compares the total against the target. The result does not depend on the
// order of entries.
func ComputeProgress(goal Goal, entries []RevenueEntry) GoalProgress {
	match := bucketMatcher(goal.Period, goal.Type)
	current := decimal.Zero
	for _, e := range entries {
		if match(e.Date) {
			current = current.Add(e.Amount)
		}
	}

	pct := Percent(current, goal.TargetAmount)
	return GoalProgress{
		Goal:               goal,
		CurrentAmount:      current,
		ProgressPercentage: pct,
		DisplayPercentage:  min(pct, 100),
		IsCompleted:        current.GreaterThanOrEqual(goal.TargetAmount),
	}
}

// ComputeAllProgress evaluates every goal against the same entries.
func ComputeAllProgress(goals []Goal, entries []RevenueEntry) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, ComputeProgress(g, entries))
	}
	return out
}

// CompletionRate is the share of completed goals, 0 when there are none.
func CompletionRate(progress []GoalProgress) float64 {
	if len(progress) == 0 {
		return 0
	}
	completed := countCompleted(progress)
	return float64(completed) / float64(len(progress)) * 100
}

func countCompleted(progress []GoalProgress) int {
	n := 0
	for _, p := range progress {
		if p.IsCompleted {
			n++
		}
	}
	return n
}
