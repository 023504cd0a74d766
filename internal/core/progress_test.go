package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func entry(id string, d Date, amount int64) RevenueEntry {
	return RevenueEntry{ID: id, Date: d, Amount: decimal.NewFromInt(amount)}
}

func TestComputeProgressWeekly(t *testing.T) {
	goal := Goal{ID: "g1", Type: Weekly, Period: "2024-W09", TargetAmount: decimal.NewFromInt(1000), GoalType: GoalRevenue}
	entries := []RevenueEntry{
		entry("a", NewDate(2024, 2, 26), 200),
		entry("b", NewDate(2024, 3, 1), 400),
		entry("c", NewDate(2024, 3, 4), 900), // next week
		entry("d", NewDate(2024, 2, 25), 900), // previous week
	}

	p := ComputeProgress(goal, entries)
	assert.True(t, p.CurrentAmount.Equal(decimal.NewFromInt(600)))
	assert.InDelta(t, 60.0, p.ProgressPercentage, 1e-9)
	assert.InDelta(t, 60.0, p.DisplayPercentage, 1e-9)
	assert.False(t, p.IsCompleted)
}

func TestComputeProgressBoundaries(t *testing.T) {
	goal := Goal{ID: "g1", Type: Monthly, Period: "2024-03", TargetAmount: decimal.NewFromInt(500), GoalType: GoalRevenue}

	exact := ComputeProgress(goal, []RevenueEntry{entry("a", NewDate(2024, 3, 31), 500)})
	assert.True(t, exact.IsCompleted, "reaching the target completes the goal")
	assert.InDelta(t, 100.0, exact.ProgressPercentage, 1e-9)

	over := ComputeProgress(goal, []RevenueEntry{
		entry("a", NewDate(2024, 3, 1), 500),
		entry("b", NewDate(2024, 3, 2), 250),
	})
	assert.InDelta(t, 150.0, over.ProgressPercentage, 1e-9)
	assert.InDelta(t, 100.0, over.DisplayPercentage, 1e-9)

	none := ComputeProgress(goal, nil)
	assert.True(t, none.CurrentAmount.IsZero())
	assert.Zero(t, none.ProgressPercentage)
	assert.False(t, none.IsCompleted)
}

func TestComputeProgressIsOrderIndependent(t *testing.T) {
	goal := Goal{ID: "g1", Type: Yearly, Period: "2024", TargetAmount: decimal.NewFromInt(100), GoalType: GoalClients}
	entries := []RevenueEntry{
		entry("a", NewDate(2024, 1, 1), 10),
		entry("b", NewDate(2024, 12, 31), 20),
		entry("c", NewDate(2023, 12, 31), 40),
	}
	reversed := []RevenueEntry{entries[2], entries[1], entries[0]}
	assert.Equal(t, ComputeProgress(goal, entries).CurrentAmount.String(), ComputeProgress(goal, reversed).CurrentAmount.String())
	assert.Equal(t, "30", ComputeProgress(goal, entries).CurrentAmount.String())
}

func TestCompletionRate(t *testing.T) {
	assert.Zero(t, CompletionRate(nil))
	progress := []GoalProgress{{IsCompleted: true}, {}, {}, {IsCompleted: true}}
	assert.InDelta(t, 50.0, CompletionRate(progress), 1e-9)
}
