package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodComparison is a revenue total next to its preceding period.
type PeriodComparison struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Growth   float64         `json:"growth"`
}

// RateComparison is a percentage next to its value in the preceding period.
type RateComparison struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Growth   float64 `json:"growth"`
}

// Summary backs the dashboard tiles.
type Summary struct {
	TotalRevenue            decimal.Decimal  `json:"totalRevenue"`
	TotalEntries            int              `json:"totalEntries"`
	Day                     PeriodComparison `json:"day"`
	Week                    PeriodComparison `json:"week"`
	Month                   PeriodComparison `json:"month"`
	ConversionRate          RateComparison   `json:"conversionRate"`
	CurrentMonthConversions int              `json:"currentMonthConversions"`
	CompletedGoals          int              `json:"completedGoals"`
	TotalGoals              int              `json:"totalGoals"`
}

// SummaryInput carries the collections a summary is computed from.
type SummaryInput struct {
	// All is the unfiltered entry collection; every previous-period baseline
	// is taken from it.
	All []RevenueEntry
	// Current is the filtered view used for current-period figures.
	// A nil slice means All.
	Current []RevenueEntry
	// AllCalls is the unfiltered call collection behind the previous-month
	// conversion rate.
	AllCalls []Call
	// CurrentCalls is the filtered call view. A nil slice means AllCalls.
	CurrentCalls []Call
	Progress     []GoalProgress
}

// ComputeSummary derives the dashboard summary at instant now. Weeks start on
// Sunday; the previous month is the preceding calendar month.
func ComputeSummary(now time.Time, in SummaryInput) Summary {
	current := in.Current
	if current == nil {
		current = in.All
	}
	currentCalls := in.CurrentCalls
	if currentCalls == nil {
		currentCalls = in.AllCalls
	}

	today := DateOf(now)
	yesterday := today.AddDays(-1)
	weekStart := today.AddDays(-int(today.Weekday()))
	thisWeek := DateRange{Start: weekStart, End: weekStart.AddDays(6)}
	lastWeek := DateRange{Start: weekStart.AddDays(-7), End: weekStart.AddDays(-1)}

	thisMonth := today.MonthKey()
	lastMonth := NewDate(today.Year(), int(today.Month()), 1).AddDate(0, -1, 0).Format("2006-01")

	day := compare(
		sumWhere(current, func(d Date) bool { return d.Compare(today) == 0 }),
		sumWhere(in.All, func(d Date) bool { return d.Compare(yesterday) == 0 }),
	)
	week := compare(
		sumWhere(current, thisWeek.Contains),
		sumWhere(in.All, lastWeek.Contains),
	)
	month := compare(
		sumWhere(current, func(d Date) bool { return d.MonthKey() == thisMonth }),
		sumWhere(in.All, func(d Date) bool { return d.MonthKey() == lastMonth }),
	)

	curRate, curConversions := monthConversionRate(currentCalls, thisMonth)
	prevRate, _ := monthConversionRate(in.AllCalls, lastMonth)

	return Summary{
		TotalRevenue:            SumAmounts(current),
		TotalEntries:            len(current),
		Day:                     day,
		Week:                    week,
		Month:                   month,
		ConversionRate:          RateComparison{Current: curRate, Previous: prevRate, Growth: RateGrowth(curRate, prevRate)},
		CurrentMonthConversions: curConversions,
		CompletedGoals:          countCompleted(in.Progress),
		TotalGoals:              len(in.Progress),
	}
}

func compare(current, previous decimal.Decimal) PeriodComparison {
	return PeriodComparison{Current: current, Previous: previous, Growth: Growth(current, previous)}
}

func sumWhere(entries []RevenueEntry, match func(Date) bool) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if match(e.Date) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// monthConversionRate is conversions / completed calls * 100 over the calls
// dated in month (YYYY-MM), together with the number of conversions.
func monthConversionRate(calls []Call, month string) (float64, int) {
	var conversions, completed int
	for _, c := range calls {
		if c.Date.MonthKey() != month {
			continue
		}
		if c.IsConverted {
			conversions++
		}
		if c.Status == StatusCompleted {
			completed++
		}
	}
	if completed == 0 {
		return 0, conversions
	}
	return float64(conversions) / float64(completed) * 100, conversions
}
