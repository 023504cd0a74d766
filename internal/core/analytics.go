package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	trendMonths = 6
	recentDays  = 30
	// UncategorizedKey groups entries that carry no category.
	UncategorizedKey = "uncategorized"
)

type (
	CategoryTotal struct {
		Category   string          `json:"category"`
		Total      decimal.Decimal `json:"total"`
		Count      int             `json:"count"`
		Percentage float64         `json:"percentage"` // share of entry count
	}

	WeekdayTotal struct {
		Day     string          `json:"day"`
		Total   decimal.Decimal `json:"total"`
		Average decimal.Decimal `json:"average"`
		Count   int             `json:"count"`
	}

	MonthTotal struct {
		Month string          `json:"month"` // YYYY-MM
		Total decimal.Decimal `json:"total"`
		Count int             `json:"count"`
	}

	DailyPoint struct {
		Date    Date            `json:"date"`
		Revenue decimal.Decimal `json:"revenue"`
		Calls   int             `json:"calls"`
	}

	// Analytics is the breakdown shown on the analytics page.
	Analytics struct {
		TotalRevenue    decimal.Decimal `json:"totalRevenue"`
		AveragePerEntry decimal.Decimal `json:"averagePerEntry"`
		BestWeekday     string          `json:"bestWeekday"`
		ByCategory      []CategoryTotal `json:"byCategory"`
		ByWeekday       []WeekdayTotal  `json:"byWeekday"`
		MonthlyTrend    []MonthTotal    `json:"monthlyTrend"`
		Last30Days      []DailyPoint    `json:"last30Days"`
	}
)

// ComputeAnalytics builds category, weekday and trend breakdowns at instant now.
func ComputeAnalytics(now time.Time, entries []RevenueEntry, calls []Call) Analytics {
	today := DateOf(now)
	total := SumAmounts(entries)
	a := Analytics{
		TotalRevenue:    total,
		AveragePerEntry: average(total, len(entries)),
		ByCategory:      categoryBreakdown(entries),
		ByWeekday:       weekdayBreakdown(entries),
		MonthlyTrend:    monthlyTrend(today, entries),
		Last30Days:      dailySeries(today, entries, calls),
	}

	best := a.ByWeekday[0]
	for _, d := range a.ByWeekday[1:] {
		if d.Average.GreaterThan(best.Average) {
			best = d
		}
	}
	a.BestWeekday = best.Day
	return a
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func categoryBreakdown(entries []RevenueEntry) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, e := range entries {
		key := e.Category
		if key == "" {
			key = UncategorizedKey
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CategoryTotal{Category: key, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = float64(out[i].Count) / float64(len(entries)) * 100
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		return b.Total.Cmp(a.Total)
	})
	return out
}

func weekdayBreakdown(entries []RevenueEntry) []WeekdayTotal {
	out := make([]WeekdayTotal, 7)
	for i := range out {
		out[i] = WeekdayTotal{Day: time.Weekday(i).String()[:3], Total: decimal.Zero}
	}
	for _, e := range entries {
		d := &out[e.Date.Weekday()]
		d.Total = d.Total.Add(e.Amount)
		d.Count++
	}
	for i := range out {
		out[i].Average = average(out[i].Total, out[i].Count)
	}
	return out
}

func monthlyTrend(today Date, entries []RevenueEntry) []MonthTotal {
	first := NewDate(today.Year(), int(today.Month()), 1)
	out := make([]MonthTotal, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := range out {
		key := first.AddDate(0, i-(trendMonths-1), 0).Format("2006-01")
		out[i] = MonthTotal{Month: key, Total: decimal.Zero}
		index[key] = i
	}
	for _, e := range entries {
		if i, ok := index[e.Date.MonthKey()]; ok {
			out[i].Total = out[i].Total.Add(e.Amount)
			out[i].Count++
		}
	}
	return out
}

func dailySeries(today Date, entries []RevenueEntry, calls []Call) []DailyPoint {
	out := make([]DailyPoint, recentDays)
	index := make(map[string]int, recentDays)
	for i := range out {
		d := today.AddDays(i - (recentDays - 1))
		out[i] = DailyPoint{Date: d, Revenue: decimal.Zero}
		index[d.String()] = i
	}
	for _, e := range entries {
		if i, ok := index[e.Date.String()]; ok {
			out[i].Revenue = out[i].Revenue.Add(e.Amount)
		}
	}
	for _, c := range calls {
		if i, ok := index[c.Date.String()]; ok {
			out[i].Calls++
		}
	}
	return out
}

// SortEntriesByDate orders entries newest first, breaking ties by creation time.
func SortEntriesByDate(entries []RevenueEntry) {
	slices.SortStableFunc(entries, func(a, b RevenueEntry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}
