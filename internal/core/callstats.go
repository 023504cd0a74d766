package core

import "github.com/shopspring/decimal"

// CallStats summarises a set of calls.
type CallStats struct {
	TotalCalls     int             `json:"totalCalls"`
	CompletedCalls int             `json:"completedCalls"`
	NoShowCalls    int             `json:"noShowCalls"`
	ShowRate       float64         `json:"showRate"`
	Conversions    int             `json:"conversions"`
	ConversionRate float64         `json:"conversionRate"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

// ComputeCallStats derives call statistics.
//
// The show rate only considers calls that were due to happen (completed or
// no-show). The conversion rate counts converted completed calls against
// calls that were held, whether paid or still awaiting payment.
func ComputeCallStats(calls []Call) CallStats {
	stats := CallStats{TotalCalls: len(calls), TotalRevenue: decimal.Zero}
	var convertedCompleted, eligible int
	for _, c := range calls {
		switch c.Status {
		case StatusCompleted:
			stats.CompletedCalls++
			eligible++
			if c.IsConverted {
				convertedCompleted++
			}
		case StatusNoShow:
			stats.NoShowCalls++
		case StatusNotPaidYet:
			eligible++
		}
		if c.IsConverted {
			stats.Conversions++
			stats.TotalRevenue = stats.TotalRevenue.Add(c.ConversionAmount)
		}
	}
	if happened := stats.CompletedCalls + stats.NoShowCalls; happened > 0 {
		stats.ShowRate = float64(stats.CompletedCalls) / float64(happened) * 100
	}
	if eligible > 0 {
		stats.ConversionRate = float64(convertedCompleted) / float64(eligible) * 100
	}
	return stats
}
