package calendar

import (
	"fmt"
	"strconv"

	"subtrack/internal/core"
)

// MonthStats summarises the payments falling in one month.
type MonthStats struct {
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	TotalAmount float64        `json:"totalAmount"`
	Count       int            `json:"count"`
	Payments    []core.Payment `json:"payments"`
}

// PeakDay is the day of month with the most payments.
type PeakDay struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// MonthlyStats collects the payments whose date lies in (year, month).
func MonthlyStats(payments []core.Payment, year, month int) MonthStats {
	prefix := fmt.Sprintf("%04d-%02d", year, month+1)
	stats := MonthStats{Year: year, Month: month, Payments: []core.Payment{}}
	for _, p := range payments {
		if len(p.DateString) < 7 || p.DateString[:7] != prefix {
			continue
		}
		stats.Payments = append(stats.Payments, p)
		stats.TotalAmount += p.KRWAmount
		stats.Count++
	}
	return stats
}

// PaymentPatterns counts payments per day of month (1-31).
func PaymentPatterns(payments []core.Payment) map[int]int {
	counts := make(map[int]int)
	for _, p := range payments {
		if len(p.DateString) != 10 {
			continue
		}
		day, err := strconv.Atoi(p.DateString[8:])
		if err != nil {
			continue
		}
		counts[day]++
	}
	return counts
}

// FindPeakDay returns the busiest day of month. Ties go to the earliest day;
// ok is false when there are no payments.
func FindPeakDay(patterns map[int]int) (PeakDay, bool) {
	var peak PeakDay
	for day := 1; day <= 31; day++ {
		if c := patterns[day]; c > peak.Count {
			peak = PeakDay{Day: day, Count: c}
		}
	}
	return peak, peak.Count > 0
}
