package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/calendar"
	"subtrack/internal/core"
)

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 365
)

// monthRef is a 1-based month used in navigation links.
type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type monthSummary struct {
	TotalAmount float64        `json:"totalAmount"`
	Count       int            `json:"count"`
	Payments    []core.Payment `json:"payments"`
}

type calendarResponse struct {
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Weeks       [][]calendar.Cell `json:"weeks"`
	Prev        monthRef          `json:"prev"`
	Next        monthRef          `json:"next"`
	Stats       monthSummary      `json:"stats"`
	PeakDay     *calendar.PeakDay `json:"peakDay"`
	YearOptions []int             `json:"yearOptions"`
}

type upcomingPayment struct {
	core.Payment
	DaysUntil int    `json:"daysUntil"`
	Label     string `json:"label"`
}

func toMonthRef(year, month int) monthRef {
	return monthRef{Year: year, Month: month + 1}
}

// handleCalendar serves the month grid. The month parameter is 1-based.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	params, err := ParseMonthParams(r.URL.Query(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payments := calendar.ExtractPayments(snap.Subscriptions)
	grid, err := calendar.BuildGrid(params.Year, params.Month, payments, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats := calendar.MonthlyStats(payments, params.Year, params.Month)

	resp := calendarResponse{
		Year:  params.Year,
		Month: params.Month + 1,
		Weeks: grid.Weeks(),
		Prev:  toMonthRef(calendar.PrevMonth(params.Year, params.Month)),
		Next:  toMonthRef(calendar.NextMonth(params.Year, params.Month)),
		Stats: monthSummary{
			TotalAmount: stats.TotalAmount,
			Count:       stats.Count,
			Payments:    stats.Payments,
		},
		YearOptions: calendar.YearOptions(now.Year()),
	}
	if peak, ok := calendar.FindPeakDay(calendar.PaymentPatterns(stats.Payments)); ok {
		resp.PeakDay = &peak
	}
	writeOK(w, resp)
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	details, err := calendar.Day(calendar.ExtractPayments(snap.Subscriptions), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, details)
}

// handleUpcoming lists payments due within ?days (default 7, at most 365).
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := clampedQueryInt(r.URL.Query(), "days", defaultUpcomingDays, 0, maxUpcomingDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	today := s.now()
	due := calendar.Upcoming(calendar.ExtractPayments(snap.Subscriptions), today, days)
	out := make([]upcomingPayment, 0, len(due))
	for _, p := range due {
		n := calendar.DaysUntil(p, today)
		out = append(out, upcomingPayment{Payment: p, DaysUntil: n, Label: calendar.ReminderLabel(n)})
	}
	writeOK(w, out)
}
