package http

import (
	"net/http"

	"subtrack/internal/analytics"
)

const (
	defaultMonthlyMonths = analytics.ReportMonths
	maxMonthlyMonths     = 36
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, analytics.BuildDashboard(snap.Subscriptions, s.now()))
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, analytics.BuildSummary(snap.Subscriptions, s.durations, s.now()))
}

// handleAnalyticsMonthly serves ?months entries (default 12, 1..36), oldest first.
func (s *Server) handleAnalyticsMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := clampedQueryInt(r.URL.Query(), "months", defaultMonthlyMonths, 1, maxMonthlyMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, analytics.ByMonth(snap.Subscriptions, months, s.now()))
}

func (s *Server) handleAnalyticsSavings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := analytics.BuildSummary(snap.Subscriptions, s.durations, s.now())
	writeOK(w, summary.SavingsOpportunities)
}

func (s *Server) handleAnalyticsReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, analytics.BuildReport(snap.Subscriptions, s.durations, s.now()))
}
