package http

import (
	"net/http"
	"strings"

	"subtrack/internal/news"
)

func (s *Server) handleExchangeRates(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.rates.Latest(r.Context()))
}

// handleNews always answers 200: upstream failures come back as fallback
// articles with source "fallback".
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, err := queryInt(q, "pageSize", news.DefaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, s.news.ByCategory(r.Context(), strings.TrimSpace(q.Get("category")), pageSize))
}
