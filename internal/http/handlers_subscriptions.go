package http

import (
	"net/http"
	"time"

	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/rates"
	"subtrack/internal/services"
)

type reorderRequest struct {
	OrderedIDs []int64 `json:"orderedIds"`
}

type refreshResponse struct {
	Subscriptions int            `json:"subscriptions"`
	Changes       []rates.Change `json:"changes"`
	RatesSource   string         `json:"ratesSource"`
	LoadedAt      time.Time      `json:"loadedAt"`
}

// handleListSubscriptions serves the snapshot so KRW amounts reflect the
// latest rates.
func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, snap.Subscriptions)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.subs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, sub)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in services.SubscriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.subs.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogSubscriptionChange(r.Context(), applog.OpCreate, created)
	s.refreshAfterWrite(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.SubscriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.subs.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogSubscriptionChange(r.Context(), applog.OpUpdate, updated)
	s.refreshAfterWrite(r.Context())
	writeOK(w, updated)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.subs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogSubscriptionChange(r.Context(), applog.OpDelete, core.Subscription{ID: id})
	s.refreshAfterWrite(r.Context())
	writeOK(w, map[string]int64{"id": id})
}

func (s *Server) handleReorderSubscriptions(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ordered, err := s.subs.Reorder(r.Context(), req.OrderedIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.refreshAfterWrite(r.Context())
	writeOK(w, ordered)
}

// handleRefresh drops cached rates and reloads the snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if inv, ok := s.rates.(invalidator); ok {
		inv.Invalidate()
	}
	snap, err := s.loader.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changes := snap.Changes
	if changes == nil {
		changes = []rates.Change{}
	}
	writeOK(w, refreshResponse{
		Subscriptions: len(snap.Subscriptions),
		Changes:       changes,
		RatesSource:   snap.Rates.Source,
		LoadedAt:      snap.LoadedAt,
	})
}
