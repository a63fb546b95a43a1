package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"subtrack/internal/core"
	"subtrack/internal/rates"
	"subtrack/internal/sheets"
)

// RateSource returns the current exchange rates. rates.Service never fails.
type RateSource interface {
	Latest(ctx context.Context) rates.Rates
}

// Snapshot is an immutable view of the subscriptions with KRW amounts
// recomputed from the rates it was loaded with. Callers must not mutate it.
type Snapshot struct {
	Seq           uint64
	Subscriptions []core.Subscription
	Rates         rates.Rates
	Changes       []rates.Change
	LoadedAt      time.Time
}

// Loader refreshes snapshots and keeps the newest one. A refresh that
// started before the accepted one is discarded when it finishes late.
type Loader struct {
	subs  sheets.SubscriptionLister
	rates RateSource
	now   func() time.Time

	seq atomic.Uint64

	mu       sync.RWMutex
	current  *Snapshot
	ready    chan struct{}
	readyOne sync.Once
}

func NewLoader(subs sheets.SubscriptionLister, rateSource RateSource) *Loader {
	return &Loader{
		subs:  subs,
		rates: rateSource,
		now:   time.Now,
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first snapshot has been accepted.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Current returns the accepted snapshot, or nil before the first refresh.
func (l *Loader) Current() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Refresh loads subscriptions and rates concurrently and returns the
// accepted snapshot, which is newer than the one loaded here when another
// refresh overtook this one.
func (l *Loader) Refresh(ctx context.Context) (*Snapshot, error) {
	seq := l.seq.Add(1)

	var (
		subs []core.Subscription
		rts  rates.Rates
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := l.subs.ListSubscriptions(gctx)
		if err != nil {
			return fmt.Errorf("load subscriptions: %w", err)
		}
		subs = list
		return nil
	})
	g.Go(func() error {
		rts = l.rates.Latest(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changes := rates.Apply(subs, rts)
	snap := &Snapshot{
		Seq:           seq,
		Subscriptions: subs,
		Rates:         rts,
		Changes:       changes,
		LoadedAt:      l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil && l.current.Seq > seq {
		slog.DebugContext(ctx, "Discarding stale snapshot", "seq", seq, "accepted", l.current.Seq)
		return l.current, nil
	}
	l.current = snap
	l.readyOne.Do(func() { close(l.ready) })

	slog.InfoContext(ctx, "Snapshot refreshed",
		"seq", seq,
		"subscriptions", len(subs),
		"rates_source", rts.Source,
		"krw_changes", len(changes))
	return snap, nil
}
