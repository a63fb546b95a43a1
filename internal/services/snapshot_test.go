package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/rates"
	"subtrack/internal/sheets/memory"
)

type fixedRates struct{ r rates.Rates }

func (f fixedRates) Latest(context.Context) rates.Rates { return f.r }

// orderedLister blocks the nth call until a result arrives on gates[n].
type orderedLister struct {
	calls atomic.Int32
	gates [2]chan []core.Subscription
}

func (o *orderedLister) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	n := o.calls.Add(1) - 1
	select {
	case subs := <-o.gates[n]:
		return subs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingLister struct{}

func (failingLister) ListSubscriptions(context.Context) ([]core.Subscription, error) {
	return nil, errors.New("sheet unavailable")
}

func TestLoaderRefreshAppliesRates(t *testing.T) {
	store := memory.New([]core.Subscription{
		{ID: 1, Name: "ChatGPT", Amount: 20, Currency: "USD", Status: core.StatusActive},
		{ID: 2, Name: "Netflix", Amount: 17000, Currency: "KRW", Status: core.StatusActive},
	})
	r := rates.Fallback(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	l := NewLoader(store, fixedRates{r})

	select {
	case <-l.Ready():
		t.Fatal("loader should not be ready before the first refresh")
	default:
	}
	if l.Current() != nil {
		t.Fatal("expected no snapshot before refresh")
	}

	snap, err := l.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-l.Ready():
	default:
		t.Fatal("loader should be ready after a refresh")
	}
	if snap.Subscriptions[0].KRWAmount == nil || *snap.Subscriptions[0].KRWAmount != 27000 {
		t.Fatalf("expected 20 USD to convert to 27000 KRW, got %v", snap.Subscriptions[0].KRWAmount)
	}
	if len(snap.Changes) != 0 {
		t.Fatalf("first conversion has no previous amount to report, got %+v", snap.Changes)
	}
	if l.Current() != snap {
		t.Fatal("Current should return the accepted snapshot")
	}
}

func TestLoaderDiscardsStaleResults(t *testing.T) {
	lister := &orderedLister{gates: [2]chan []core.Subscription{make(chan []core.Subscription), make(chan []core.Subscription)}}
	l := NewLoader(lister, fixedRates{rates.Fallback(time.Now())})
	ctx := context.Background()

	older := make(chan *Snapshot)
	go func() {
		snap, _ := l.Refresh(ctx)
		older <- snap
	}()
	for lister.calls.Load() < 1 {
		time.Sleep(time.Millisecond)
	}
	newer := make(chan *Snapshot)
	go func() {
		snap, _ := l.Refresh(ctx)
		newer <- snap
	}()
	for lister.calls.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	// The newer refresh finishes first.
	lister.gates[1] <- []core.Subscription{{ID: 2, Name: "newer"}}
	n := <-newer
	lister.gates[0] <- []core.Subscription{{ID: 1, Name: "older"}}
	o := <-older

	if n.Seq != 2 || n.Subscriptions[0].Name != "newer" {
		t.Fatalf("unexpected newer snapshot %+v", n)
	}
	if o != n {
		t.Fatalf("the late result must be discarded in favour of seq %d, got seq %d", n.Seq, o.Seq)
	}
	if l.Current() != n {
		t.Fatal("current snapshot should remain the newer one")
	}
}

func TestLoaderRefreshError(t *testing.T) {
	l := NewLoader(failingLister{}, fixedRates{})
	if _, err := l.Refresh(context.Background()); err == nil {
		t.Fatal("expected the lister error")
	}
	select {
	case <-l.Ready():
		t.Fatal("a failed refresh must not mark the loader ready")
	default:
	}
}
