// Package memory is a subscription store kept in process memory, optionally
// loaded from and saved to a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"subtrack/internal/core"
	ports "subtrack/internal/sheets"
)

var (
	_ ports.SubscriptionRepository = (*Store)(nil)
	_ ports.SubscriptionMirror     = (*Store)(nil)
)

type Store struct {
	mu     sync.Mutex
	items  map[int64]core.Subscription
	nextID int64
	path   string
	now    func() time.Time
}

func New(seed []core.Subscription) *Store {
	s := &Store{items: make(map[int64]core.Subscription), nextID: 1, now: time.Now}
	for _, sub := range seed {
		if sub.ID == 0 {
			sub.ID = s.nextID
		}
		s.items[sub.ID] = sub
		if sub.ID >= s.nextID {
			s.nextID = sub.ID + 1
		}
	}
	return s
}

// NewFromFile loads the JSON array at path. A missing file starts an empty
// store; every mutation is written back to path.
func NewFromFile(path string) (*Store, error) {
	var seed []core.Subscription
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	default:
		if err := json.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("decode data file %s: %w", path, err)
		}
	}
	s := New(seed)
	s.path = path
	return s, nil
}

func (s *Store) ListSubscriptions(_ context.Context) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

func (s *Store) GetSubscription(_ context.Context, id int64) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	return sub, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sub.ID = s.nextID
	s.nextID++
	sub.CreatedAt, sub.UpdatedAt = now, now
	// New subscriptions go to the end of the list.
	sub.DisplayOrder = 0
	for _, other := range s.items {
		if other.DisplayOrder >= sub.DisplayOrder {
			sub.DisplayOrder = other.DisplayOrder + 1
		}
	}
	s.items[sub.ID] = sub
	if err := s.saveLocked(); err != nil {
		delete(s.items, sub.ID)
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.items[sub.ID]
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, core.ErrNotFound)
	}
	sub.CreatedAt = old.CreatedAt
	sub.UpdatedAt = s.now()
	s.items[sub.ID] = sub
	if err := s.saveLocked(); err != nil {
		s.items[sub.ID] = old
		return core.Subscription{}, err
	}
	return sub, nil
}

// UpsertSubscription stores sub under its own id, keeping its timestamps.
func (s *Store) UpsertSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed := s.items[sub.ID]
	s.items[sub.ID] = sub
	if sub.ID >= s.nextID {
		s.nextID = sub.ID + 1
	}
	if err := s.saveLocked(); err != nil {
		if existed {
			s.items[sub.ID] = old
		} else {
			delete(s.items, sub.ID)
		}
		return err
	}
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.items[id]
	if !ok {
		return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	if err := s.saveLocked(); err != nil {
		s.items[id] = old
		return err
	}
	return nil
}

func (s *Store) SetDisplayOrder(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
		}
	}
	for i, id := range ids {
		sub := s.items[id]
		sub.DisplayOrder = i
		s.items[id] = sub
	}
	return s.saveLocked()
}

func (s *Store) sortedLocked() []core.Subscription {
	out := make([]core.Subscription, 0, len(s.items))
	for _, sub := range s.items {
		out = append(out, sub)
	}
	ports.SortByDisplayOrder(out)
	return out
}

// saveLocked writes the store to its file through a temporary file so a
// crash never leaves a truncated document behind.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save data file: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("save data file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save data file: %w", err)
	}
	return nil
}
