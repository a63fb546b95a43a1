// Package cache holds the in-process caches used by the API server: the
// per-category news cache and any other short-lived lookups.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is a keyed store with expiring entries.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}

// Managed is implemented by caches the Manager reports on and closes.
type Managed interface {
	Stats() (hits, misses uint64)
	Close()
}

// Manager logs hit ratios of every registered cache and closes them on Stop.
type Manager struct {
	mu      sync.Mutex
	caches  map[string]Managed
	stop    chan struct{}
	done    chan struct{}
	started bool
	once    sync.Once
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Managed),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a cache under name, replacing any cache with that name.
func (m *Manager) Register(name string, c Managed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// StartReporting logs cache statistics every interval until Stop.
func (m *Manager) StartReporting(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Report()
			case <-m.stop:
				return
			}
		}
	}()
}

// Report logs one line per registered cache and returns the summed counters.
func (m *Manager) Report() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, c := range m.caches {
		h, ms := c.Stats()
		hits += h
		misses += ms
		slog.Debug("Cache statistics", "cache", name, "hits", h, "misses", ms)
	}
	return hits, misses
}

// Stop ends the reporting loop and closes every registered cache. It is safe
// to call more than once, and before StartReporting.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		for _, c := range m.caches {
			c.Close()
		}
	})
}
