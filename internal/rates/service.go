package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

const cacheKey = "rates-latest"

// Service serves the latest rates from a TTL cache backed by a Provider.
type Service struct {
	provider Provider
	cache    *cache.Cache
	now      func() time.Time
}

// NewService wraps provider with a cache holding results for ttl.
func NewService(provider Provider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		provider: provider,
		cache:    cache.New(ttl, 2*ttl),
		now:      time.Now,
	}
}

// Latest returns the cached rates, fetching them on a miss. It never fails:
// provider errors are logged and the fallback table is returned uncached so
// the next call retries.
func (s *Service) Latest(ctx context.Context) Rates {
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Rates)
	}

	r, err := s.provider.Fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Exchange rate fetch failed, using fallback rates", "error", err)
		return Fallback(s.now())
	}

	s.cache.Set(cacheKey, r, cache.DefaultExpiration)
	slog.DebugContext(ctx, "Exchange rates refreshed", "date", r.Date, "krw", r.Rates["KRW"])
	return r
}

// Invalidate drops the cached table.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}
