// Package rates fetches USD based exchange rates and converts subscription
// amounts into the reporting currency.
package rates

import (
	"math"
	"strings"
	"time"

	"subtrack/internal/core"
)

const (
	SourceExternal = "external_api"
	SourceFallback = "fallback"

	// DefaultURL is the public endpoint used when none is configured.
	DefaultURL = "https://api.exchangerate-api.com/v4/latest/USD"

	baseCurrency = "USD"
)

// Rates is a USD based rate table: Rates["KRW"] is the number of won per dollar.
type Rates struct {
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
	Source string             `json:"source"`
}

// fallbackRates is served whenever the provider cannot be reached. It also
// fills the currencies missing from a provider response.
var fallbackRates = map[string]float64{
	"USD": 1,
	"KRW": 1350,
	"EUR": 0.92,
	"JPY": 150,
	"CNY": 7.2,
}

// Fallback returns the static table dated today.
func Fallback(today time.Time) Rates {
	r := make(map[string]float64, len(fallbackRates))
	for k, v := range fallbackRates {
		r[k] = v
	}
	return Rates{
		Base:   baseCurrency,
		Date:   core.ToKey(today),
		Rates:  r,
		Source: SourceFallback,
	}
}

func (r Rates) krwPerUSD() float64 {
	if v := r.Rates[core.ReportingCurrency]; v > 0 {
		return v
	}
	return fallbackRates[core.ReportingCurrency]
}

// ToKRW converts amount into won. Currencies without a known rate are
// treated as dollars.
func ToKRW(amount float64, currency string, r Rates) float64 {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == core.ReportingCurrency {
		return amount
	}
	krw := r.krwPerUSD()
	if currency == baseCurrency {
		return math.Round(amount * krw)
	}
	if rate := r.Rates[currency]; rate > 0 {
		return math.Round(amount / rate * krw)
	}
	return math.Round(amount * krw)
}

// Change records a KRW amount that moved after a rate update.
type Change struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Currency  string  `json:"currency"`
	OldAmount float64 `json:"oldAmount"`
	NewAmount float64 `json:"newAmount"`
}

// Apply recomputes KRWAmount of every foreign-currency subscription in place.
// Only subscriptions that already had a positive KRW amount which changed
// are reported.
func Apply(subs []core.Subscription, r Rates) []Change {
	changes := make([]Change, 0)
	for i := range subs {
		s := &subs[i]
		if strings.EqualFold(s.Currency, core.ReportingCurrency) {
			continue
		}
		var old float64
		if s.KRWAmount != nil {
			old = *s.KRWAmount
		}
		next := ToKRW(s.Amount, s.Currency, r)
		if old > 0 && old != next {
			changes = append(changes, Change{
				ID:        s.ID,
				Name:      s.Name,
				Currency:  s.Currency,
				OldAmount: old,
				NewAmount: next,
			})
		}
		s.KRWAmount = core.Float64(next)
	}
	return changes
}
