package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Provider fetches the current rate table.
type Provider interface {
	Fetch(ctx context.Context) (Rates, error)
}

// HTTPProvider reads rates from an exchangerate-api compatible endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url. An empty url selects DefaultURL.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	Date  string         `json:"date"`
	Rates map[string]any `json:"rates"`
}

// Fetch keeps the tracked currencies only. A currency absent from the
// response, or with a value that is not a number, takes its fallback rate.
func (p *HTTPProvider) Fetch(ctx context.Context) (Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Rates{}, fmt.Errorf("failed to build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Rates{}, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rates{}, fmt.Errorf("exchange rate API returned status %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Rates{}, fmt.Errorf("failed to decode exchange rates: %w", err)
	}

	out := Rates{
		Base:   baseCurrency,
		Date:   body.Date,
		Rates:  make(map[string]float64, len(fallbackRates)),
		Source: SourceExternal,
	}
	for currency, def := range fallbackRates {
		out.Rates[currency] = floatOr(body.Rates[currency], def)
	}
	out.Rates[baseCurrency] = 1
	return out, nil
}

func floatOr(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}
