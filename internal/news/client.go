// Package news fetches Korean language news about subscription services.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"subtrack/internal/cache"
)

const (
	SourceNewsAPI  = "newsapi"
	SourceFallback = "fallback"

	DefaultURL      = "https://newsapi.org/v2/everything"
	DefaultPageSize = 5
	MaxPageSize     = 20

	unknownSource = "Unknown"
)

type ArticleSource struct {
	Name string `json:"name"`
}

type Article struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt string        `json:"publishedAt"`
	Source      ArticleSource `json:"source"`
}

// Response is what ByCategory returns for a category.
type Response struct {
	Success      bool      `json:"success"`
	Category     string    `json:"category"`
	Articles     []Article `json:"articles"`
	Source       string    `json:"source"`
	TotalResults int       `json:"totalResults,omitempty"`
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

// Client queries NewsAPI and caches successful responses per category and
// page size.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.TTLCache[Response]
	policy  *bluemonday.Policy
	now     func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	responses, err := cache.NewTTLCache[Response](cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		slog.Warn("News cache unavailable, every request goes upstream", "error", err)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   responses,
		policy:  bluemonday.StrictPolicy(),
		now:     time.Now,
	}
}

// Cache exposes the response cache so it can be reported on and closed.
func (c *Client) Cache() cache.Managed {
	return c.cache
}

// ByCategory returns news for category. It never fails: a missing API key,
// an API error or an empty Korean result all yield the canned articles.
func (c *Client) ByCategory(ctx context.Context, category string, pageSize int) Response {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = DefaultCategory
	}
	pageSize = clampPageSize(pageSize)

	key := category + ":" + strconv.Itoa(pageSize)
	if resp, ok := c.cache.Get(key); ok {
		return resp
	}

	if c.apiKey == "" {
		slog.DebugContext(ctx, "News API key not configured, serving fallback articles", "category", category)
		return c.fallback(category, pageSize)
	}

	articles, total, err := c.fetch(ctx, category, pageSize)
	if err != nil {
		slog.WarnContext(ctx, "News fetch failed, serving fallback articles", "category", category, "error", err)
		return c.fallback(category, pageSize)
	}
	if len(articles) == 0 {
		slog.InfoContext(ctx, "No Korean articles found, serving fallback articles", "category", category)
		return c.fallback(category, pageSize)
	}

	resp := Response{
		Success:      true,
		Category:     category,
		Articles:     articles,
		Source:       SourceNewsAPI,
		TotalResults: total,
	}
	c.cache.Set(key, resp)
	return resp
}

func (c *Client) fallback(category string, pageSize int) Response {
	return Response{
		Success:  true,
		Category: category,
		Articles: Fallback(category, pageSize, c.now()),
		Source:   SourceFallback,
	}
}

type apiResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      *struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Client) fetch(ctx context.Context, category string, pageSize int) ([]Article, int, error) {
	q := url.Values{}
	q.Set("q", QueryFor(category))
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("sortBy", "publishedAt")
	q.Set("language", "ko")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build news request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call news API: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("failed to decode news response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, 0, fmt.Errorf("news API error: status=%q message=%q", body.Status, body.Message)
	}

	articles := make([]Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		title := c.plain(a.Title)
		desc := c.plain(a.Description)
		if !ContainsKorean(title) && !ContainsKorean(desc) {
			continue
		}
		source := unknownSource
		if a.Source != nil && a.Source.Name != "" {
			source = a.Source.Name
		}
		articles = append(articles, Article{
			Title:       title,
			Description: desc,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      ArticleSource{Name: source},
		})
	}
	return articles, body.TotalResults, nil
}

// plain strips markup and decodes the entities bluemonday leaves behind.
func (c *Client) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
