// Package candidates is a read-only client for the candidate registry API.
package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://digitaldemocracy-iraq-production.up.railway.app"
	DefaultTimeout = 10 * time.Second

	// DefaultStatsTimeout bounds the homepage stats fetch.
	DefaultStatsTimeout = 5 * time.Second
)

// ErrNotFound is returned when the API has no record for the requested id.
var ErrNotFound = errors.New("candidates: not found")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("candidates: GET %s returned %d: %s", e.Path, e.Status, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// URL joins relPath onto the base URL.
func (c *Client) URL(relPath string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(relPath, "/")
}

// List returns one page of candidates matching f.
func (c *Client) List(ctx context.Context, f Filters) (*Page, error) {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("query", f.Query)
	set("search", f.Search)
	set("governorate", f.Governorate)
	set("province", f.Province)
	set("party", f.Party)
	set("constituency", f.Constituency)
	set("gender", f.Gender)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var page Page
	if err := c.get(ctx, "/api/candidates", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single candidate. Unknown ids return ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	var cand Candidate
	if err := c.get(ctx, "/api/candidates/"+url.PathEscape(id), nil, &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

// Search runs a free-text candidate search.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	var result []Candidate
	if err := c.get(ctx, "/api/candidates/search", url.Values{"q": {query}}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.get(ctx, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// StatsWithFallback fetches stats within timeout. On timeout or any error it
// returns zeroed stats stamped with the current time, together with the
// error that caused the fallback.
func (c *Client) StatsWithFallback(ctx context.Context, timeout time.Duration) (*Stats, error) {
	if timeout <= 0 {
		timeout = DefaultStatsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stats, err := c.Stats(ctx)
	if err == nil {
		return stats, nil
	}
	c.logger.Warn("Stats fetch failed, serving fallback", slog.String("error", err.Error()))
	return c.emptyStats(), err
}

func (c *Client) emptyStats() *Stats {
	return &Stats{
		LastUpdated:              c.now().UTC().Format(time.RFC3339),
		CandidatesPerGovernorate: []GovernorateCount{},
	}
}

func (c *Client) Governorates(ctx context.Context) ([]Governorate, error) {
	var result []Governorate
	if err := c.get(ctx, "/api/governorates", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Provinces returns province names as listed by the API.
func (c *Client) Provinces(ctx context.Context) ([]string, error) {
	var result []string
	if err := c.get(ctx, "/api/provinces", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Parties(ctx context.Context) ([]Party, error) {
	var result []Party
	if err := c.get(ctx, "/api/parties", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.URL(path)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// TotalPages returns how many pages of size limit cover total items.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ClampPage keeps page within [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	return page
}
