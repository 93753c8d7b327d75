package remoteok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://remoteok.com/api"

// Job is a raw posting as the RemoteOK API returns it. The first array
// element is a legal notice, not a job; it carries none of these fields
// and is filtered out by its empty position+description.
type Job struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Location    string `json:"location"`
	Date        string `json:"date"`
}

// Client fetches job postings from the RemoteOK public API. Requests
// are rate limited; RemoteOK blocks clients without a browser-like
// User-Agent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  "Mozilla/5.0 (compatible; jobpulse/1.0)",
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the current job list. The legal-notice element and
// entries with no position and no description are dropped.
func (c *Client) Fetch(ctx context.Context) ([]*Job, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch remoteok jobs")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("remoteok returned %d: %s", resp.StatusCode, string(body))
	}

	return DecodeJobs(resp.Body)
}

// DecodeJobs decodes a RemoteOK-shaped job array from r. It serves both
// the live API response and local JSON dumps used for seeding.
func DecodeJobs(r io.Reader) ([]*Job, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode job list")
	}

	jobs := make([]*Job, 0, len(raw))
	for i, msg := range raw {
		var job Job
		if err := json.Unmarshal(msg, &job); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("decode job at index %d", i))
		}
		if job.Position == "" && job.Description == "" {
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}
