package newsapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	xhttp "AXII/pkg/http"
	"AXII/pkg/util"

	"golang.org/x/time/rate"
)

// ErrMissingKey is returned when neither the caller nor the config supplied a key.
var ErrMissingKey = errors.New("newsapi: api key is required")

// Article is one mention returned by the provider.
type Article struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Result mirrors the /v2/everything response.
type Result struct {
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Client queries a NewsAPI-compatible mention endpoint.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	limiter  *rate.Limiter
	pageSize int
}

type Option func(*Client)

// WithPageSize bounds the number of articles requested.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimit limits outgoing requests per second (burst 1). rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		pageSize: 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns mentions of artist published since from.
func (c *Client) Query(ctx context.Context, artist, apiKey string, from time.Time) (*Result, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("newsapi rate limit: %w", err)
		}
	}

	params := map[string][]string{
		"q":        {`"` + artist + `"`},
		"sortBy":   {"publishedAt"},
		"language": {"en"},
		"pageSize": {strconv.Itoa(c.pageSize)},
	}
	if !from.IsZero() {
		params["from"] = []string{util.Day(from)}
	}

	var res Result
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v2/everything",
		QueryParams: params,
		Headers:     map[string]string{"X-Api-Key": apiKey},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("newsapi query: %w", err)
	}
	if res.Status != "" && res.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", res.Code, res.Message)
	}
	return &res, nil
}
