package auction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"AXII/pkg/util"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// ErrNoCount is returned when the page loaded but the selector found no number.
var ErrNoCount = errors.New("auction: result count not found")

// House is one auction search page. SearchURL holds a single %s for the escaped artist name.
type House struct {
	Name      string
	SearchURL string
	Selector  string
}

// SearchURLFor renders the search page address for artist. Other percent
// sequences in SearchURL are left as they are.
func (h House) SearchURLFor(artist string) string {
	return strings.Replace(h.SearchURL, "%s", url.QueryEscape(artist), 1)
}

// Client scrapes result counts from auction search pages.
type Client struct {
	http *resty.Client
}

func New(timeout time.Duration, userAgent string) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	if userAgent != "" {
		c.SetHeader("User-Agent", userAgent)
	}
	return &Client{http: c}
}

// Count fetches the house search page for artist and extracts the result count.
func (c *Client) Count(ctx context.Context, h House, artist string) (int, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(h.SearchURLFor(artist))
	if err != nil {
		return 0, fmt.Errorf("%s search: %w", h.Name, err)
	}
	if res.IsError() {
		return 0, fmt.Errorf("%s search: unexpected status %d", h.Name, res.StatusCode())
	}
	return ParseCount(res.Body(), h.Selector)
}

// ParseCount reads the first number inside the first node matching selector.
func ParseCount(body []byte, selector string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("parse html: %w", err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("%w: selector %q matched nothing", ErrNoCount, selector)
	}
	n, ok := util.FirstDigits(strings.TrimSpace(sel.Text()))
	if !ok {
		return 0, fmt.Errorf("%w: %q has no digits", ErrNoCount, strings.TrimSpace(sel.Text()))
	}
	return n, nil
}
