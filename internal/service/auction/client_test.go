package auction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="search-header"><div class="search-results__count">1,240 Results</div></div>
<ul class="lots"><li>lot</li></ul>
</body></html>`

func TestParseCount(t *testing.T) {
	n, err := ParseCount([]byte(searchPage), "div.search-results__count")
	require.NoError(t, err)
	assert.Equal(t, 1240, n)
}

func TestParseCountSelectorMiss(t *testing.T) {
	_, err := ParseCount([]byte(searchPage), "span.missing")
	assert.ErrorIs(t, err, ErrNoCount)
}

func TestParseCountNoDigits(t *testing.T) {
	_, err := ParseCount([]byte(`<p class="n">No results</p>`), "p.n")
	assert.ErrorIs(t, err, ErrNoCount)
}

func TestCount(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := New(time.Second, "test-agent")
	n, err := c.Count(context.Background(), House{
		Name:      "phillips",
		SearchURL: srv.URL + "/search?search=%s",
		Selector:  "div.search-results__count",
	}, "Cao Fei")
	require.NoError(t, err)
	assert.Equal(t, 1240, n)
	assert.Equal(t, "Cao Fei", gotQuery)
}

func TestCountStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(time.Second, "").Count(context.Background(), House{
		Name: "phillips", SearchURL: srv.URL + "/?q=%s", Selector: "div",
	}, "Cao Fei")
	assert.ErrorContains(t, err, "403")
}

func TestSearchURLForKeepsLiteralPercents(t *testing.T) {
	h := House{SearchURL: "https://auctions.example/search?type=Modern%20Art&q=%s&page=1"}
	assert.Equal(t, "https://auctions.example/search?type=Modern%20Art&q=Cao+Fei&page=1", h.SearchURLFor("Cao Fei"))
	assert.Equal(t, "https://auctions.example/search?type=Modern%20Art&q=100%25+Pure&page=1", h.SearchURLFor("100% Pure"))
}
