package di

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"AXII/internal/domain/models"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/usecase"
	"AXII/pkg/config"
	applogger "AXII/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	news  atomic.Int64
	lots  atomic.Int64
	calls atomic.Int64
	srv   *httptest.Server
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/everything", func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","totalResults":%d,"articles":[]}`, u.news.Load())
	})
	mux.HandleFunc("/auction/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<html><body><span class="count">%d lots</span></body></html>`, u.lots.Load())
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func testConfig(t *testing.T, u *upstream) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.News.BaseURL = u.srv.URL
	cfg.News.APIKey = "server-key"
	cfg.News.RPS = 0
	cfg.Auction.Houses = []config.AuctionHouse{{
		Name:      "house",
		SearchURL: u.srv.URL + "/auction/search?q=%s",
		Selector:  "span.count",
	}}
	cfg.Images.Enabled = false
	return cfg
}

func provideTestSources(t *testing.T, cfg *config.Config) usecase.Sources {
	t.Helper()
	l := applogger.Nop()
	c, cleanup, err := ProvideSignalCache(cfg, l)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return ProvideSources(cfg, ProvideNewsClient(cfg), ProvideAuctionClient(cfg), c, l)
}

func TestProvideSourcesRegisterTwiceUsesSecondResults(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	reg := usecase.NewRegistry(provideTestSources(t, cfg))
	ctx := context.Background()

	u.news.Store(20)
	u.lots.Store(100)
	first, err := reg.Register(ctx, "Cao Fei", models.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, 10, first.Scores.CCI)
	assert.Equal(t, 20, first.Scores.RSMI)

	u.news.Store(180)
	u.lots.Store(400)
	second, err := reg.Register(ctx, "Cao Fei", models.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, 90, second.Scores.CCI)
	assert.Equal(t, 80, second.Scores.RSMI)

	assert.Equal(t, 1, reg.Len())
	got, ok := reg.Get("Cao Fei")
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestProvideSourcesRefreshAllReachesUpstream(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	reg := usecase.NewRegistry(provideTestSources(t, cfg))
	ctx := context.Background()

	u.news.Store(20)
	_, err := reg.Register(ctx, "Cao Fei", models.Credentials{})
	require.NoError(t, err)

	u.news.Store(60)
	refreshed, err := reg.RefreshAll(ctx, models.Credentials{})
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, 30, refreshed[0].Scores.CCI)
	assert.Equal(t, int64(2), u.calls.Load())
}

func TestProvideSourcesSeedingReusesCache(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	reg := usecase.NewRegistry(provideTestSources(t, cfg))
	seedCtx := domsvc.WithCachedSignals(context.Background())

	u.news.Store(20)
	_, err := reg.Register(seedCtx, "Cao Fei", models.Credentials{})
	require.NoError(t, err)

	u.news.Store(180)
	again, err := reg.Register(seedCtx, "Cao Fei", models.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, 10, again.Scores.CCI)
	assert.Equal(t, int64(1), u.calls.Load())
}
