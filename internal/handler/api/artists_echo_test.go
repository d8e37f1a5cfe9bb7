package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AXII/internal/domain/models"
	"AXII/internal/service/ratelimit"
	"AXII/internal/usecase"
	xhttp "AXII/pkg/http"
	xlogger "AXII/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constSource struct {
	name string
	res  models.SignalResult
}

func (s constSource) Name() string { return s.name }
func (s constSource) Fetch(context.Context, string, models.Credentials) models.SignalResult {
	return s.res
}

func newTestRegistry(opts ...usecase.RegistryOption) *usecase.Registry {
	return usecase.NewRegistry(usecase.Sources{
		News:   constSource{"news", models.Fallback("no key")},
		Social: constSource{"social", models.SignalResult{Score: 70, Succeeded: true, Synthetic: true}},
		Market: constSource{"market", models.Measured(27, nil)},
	}, opts...)
}

func newTestEcho(reg *usecase.Registry, rl *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewArtistsEchoHandler(xlogger.Nop(), reg, rl).RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestRegisterAndGet(t *testing.T) {
	e := newTestEcho(newTestRegistry(), nil)

	rec, env := do(t, e, http.MethodPost, "/api/artists", `{"name":"Cao Fei"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a models.Artist
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "Cao Fei", a.Name)
	assert.Equal(t, models.Scores{CCI: 50, EES: 70, RSMI: 27}, a.Scores)
	assert.False(t, a.Signals.CCI.Succeeded)

	rec, _ = do(t, e, http.MethodPost, "/api/artists", `{"name":"Cao Fei"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "re-registration is an update")

	rec, env = do(t, e, http.MethodGet, "/api/artists/Cao%20Fei", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "Cao Fei", a.Name)

	rec, _ = do(t, e, http.MethodGet, "/api/artists/Nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEcho(newTestRegistry(), nil)

	rec, env := do(t, e, http.MethodPost, "/api/artists", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verrs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &verrs))
	require.NotEmpty(t, verrs)
	assert.Equal(t, "name", verrs[0].Field)
	assert.Equal(t, "ERR_REQUIRED", verrs[0].Code)

	rec, env = do(t, e, http.MethodPost, "/api/artists", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var appErrs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &appErrs))
	assert.Equal(t, "ERR_BAD_REQUEST", appErrs[0].Code)
	assert.Equal(t, "name", appErrs[0].Field)
}

func TestRegisterRateLimited(t *testing.T) {
	e := newTestEcho(newTestRegistry(), ratelimit.New(1, 0))

	rec, _ := do(t, e, http.MethodPost, "/api/artists", `{"name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/api/artists", `{"name":"B"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestListFilterAndChart(t *testing.T) {
	reg := newTestRegistry()
	for _, n := range []string{"A", "B", "C"} {
		_, err := reg.Register(context.Background(), n, models.Credentials{})
		require.NoError(t, err)
	}
	e := newTestEcho(reg, nil)

	_, env := do(t, e, http.MethodGet, "/api/artists", "")
	var list struct {
		Rows  []models.Artist `json:"rows"`
		Total int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 3, list.Total)

	_, env = do(t, e, http.MethodGet, "/api/artists?names=C,%20A,X", "")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Rows, 2)
	assert.Equal(t, "A", list.Rows[0].Name)
	assert.Equal(t, "C", list.Rows[1].Name)

	rec, env := do(t, e, http.MethodGet, "/api/chart?names=B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chart models.RadarChart
	require.NoError(t, json.Unmarshal(env.Data, &chart))
	assert.Equal(t, []string{"CCI", "EES", "RSMI"}, chart.Axes)
	assert.Equal(t, []models.RadarSeries{{Name: "B", Values: [3]int{50, 70, 27}}}, chart.Series)
}

func TestRemoveAndRefresh(t *testing.T) {
	reg := newTestRegistry()
	_, _ = reg.Register(context.Background(), "A", models.Credentials{})
	_, _ = reg.Register(context.Background(), "B", models.Credentials{})
	e := newTestEcho(reg, nil)

	rec, _ := do(t, e, http.MethodDelete, "/api/artists/A", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = do(t, e, http.MethodDelete, "/api/artists/A", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := do(t, e, http.MethodPost, "/api/artists/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)
}

func TestHistoryDisabledIsUnavailable(t *testing.T) {
	e := newTestEcho(newTestRegistry(), nil)
	rec, _ := do(t, e, http.MethodGet, "/api/artists/A/history?limit=5", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/artists/A/history?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamSendsSnapshotThenEvents(t *testing.T) {
	hub := NewHub(xlogger.Nop())
	reg := newTestRegistry(usecase.WithBroadcaster(hub))
	_, _ = reg.Register(context.Background(), "A", models.Credentials{})

	e := echo.New()
	NewStreamEchoHandler(hub, reg, xlogger.Nop()).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev models.RegistryEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventUpsert, ev.Type)
	assert.Equal(t, "A", ev.Name)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, reg.Remove(context.Background(), "A"))

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.RegistryEvent{Type: models.EventRemove, Name: "A"}, ev)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(xlogger.Nop())
	s := hub.subscribe()
	for range sendBuffer + 1 {
		hub.Broadcast(models.RegistryEvent{Type: models.EventRemove, Name: "x"})
	}
	assert.Zero(t, hub.Subscribers())
	n := 0
	for range s.send {
		n++
	}
	assert.Equal(t, sendBuffer, n)
	hub.unsubscribe(s)
}
