package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	Name  string `json:"name" validate:"required,max=10"`
	Limit int    `json:"limit" default:"20" validate:"min=1"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	errs := ValidateStruct(&addRequest{Limit: 1})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "name is required", errs[0].Message)

	errs = ValidateStruct(&addRequest{Name: "a much longer name", Limit: 1})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_MAX", errs[0].Code)
	assert.Equal(t, "10", errs[0].Params["max"])

	assert.Nil(t, ValidateStruct(&addRequest{Name: "ok", Limit: 1}))
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Cao Fei"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body addRequest
	errs := ReadAndValidateRequest(c, &body)
	assert.Nil(t, errs)
	assert.Equal(t, "Cao Fei", body.Name)
	assert.Equal(t, 20, body.Limit)
}

func TestReadAndValidateRequestBadJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	errs := ReadAndValidateRequest(c, &addRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	wrapped := errors.Join(errors.New("context"), NotFoundErrorf("artist %q not tracked", "x"))
	require.NoError(t, AppErrorResponse(c, wrapped))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Data[0].Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServerRoutes(t *testing.T) {
	srv := NewServer(Handlers{pingHandler{}, nil}, WithMetricsPath(""))
	e := srv.Echo()

	for _, path := range []string{"/healthz", "/ping"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientSendAndParse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "axii-test", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "missing" {
			http.Error(w, "nothing here", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"total":3}`))
	}))
	defer ts.Close()

	c := NewClient(WithTimeout(2*time.Second), WithUserAgent("axii-test"))
	ctx := context.Background()

	var out struct {
		Total int `json:"total"`
	}
	err := c.SendAndParse(ctx, &RequestOptions{
		Method:      MethodGet,
		URL:         ts.URL,
		QueryParams: map[string][]string{"q": {"ok"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)

	err = c.SendAndParse(ctx, &RequestOptions{
		Method:      MethodGet,
		URL:         ts.URL,
		QueryParams: map[string][]string{"q": {"missing"}},
	}, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "nothing here", se.Body)
}

func TestHealthzReportsFailingCheck(t *testing.T) {
	srv := NewServer(nil,
		WithMetricsPath(""),
		WithHealthChecks(
			HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }},
			HealthCheck{Name: "clickhouse", Check: func(context.Context) error { return errors.New("connection refused") }},
		),
	)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"redis": "ok", "clickhouse": "connection refused"}, body.Checks)
}
