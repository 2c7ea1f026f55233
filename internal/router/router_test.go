package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/config"
	"github.com/iliyamo/rental-availability/internal/handler"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRoutes(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil, nil, nil), "s")
	RegisterAvailability(e, handler.NewAvailabilityHandler(nil, availability.New(), nil), passthrough)
	RegisterOwner(e, handler.NewOwnerProductHandler(nil, nil), "s")

	var got []string
	for _, r := range e.Routes() {
		if r.Method == echo.RouteNotFound {
			continue
		}
		got = append(got, r.Method+" "+r.Path)
	}
	sort.Strings(got)
	assert.Equal(t, []string{
		"GET /healthz",
		"GET /v1/me",
		"GET /v1/owner/products/:id/reservations",
		"GET /v1/products/:id/availability",
		"POST /v1/auth/login",
		"POST /v1/auth/logout",
		"POST /v1/auth/refresh",
		"POST /v1/auth/register",
		"POST /v1/availability/compute",
		"PUT /v1/owner/products/:id/initial-stock",
	}, got)
}

func TestPanicIsLoggedWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	RegisterMiddleware(e, zap.New(core))
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusInternalServerError, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), fields["request_id"])
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	e := echo.New()
	RegisterOwner(e, handler.NewOwnerProductHandler(nil, nil), "s")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/products/1/reservations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
