package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Behyna/giftledger/internal/api/v1/middleware"
	apperrors "github.com/Behyna/giftledger/internal/errors"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	app := fiber.New(fiber.Config{ErrorHandler: apperrors.ErrorHandler(zap.NewNop())})
	app.Use(middleware.HTTPMetricsMiddleware(m, zap.NewNop()))
	app.Get("/ok/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok/1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, 1.0, prom.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ok/:id", "200")))
	assert.Equal(t, 1.0, prom.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/fail", "500")))
	assert.Equal(t, 0.0, prom.ToFloat64(m.HTTPRequestsInFlight))
}

func TestHealthCheckMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.HealthCheckMiddleware("giftledger-api"))
	app.Get("/other", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/other", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
