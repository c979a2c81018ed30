package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	t.Run("generates an id when missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)

		header := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, header)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, header, string(body))
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "req-42", string(body))
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Logger(zerolog.New(&buf)))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "missing")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/test", line["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), line["status"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "latency_ms")

	buf.Reset()
	_, err = app.Test(httptest.NewRequest("GET", "/broken", nil))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(fiber.StatusNotFound), line["status"])
	assert.Equal(t, "warn", line["level"])
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(prom.Handler())
	app.Get("/projects/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for _, path := range []string{"/projects/1", "/projects/2", "/error", "/metrics"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(prom.requestCount.WithLabelValues("GET", "/projects/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.requestCount.WithLabelValues("GET", "/error", "400")))
	assert.Equal(t, 2, testutil.CollectAndCount(prom.requestCount), "/metrics is not counted")
	assert.Equal(t, 2, testutil.CollectAndCount(prom.requestDuration))
}

func TestPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)
	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
