package middleware

import (
	"strconv"
	"time"

	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const slowRequest = time.Second

// HTTPMetricsMiddleware collects HTTP request metrics
func HTTPMetricsMiddleware(m *metrics.Metrics, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		err := c.Next()
		if err != nil {
			// run the error handler now so the recorded status is the one the client sees
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				return handlerErr
			}
			err = nil
		}

		duration := time.Since(start)
		method := c.Method()
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())
		responseSize := len(c.Response().Body())

		m.RecordHTTPRequest(method, path, statusCode, duration, responseSize)

		if duration > slowRequest {
			logger.Warn("Slow HTTP request",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("status_code", statusCode),
				zap.Duration("duration", duration),
				zap.Int("response_size", responseSize),
			)
		}

		return err
	}
}

// HealthCheckMiddleware answers /health before routing.
func HealthCheckMiddleware(serviceName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"status":    "healthy",
				"timestamp": time.Now().Unix(),
				"service":   serviceName,
			})
		}
		return c.Next()
	}
}
