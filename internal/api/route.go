package api

import (
	v1 "github.com/Behyna/giftledger/internal/api/v1"
	"github.com/Behyna/giftledger/internal/api/v1/middleware"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	prefixV1    = "api/v1/"
	serviceName = "giftledger-api"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler, m *metrics.Metrics, logger *zap.Logger) {
	app.Use(middleware.HealthCheckMiddleware(serviceName))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Use(middleware.HTTPMetricsMiddleware(m, logger))

	app.Get("/ping", handler.Pong)

	app.Post(prefixV1+"giftcards/debit", handler.Debit)
	app.Post(prefixV1+"giftcards/confirm", handler.Confirm)
	app.Post(prefixV1+"giftcards/reverse", handler.Reverse)
	app.Post(prefixV1+"giftcards/refund", handler.Refund)
	app.Post(prefixV1+"giftcards/credit", handler.Credit)
	app.Get(prefixV1+"giftcards/transactions/:clientTransactionId", handler.Status)
	app.Get(prefixV1+"giftcards/:serial", handler.Balance)
	app.Get(prefixV1+"giftcards/:serial/transactions", handler.History)

	app.Post(prefixV1+"discounts/redeem", handler.Redeem)
	app.Post(prefixV1+"discounts/confirm", handler.ConfirmRedeem)
	app.Post(prefixV1+"discounts/reverse", handler.ReverseRedeem)
	app.Get(prefixV1+"discounts/transactions/:clientTransactionId", handler.RedeemStatus)

	app.Get(prefixV1+"settlements", handler.SettlementReport)
	app.Post(prefixV1+"reconciliation/run", handler.Reconcile)
}
