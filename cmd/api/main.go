package main

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/api"
	v1 "github.com/Behyna/giftledger/internal/api/v1"
	"github.com/Behyna/giftledger/internal/api/validator"
	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/database"
	apperrors "github.com/Behyna/giftledger/internal/errors"
	"github.com/Behyna/giftledger/internal/logger"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/publishers"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/pkg/mq"
	playground "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const collectInterval = 15 * time.Second

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			NewLogger,
			NewConnectionDB,
			NewMetrics,
			NewMQConnection,
			NewMQPublisher,

			repository.NewTransactionManager,
			repository.NewGiftCardRepository,
			repository.NewDiscountCodeRepository,
			repository.NewTransactionRepository,
			repository.NewCustomerRepository,
			repository.NewStoreRepository,

			publishers.NewReviewPublisher,
			service.NewCustomerResolver,
			service.NewGiftCardService,
			service.NewDiscountCodeService,
			service.NewSettlementAggregator,
			NewReconciliationEngine,

			NewValidator,
			NewFiber,
			v1.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, m *metrics.Metrics, db *gorm.DB,
	rabbit *mq.RabbitMQ, logger *zap.Logger, lc fx.Lifecycle,
) {
	api.SetupRoutes(app, handler, m, logger)
	collector := metrics.NewCollector(m, logger, db)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{cfg.Reconciliation.ReviewQueue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			collector.Start(collectInterval)
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("http server exited", zap.Error(err))
				}
			}()

			logger.Info("api started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping api")
			collector.Stop()
			if err := app.ShutdownWithContext(ctx); err != nil {
				return err
			}
			return rabbit.Close()
		},
	})
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log)
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func NewMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.DefaultRegisterer)
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQPublisher(rabbitMQ *mq.RabbitMQ) (mq.Publisher, error) {
	return rabbitMQ.CreatePublisher()
}

func NewReconciliationEngine(cfg *config.Config, txManager repository.TxManager, txs repository.TransactionRepository,
	review service.ReviewPublisher, logger *zap.Logger, m *metrics.Metrics,
) service.ReconciliationEngine {
	return service.NewReconciliationEngine(txManager, txs, review, cfg.Reconciliation.BatchSize, logger, m)
}

func NewValidator(m *metrics.Metrics) (validator.IXValidator, error) {
	return validator.NewXValidator(playground.New(), m)
}

func NewFiber(logger *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: apperrors.ErrorHandler(logger),
	})
}
