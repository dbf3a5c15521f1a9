package main

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/consumers"
	"github.com/Behyna/giftledger/internal/database"
	"github.com/Behyna/giftledger/internal/logger"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/publishers"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/pkg/mq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			NewLogger,
			NewConnectionDB,
			NewMetrics,
			NewMQConnection,
			NewMQPublisher,
			NewMQConsumer,

			repository.NewTransactionManager,
			repository.NewTransactionRepository,

			publishers.NewReviewPublisher,
			NewReconciliationEngine,

			consumers.NewReconcileConsumer,
		),
		fx.Invoke(runReconciler),
	).Run()
}

func runReconciler(cfg *config.Config, engine service.ReconciliationEngine, reconcileConsumer consumers.ReconcileConsumer,
	logger *zap.Logger, rabbit *mq.RabbitMQ, lc fx.Lifecycle,
) {
	appCtx, cancel := context.WithCancel(context.Background())
	queues := []string{cfg.Reconciliation.CommandQueue, cfg.Reconciliation.ReviewQueue}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology(queues); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}
			logger.Info("queues declared", zap.Strings("queues", queues))

			go func() {
				if err := reconcileConsumer.Consume(appCtx); err != nil {
					logger.Error("consumer exited", zap.Error(err))
				}
			}()

			go runTicker(appCtx, cfg.Reconciliation.Interval, engine, logger)

			logger.Info("reconciliation worker started", zap.Duration("interval", cfg.Reconciliation.Interval))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping reconciliation worker")
			cancel()
			return rabbit.Close()
		},
	})
}

func runTicker(ctx context.Context, interval time.Duration, engine service.ReconciliationEngine, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := engine.Run(ctx, false); err != nil {
				logger.Error("scheduled reconciliation failed", zap.Error(err))
			}
		}
	}
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log)
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return database.NewConnection(cfg, logger)
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

func NewMQConsumer(rabbitMQ *mq.RabbitMQ) (mq.Consumer, error) {
	return rabbitMQ.CreateConsumer()
}

func NewReconciliationEngine(cfg *config.Config, txManager repository.TxManager, txs repository.TransactionRepository,
	review service.ReviewPublisher, logger *zap.Logger, m *metrics.Metrics,
) service.ReconciliationEngine {
	return service.NewReconciliationEngine(txManager, txs, review, cfg.Reconciliation.BatchSize, logger, m)
}
