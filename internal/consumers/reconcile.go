package consumers

import (
	"context"
	"encoding/json"

	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/pkg/mq"
	"go.uber.org/zap"
)

type ReconcileConsumer interface {
	Consume(ctx context.Context) error
}

type reconcileConsumer struct {
	engine   service.ReconciliationEngine
	consumer mq.Consumer
	queue    string
	logger   *zap.Logger
}

func NewReconcileConsumer(cfg *config.Config, engine service.ReconciliationEngine, consumer mq.Consumer, logger *zap.Logger) ReconcileConsumer {
	return &reconcileConsumer{engine: engine, consumer: consumer, queue: cfg.Reconciliation.CommandQueue, logger: logger}
}

func (r *reconcileConsumer) Consume(ctx context.Context) error {
	return r.consumer.Consume(ctx, 1, r.queue, r.HandleMessage)
}

// HandleMessage runs one reconciliation per command. Storage and broker
// failures are returned as temporary so the command is redelivered.
func (r *reconcileConsumer) HandleMessage(ctx context.Context, body []byte) error {
	r.logger.Info("received reconcile command", zap.ByteString("body", body))

	var cmd service.ReconcileCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		r.logger.Warn("invalid reconcile command", zap.Error(err))
		return err
	}

	result, err := r.engine.Run(ctx, cmd.Inspect)
	if err != nil {
		if service.CodeOf(err) == constants.ErrCodeOperationFailed {
			return mq.Temporary(err)
		}
		return err
	}

	r.logger.Info("reconcile command handled",
		zap.Bool("inspect", result.Inspect),
		zap.Int("refunded", result.Refunded),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("reversed", result.Reversed),
		zap.Int("orphaned", result.Orphaned))

	return nil
}
