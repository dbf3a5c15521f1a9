package publishers

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/pkg/mq"
	"go.uber.org/zap"
)

// OrphanReview is the message a reviewer receives for a settlement row whose
// opening row is missing.
type OrphanReview struct {
	ID             int64                `json:"id"`
	TransactionID  string               `json:"transaction_id"`
	Type           model.TxType         `json:"type"`
	PreviousStatus model.TxStatus       `json:"previous_status"`
	InstrumentKind model.InstrumentKind `json:"instrument_kind"`
	InstrumentID   int64                `json:"instrument_id"`
	Amount         int64                `json:"amount"`
	DebitID        *int64               `json:"debit_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	DetectedAt     time.Time            `json:"detected_at"`
}

type reviewPublisher struct {
	publisher mq.Publisher
	queue     string
	logger    *zap.Logger
}

func NewReviewPublisher(cfg *config.Config, publisher mq.Publisher, logger *zap.Logger) service.ReviewPublisher {
	return &reviewPublisher{publisher: publisher, queue: cfg.Reconciliation.ReviewQueue, logger: logger}
}

func (r *reviewPublisher) PublishOrphan(ctx context.Context, row model.Transaction) error {
	msg := OrphanReview{
		ID:             row.ID,
		TransactionID:  row.TransactionID,
		Type:           row.Type,
		PreviousStatus: row.Status,
		InstrumentKind: row.InstrumentKind,
		InstrumentID:   row.InstrumentID,
		Amount:         row.Amount,
		DebitID:        row.DebitID,
		CreatedAt:      row.CreatedAt,
		DetectedAt:     time.Now().UTC(),
	}

	if err := mq.PublishJSON(ctx, r.publisher, r.queue, msg); err != nil {
		r.logger.Error("Failed to publish orphan for review",
			zap.Int64("id", row.ID),
			zap.String("queue", r.queue),
			zap.Error(err))
		return err
	}

	r.logger.Info("Orphan published for review", zap.Int64("id", row.ID), zap.String("queue", r.queue))
	return nil
}
