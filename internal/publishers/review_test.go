package publishers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/mocks"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/publishers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReviewPublisher_PublishOrphan(t *testing.T) {
	cfg := &config.Config{Reconciliation: config.Reconciliation{ReviewQueue: "ledger.review"}}
	ctx := context.Background()

	row := model.Transaction{
		ID:             42,
		TransactionID:  "chain-42",
		Type:           model.TxTypeRefund,
		Status:         model.TxStatusRefunded,
		InstrumentKind: model.InstrumentGiftCard,
		InstrumentID:   3,
		Amount:         150,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("publishes to the review queue", func(t *testing.T) {
		publisher := &mocks.Publisher{}
		var body []byte
		publisher.On("Publish", ctx, "", "ledger.review", mock.Anything).
			Run(func(args mock.Arguments) { body = args.Get(3).([]byte) }).
			Return(nil)

		err := publishers.NewReviewPublisher(cfg, publisher, zap.NewNop()).PublishOrphan(ctx, row)

		require.NoError(t, err)
		publisher.AssertExpectations(t)

		var msg publishers.OrphanReview
		require.NoError(t, json.Unmarshal(body, &msg))
		assert.Equal(t, int64(42), msg.ID)
		assert.Equal(t, "chain-42", msg.TransactionID)
		assert.Equal(t, model.TxTypeRefund, msg.Type)
		assert.Equal(t, model.TxStatusRefunded, msg.PreviousStatus)
		assert.Equal(t, int64(150), msg.Amount)
		assert.False(t, msg.DetectedAt.IsZero())
	})

	t.Run("broker failure is returned", func(t *testing.T) {
		publisher := &mocks.Publisher{}
		publisher.On("Publish", ctx, "", "ledger.review", mock.Anything).Return(errors.New("channel closed"))

		err := publishers.NewReviewPublisher(cfg, publisher, zap.NewNop()).PublishOrphan(ctx, row)

		assert.EqualError(t, err, "channel closed")
	})
}
