package service

import (
	"context"
	"errors"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"go.uber.org/zap"
)

// observe records the outcome of one ledger operation. Data integrity failures
// are logged at error level and counted separately.
func observe(log *zap.Logger, m *metrics.Metrics, op string, amount int64, start time.Time, err error, fields ...zap.Field) {
	duration := time.Since(start)
	code := resultCode(err)
	m.RecordLedgerOperation(op, code, amount, duration)

	fields = append(fields, zap.String("operation", op), zap.Duration("duration", duration))
	if err == nil {
		log.Info("Ledger operation completed", fields...)
		return
	}

	fields = append(fields, zap.String("code", code), zap.Error(err))
	switch constants.GetCategory(code) {
	case constants.CategoryDataIntegrity:
		m.RecordDataIntegrityError(code)
		log.Error("Ledger data integrity violation", fields...)
	case constants.CategoryInternal:
		log.Error("Ledger operation failed", fields...)
	default:
		log.Warn("Ledger operation rejected", fields...)
	}
}

func lookupError(err, sentinel error, code string) error {
	if errors.Is(err, sentinel) {
		return NewServiceError(code, err)
	}
	return NewServiceError(constants.ErrCodeOperationFailed, err)
}

func chainStatus(ctx context.Context, txs repository.TransactionRepository, opening model.TxType, clientTxID string) (StatusResult, error) {
	row, err := txs.FindOpening(ctx, repository.OpeningLookup{Type: opening, ClientTransactionID: clientTxID})
	if err != nil {
		return StatusResult{}, lookupError(err, repository.ErrTransactionNotFound, constants.ErrCodeTransactionNotFound)
	}

	settlements, err := txs.FindSettlements(ctx, row.TransactionID)
	if err != nil {
		return StatusResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	return StatusResult{Opening: *row, Settlements: settlements, Status: row.Status}, nil
}
