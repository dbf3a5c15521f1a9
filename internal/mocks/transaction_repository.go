package mocks

import (
	"context"

	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/stretchr/testify/mock"
)

type TransactionRepository struct {
	mock.Mock
}

func (t *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	args := t.Called(ctx, tx)
	return args.Error(0)
}

func (t *TransactionRepository) FindOpening(ctx context.Context, lookup repository.OpeningLookup) (*model.Transaction, error) {
	args := t.Called(ctx, lookup)
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (t *TransactionRepository) FindOpeningForUpdate(ctx context.Context, lookup repository.OpeningLookup) (*model.Transaction, error) {
	args := t.Called(ctx, lookup)
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (t *TransactionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error) {
	args := t.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (t *TransactionRepository) FindSettlements(ctx context.Context, transactionID string) ([]model.Transaction, error) {
	args := t.Called(ctx, transactionID)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (t *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status model.TxStatus) error {
	args := t.Called(ctx, id, status)
	return args.Error(0)
}

func (t *TransactionRepository) ListByInstrument(ctx context.Context, kind model.InstrumentKind, instrumentID int64) ([]model.Transaction, error) {
	args := t.Called(ctx, kind, instrumentID)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (t *TransactionRepository) StreamSettlementRows(ctx context.Context, q repository.SettlementQuery, fn func(repository.SettlementRow) error) error {
	args := t.Called(ctx, q, fn)
	if rows, ok := args.Get(0).([]repository.SettlementRow); ok {
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (t *TransactionRepository) FindPendingWithSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error) {
	args := t.Called(ctx, afterID, limit)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (t *TransactionRepository) FindOrphanSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error) {
	args := t.Called(ctx, afterID, limit)
	return args.Get(0).([]model.Transaction), args.Error(1)
}
