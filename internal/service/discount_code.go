package service

import (
	"context"
	"errors"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type DiscountCodeService interface {
	Redeem(ctx context.Context, cmd RedeemCommand) (model.Transaction, error)
	Settle(ctx context.Context, cmd SettleRedeemCommand) (model.Transaction, error)
	CheckStatus(ctx context.Context, clientTxID string) (StatusResult, error)
}

type discountCodeService struct {
	txManager repository.TxManager
	codes     repository.DiscountCodeRepository
	txs       repository.TransactionRepository
	stores    repository.StoreRepository
	customers CustomerResolver
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewDiscountCodeService(txManager repository.TxManager, codes repository.DiscountCodeRepository, txs repository.TransactionRepository,
	stores repository.StoreRepository, customers CustomerResolver, log *zap.Logger, metrics *metrics.Metrics) DiscountCodeService {
	return &discountCodeService{
		txManager: txManager,
		codes:     codes,
		txs:       txs,
		stores:    stores,
		customers: customers,
		log:       log,
		metrics:   metrics,
	}
}

// ComputeDiscount returns the benefit code grants on orderAmount. A percentage
// takes precedence over a constant amount; the result is floored, capped by a
// positive MaxDiscountAmount and never exceeds the order itself.
func ComputeDiscount(code *model.DiscountCode, orderAmount int64) int64 {
	var discount int64
	if code.Percentage.IsPositive() {
		discount = code.Percentage.Mul(decimal.NewFromInt(orderAmount)).Div(hundred).Floor().IntPart()
	} else {
		discount = code.ConstantAmount
	}

	if code.MaxDiscountAmount > 0 && discount > code.MaxDiscountAmount {
		discount = code.MaxDiscountAmount
	}

	if discount > orderAmount {
		discount = orderAmount
	}

	return discount
}

func (s *discountCodeService) Redeem(ctx context.Context, cmd RedeemCommand) (model.Transaction, error) {
	start := time.Now()
	row, err := s.redeem(ctx, cmd)
	observe(s.log, s.metrics, "redeem", row.Amount, start, err,
		zap.String("client_transaction_id", cmd.ClientTransactionID),
		zap.String("serial", cmd.Serial),
		zap.Int64("store_id", cmd.StoreID),
		zap.Int64("order_amount", cmd.OrderAmount),
	)
	return row, err
}

func (s *discountCodeService) redeem(ctx context.Context, cmd RedeemCommand) (model.Transaction, error) {
	if cmd.OrderAmount <= 0 {
		return model.Transaction{}, NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	var row model.Transaction
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.Resolve(ctx, cmd.CustomerPhone, cmd.Provisioning)
		if err != nil {
			return err
		}

		store, err := s.stores.FindByID(ctx, cmd.StoreID)
		if err != nil {
			return lookupError(err, repository.ErrStoreNotFound, constants.ErrCodeStoreNotFound)
		}

		code, err := s.codes.FindBySerialForUpdate(ctx, cmd.Serial)
		if err != nil {
			return lookupError(err, repository.ErrDiscountCodeNotFound, constants.ErrCodeInstrumentNotFound)
		}

		now := time.Now().UTC()
		row = model.Transaction{
			TransactionID:       uuid.NewString(),
			ClientTransactionID: cmd.ClientTransactionID,
			Type:                model.TxTypeRedeem,
			Status:              model.TxStatusPending,
			InstrumentKind:      model.InstrumentDiscountCode,
			InstrumentID:        code.ID,
			Amount:              ComputeDiscount(code, cmd.OrderAmount),
			OrderAmount:         cmd.OrderAmount,
			CustomerID:          &customer.ID,
			StoreID:             &store.ID,
			PrincipalID:         cmd.PrincipalID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		if err := s.txs.Create(ctx, &row); err != nil {
			if errors.Is(err, repository.ErrTransactionExisted) {
				return NewServiceError(constants.ErrCodeDuplicateClientTxID, err)
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if err := checkValidity(code.Validity(), now); err != nil {
			return err
		}

		if err := checkScope(code.Scope(), store.ID, cmd.CategoryIDs); err != nil {
			return err
		}

		if err := checkOwnership(code.LastUsedAt, code.CustomerID, customer.ID); err != nil {
			return err
		}

		if row.Amount <= 0 {
			return NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
		}

		if err := s.codes.MarkRedeemed(ctx, code.ID, customer.ID, now); err != nil {
			if errors.Is(err, repository.ErrCodeAlreadyUsed) {
				return NewServiceError(constants.ErrCodeCodeAlreadyUsed, ErrDiscountAlreadyUsed)
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return row, nil
}

// Settle confirms or reverses a redeem. Reversal releases the code for reuse
// by its owner. Discount codes have no refund.
func (s *discountCodeService) Settle(ctx context.Context, cmd SettleRedeemCommand) (model.Transaction, error) {
	start := time.Now()
	row, err := s.settle(ctx, cmd)
	observe(s.log, s.metrics, "redeem_"+string(cmd.Type), row.Amount, start, err,
		zap.String("client_transaction_id", cmd.ClientTransactionID),
		zap.String("transaction_id", cmd.TransactionID),
		zap.String("serial", cmd.Serial),
	)
	return row, err
}

func (s *discountCodeService) settle(ctx context.Context, cmd SettleRedeemCommand) (model.Transaction, error) {
	if cmd.Type == Refund {
		return model.Transaction{}, NewServiceError(constants.ErrCodeUnsupportedType, ErrUnsupportedType)
	}

	rule, err := ruleFor(cmd.Type)
	if err != nil {
		return model.Transaction{}, err
	}

	var row model.Transaction
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		code, err := s.codes.FindBySerialForUpdate(ctx, cmd.Serial)
		if err != nil {
			return lookupError(err, repository.ErrDiscountCodeNotFound, constants.ErrCodeInstrumentNotFound)
		}

		redeem, err := s.txs.FindOpeningForUpdate(ctx, rule.lookup(model.TxTypeRedeem, cmd.ClientTransactionID, cmd.TransactionID))
		if err != nil {
			return lookupError(err, repository.ErrTransactionNotFound, constants.ErrCodeTransactionNotFound)
		}

		if redeem.InstrumentKind != model.InstrumentDiscountCode || redeem.InstrumentID != code.ID || redeem.OrderAmount != cmd.OrderAmount {
			return NewServiceError(constants.ErrCodeTransactionMismatch, ErrTransactionMismatch)
		}

		settlements, err := s.txs.FindSettlements(ctx, redeem.TransactionID)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		c := chainOf(settlements)
		if err := rule.guard(c); err != nil {
			return err
		}

		if rule.restoresValue() {
			if err := s.codes.Release(ctx, code.ID); err != nil {
				if errors.Is(err, repository.ErrNoRowsAffected) {
					return NewServiceError(constants.ErrCodeDataIntegrity, ErrDiscountNotInUse)
				}
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
		}

		row = settlementRow(rule, redeem, 0, cmd.OrderAmount, cmd.PrincipalID, time.Now().UTC())
		if err := s.txs.Create(ctx, &row); err != nil {
			if errors.Is(err, repository.ErrTransactionExisted) {
				return duplicateSettlementError(rule.txType())
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if err := s.txs.UpdateStatus(ctx, redeem.ID, rule.status()); err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return row, nil
}

func (s *discountCodeService) CheckStatus(ctx context.Context, clientTxID string) (StatusResult, error) {
	return chainStatus(ctx, s.txs, model.TxTypeRedeem, clientTxID)
}
