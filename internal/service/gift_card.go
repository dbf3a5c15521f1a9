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
	"go.uber.org/zap"
)

type GiftCardService interface {
	Debit(ctx context.Context, cmd DebitCommand) (model.Transaction, error)
	Settle(ctx context.Context, cmd SettleCommand) (model.Transaction, error)
	Credit(ctx context.Context, cmd CreditCommand) (model.Transaction, error)
	CheckStatus(ctx context.Context, clientTxID string) (StatusResult, error)
	History(ctx context.Context, serial string) ([]model.Transaction, error)
	Balance(ctx context.Context, serial string) (BalanceResult, error)
}

type giftCardService struct {
	txManager repository.TxManager
	cards     repository.GiftCardRepository
	txs       repository.TransactionRepository
	stores    repository.StoreRepository
	customers CustomerResolver
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewGiftCardService(txManager repository.TxManager, cards repository.GiftCardRepository, txs repository.TransactionRepository,
	stores repository.StoreRepository, customers CustomerResolver, log *zap.Logger, metrics *metrics.Metrics) GiftCardService {
	return &giftCardService{
		txManager: txManager,
		cards:     cards,
		txs:       txs,
		stores:    stores,
		customers: customers,
		log:       log,
		metrics:   metrics,
	}
}

func (s *giftCardService) Debit(ctx context.Context, cmd DebitCommand) (model.Transaction, error) {
	start := time.Now()
	debit, err := s.debit(ctx, cmd)
	observe(s.log, s.metrics, "debit", cmd.Amount, start, err,
		zap.String("client_transaction_id", cmd.ClientTransactionID),
		zap.String("serial", cmd.Serial),
		zap.Int64("store_id", cmd.StoreID),
		zap.Int64("amount", cmd.Amount),
	)
	return debit, err
}

func (s *giftCardService) debit(ctx context.Context, cmd DebitCommand) (model.Transaction, error) {
	if cmd.Amount <= 0 {
		return model.Transaction{}, NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	var debit model.Transaction
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.Resolve(ctx, cmd.CustomerPhone, cmd.Provisioning)
		if err != nil {
			return err
		}

		store, err := s.stores.FindByID(ctx, cmd.StoreID)
		if err != nil {
			return lookupError(err, repository.ErrStoreNotFound, constants.ErrCodeStoreNotFound)
		}

		card, err := s.cards.FindBySerialForUpdate(ctx, cmd.Serial)
		if err != nil {
			return lookupError(err, repository.ErrGiftCardNotFound, constants.ErrCodeInstrumentNotFound)
		}

		now := time.Now().UTC()
		debit = model.Transaction{
			TransactionID:       uuid.NewString(),
			ClientTransactionID: cmd.ClientTransactionID,
			Type:                model.TxTypeDebit,
			Status:              model.TxStatusPending,
			InstrumentKind:      model.InstrumentGiftCard,
			InstrumentID:        card.ID,
			Amount:              cmd.Amount,
			BalanceBefore:       card.Balance,
			OrderAmount:         cmd.OrderAmount,
			CustomerID:          &customer.ID,
			StoreID:             &store.ID,
			PrincipalID:         cmd.PrincipalID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		// A retried request stops here, before any rule sees the effects of the first attempt.
		if err := s.txs.Create(ctx, &debit); err != nil {
			if errors.Is(err, repository.ErrTransactionExisted) {
				return NewServiceError(constants.ErrCodeDuplicateClientTxID, err)
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if err := checkValidity(card.Validity(), now); err != nil {
			return err
		}

		if err := checkScope(card.Scope(), store.ID, cmd.CategoryIDs); err != nil {
			return err
		}

		if err := checkOwnership(card.LastUsedAt, card.CustomerID, customer.ID); err != nil {
			return err
		}

		if card.Balance < cmd.Amount {
			return NewServiceError(constants.ErrCodeInsufficientBalance, ErrInsufficientBalance)
		}

		if err := s.cards.AdjustBalance(ctx, card.ID, -cmd.Amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return NewServiceError(constants.ErrCodeInsufficientBalance, err)
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if err := s.cards.MarkUsed(ctx, card.ID, customer.ID, now); err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return debit, nil
}

// Settle appends a Confirmation, Reversal or Refund to a debit chain. The card
// row lock is taken before the debit row lock, the same order Debit uses.
func (s *giftCardService) Settle(ctx context.Context, cmd SettleCommand) (model.Transaction, error) {
	start := time.Now()
	row, err := s.settle(ctx, cmd)
	observe(s.log, s.metrics, "settle_"+string(cmd.Type), cmd.Amount, start, err,
		zap.String("client_transaction_id", cmd.ClientTransactionID),
		zap.String("transaction_id", cmd.TransactionID),
		zap.String("serial", cmd.Serial),
		zap.Int64("amount", cmd.Amount),
	)
	return row, err
}

func (s *giftCardService) settle(ctx context.Context, cmd SettleCommand) (model.Transaction, error) {
	rule, err := ruleFor(cmd.Type)
	if err != nil {
		return model.Transaction{}, err
	}

	if cmd.Amount <= 0 {
		return model.Transaction{}, NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	var row model.Transaction
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		card, err := s.cards.FindBySerialForUpdate(ctx, cmd.Serial)
		if err != nil {
			return lookupError(err, repository.ErrGiftCardNotFound, constants.ErrCodeInstrumentNotFound)
		}

		debit, err := s.txs.FindOpeningForUpdate(ctx, rule.lookup(model.TxTypeDebit, cmd.ClientTransactionID, cmd.TransactionID))
		if err != nil {
			return lookupError(err, repository.ErrTransactionNotFound, constants.ErrCodeTransactionNotFound)
		}

		if debit.InstrumentKind != model.InstrumentGiftCard || debit.InstrumentID != card.ID || debit.Amount != cmd.Amount {
			return NewServiceError(constants.ErrCodeTransactionMismatch, ErrTransactionMismatch)
		}

		settlements, err := s.txs.FindSettlements(ctx, debit.TransactionID)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		c := chainOf(settlements)
		if err := rule.guard(c); err != nil {
			return err
		}

		if rule.restoresValue() {
			if card.Balance+debit.Amount > card.InitialAmount {
				return NewServiceError(constants.ErrCodeAmountInconsistency, ErrAmountInconsistency)
			}

			if err := s.cards.AdjustBalance(ctx, card.ID, debit.Amount); err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return NewServiceError(constants.ErrCodeAmountInconsistency, err)
				}
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
		}

		row = settlementRow(rule, debit, card.Balance, cmd.OrderAmount, cmd.PrincipalID, time.Now().UTC())
		if err := s.txs.Create(ctx, &row); err != nil {
			if errors.Is(err, repository.ErrTransactionExisted) {
				return duplicateSettlementError(rule.txType())
			}
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if err := s.txs.UpdateStatus(ctx, debit.ID, rule.status()); err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		for _, linked := range rule.cascade(c) {
			if err := s.txs.UpdateStatus(ctx, linked.ID, rule.status()); err != nil {
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
		}

		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return row, nil
}

// Credit tops a card back up. The balance never exceeds the initial amount.
func (s *giftCardService) Credit(ctx context.Context, cmd CreditCommand) (model.Transaction, error) {
	start := time.Now()
	row, err := s.credit(ctx, cmd)
	observe(s.log, s.metrics, "credit", cmd.Amount, start, err,
		zap.String("client_transaction_id", cmd.ClientTransactionID),
		zap.String("serial", cmd.Serial),
		zap.Int64("amount", cmd.Amount),
	)
	return row, err
}

func (s *giftCardService) credit(ctx context.Context, cmd CreditCommand) (model.Transaction, error) {
	if cmd.Amount <= 0 {
		return model.Transaction{}, NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	var row model.Transaction
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if cmd.StoreID != nil {
			if _, err := s.stores.FindByID(ctx, *cmd.StoreID); err != nil {
				return lookupError(err, repository.ErrStoreNotFound, constants.ErrCodeStoreNotFound)
			}
		}

		card, err := s.cards.FindBySerialForUpdate(ctx, cmd.Serial)
		if err != nil {
			return lookupError(err, repository.ErrGiftCardNotFound, constants.ErrCodeInstrumentNotFound)
		}

		if !card.Active {
			return NewServiceError(constants.ErrCodeInstrumentInactive, ErrInstrumentInactive)
		}

		if card.Blocked {
			return NewServiceError(constants.ErrCodeInstrumentBlocked, ErrInstrumentBlocked)
		}

		now := time.Now().UTC()
		row = model.Transaction{
			TransactionID:       uuid.NewString(),
			ClientTransactionID: cmd.ClientTransactionID,
			Type:                model.TxTypeCredit,
			Status:              model.TxStatusConfirmed,
			InstrumentKind:      model.InstrumentGiftCard,
			InstrumentID:        card.ID,
			Amount:              cmd.Amount,
			BalanceBefore:       card.Balance,
			CustomerID:          card.CustomerID,
			StoreID:             cmd.StoreID,
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

		if err := s.cards.AdjustBalance(ctx, card.ID, cmd.Amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return NewServiceError(constants.ErrCodeInvalidAmount, err)
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

func (s *giftCardService) CheckStatus(ctx context.Context, clientTxID string) (StatusResult, error) {
	return chainStatus(ctx, s.txs, model.TxTypeDebit, clientTxID)
}

func (s *giftCardService) History(ctx context.Context, serial string) ([]model.Transaction, error) {
	card, err := s.cards.FindBySerial(ctx, serial)
	if err != nil {
		return nil, lookupError(err, repository.ErrGiftCardNotFound, constants.ErrCodeInstrumentNotFound)
	}

	rows, err := s.txs.ListByInstrument(ctx, model.InstrumentGiftCard, card.ID)
	if err != nil {
		s.log.Error("Failed to list gift card transactions", zap.String("serial", serial), zap.Error(err))
		return nil, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	return rows, nil
}

func (s *giftCardService) Balance(ctx context.Context, serial string) (BalanceResult, error) {
	card, err := s.cards.FindBySerial(ctx, serial)
	if err != nil {
		return BalanceResult{}, lookupError(err, repository.ErrGiftCardNotFound, constants.ErrCodeInstrumentNotFound)
	}

	s.log.Debug("Gift card balance retrieved",
		zap.String("serial", serial),
		zap.Int64("balance", card.Balance),
	)

	return BalanceResult{
		Serial:        card.Serial,
		InitialAmount: card.InitialAmount,
		Balance:       card.Balance,
		Active:        card.Active,
		Blocked:       card.Blocked,
		ExpiresAt:     card.ExpiresAt,
		LastUsedAt:    card.LastUsedAt,
	}, nil
}
