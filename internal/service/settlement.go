package service

import (
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
)

type SettlementType string

const (
	Confirmation SettlementType = "CONFIRMATION"
	Reversal     SettlementType = "REVERSAL"
	Refund       SettlementType = "REFUND"
)

// chain is the settlement side of a debit, derived from the rows that point
// back at it. Nothing on the debit row references its children.
type chain struct {
	confirmation *model.Transaction
	reversal     *model.Transaction
	refund       *model.Transaction
}

func chainOf(rows []model.Transaction) chain {
	var c chain
	for i := range rows {
		switch rows[i].Type {
		case model.TxTypeConfirmation:
			c.confirmation = &rows[i]
		case model.TxTypeReversal:
			c.reversal = &rows[i]
		case model.TxTypeRefund:
			c.refund = &rows[i]
		}
	}
	return c
}

// settlementRule holds everything that differs between settlement types. Each
// type implements the whole interface, so a new type cannot be added without
// deciding its lookup key, its guard and whether it restores value.
type settlementRule interface {
	txType() model.TxType
	lookup(opening model.TxType, clientTxID, txID string) repository.OpeningLookup
	guard(c chain) error
	restoresValue() bool
	status() model.TxStatus
	// cascade lists existing chain rows that move to status() with the opening row.
	cascade(c chain) []*model.Transaction
}

func ruleFor(t SettlementType) (settlementRule, error) {
	switch t {
	case Confirmation:
		return confirmationRule{}, nil
	case Reversal:
		return reversalRule{}, nil
	case Refund:
		return refundRule{}, nil
	default:
		return nil, NewServiceError(constants.ErrCodeUnsupportedType, ErrUnsupportedType)
	}
}

// closingGuard admits at most one of Confirmation and Reversal per chain.
func closingGuard(c chain) error {
	if c.confirmation != nil {
		return NewServiceError(constants.ErrCodeAlreadyConfirmed, ErrAlreadyConfirmed)
	}
	if c.reversal != nil {
		return NewServiceError(constants.ErrCodeAlreadyReversed, ErrAlreadyReversed)
	}
	return nil
}

type confirmationRule struct{}

func (confirmationRule) txType() model.TxType { return model.TxTypeConfirmation }

func (confirmationRule) lookup(opening model.TxType, _, txID string) repository.OpeningLookup {
	return repository.OpeningLookup{Type: opening, TransactionID: txID}
}

func (confirmationRule) guard(c chain) error { return closingGuard(c) }

func (confirmationRule) restoresValue() bool { return false }

func (confirmationRule) status() model.TxStatus { return model.TxStatusConfirmed }

func (confirmationRule) cascade(chain) []*model.Transaction { return nil }

type reversalRule struct{}

func (reversalRule) txType() model.TxType { return model.TxTypeReversal }

func (reversalRule) lookup(opening model.TxType, clientTxID, _ string) repository.OpeningLookup {
	return repository.OpeningLookup{Type: opening, ClientTransactionID: clientTxID}
}

func (reversalRule) guard(c chain) error { return closingGuard(c) }

func (reversalRule) restoresValue() bool { return true }

func (reversalRule) status() model.TxStatus { return model.TxStatusReversed }

func (reversalRule) cascade(chain) []*model.Transaction { return nil }

type refundRule struct{}

func (refundRule) txType() model.TxType { return model.TxTypeRefund }

func (refundRule) lookup(opening model.TxType, _, txID string) repository.OpeningLookup {
	return repository.OpeningLookup{Type: opening, TransactionID: txID}
}

func (refundRule) guard(c chain) error {
	if c.refund != nil {
		return NewServiceError(constants.ErrCodeAlreadyRefunded, ErrAlreadyRefunded)
	}
	if c.reversal != nil {
		return NewServiceError(constants.ErrCodeAlreadyReversed, ErrAlreadyReversed)
	}
	if c.confirmation == nil {
		return NewServiceError(constants.ErrCodeNotYetConfirmed, ErrNotYetConfirmed)
	}
	return nil
}

func (refundRule) restoresValue() bool { return true }

func (refundRule) status() model.TxStatus { return model.TxStatusRefunded }

func (refundRule) cascade(c chain) []*model.Transaction {
	return []*model.Transaction{c.confirmation}
}

// duplicateSettlementError maps a unique-index hit on a settlement row to the
// conflict the guard would have reported.
func duplicateSettlementError(t model.TxType) error {
	switch t {
	case model.TxTypeConfirmation:
		return NewServiceError(constants.ErrCodeAlreadyConfirmed, ErrAlreadyConfirmed)
	case model.TxTypeReversal:
		return NewServiceError(constants.ErrCodeAlreadyReversed, ErrAlreadyReversed)
	default:
		return NewServiceError(constants.ErrCodeAlreadyRefunded, ErrAlreadyRefunded)
	}
}

// settlementRow builds the row a rule appends to opening's chain. It carries
// the opening row's customer, store and amount.
func settlementRow(rule settlementRule, opening *model.Transaction, balanceBefore, orderAmount int64, principalID string, at time.Time) model.Transaction {
	return model.Transaction{
		TransactionID:       opening.TransactionID,
		ClientTransactionID: opening.TransactionID,
		Type:                rule.txType(),
		Status:              rule.status(),
		InstrumentKind:      opening.InstrumentKind,
		InstrumentID:        opening.InstrumentID,
		Amount:              opening.Amount,
		BalanceBefore:       balanceBefore,
		OrderAmount:         orderAmount,
		CustomerID:          opening.CustomerID,
		StoreID:             opening.StoreID,
		PrincipalID:         principalID,
		DebitID:             &opening.ID,
		CreatedAt:           at,
		UpdatedAt:           at,
	}
}
