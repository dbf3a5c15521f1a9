package service

import (
	"errors"

	"github.com/Behyna/giftledger/internal/constants"
)

var (
	ErrInvalidPhone        = errors.New("INVALID_PHONE")
	ErrInvalidAmount       = errors.New("INVALID_AMOUNT")
	ErrCustomerMismatch    = errors.New("CUSTOMER_MISMATCH")
	ErrOwnerlessInstrument = errors.New("USED_INSTRUMENT_WITHOUT_OWNER")
	ErrScopeViolation      = errors.New("SCOPE_VIOLATION")
	ErrTransactionMismatch = errors.New("TRANSACTION_MISMATCH")
	ErrAlreadyConfirmed    = errors.New("ALREADY_CONFIRMED")
	ErrAlreadyReversed     = errors.New("ALREADY_REVERSED")
	ErrAlreadyRefunded     = errors.New("ALREADY_REFUNDED")
	ErrNotYetConfirmed     = errors.New("NOT_YET_CONFIRMED")
	ErrAmountInconsistency = errors.New("AMOUNT_INCONSISTENCY")
	ErrInstrumentInactive  = errors.New("INSTRUMENT_INACTIVE")
	ErrInstrumentBlocked   = errors.New("INSTRUMENT_BLOCKED")
	ErrInstrumentExpired   = errors.New("INSTRUMENT_EXPIRED")
	ErrUnsupportedType     = errors.New("UNSUPPORTED_SETTLEMENT_TYPE")
	ErrInsufficientBalance = errors.New("INSUFFICIENT_BALANCE")
	ErrDiscountAlreadyUsed = errors.New("CODE_ALREADY_USED")
	ErrDiscountNotInUse    = errors.New("PENDING_REDEEM_ON_UNUSED_CODE")
	ErrInvalidWindow       = errors.New("SETTLEMENT_WINDOW_EMPTY")
)

// Error carries a stable machine-readable code alongside the underlying cause.
type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	if e.Cause == nil {
		return e.Code
	}
	return e.Code + ": " + e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

func (e Error) Category() constants.Category {
	return constants.GetCategory(e.Code)
}

// CodeOf returns the service error code of err, or ErrCodeOperationFailed for
// anything that is not a service.Error.
func CodeOf(err error) string {
	var serviceErr Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return constants.ErrCodeOperationFailed
}

func resultCode(err error) string {
	if err == nil {
		return "success"
	}
	return CodeOf(err)
}
