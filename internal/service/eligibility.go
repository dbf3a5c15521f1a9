package service

import (
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/model"
)

func checkValidity(v model.Validity, at time.Time) error {
	switch {
	case !v.Active:
		return NewServiceError(constants.ErrCodeInstrumentInactive, ErrInstrumentInactive)
	case v.Blocked:
		return NewServiceError(constants.ErrCodeInstrumentBlocked, ErrInstrumentBlocked)
	case v.Expired(at), v.NotYetIssued(at):
		return NewServiceError(constants.ErrCodeInstrumentExpired, ErrInstrumentExpired)
	}
	return nil
}

func checkScope(s model.Scope, storeID int64, categoryIDs []int64) error {
	if !s.AllowsStore(storeID) || !s.AllowsCategories(categoryIDs) {
		return NewServiceError(constants.ErrCodeScopeViolation, ErrScopeViolation)
	}
	return nil
}

// checkOwnership applies the binding rule: a never-used instrument accepts any
// customer and becomes theirs; a used one accepts only its owner. A used
// instrument without an owner means the ledger was corrupted earlier.
func checkOwnership(lastUsedAt *time.Time, ownerID *int64, customerID int64) error {
	if lastUsedAt == nil {
		return nil
	}
	if ownerID == nil {
		return NewServiceError(constants.ErrCodeDataIntegrity, ErrOwnerlessInstrument)
	}
	if *ownerID != customerID {
		return NewServiceError(constants.ErrCodeCustomerMismatch, ErrCustomerMismatch)
	}
	return nil
}
