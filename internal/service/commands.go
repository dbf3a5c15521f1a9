package service

import (
	"time"

	"github.com/Behyna/giftledger/internal/model"
)

type DebitCommand struct {
	ClientTransactionID string
	Amount              int64
	Serial              string
	StoreID             int64
	CustomerPhone       string
	OrderAmount         int64
	CategoryIDs         []int64
	PrincipalID         string
	Provisioning        ProvisioningPolicy
}

// SettleCommand closes or unwinds a debit. Confirmation and Refund locate the
// debit by TransactionID, Reversal by ClientTransactionID.
type SettleCommand struct {
	Type                SettlementType
	ClientTransactionID string
	TransactionID       string
	Amount              int64
	Serial              string
	OrderAmount         int64
	PrincipalID         string
}

type CreditCommand struct {
	ClientTransactionID string
	Amount              int64
	Serial              string
	StoreID             *int64
	PrincipalID         string
}

type RedeemCommand struct {
	ClientTransactionID string
	Serial              string
	StoreID             int64
	CustomerPhone       string
	OrderAmount         int64
	CategoryIDs         []int64
	PrincipalID         string
	Provisioning        ProvisioningPolicy
}

type SettleRedeemCommand struct {
	Type                SettlementType
	ClientTransactionID string
	TransactionID       string
	Serial              string
	OrderAmount         int64
	PrincipalID         string
}

type StatusResult struct {
	Opening     model.Transaction   `json:"opening"`
	Settlements []model.Transaction `json:"settlements"`
	Status      model.TxStatus      `json:"status"`
}

type BalanceResult struct {
	Serial        string     `json:"serial"`
	InitialAmount int64      `json:"initial_amount"`
	Balance       int64      `json:"balance"`
	Active        bool       `json:"active"`
	Blocked       bool       `json:"blocked"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
}

type SettlementReportQuery struct {
	Start     time.Time
	End       time.Time
	CompanyID *int64
	StoreID   *int64
}

type ReconcileCommand struct {
	Inspect bool `json:"inspect"`
}
