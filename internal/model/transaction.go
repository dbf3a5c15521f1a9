package model

import "time"

type TxType string

const (
	TxTypeDebit        TxType = "DEBIT"
	TxTypeConfirmation TxType = "CONFIRMATION"
	TxTypeReversal     TxType = "REVERSAL"
	TxTypeRefund       TxType = "REFUND"
	TxTypeCredit       TxType = "CREDIT"
	TxTypeRedeem       TxType = "REDEEM"
)

// SettlementTypes are the row types that close or unwind a Debit/Redeem chain.
var SettlementTypes = []TxType{TxTypeConfirmation, TxTypeReversal, TxTypeRefund}

// OpeningTypes are the row types that start a settlement chain.
var OpeningTypes = []TxType{TxTypeDebit, TxTypeRedeem}

type TxStatus string

const (
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusReversed  TxStatus = "REVERSED"
	TxStatusRefunded  TxStatus = "REFUNDED"
	TxStatusUnknown   TxStatus = "UNKNOWN"
)

// Transaction is one row of the append-only ledger. Every row of a settlement
// chain shares TransactionID; settlement rows point back at the opening row
// through DebitID. A settlement row's ClientTransactionID is the chain's
// TransactionID, so the (type, client_transaction_id) index also admits at
// most one row of each settlement type per chain.
type Transaction struct {
	ID                  int64          `gorm:"column:id;primaryKey;autoIncrement;<-:create" json:"id"`
	TransactionID       string         `gorm:"column:transaction_id;type:char(36);index;not null;<-:create" json:"transaction_id"`
	ClientTransactionID string         `gorm:"column:client_transaction_id;type:varchar(64);not null;uniqueIndex:idx_tx_type_client,priority:2;<-:create" json:"client_transaction_id"`
	Type                TxType         `gorm:"column:type;type:varchar(16);not null;uniqueIndex:idx_tx_type_client,priority:1;<-:create" json:"type"`
	Status              TxStatus       `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	InstrumentKind      InstrumentKind `gorm:"column:instrument_kind;type:varchar(16);not null;index:idx_tx_instrument,priority:1;<-:create" json:"instrument_kind"`
	InstrumentID        int64          `gorm:"column:instrument_id;not null;index:idx_tx_instrument,priority:2;<-:create" json:"instrument_id"`
	Amount              int64          `gorm:"column:amount;not null;<-:create" json:"amount"`
	BalanceBefore       int64          `gorm:"column:balance_before;not null;<-:create" json:"balance_before"`
	OrderAmount         int64          `gorm:"column:order_amount;not null;default:0;<-:create" json:"order_amount"`
	CustomerID          *int64         `gorm:"column:customer_id;index;<-:create" json:"customer_id,omitempty"`
	StoreID             *int64         `gorm:"column:store_id;index;<-:create" json:"store_id,omitempty"`
	PrincipalID         string         `gorm:"column:principal_id;type:varchar(64);<-:create" json:"principal_id,omitempty"`
	DebitID             *int64         `gorm:"column:debit_id;index;<-:create" json:"debit_id,omitempty"`
	CreatedAt           time.Time      `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) IsOpening() bool {
	return t.Type == TxTypeDebit || t.Type == TxTypeRedeem
}
