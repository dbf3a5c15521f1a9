package v1

import "time"

type DebitRequest struct {
	ClientTransactionID string  `json:"client_transaction_id" validate:"required,max=64"`
	Amount              int64   `json:"amount" validate:"required,min=1"`
	Serial              string  `json:"serial" validate:"required,max=64"`
	StoreID             int64   `json:"store_id" validate:"required,min=1"`
	CustomerPhone       string  `json:"customer_phone" validate:"required,phone"`
	OrderAmount         int64   `json:"order_amount" validate:"min=0"`
	CategoryIDs         []int64 `json:"category_ids" validate:"omitempty,dive,min=1"`
}

// SettleRequest locates the debit by transaction_id for confirm and refund,
// and by client_transaction_id for reverse.
type SettleRequest struct {
	ClientTransactionID string `json:"client_transaction_id" validate:"required_without=TransactionID,max=64"`
	TransactionID       string `json:"transaction_id" validate:"omitempty,uuid"`
	Amount              int64  `json:"amount" validate:"required,min=1"`
	Serial              string `json:"serial" validate:"required,max=64"`
	OrderAmount         int64  `json:"order_amount" validate:"min=0"`
}

type CreditRequest struct {
	ClientTransactionID string `json:"client_transaction_id" validate:"required,max=64"`
	Amount              int64  `json:"amount" validate:"required,min=1"`
	Serial              string `json:"serial" validate:"required,max=64"`
	StoreID             *int64 `json:"store_id" validate:"omitempty,min=1"`
}

type RedeemRequest struct {
	ClientTransactionID string  `json:"client_transaction_id" validate:"required,max=64"`
	Serial              string  `json:"serial" validate:"required,max=64"`
	StoreID             int64   `json:"store_id" validate:"required,min=1"`
	CustomerPhone       string  `json:"customer_phone" validate:"required,phone"`
	OrderAmount         int64   `json:"order_amount" validate:"required,min=1"`
	CategoryIDs         []int64 `json:"category_ids" validate:"omitempty,dive,min=1"`
}

type SettleRedeemRequest struct {
	ClientTransactionID string `json:"client_transaction_id" validate:"required_without=TransactionID,max=64"`
	TransactionID       string `json:"transaction_id" validate:"omitempty,uuid"`
	Serial              string `json:"serial" validate:"required,max=64"`
	OrderAmount         int64  `json:"order_amount" validate:"required,min=1"`
}

// SettlementReportRequest bounds are RFC 3339 timestamps; the window is [start, end).
type SettlementReportRequest struct {
	Start     string `query:"start" validate:"required"`
	End       string `query:"end" validate:"required"`
	CompanyID *int64 `query:"company_id" validate:"omitempty,min=1"`
	StoreID   *int64 `query:"store_id" validate:"omitempty,min=1"`
}

func (r SettlementReportRequest) window() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start.UTC(), end.UTC(), nil
}

type ReconcileRequest struct {
	Inspect bool `json:"inspect"`
}
