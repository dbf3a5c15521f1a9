package repository

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpeningLookup identifies the opening row of a chain either by the caller's
// idempotency key or by the server transaction id.
type OpeningLookup struct {
	Type                model.TxType
	ClientTransactionID string
	TransactionID       string
}

// SettlementQuery selects confirmed gift card debits in [Start, End).
type SettlementQuery struct {
	Start     time.Time
	End       time.Time
	CompanyID *int64
	StoreID   *int64
}

// SettlementRow is the projection the settlement aggregator folds over.
type SettlementRow struct {
	ID              int64
	TransactionID   string
	Amount          int64
	StoreID         int64
	IssuerCompanyID *int64
	UsageCompanyID  int64
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindOpening(ctx context.Context, lookup OpeningLookup) (*model.Transaction, error)
	FindOpeningForUpdate(ctx context.Context, lookup OpeningLookup) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error)
	FindSettlements(ctx context.Context, transactionID string) ([]model.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status model.TxStatus) error
	ListByInstrument(ctx context.Context, kind model.InstrumentKind, instrumentID int64) ([]model.Transaction, error)
	StreamSettlementRows(ctx context.Context, q SettlementQuery, fn func(SettlementRow) error) error
	FindPendingWithSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error)
	FindOrphanSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error)
}

type transaction struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transaction{db: db}
}

func (t *transaction) Create(ctx context.Context, tx *model.Transaction) error {
	err := GetTx(ctx, t.db).Create(tx).Error
	if err == nil {
		return nil
	}

	if isDuplicateKey(err) {
		return ErrTransactionExisted
	}

	return err
}

func (t *transaction) FindOpening(ctx context.Context, lookup OpeningLookup) (*model.Transaction, error) {
	return t.findOpening(GetTx(ctx, t.db), lookup)
}

func (t *transaction) FindOpeningForUpdate(ctx context.Context, lookup OpeningLookup) (*model.Transaction, error) {
	return t.findOpening(GetTx(ctx, t.db).Clauses(clause.Locking{Strength: "UPDATE"}), lookup)
}

func (t *transaction) findOpening(db *gorm.DB, lookup OpeningLookup) (*model.Transaction, error) {
	db = db.Where("type = ?", lookup.Type)
	switch {
	case lookup.ClientTransactionID != "":
		db = db.Where("client_transaction_id = ?", lookup.ClientTransactionID)
	case lookup.TransactionID != "":
		db = db.Where("transaction_id = ?", lookup.TransactionID)
	default:
		return nil, ErrTransactionNotFound
	}

	var tx model.Transaction
	if err := db.First(&tx).Error; err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return &tx, nil
}

func (t *transaction) FindByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error) {
	var tx model.Transaction
	err := GetTx(ctx, t.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&tx, id).Error
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return &tx, nil
}

func (t *transaction) FindSettlements(ctx context.Context, transactionID string) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := GetTx(ctx, t.db).
		Where("transaction_id = ? AND type IN ?", transactionID, model.SettlementTypes).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (t *transaction) UpdateStatus(ctx context.Context, id int64, status model.TxStatus) error {
	result := GetTx(ctx, t.db).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (t *transaction) ListByInstrument(ctx context.Context, kind model.InstrumentKind, instrumentID int64) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := GetTx(ctx, t.db).
		Where("instrument_kind = ? AND instrument_id = ?", kind, instrumentID).
		Order("created_at, id").
		Find(&rows).Error
	return rows, err
}

// StreamSettlementRows walks matching rows in id order without loading the
// whole window into memory.
func (t *transaction) StreamSettlementRows(ctx context.Context, q SettlementQuery, fn func(SettlementRow) error) error {
	db := GetTx(ctx, t.db).
		Table("transactions AS t").
		Select("t.id, t.transaction_id, t.amount, t.store_id, g.company_id AS issuer_company_id, s.company_id AS usage_company_id").
		Joins("JOIN gift_cards g ON g.id = t.instrument_id").
		Joins("JOIN stores s ON s.id = t.store_id").
		Where("t.instrument_kind = ? AND t.type = ? AND t.status = ?",
			model.InstrumentGiftCard, model.TxTypeDebit, model.TxStatusConfirmed).
		Where("t.created_at >= ? AND t.created_at < ?", q.Start, q.End)

	if q.CompanyID != nil {
		db = db.Where("(g.company_id = ? OR s.company_id = ?)", *q.CompanyID, *q.CompanyID)
	}

	if q.StoreID != nil {
		db = db.Where("t.store_id = ?", *q.StoreID)
	}

	rows, err := db.Order("t.id").Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row SettlementRow
		if err := db.ScanRows(rows, &row); err != nil {
			return err
		}

		if err := fn(row); err != nil {
			return err
		}
	}

	return rows.Err()
}

// FindPendingWithSettlements returns pending opening rows that already have at
// least one settlement row, in id order starting after afterID.
func (t *transaction) FindPendingWithSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := GetTx(ctx, t.db).
		Where("id > ? AND type IN ? AND status = ?", afterID, model.OpeningTypes, model.TxStatusPending).
		Where("EXISTS (SELECT 1 FROM transactions s WHERE s.transaction_id = transactions.transaction_id AND s.type IN ?)",
			model.SettlementTypes).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindOrphanSettlements returns settlement rows whose chain has no opening row
// and that have not been flagged yet.
func (t *transaction) FindOrphanSettlements(ctx context.Context, afterID int64, limit int) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := GetTx(ctx, t.db).
		Where("id > ? AND type IN ? AND status <> ?", afterID, model.SettlementTypes, model.TxStatusUnknown).
		Where("NOT EXISTS (SELECT 1 FROM transactions d WHERE d.transaction_id = transactions.transaction_id AND d.type IN ?)",
			model.OpeningTypes).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
