package repository

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiscountCodeRepository interface {
	Create(ctx context.Context, code *model.DiscountCode) error
	FindBySerial(ctx context.Context, serial string) (*model.DiscountCode, error)
	FindBySerialForUpdate(ctx context.Context, serial string) (*model.DiscountCode, error)
	MarkRedeemed(ctx context.Context, id int64, customerID int64, at time.Time) error
	Release(ctx context.Context, id int64) error
}

type discountCode struct {
	db *gorm.DB
}

func NewDiscountCodeRepository(db *gorm.DB) DiscountCodeRepository {
	return &discountCode{db: db}
}

func (d *discountCode) Create(ctx context.Context, code *model.DiscountCode) error {
	return GetTx(ctx, d.db).Create(code).Error
}

func (d *discountCode) FindBySerial(ctx context.Context, serial string) (*model.DiscountCode, error) {
	return d.find(GetTx(ctx, d.db), serial)
}

func (d *discountCode) FindBySerialForUpdate(ctx context.Context, serial string) (*model.DiscountCode, error) {
	return d.find(GetTx(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}), serial)
}

func (d *discountCode) find(db *gorm.DB, serial string) (*model.DiscountCode, error) {
	var code model.DiscountCode
	err := db.Preload("Stores").Preload("Categories").Where("serial = ?", serial).First(&code).Error
	if err != nil {
		return nil, notFound(err, ErrDiscountCodeNotFound)
	}
	return &code, nil
}

// MarkRedeemed flips used from false to true; a code that is already used is
// left untouched and ErrCodeAlreadyUsed is returned. The first redemption binds
// the owner.
func (d *discountCode) MarkRedeemed(ctx context.Context, id int64, customerID int64, at time.Time) error {
	result := GetTx(ctx, d.db).Model(&model.DiscountCode{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{
			"used":         true,
			"customer_id":  gorm.Expr("CASE WHEN last_used_at IS NULL THEN ? ELSE customer_id END", customerID),
			"last_used_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCodeAlreadyUsed
	}

	return nil
}

func (d *discountCode) Release(ctx context.Context, id int64) error {
	result := GetTx(ctx, d.db).Model(&model.DiscountCode{}).
		Where("id = ? AND used = ?", id, true).
		Updates(map[string]any{
			"used":       false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
