package repository

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GiftCardRepository interface {
	Create(ctx context.Context, card *model.GiftCard) error
	FindBySerial(ctx context.Context, serial string) (*model.GiftCard, error)
	FindByID(ctx context.Context, id int64) (*model.GiftCard, error)
	FindBySerialForUpdate(ctx context.Context, serial string) (*model.GiftCard, error)
	AdjustBalance(ctx context.Context, id int64, delta int64) error
	MarkUsed(ctx context.Context, id int64, customerID int64, at time.Time) error
}

type giftCard struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) GiftCardRepository {
	return &giftCard{db: db}
}

func (g *giftCard) Create(ctx context.Context, card *model.GiftCard) error {
	return GetTx(ctx, g.db).Create(card).Error
}

func (g *giftCard) FindBySerial(ctx context.Context, serial string) (*model.GiftCard, error) {
	return g.find(GetTx(ctx, g.db), "serial = ?", serial)
}

func (g *giftCard) FindByID(ctx context.Context, id int64) (*model.GiftCard, error) {
	return g.find(GetTx(ctx, g.db), "id = ?", id)
}

// FindBySerialForUpdate locks the card row until the surrounding transaction
// ends. Concurrent transitions on the same card queue behind the lock.
func (g *giftCard) FindBySerialForUpdate(ctx context.Context, serial string) (*model.GiftCard, error) {
	db := GetTx(ctx, g.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return g.find(db, "serial = ?", serial)
}

func (g *giftCard) find(db *gorm.DB, query string, arg any) (*model.GiftCard, error) {
	var card model.GiftCard
	err := db.Preload("Stores").Preload("Categories").Where(query, arg).First(&card).Error
	if err != nil {
		return nil, notFound(err, ErrGiftCardNotFound)
	}
	return &card, nil
}

// AdjustBalance applies delta only if the result stays within
// [0, initial_amount]; otherwise nothing is written and ErrInsufficientBalance
// is returned.
func (g *giftCard) AdjustBalance(ctx context.Context, id int64, delta int64) error {
	result := GetTx(ctx, g.db).Model(&model.GiftCard{}).
		Where("id = ? AND balance + ? >= 0 AND balance + ? <= initial_amount", id, delta, delta).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

// MarkUsed stamps last_used_at. The first use binds customerID as the owner,
// replacing any owner preassigned to a never-used card.
func (g *giftCard) MarkUsed(ctx context.Context, id int64, customerID int64, at time.Time) error {
	result := GetTx(ctx, g.db).Model(&model.GiftCard{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_id":  gorm.Expr("CASE WHEN last_used_at IS NULL THEN ? ELSE customer_id END", customerID),
			"last_used_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
