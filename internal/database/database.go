package database

import (
	"context"
	"fmt"

	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/pkg/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}

func Models() []any {
	return []any{
		&model.Company{},
		&model.Store{},
		&model.Customer{},
		&model.GiftCard{},
		&model.GiftCardStore{},
		&model.GiftCardCategory{},
		&model.DiscountCode{},
		&model.DiscountCodeStore{},
		&model.DiscountCodeCategory{},
		&model.Transaction{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
