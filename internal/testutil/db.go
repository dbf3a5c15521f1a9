// Package testutil holds fixtures shared by repository and service tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Behyna/giftledger/internal/database"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the ledger schema. One
// connection is kept open so every statement sees the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	return db
}

type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) Company(name string) *model.Company {
	c := &model.Company{Name: name}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *Fixture) Store(companyID int64, name string) *model.Store {
	s := &model.Store{CompanyID: companyID, Name: name}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

func (f *Fixture) Customer(phone string) *model.Customer {
	c := &model.Customer{Phone: phone}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

type CardOption func(*model.GiftCard)

func WithCompany(id int64) CardOption {
	return func(g *model.GiftCard) { g.CompanyID = &id }
}

func WithStores(ids ...int64) CardOption {
	return func(g *model.GiftCard) {
		for _, id := range ids {
			g.Stores = append(g.Stores, model.GiftCardStore{StoreID: id})
		}
	}
}

func WithCategories(ids ...int64) CardOption {
	return func(g *model.GiftCard) {
		for _, id := range ids {
			g.Categories = append(g.Categories, model.GiftCardCategory{CategoryID: id})
		}
	}
}

func WithBalance(balance int64) CardOption {
	return func(g *model.GiftCard) { g.Balance = balance }
}

func WithExpiry(at time.Time) CardOption {
	return func(g *model.GiftCard) { g.ExpiresAt = &at }
}

func Blocked() CardOption {
	return func(g *model.GiftCard) { g.Blocked = true }
}

// WithOwner preassigns an owner without marking the card used.
func WithOwner(customerID int64) CardOption {
	return func(g *model.GiftCard) { g.CustomerID = &customerID }
}

func Inactive() CardOption {
	return func(g *model.GiftCard) { g.Active = false }
}

// GiftCard issues an active card with balance == initialAmount unless an
// option says otherwise.
func (f *Fixture) GiftCard(serial string, initialAmount int64, opts ...CardOption) *model.GiftCard {
	card := &model.GiftCard{
		Serial:        serial,
		InitialAmount: initialAmount,
		Balance:       initialAmount,
		IssuedAt:      time.Now().UTC().Add(-24 * time.Hour),
		Active:        true,
	}
	for _, opt := range opts {
		opt(card)
	}
	require.NoError(f.t, f.db.Create(card).Error)
	return card
}

type CodeOption func(*model.DiscountCode)

func WithPercentage(pct string, maxDiscount int64) CodeOption {
	return func(d *model.DiscountCode) {
		d.Percentage = decimal.RequireFromString(pct)
		d.MaxDiscountAmount = maxDiscount
	}
}

func WithConstantAmount(amount int64) CodeOption {
	return func(d *model.DiscountCode) { d.ConstantAmount = amount }
}

func WithCodeStores(ids ...int64) CodeOption {
	return func(d *model.DiscountCode) {
		for _, id := range ids {
			d.Stores = append(d.Stores, model.DiscountCodeStore{StoreID: id})
		}
	}
}

func WithCodeOwner(customerID int64) CodeOption {
	return func(d *model.DiscountCode) { d.CustomerID = &customerID }
}

func (f *Fixture) DiscountCode(serial string, opts ...CodeOption) *model.DiscountCode {
	code := &model.DiscountCode{
		Serial:   serial,
		IssuedAt: time.Now().UTC().Add(-24 * time.Hour),
		Active:   true,
	}
	for _, opt := range opts {
		opt(code)
	}
	require.NoError(f.t, f.db.Create(code).Error)
	return code
}

// Tx inserts a raw ledger row, bypassing the state machine. Used to build the
// inconsistent states reconciliation repairs.
func (f *Fixture) Tx(row model.Transaction) *model.Transaction {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.InstrumentKind == "" {
		row.InstrumentKind = model.InstrumentGiftCard
	}
	require.NoError(f.t, f.db.Create(&row).Error)
	return &row
}

func (f *Fixture) Reload(row *model.Transaction) *model.Transaction {
	var fresh model.Transaction
	require.NoError(f.t, f.db.First(&fresh, row.ID).Error)
	return &fresh
}

func (f *Fixture) ReloadCard(id int64) *model.GiftCard {
	var fresh model.GiftCard
	require.NoError(f.t, f.db.First(&fresh, id).Error)
	return &fresh
}

func (f *Fixture) ReloadCode(id int64) *model.DiscountCode {
	var fresh model.DiscountCode
	require.NoError(f.t, f.db.First(&fresh, id).Error)
	return &fresh
}
