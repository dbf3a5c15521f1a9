package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstrumentKind string

const (
	InstrumentGiftCard     InstrumentKind = "GIFT_CARD"
	InstrumentDiscountCode InstrumentKind = "DISCOUNT_CODE"
)

type GiftCard struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement;<-:create"`
	Serial        string     `gorm:"column:serial;type:varchar(64);uniqueIndex;not null;<-:create"`
	CompanyID     *int64     `gorm:"column:company_id;index"`
	InitialAmount int64      `gorm:"column:initial_amount;not null;<-:create"`
	Balance       int64      `gorm:"column:balance;not null"`
	IssuedAt      time.Time  `gorm:"column:issued_at;not null"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	Active        bool       `gorm:"column:active;not null"`
	Blocked       bool       `gorm:"column:blocked;not null"`
	CustomerID    *int64     `gorm:"column:customer_id;index"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`

	Stores     []GiftCardStore    `gorm:"foreignKey:GiftCardID"`
	Categories []GiftCardCategory `gorm:"foreignKey:GiftCardID"`
}

func (GiftCard) TableName() string {
	return "gift_cards"
}

func (g *GiftCard) Scope() Scope {
	s := Scope{}
	for _, st := range g.Stores {
		s.StoreIDs = append(s.StoreIDs, st.StoreID)
	}
	for _, c := range g.Categories {
		s.CategoryIDs = append(s.CategoryIDs, c.CategoryID)
	}
	return s
}

func (g *GiftCard) Validity() Validity {
	return Validity{IssuedAt: g.IssuedAt, ExpiresAt: g.ExpiresAt, Active: g.Active, Blocked: g.Blocked}
}

type GiftCardStore struct {
	GiftCardID int64 `gorm:"column:gift_card_id;primaryKey"`
	StoreID    int64 `gorm:"column:store_id;primaryKey"`
}

type GiftCardCategory struct {
	GiftCardID int64 `gorm:"column:gift_card_id;primaryKey"`
	CategoryID int64 `gorm:"column:category_id;primaryKey"`
}

// DiscountCode is single-use: Used plays the role a balance plays for gift
// cards. Either Percentage or ConstantAmount defines the benefit; a positive
// MaxDiscountAmount caps it.
type DiscountCode struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement;<-:create"`
	Serial            string          `gorm:"column:serial;type:varchar(64);uniqueIndex;not null;<-:create"`
	CompanyID         *int64          `gorm:"column:company_id;index"`
	Percentage        decimal.Decimal `gorm:"column:percentage;type:decimal(5,2);not null;default:0"`
	ConstantAmount    int64           `gorm:"column:constant_amount;not null;default:0"`
	MaxDiscountAmount int64           `gorm:"column:max_discount_amount;not null;default:0"`
	IssuedAt          time.Time       `gorm:"column:issued_at;not null"`
	ExpiresAt         *time.Time      `gorm:"column:expires_at"`
	Active            bool            `gorm:"column:active;not null"`
	Blocked           bool            `gorm:"column:blocked;not null"`
	Used              bool            `gorm:"column:used;not null"`
	CustomerID        *int64          `gorm:"column:customer_id;index"`
	LastUsedAt        *time.Time      `gorm:"column:last_used_at"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`

	Stores     []DiscountCodeStore    `gorm:"foreignKey:DiscountCodeID"`
	Categories []DiscountCodeCategory `gorm:"foreignKey:DiscountCodeID"`
}

func (DiscountCode) TableName() string {
	return "discount_codes"
}

func (d *DiscountCode) Scope() Scope {
	s := Scope{}
	for _, st := range d.Stores {
		s.StoreIDs = append(s.StoreIDs, st.StoreID)
	}
	for _, c := range d.Categories {
		s.CategoryIDs = append(s.CategoryIDs, c.CategoryID)
	}
	return s
}

func (d *DiscountCode) Validity() Validity {
	return Validity{IssuedAt: d.IssuedAt, ExpiresAt: d.ExpiresAt, Active: d.Active, Blocked: d.Blocked}
}

type DiscountCodeStore struct {
	DiscountCodeID int64 `gorm:"column:discount_code_id;primaryKey"`
	StoreID        int64 `gorm:"column:store_id;primaryKey"`
}

type DiscountCodeCategory struct {
	DiscountCodeID int64 `gorm:"column:discount_code_id;primaryKey"`
	CategoryID     int64 `gorm:"column:category_id;primaryKey"`
}

// Scope is an instrument's allow-list. An empty list means unrestricted.
type Scope struct {
	StoreIDs    []int64
	CategoryIDs []int64
}

func (s Scope) AllowsStore(storeID int64) bool {
	return len(s.StoreIDs) == 0 || contains(s.StoreIDs, storeID)
}

func (s Scope) AllowsCategories(categoryIDs []int64) bool {
	if len(s.CategoryIDs) == 0 {
		return true
	}
	for _, id := range categoryIDs {
		if !contains(s.CategoryIDs, id) {
			return false
		}
	}
	return true
}

type Validity struct {
	IssuedAt  time.Time
	ExpiresAt *time.Time
	Active    bool
	Blocked   bool
}

func (v Validity) Expired(at time.Time) bool {
	return v.ExpiresAt != nil && !at.Before(*v.ExpiresAt)
}

func (v Validity) NotYetIssued(at time.Time) bool {
	return at.Before(v.IssuedAt)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
