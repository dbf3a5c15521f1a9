package repository

import (
	"context"

	"github.com/Behyna/giftledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
	FindByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
}

type customer struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customer{db: db}
}

func (c *customer) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	return c.find(GetTx(ctx, c.db), phone)
}

// FindByPhoneForUpdate is a locking read, so inside a transaction it sees rows
// committed after the transaction's snapshot was taken.
func (c *customer) FindByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error) {
	return c.find(GetTx(ctx, c.db).Clauses(clause.Locking{Strength: "UPDATE"}), phone)
}

func (c *customer) find(db *gorm.DB, phone string) (*model.Customer, error) {
	var cu model.Customer
	if err := db.Where("phone = ?", phone).First(&cu).Error; err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return &cu, nil
}

func (c *customer) Create(ctx context.Context, cu *model.Customer) error {
	err := GetTx(ctx, c.db).Create(cu).Error
	if err != nil && isDuplicateKey(err) {
		return ErrCustomerExisted
	}
	return err
}

type StoreRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Store, error)
}

type store struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &store{db: db}
}

func (s *store) FindByID(ctx context.Context, id int64) (*model.Store, error) {
	var st model.Store
	if err := GetTx(ctx, s.db).Where("id = ?", id).First(&st).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	return &st, nil
}
