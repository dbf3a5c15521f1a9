package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrGiftCardNotFound     = errors.New("GIFT_CARD_NOT_FOUND")
	ErrDiscountCodeNotFound = errors.New("DISCOUNT_CODE_NOT_FOUND")
	ErrTransactionNotFound  = errors.New("TRANSACTION_NOT_FOUND")
	ErrTransactionExisted   = errors.New("TRANSACTION_EXISTED")
	ErrCustomerNotFound     = errors.New("CUSTOMER_NOT_FOUND")
	ErrCustomerExisted      = errors.New("CUSTOMER_EXISTED")
	ErrStoreNotFound        = errors.New("STORE_NOT_FOUND")
	ErrInsufficientBalance  = errors.New("INSUFFICIENT_BALANCE")
	ErrCodeAlreadyUsed      = errors.New("CODE_ALREADY_USED")
	ErrNoRowsAffected       = errors.New("NO_ROWS_AFFECTED")
)

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
