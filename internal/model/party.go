package model

import "time"

type Company struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

type Store struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64     `gorm:"column:company_id;index;not null"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

type Customer struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Phone     string    `gorm:"column:phone;type:varchar(16);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}
