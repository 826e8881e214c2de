package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a storefront account. Guest checkouts create one keyed by phone,
// so repeat guest orders link to a single identity.
type Customer struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Phone         string              `gorm:"column:phone;not null;uniqueIndex"`
	Email         *string             `gorm:"column:email;uniqueIndex"`
	PasswordHash  string              `gorm:"column:password_hash;not null"`
	WalletBalance decimal.Decimal     `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	IsGuest       bool                `gorm:"column:is_guest;not null;default:false"`
	Transactions  []WalletTransaction `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
